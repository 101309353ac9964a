package scrape

import (
	"crypto/md5"
	"encoding/base64"
	"strings"
)

const fingerprintDescLen = 500

// Fingerprint derives the content hash that identifies a scraped job across
// runs. Only fields that describe the posting itself participate; URLs and
// external IDs are excluded so tracking-parameter churn doesn't create new
// identities. The description is cut to its first 500 runes so trailing
// boilerplate edits don't either.
func Fingerprint(title, location, jobType, description string) string {
	desc := truncateRunes(description, fingerprintDescLen)
	content := strings.Join([]string{title, location, jobType, desc}, "|")
	sum := md5.Sum([]byte(content))
	return base64.StdEncoding.EncodeToString(sum[:])
}
