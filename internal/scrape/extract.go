package scrape

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobportal-engine/internal/domain"
)

// Extractor turns a parsed career page into candidate ScrapedJob records
// using the source's CSS selectors. The fetcher is only used for the
// best-effort detail-page description fallback.
type Extractor struct {
	Fetcher *Fetcher
	Log     *zap.SugaredLogger
}

// Extract applies the list selector and then the per-field selectors to each
// listing element. Listings without a title are discarded. A listing with a
// description selector that doesn't match inline triggers one extra fetch of
// the listing's own URL; failures there are logged and tolerated.
func (e *Extractor) Extract(ctx context.Context, doc *goquery.Document, src *domain.CompanySource) []domain.ScrapedJob {
	sel := src.Selectors
	var out []domain.ScrapedJob

	doc.Find(sel.JobList).Each(func(_ int, listing *goquery.Selection) {
		job := domain.ScrapedJob{
			SourceID: src.ID,
			Company:  src.CompanyName,
		}

		job.Title = firstText(listing, sel.Title)
		job.Location = firstText(listing, sel.Location)
		job.JobType = firstText(listing, sel.Type)
		job.Salary = firstText(listing, sel.Salary)
		job.Requirements = firstText(listing, sel.Requirements)

		if sel.URL != "" {
			if href, ok := listing.Find(sel.URL).First().Attr("href"); ok {
				abs := resolveURL(src.CareerPageURL, strings.TrimSpace(href))
				job.ExternalURL = abs
				job.JobURL = abs
				job.ExternalID = externalIDFromURL(abs)
			}
		}

		if sel.Description != "" {
			job.Description = firstText(listing, sel.Description)
			if job.Description == "" && job.ExternalURL != "" {
				job.Description = e.fetchDetailDescription(ctx, job.ExternalURL, sel.Description)
			}
		}

		if job.Title == "" {
			return
		}

		if raw, err := goquery.OuterHtml(listing); err == nil {
			job.RawData = truncateRunes(raw, maxRawDataLen)
		}

		out = append(out, job)
	})

	return out
}

func (e *Extractor) fetchDetailDescription(ctx context.Context, detailURL, descSelector string) string {
	doc, err := e.Fetcher.GetDocument(ctx, detailURL)
	if err != nil {
		e.Log.Warnw("detail page fetch failed", "url", detailURL, "err", err)
		return ""
	}
	return firstText(doc.Selection, descSelector)
}

// firstText applies a selector within a scope and returns the first match's
// trimmed text. Empty selector means the field isn't configured.
func firstText(scope *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return cleanText(scope.Find(selector).First().Text())
}

// maxRawDataLen bounds the stored listing markup so one bloated page can't
// balloon the database.
const maxRawDataLen = 2000

func truncateRunes(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// resolveURL makes a relative href absolute against the career page URL.
func resolveURL(base, href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

// Job-ID patterns commonly found in career page URLs, tried in order.
var externalIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`job[/-]?id[=/-]([a-zA-Z0-9]+)`),
	regexp.MustCompile(`job[s]?/([a-zA-Z0-9]+)`),
	regexp.MustCompile(`posting[s]?/([a-zA-Z0-9]+)`),
	regexp.MustCompile(`id=([a-zA-Z0-9]+)`),
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// externalIDFromURL extracts a site-native job ID from a URL: first pattern
// match wins, then the last non-empty path segment stripped to alphanumerics,
// then a generated token so the field is never empty.
func externalIDFromURL(u string) string {
	for _, p := range externalIDPatterns {
		if m := p.FindStringSubmatch(u); m != nil {
			return m[1]
		}
	}

	parts := strings.Split(u, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if seg := nonAlnum.ReplaceAllString(parts[i], ""); seg != "" {
			return seg
		}
	}

	return uuid.NewString()
}
