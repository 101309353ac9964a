package scrape

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher wraps the HTTP client used for career pages: fixed timeout, a
// browser-like user agent, and per-host pacing.
type Fetcher struct {
	hc      *http.Client
	ua      string
	limiter *HostLimiter
}

func NewFetcher(timeout time.Duration, userAgent string, reqPerSec float64, burst int) *Fetcher {
	return &Fetcher{
		hc:      &http.Client{Timeout: timeout},
		ua:      userAgent,
		limiter: NewHostLimiter(reqPerSec, burst),
	}
}

// GetDocument fetches url and parses the body. The client timeout bounds the
// whole call; there is no retry here, the schedule is the retry policy.
func (f *Fetcher) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	if err := f.limiter.WaitURL(ctx, url); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.ua)

	res, err := f.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("get %s: status %d", url, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}
