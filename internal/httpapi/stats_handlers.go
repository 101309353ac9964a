package httpapi

import (
	"net/http"
	"time"

	"jobportal-engine/internal/store"
)

type StatsHandler struct {
	Sources *store.SourceStore
	Scraped *store.ScrapedJobStore
}

// Stats is the dashboard rollup. Each count is an independent query; a failure
// in any one fails the whole response rather than reporting partial numbers.
func (h StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	type counter struct {
		name string
		fn   func() (int64, error)
	}
	out := map[string]int64{}
	counters := []counter{
		{"totalSources", func() (int64, error) { return h.Sources.CountAll(ctx) }},
		{"activeSources", func() (int64, error) { return h.Sources.CountActive(ctx) }},
		{"sourcesWithErrors", func() (int64, error) { return h.Sources.CountWithErrors(ctx) }},
		{"totalScrapedJobs", func() (int64, error) { return h.Scraped.CountAll(ctx) }},
		{"activeScrapedJobs", func() (int64, error) { return h.Scraped.CountActive(ctx) }},
		{"importedJobs", func() (int64, error) { return h.Scraped.CountImported(ctx) }},
		{"jobsScrapedLastWeek", func() (int64, error) {
			return h.Scraped.CountSeenSince(ctx, time.Now().UTC().AddDate(0, 0, -7))
		}},
	}
	for _, c := range counters {
		n, err := c.fn()
		if err != nil {
			WriteError(w, r, 500, "db_error", err.Error())
			return
		}
		out[c.name] = n
	}
	writeJSON(w, out)
}
