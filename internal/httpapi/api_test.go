package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/events"
	"jobportal-engine/internal/metrics"
	"jobportal-engine/internal/scrape"
	"jobportal-engine/internal/store"
)

type stubRunner struct {
	res scrape.Result
	err error
}

func (s stubRunner) ScrapeSource(context.Context, *domain.CompanySource) (scrape.Result, error) {
	return s.res, s.err
}

func newTestAPI(t *testing.T, runner SourceRunner) (http.Handler, *store.SourceStore, *store.ScrapedJobStore) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))

	sources := &store.SourceStore{DB: db.Pool}
	scraped := &store.ScrapedJobStore{DB: db.Pool}
	board := &store.JobStore{DB: db.Pool}
	log := zap.NewNop().Sugar()

	var tickStatus atomic.Value
	tickStatus.Store(TickStatus{})

	mux := NewMux(Deps{
		Sources:         sources,
		Scraped:         scraped,
		Runner:          runner,
		Importer:        &scrape.Importer{Scraped: scraped, Board: board, Log: log},
		Hub:             events.NewHub(),
		Log:             log,
		TickStatus:      &tickStatus,
		MetricsRegistry: metrics.New().Registry,
	})
	return Chain(mux, RequestID, Recover(log)), sources, scraped
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func validSourcePayload() map[string]any {
	return map[string]any{
		"companyName":   "Acme",
		"careerPageUrl": "https://acme.test/careers",
		"frequency":     "DAILY",
		"active":        true,
		"selectors":     map[string]any{"jobList": ".job", "title": ".title"},
	}
}

func TestSourceCRUD(t *testing.T) {
	api, _, _ := newTestAPI(t, stubRunner{})

	rec := doJSON(t, api, http.MethodPost, "/sources", validSourcePayload())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.CompanySource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	// Same URL again conflicts.
	rec = doJSON(t, api, http.MethodPost, "/sources", validSourcePayload())
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Invalid payload is rejected with the problem list.
	bad := validSourcePayload()
	bad["careerPageUrl"] = "not-a-url"
	rec = doJSON(t, api, http.MethodPost, "/sources", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "careerPageUrl")

	rec = doJSON(t, api, http.MethodGet, "/sources", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.CompanySource
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	update := validSourcePayload()
	update["companyName"] = "Acme GmbH"
	rec = doJSON(t, api, http.MethodPut, "/sources/1", update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Acme GmbH")

	rec = doJSON(t, api, http.MethodDelete, "/sources/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, api, http.MethodGet, "/sources/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTriggerScrape(t *testing.T) {
	api, _, _ := newTestAPI(t, stubRunner{res: scrape.Result{Success: true, JobsScraped: 4, NewJobs: 1}})
	doJSON(t, api, http.MethodPost, "/sources", validSourcePayload())

	rec := doJSON(t, api, http.MethodPost, "/sources/1/scrape", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res scrape.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 4, res.JobsScraped)

	rec = doJSON(t, api, http.MethodPost, "/sources/999/scrape", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTriggerScrapeBusy(t *testing.T) {
	api, _, _ := newTestAPI(t, stubRunner{err: scrape.ErrScrapeInProgress})
	doJSON(t, api, http.MethodPost, "/sources", validSourcePayload())

	rec := doJSON(t, api, http.MethodPost, "/sources/1/scrape", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUnimportedAndImport(t *testing.T) {
	api, sources, scraped := newTestAPI(t, stubRunner{})
	ctx := context.Background()

	src := &domain.CompanySource{
		CompanyName: "Acme", CareerPageURL: "https://acme.test/careers",
		Frequency: domain.FrequencyDaily, Active: true,
		Selectors: domain.Selectors{JobList: ".job"},
	}
	require.NoError(t, sources.Create(ctx, src))
	j := &domain.ScrapedJob{SourceID: src.ID, Title: "Engineer", Company: "Acme", ContentHash: "h1"}
	require.NoError(t, scraped.Insert(ctx, j))

	rec := doJSON(t, api, http.MethodGet, "/jobs/unimported", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var queue []domain.ScrapedJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queue))
	require.Len(t, queue, 1)

	rec = doJSON(t, api, http.MethodPost, "/jobs/import", map[string]any{"ids": []int64{j.ID}, "adminId": "alice"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary scrape.ImportSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Imported)

	// Queue drains after import.
	rec = doJSON(t, api, http.MethodGet, "/jobs/unimported", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queue))
	assert.Empty(t, queue)

	rec = doJSON(t, api, http.MethodPost, "/jobs/import", map[string]any{"ids": []int64{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsAndStatus(t *testing.T) {
	api, sources, scraped := newTestAPI(t, stubRunner{})
	ctx := context.Background()

	src := &domain.CompanySource{
		CompanyName: "Acme", CareerPageURL: "https://acme.test/careers",
		Frequency: domain.FrequencyDaily, Active: true,
		Selectors: domain.Selectors{JobList: ".job"},
	}
	require.NoError(t, sources.Create(ctx, src))
	require.NoError(t, scraped.Insert(ctx, &domain.ScrapedJob{SourceID: src.ID, Title: "E", ContentHash: "h1"}))

	rec := doJSON(t, api, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats["totalSources"])
	assert.EqualValues(t, 1, stats["activeSources"])
	assert.EqualValues(t, 1, stats["totalScrapedJobs"])
	assert.EqualValues(t, 1, stats["activeScrapedJobs"])
	assert.EqualValues(t, 0, stats["importedJobs"])
	assert.EqualValues(t, 1, stats["jobsScrapedLastWeek"])

	rec = doJSON(t, api, http.MethodGet, "/scrape/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"running":false`)

	rec = doJSON(t, api, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, api, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	api, _, _ := newTestAPI(t, stubRunner{})
	guarded := Chain(api, Auth(func() string { return "sekret" }))

	req := httptest.NewRequest(http.MethodGet, "/sources", nil)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/sources", nil)
	req.Header.Set("Authorization", "Bearer sekret")
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays open for liveness checks.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
