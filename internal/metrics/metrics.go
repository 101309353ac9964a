package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraping engine.
type Metrics struct {
	Registry          *prometheus.Registry
	ScrapeRunsTotal   *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	NewJobsTotal      prometheus.Counter
	FetchErrorsTotal  prometheus.Counter
	JobsImportedTotal prometheus.Counter
	DuplicatesTotal   prometheus.Counter
}

// New constructs and registers all collectors on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_scrape_runs_total",
			Help: "Completed scrape runs by result.",
		},
		[]string{"result"},
	)
	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engine_scrape_run_duration_seconds",
			Help:    "Wall time of a single source scrape run.",
			Buckets: prometheus.DefBuckets,
		},
	)
	newJobs := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_new_jobs_total",
			Help: "Scraped jobs persisted for the first time.",
		},
	)
	fetchErrors := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_fetch_errors_total",
			Help: "Primary page fetches that failed.",
		},
	)
	imported := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_jobs_imported_total",
			Help: "Scraped jobs promoted to the job board.",
		},
	)
	duplicates := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_duplicates_flagged_total",
			Help: "Scraped jobs flagged as near-duplicates.",
		},
	)

	registry.MustRegister(runs, runDuration, newJobs, fetchErrors, imported, duplicates)

	return &Metrics{
		Registry:          registry,
		ScrapeRunsTotal:   runs,
		RunDuration:       runDuration,
		NewJobsTotal:      newJobs,
		FetchErrorsTotal:  fetchErrors,
		JobsImportedTotal: imported,
		DuplicatesTotal:   duplicates,
	}
}

// IncRun records a completed run with result "ok" or "error".
func (m *Metrics) IncRun(result string) {
	if m == nil {
		return
	}
	m.ScrapeRunsTotal.WithLabelValues(result).Inc()
}

// ObserveRun records how long a run took.
func (m *Metrics) ObserveRun(d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(d.Seconds())
}

// AddNewJobs counts newly persisted scraped jobs.
func (m *Metrics) AddNewJobs(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.NewJobsTotal.Add(float64(n))
}

// IncFetchError counts a failed primary fetch.
func (m *Metrics) IncFetchError() {
	if m == nil {
		return
	}
	m.FetchErrorsTotal.Inc()
}

// AddImported counts jobs promoted to the board.
func (m *Metrics) AddImported(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.JobsImportedTotal.Add(float64(n))
}

// AddDuplicates counts jobs flagged by the duplicate sweep.
func (m *Metrics) AddDuplicates(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DuplicatesTotal.Add(float64(n))
}
