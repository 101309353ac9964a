package scrape

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/metrics"
	"jobportal-engine/internal/store"
)

// ErrScrapeInProgress is returned when a manual trigger races an already
// running scrape of the same source.
var ErrScrapeInProgress = errors.New("scrape already in progress for this source")

// Result summarizes one scrape run of one source.
type Result struct {
	Success     bool   `json:"success"`
	JobsScraped int    `json:"jobsScraped"`
	NewJobs     int    `json:"newJobs"`
	Error       string `json:"error,omitempty"`
}

// Runner executes the full scrape pipeline for a single source: fetch the
// career page, extract listings, fingerprint and upsert each, then persist
// the run stats and the next scheduled time in one write.
type Runner struct {
	Sources   *store.SourceStore
	Jobs      *store.ScrapedJobStore
	Fetcher   *Fetcher
	Extractor *Extractor
	Metrics   *metrics.Metrics
	Log       *zap.SugaredLogger

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

func (r *Runner) acquire(sourceID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight == nil {
		r.inFlight = make(map[int64]struct{})
	}
	if _, busy := r.inFlight[sourceID]; busy {
		return false
	}
	r.inFlight[sourceID] = struct{}{}
	return true
}

func (r *Runner) release(sourceID int64) {
	r.mu.Lock()
	delete(r.inFlight, sourceID)
	r.mu.Unlock()
}

// ScrapeSource runs the pipeline for src. A fetch or extraction problem is a
// failed run: it is recorded on the source, the schedule still advances, and
// the Result carries the message. Only storage errors are returned as errors.
func (r *Runner) ScrapeSource(ctx context.Context, src *domain.CompanySource) (Result, error) {
	if !r.acquire(src.ID) {
		return Result{}, ErrScrapeInProgress
	}
	defer r.release(src.ID)

	start := time.Now()
	r.Log.Infow("scrape start", "source", src.ID, "company", src.CompanyName, "url", src.CareerPageURL)

	doc, err := r.Fetcher.GetDocument(ctx, src.CareerPageURL)
	if err != nil {
		r.Metrics.IncFetchError()
		return r.finishFailure(ctx, src, err, start)
	}

	jobs := r.Extractor.Extract(ctx, doc, src)

	now := time.Now().UTC()
	newJobs := 0
	for i := range jobs {
		job := &jobs[i]
		job.ContentHash = Fingerprint(job.Title, job.Location, job.JobType, job.Description)

		existing, err := r.Jobs.FindBySourceAndHash(ctx, src.ID, job.ContentHash)
		switch {
		case err == nil:
			changed := existing.Description != job.Description
			if err := r.Jobs.MarkSeen(ctx, existing.ID, now, changed); err != nil {
				return Result{}, fmt.Errorf("mark seen: %w", err)
			}
		case errors.Is(err, store.ErrNotFound):
			if err := r.Jobs.Insert(ctx, job); err != nil {
				return Result{}, err
			}
			newJobs++
		default:
			return Result{}, err
		}
	}

	// Stats count genuinely new jobs only; re-observed listings refresh
	// lastSeenAt but never inflate the counters.
	src.SuccessfulScrapes++
	src.TotalJobsScraped += newJobs
	src.LastScrapeJobCount = newJobs
	src.ClearFailure()
	t := now
	src.LastScrapedAt = &t
	src.UpdateNextScheduledScrape(now)

	if err := r.Sources.UpdateRunStats(ctx, src); err != nil {
		return Result{}, err
	}

	r.Metrics.IncRun("ok")
	r.Metrics.ObserveRun(time.Since(start))
	r.Metrics.AddNewJobs(newJobs)
	r.Log.Infow("scrape done", "source", src.ID, "seen", len(jobs), "new", newJobs,
		"took", time.Since(start).Round(time.Millisecond))

	return Result{Success: true, JobsScraped: newJobs, NewJobs: newJobs}, nil
}

// finishFailure records the failed run. The schedule advances anyway so one
// broken page can't pin the source at the front of the due queue forever.
func (r *Runner) finishFailure(ctx context.Context, src *domain.CompanySource, cause error, start time.Time) (Result, error) {
	now := time.Now().UTC()
	src.FailedScrapes++
	src.LastScrapeJobCount = 0
	src.RecordFailure(cause.Error(), now)
	t := now
	src.LastScrapedAt = &t
	src.UpdateNextScheduledScrape(now)

	if err := r.Sources.UpdateRunStats(ctx, src); err != nil {
		return Result{}, err
	}

	r.Metrics.IncRun("error")
	r.Metrics.ObserveRun(time.Since(start))
	r.Log.Warnw("scrape failed", "source", src.ID, "company", src.CompanyName, "err", cause)

	return Result{Success: false, Error: cause.Error()}, nil
}

// ScrapeSourceByID loads the source and runs it, for the manual trigger path.
func (r *Runner) ScrapeSourceByID(ctx context.Context, id int64) (Result, error) {
	src, err := r.Sources.FindByID(ctx, id)
	if err != nil {
		return Result{}, err
	}
	return r.ScrapeSource(ctx, src)
}
