package scrape

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/store"
)

// sourceRunner is the slice of Runner the tick needs.
type sourceRunner interface {
	ScrapeSource(ctx context.Context, src *domain.CompanySource) (Result, error)
}

// TickReport summarizes one scheduler pass over the due queue.
type TickReport struct {
	Due       int       `json:"due"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	NewJobs   int       `json:"newJobs"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

// RunDueSources scrapes every due source in order, pausing politeDelay
// between sources. One source failing, or already running, never stops the
// pass; only context cancellation does.
func RunDueSources(ctx context.Context, sources *store.SourceStore, runner sourceRunner, politeDelay time.Duration, log *zap.SugaredLogger) (TickReport, error) {
	report := TickReport{StartedAt: time.Now().UTC()}

	due, err := sources.FindDue(ctx, report.StartedAt)
	if err != nil {
		return report, err
	}
	report.Due = len(due)
	if len(due) == 0 {
		report.EndedAt = time.Now().UTC()
		return report, nil
	}

	log.Infow("scrape tick", "due", len(due))

	for i := range due {
		if i > 0 {
			select {
			case <-ctx.Done():
				report.EndedAt = time.Now().UTC()
				return report, ctx.Err()
			case <-time.After(politeDelay):
			}
		}

		res, err := runner.ScrapeSource(ctx, &due[i])
		switch {
		case errors.Is(err, ErrScrapeInProgress):
			log.Infow("source busy, skipping", "source", due[i].ID)
			continue
		case err != nil:
			log.Errorw("scrape errored", "source", due[i].ID, "err", err)
			report.Failed++
			continue
		}

		if res.Success {
			report.Succeeded++
			report.NewJobs += res.NewJobs
		} else {
			report.Failed++
		}
	}

	report.EndedAt = time.Now().UTC()
	return report, nil
}
