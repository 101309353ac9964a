package scrape

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/metrics"
	"jobportal-engine/internal/store"
)

// Defaults applied when a scraped listing lacks a field the board requires.
const (
	defaultLocation = "Not specified"
	defaultJobType  = "Full-time"
)

// ImportSummary reports the outcome of one import request.
type ImportSummary struct {
	Imported int                 `json:"imported"`
	Skipped  int                 `json:"skipped"`
	Jobs     []domain.JobPosting `json:"jobs"`
}

// Importer promotes selected scraped jobs onto the main board as
// pre-approved postings.
type Importer struct {
	Scraped *store.ScrapedJobStore
	Board   *store.JobStore
	Metrics *metrics.Metrics
	Log     *zap.SugaredLogger
}

// ImportJobs processes each requested ID independently: a failure on one ID
// never blocks the rest of the batch. Skipped counts already-imported
// records only; unknown IDs and sink failures are logged and fall out of
// both counts. Re-running with the same IDs is a no-op.
func (im *Importer) ImportJobs(ctx context.Context, ids []int64, actingAdmin string) (ImportSummary, error) {
	var summary ImportSummary

	for _, id := range ids {
		scraped, err := im.Scraped.FindByID(ctx, id)
		if err != nil {
			im.Log.Warnw("import: scraped job not found", "id", id, "err", err)
			continue
		}
		if scraped.Imported {
			summary.Skipped++
			continue
		}

		posting := toPosting(scraped, actingAdmin)
		created, err := im.Board.CreateApprovedJob(ctx, posting)
		if err != nil {
			im.Log.Errorw("import: create job failed", "id", id, "err", err)
			continue
		}

		if err := im.Scraped.MarkImported(ctx, id, created.ID, time.Now().UTC()); err != nil {
			im.Log.Errorw("import: mark imported failed", "id", id, "job", created.ID, "err", err)
			continue
		}

		summary.Imported++
		summary.Jobs = append(summary.Jobs, created)
	}

	im.Metrics.AddImported(summary.Imported)
	im.Log.Infow("import finished", "imported", summary.Imported, "skipped", summary.Skipped)
	return summary, nil
}

func toPosting(s *domain.ScrapedJob, actingAdmin string) domain.JobPosting {
	p := domain.JobPosting{
		Title:        s.Title,
		Company:      s.Company,
		Location:     s.Location,
		Description:  s.Description,
		Requirements: s.Requirements,
		JobType:      s.JobType,
		PostedBy:     actingAdmin,
		ApprovedBy:   actingAdmin,
	}
	if p.Location == "" {
		p.Location = defaultLocation
	}
	if p.JobType == "" {
		p.JobType = defaultJobType
	}
	if s.Salary != "" {
		salary := s.Salary
		p.Salary = &salary
	}
	return p
}
