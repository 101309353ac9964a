package scrape

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/metrics"
	"jobportal-engine/internal/store"
)

// DuplicateDetector flags near-duplicate listings within one source so the
// unimported queue shows each posting once.
type DuplicateDetector struct {
	Jobs    *store.ScrapedJobStore
	Metrics *metrics.Metrics
	Log     *zap.SugaredLogger
}

// DetectDuplicates compares every pair of active listings for the source and
// links later records to the earliest similar one. Linkage is one step deep:
// a record already flagged duplicate is skipped both as a canonical candidate
// and as a target, so chains always point at an unflagged record.
func (d *DuplicateDetector) DetectDuplicates(ctx context.Context, sourceID int64) (int, error) {
	jobs, err := d.Jobs.FindActiveBySource(ctx, sourceID)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for i := range jobs {
		if jobs[i].Duplicate {
			continue
		}
		for j := i + 1; j < len(jobs); j++ {
			if jobs[j].Duplicate {
				continue
			}
			if !similar(&jobs[i], &jobs[j]) {
				continue
			}
			if err := d.Jobs.MarkDuplicate(ctx, jobs[j].ID, jobs[i].ID); err != nil {
				return flagged, err
			}
			jobs[j].Duplicate = true
			dup := jobs[i].ID
			jobs[j].DuplicateOfID = &dup
			flagged++
		}
	}

	if flagged > 0 {
		d.Metrics.AddDuplicates(flagged)
		d.Log.Infow("duplicates flagged", "source", sourceID, "count", flagged)
	}
	return flagged, nil
}

// similar treats two listings as the same posting when title and location
// both match case-insensitively, or when their content hashes collide.
// Location must be present on both sides; "same title, no location" is too
// weak a signal for multi-office companies.
func similar(a, b *domain.ScrapedJob) bool {
	if strings.EqualFold(a.Title, b.Title) &&
		a.Location != "" && b.Location != "" &&
		strings.EqualFold(a.Location, b.Location) {
		return true
	}
	return a.ContentHash != "" && a.ContentHash == b.ContentHash
}
