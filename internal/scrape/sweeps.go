package scrape

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jobportal-engine/internal/store"
)

// Sweeper runs the periodic maintenance passes over scraped data: the daily
// inactivity sweep and the weekly duplicate sweep.
type Sweeper struct {
	Sources  *store.SourceStore
	Jobs     *store.ScrapedJobStore
	Detector *DuplicateDetector
	Log      *zap.SugaredLogger

	StaleAfter time.Duration
}

// MarkInactiveJobs deactivates listings not re-observed within StaleAfter,
// per active source. Sources that error don't stop the sweep.
func (sw *Sweeper) MarkInactiveJobs(ctx context.Context) (int64, error) {
	sources, err := sw.Sources.FindActive(ctx)
	if err != nil {
		return 0, err
	}

	threshold := time.Now().UTC().Add(-sw.StaleAfter)
	var total int64
	for i := range sources {
		n, err := sw.Jobs.MarkInactiveBefore(ctx, sources[i].ID, threshold)
		if err != nil {
			sw.Log.Errorw("inactivity sweep failed", "source", sources[i].ID, "err", err)
			continue
		}
		total += n
	}

	if total > 0 {
		sw.Log.Infow("inactivity sweep done", "deactivated", total, "threshold", threshold)
	}
	return total, nil
}

// SweepDuplicates runs duplicate detection across every active source.
func (sw *Sweeper) SweepDuplicates(ctx context.Context) (int, error) {
	sources, err := sw.Sources.FindActive(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for i := range sources {
		n, err := sw.Detector.DetectDuplicates(ctx, sources[i].ID)
		if err != nil {
			sw.Log.Errorw("duplicate sweep failed", "source", sources[i].ID, "err", err)
			continue
		}
		total += n
	}
	return total, nil
}
