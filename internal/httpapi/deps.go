package httpapi

import (
	"context"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"jobportal-engine/internal/config"
	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/events"
	"jobportal-engine/internal/scrape"
	"jobportal-engine/internal/store"
)

// SourceRunner is the scrape entrypoint the API triggers (inject for testability).
type SourceRunner interface {
	ScrapeSource(ctx context.Context, src *domain.CompanySource) (scrape.Result, error)
}

// JobImporter promotes scraped jobs onto the board.
type JobImporter interface {
	ImportJobs(ctx context.Context, ids []int64, actingAdmin string) (scrape.ImportSummary, error)
}

type Deps struct {
	Sources *store.SourceStore
	Scraped *store.ScrapedJobStore

	Runner   SourceRunner
	Importer JobImporter

	Hub *events.Hub
	Log *zap.SugaredLogger

	// Atomic stores
	CfgVal     *atomic.Value // stores config.Config
	TickStatus *atomic.Value // stores httpapi.TickStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	MetricsRegistry *prometheus.Registry
}
