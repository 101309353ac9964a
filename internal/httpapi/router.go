package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMux wires every route. main() wraps the result with the middleware chain.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Sources
	srh := SourcesHandler{Sources: d.Sources, Scraped: d.Scraped, Runner: d.Runner, Hub: d.Hub, Log: d.Log}
	mux.HandleFunc("/sources", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  srh.List,
		http.MethodPost: srh.Create,
	}))
	mux.HandleFunc("/sources/active", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: srh.Active,
	}))
	mux.HandleFunc("/sources/due", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: srh.Due,
	}))
	mux.HandleFunc("/sources/", srh.ByPath) // /sources/{id}[/scrape|/jobs]

	// Scraped jobs
	jh := JobsHandler{Scraped: d.Scraped, Importer: d.Importer, Hub: d.Hub, Log: d.Log}
	mux.HandleFunc("/jobs/unimported", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.Unimported,
	}))
	mux.HandleFunc("/jobs/import", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: jh.Import,
	}))

	// Dashboard
	sth := StatsHandler{Sources: d.Sources, Scraped: d.Scraped}
	mux.HandleFunc("/stats", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sth.Stats,
	}))
	sch := ScrapeHandler{TickStatus: d.TickStatus}
	mux.HandleFunc("/scrape/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sch.Status,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	seh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/token", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: seh.SetAPIToken,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Health + metrics
	hh := HealthHandler{}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))
	mux.Handle("/metrics", promhttp.HandlerFor(d.MetricsRegistry, promhttp.HandlerOpts{}))

	return mux
}
