package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobportal-engine/internal/config"
	"jobportal-engine/internal/events"
	"jobportal-engine/internal/httpapi"
	"jobportal-engine/internal/metrics"
	"jobportal-engine/internal/scheduler"
	"jobportal-engine/internal/scrape"
	"jobportal-engine/internal/secrets"
	"jobportal-engine/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	zl, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer zl.Sync()
	log := zl.Sugar()

	// Engine data dir: use env if provided, else local folder.
	dataDir := os.Getenv("JOBPORTAL_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// One engine per data dir; a second instance would race the scheduler.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	if !locked {
		return fmt.Errorf("another engine instance is already running in %s", dataDir)
	}
	defer lock.Unlock()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		return fmt.Errorf("config bootstrap failed: %w", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		raw, err := config.Load(userCfgPath)
		if err != nil {
			return raw, err
		}
		cfg, vr := config.NormalizeAndValidate(raw)
		if !vr.OK() {
			return cfg, fmt.Errorf("invalid config: %v", vr.Errors)
		}
		for _, warn := range vr.Warnings {
			log.Warnw("config warning", "warn", warn)
		}
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "jobportal.db")
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.Migrate(db.Pool); err != nil {
		return err
	}

	sources := &store.SourceStore{DB: db.Pool}
	scraped := &store.ScrapedJobStore{DB: db.Pool}
	board := &store.JobStore{DB: db.Pool}

	if err := store.SeedSources(ctx, sources, "system"); err != nil {
		log.Warnw("seed failed", "err", err)
	}

	m := metrics.New()
	hub := events.NewHub()

	fetcher := scrape.NewFetcher(cfg.FetchTimeout(), cfg.Scraper.UserAgent,
		cfg.Scraper.HostReqPerSec, cfg.Scraper.HostBurst)
	extractor := &scrape.Extractor{Fetcher: fetcher, Log: log}
	runner := &scrape.Runner{
		Sources: sources, Jobs: scraped,
		Fetcher: fetcher, Extractor: extractor,
		Metrics: m, Log: log,
	}
	detector := &scrape.DuplicateDetector{Jobs: scraped, Metrics: m, Log: log}
	importer := &scrape.Importer{Scraped: scraped, Board: board, Metrics: m, Log: log}
	sweeper := &scrape.Sweeper{
		Sources: sources, Jobs: scraped, Detector: detector,
		Log: log, StaleAfter: cfg.StaleAfter(),
	}

	var tickStatus atomic.Value
	tickStatus.Store(httpapi.TickStatus{})

	mux := httpapi.NewMux(httpapi.Deps{
		Sources: sources, Scraped: scraped,
		Runner: runner, Importer: importer,
		Hub: hub, Log: log,
		CfgVal: &cfgVal, TickStatus: &tickStatus,
		UserCfgPath: userCfgPath, LoadCfg: loadCfg,
		MetricsRegistry: m.Registry,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Infow("engine listening", "addr", "http://"+addr, "db", dbPath)

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.RequestID,
			httpapi.Recover(log),
			httpapi.AccessLog(log),
			httpapi.Cors,
			httpapi.Auth(func() string {
				c := cfgVal.Load().(config.Config)
				return secrets.GetAPIToken(c.Secrets.TokenAccount)
			}),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	// Scrape tick: fixed delay so a long pass never overlaps the next.
	g.Go(func() error {
		scheduler.Every(gctx, cfg.TickInterval(), "scrape_tick", log, func(tctx context.Context) error {
			st := tickStatus.Load().(httpapi.TickStatus)
			st.Running = true
			st.LastRunAt = time.Now().UTC().Format(time.RFC3339)
			tickStatus.Store(st)

			cur := cfgVal.Load().(config.Config)
			report, err := scrape.RunDueSources(tctx, sources, runner, cur.PoliteDelay(), log)

			st = tickStatus.Load().(httpapi.TickStatus)
			st.Running = false
			st.LastDue = report.Due
			st.LastNew = report.NewJobs
			if err != nil {
				st.LastError = err.Error()
			} else {
				st.LastError = ""
				st.LastOkAt = time.Now().UTC().Format(time.RFC3339)
			}
			tickStatus.Store(st)

			if report.Due > 0 {
				hub.Publish(events.MakeEvent("", events.TypeTickFinished, 1, report))
			}
			return err
		})
		return nil
	})

	// Daily inactivity sweep and weekly duplicate sweep.
	cr := scheduler.NewCron(gctx, log)
	if err := cr.Register(cfg.Scheduler.InactivitySweepCron, "inactivity_sweep", func(tctx context.Context) error {
		_, err := sweeper.MarkInactiveJobs(tctx)
		return err
	}); err != nil {
		return fmt.Errorf("register inactivity sweep: %w", err)
	}
	if err := cr.Register(cfg.Scheduler.DuplicateSweepCron, "duplicate_sweep", func(tctx context.Context) error {
		_, err := sweeper.SweepDuplicates(tctx)
		return err
	}); err != nil {
		return fmt.Errorf("register duplicate sweep: %w", err)
	}
	cr.Start()
	defer cr.Stop()

	return g.Wait()
}
