package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/fetch"
	"NewsDigest/internal/infrastructure/bbc"
	"NewsDigest/internal/infrastructure/extract"
	"NewsDigest/internal/infrastructure/feed"
	"NewsDigest/internal/infrastructure/httpclient"
	"NewsDigest/internal/infrastructure/llm"
	"NewsDigest/internal/infrastructure/scheduler"
	"NewsDigest/internal/infrastructure/storage"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/metrics"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/usecase"
)

// Application wires configuration to adapters and use cases.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	db         *sql.DB
	repository *storage.PostgresRepository
	pipeline   *usecase.Pipeline
	metrics    *metrics.Metrics
}

// New connects to Postgres, prepares the schema and seed sources, and builds
// the full ingestion pipeline.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repository := storage.NewPostgresRepository(db)
	if err := repository.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := seedSources(ctx, repository, cfg.Sources); err != nil {
		db.Close()
		return nil, err
	}

	client := httpclient.New(cfg.Scraper.Timeout())

	registry := fetch.NewRegistry()
	registry.Register(domain.KindRSS, feed.NewRSSFetcher(client, baseLogger.With("component", "fetch.rss")))
	registry.Register(domain.KindSectionScrape, bbc.NewSectionFetcher(client, baseLogger.With("component", "fetch.bbc")))

	var summarizer ports.Summarizer
	if cfg.Summarizer.Enabled() {
		summarizer = llm.NewSummarizer(cfg.Summarizer, baseLogger.With("component", "summarizer"))
	} else {
		baseLogger.Warn("summarization disabled: no api key configured")
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Registry:   registry,
		Repository: repository,
		Extractor:  extract.New(client, baseLogger.With("component", "extractor")),
		Summarizer: summarizer,
		Metrics:    metrics.Global,
		Logger:     baseLogger.With("component", "pipeline"),
		Limits: usecase.Limits{
			PerSource:    cfg.Limits.PerSource,
			PerRun:       cfg.Limits.PerRun,
			SkipExisting: cfg.Limits.SkipExisting,
		},
		Delay:           cfg.Scraper.Delay(),
		SummaryRequired: cfg.Summarizer.Required,
	})

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		db:         db,
		repository: repository,
		pipeline:   pipeline,
		metrics:    metrics.Global,
	}, nil
}

// Close releases the database pool.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// RunOnce executes one ingestion pass.
func (a *Application) RunOnce(ctx context.Context) error {
	_, err := a.pipeline.Run(ctx)
	return err
}

// Schedule runs the daily job until the context is cancelled, optionally
// serving the monitoring endpoints.
func (a *Application) Schedule(ctx context.Context) error {
	spec := scheduler.DailySpec(a.cfg.Scheduler.Hour, a.cfg.Scheduler.Minute)
	driver := scheduler.NewCronScheduler(spec, a.cfg.Scheduler.RunOnStart)
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))

	var monitor *http.Server
	if addr := a.cfg.Monitoring.Addr; addr != "" {
		monitor = a.startMonitoring(addr)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "spec", spec, "runOnStart", a.cfg.Scheduler.RunOnStart)

	<-ctx.Done()
	a.logger.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		a.logger.Warn("scheduler stop", "error", err)
	}
	if monitor != nil {
		if err := monitor.Shutdown(stopCtx); err != nil {
			a.logger.Warn("monitoring shutdown", "error", err)
		}
	}

	return nil
}

// ListArticles serves the read side for the CLI.
func (a *Application) ListArticles(ctx context.Context, q domain.ArticleQuery) ([]domain.Article, error) {
	return a.repository.ListArticles(ctx, q)
}

// Categories returns the known active-source categories.
func (a *Application) Categories(ctx context.Context) ([]string, error) {
	return a.repository.Categories(ctx)
}

func seedSources(ctx context.Context, repo *storage.PostgresRepository, sources []config.SourceConfig) error {
	for _, src := range sources {
		err := repo.UpsertSource(ctx, domain.Source{
			Name:     src.Name,
			FeedURL:  src.FeedURL,
			BaseURL:  src.BaseURL,
			Category: src.Category,
			Active:   true,
		})
		if err != nil {
			return fmt.Errorf("seed source %s: %w", src.Name, err)
		}
	}
	return nil
}

func (a *Application) startMonitoring(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.handleHealth)
	mux.HandleFunc("/metrics", a.handleMetrics)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		a.logger.Info("monitoring listener started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("monitoring listener failed", "error", err)
		}
	}()

	return srv
}

func (a *Application) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := a.metrics.Snapshot()

	status := "ok"
	w.Header().Set("Content-Type", "application/json")
	if healthy, _ := stats["is_healthy"].(bool); !healthy {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func (a *Application) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a.metrics.Snapshot())
}
