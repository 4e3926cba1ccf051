// Command api runs the HTTP server: ingestion, search, recommendations,
// summaries, and the river workers that keep derived state current.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/time/rate"

	"github.com/profscope/hub/internal/api"
	"github.com/profscope/hub/internal/api/handlers"
	"github.com/profscope/hub/internal/config"
	"github.com/profscope/hub/internal/embeddings"
	"github.com/profscope/hub/internal/jobs"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/observability"
	"github.com/profscope/hub/internal/repository"
	"github.com/profscope/hub/internal/service"
	"github.com/profscope/hub/internal/source"
	"github.com/profscope/hub/internal/source/catalog"
	"github.com/profscope/hub/internal/source/forum"
	"github.com/profscope/hub/internal/source/reviewsite"
	"github.com/profscope/hub/internal/summarize"
	"github.com/profscope/hub/internal/syncer"
	"github.com/profscope/hub/pkg/cache"
	"github.com/profscope/hub/pkg/database"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.LogLevel)

	tracerProvider, err := observability.NewTracerProvider(cfg)
	if err != nil {
		slog.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
	}

	meterProvider, err := observability.NewMeterProvider(cfg)
	if err != nil {
		slog.Error("Failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	metrics, err := newMetrics(meterProvider)
	if err != nil {
		slog.Error("Failed to create metric collectors", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, nil)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := repository.New(db)

	// Without an API key both capabilities degrade: sync still ingests,
	// search returns 503, summaries stay stale.
	var embedder embeddings.Client = embeddings.Disabled{}
	var summarizer summarize.Client = summarize.Disabled{}

	if cfg.OpenAIAPIKey != "" {
		embedder = embeddings.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
		summarizer = summarize.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.SummaryModel)
		slog.Info("AI capabilities enabled",
			"embedding_model", cfg.EmbeddingModel, "summary_model", cfg.SummaryModel)
	} else {
		slog.Info("AI capabilities disabled (OPENAI_API_KEY not set)")
	}

	var recomputeMetrics observability.RecomputeMetrics
	var syncMetrics observability.SyncMetrics
	var cacheMetrics observability.CacheMetrics

	if metrics != nil {
		recomputeMetrics = metrics.Recompute
		syncMetrics = metrics.Sync
		cacheMetrics = metrics.Cache
	}

	recomputeService := service.NewRecomputeService(service.RecomputeServiceParams{
		Store:    repo,
		Embedder: embedder,
		Metrics:  recomputeMetrics,
	})

	summaryService := service.NewSummaryService(service.SummaryServiceParams{
		Store:         repo,
		Client:        summarizer,
		RefreshWindow: cfg.SummaryRefreshWindow,
		Metrics:       recomputeMetrics,
	})

	// Job processing only runs with a configured embedding provider; every
	// recompute would otherwise burn an attempt on a capability error.
	var riverClient *river.Client[pgx.Tx]
	var scheduler *jobs.SchedulerAdapter

	if cfg.OpenAIAPIKey != "" {
		riverClient, err = initRiver(ctx, db, cfg, recomputeService, summaryService)
		if err != nil {
			slog.Error("Failed to initialize River job queue", "error", err)
			os.Exit(1)
		}

		scheduler = jobs.NewSchedulerAdapter(jobs.NewRiverJobInserter(riverClient))
		slog.Info("River job queue enabled",
			"workers", cfg.RecomputeMaxWorkers,
			"max_attempts", cfg.RecomputeMaxAttempts,
			"rate_limit", cfg.EmbeddingRequestsPerSecond,
		)
	}

	queryCache, err := cache.NewLoaderCache[string, []float32](
		cfg.SearchQueryCacheSize, func(k string) string { return k })
	if err != nil {
		slog.Error("Failed to create search query cache", "error", err)
		os.Exit(1)
	}

	searchService := service.NewSearchService(service.SearchServiceParams{
		Store:        repo,
		Embedder:     embedder,
		QueryCache:   queryCache,
		CacheMetrics: cacheMetrics,
		MinScore:     cfg.SearchMinScore,
	})

	recommendService := service.NewRecommendService(repo, slog.Default())

	// scheduler may be nil here; reviews are then persisted without a
	// recompute and the backfill command catches them up later.
	var reviewScheduler service.RecomputeScheduler
	var syncScheduler syncer.RecomputeScheduler

	if scheduler != nil {
		reviewScheduler = scheduler
		syncScheduler = scheduler
	}

	reviewService := service.NewReviewService(repo, reviewScheduler, slog.Default())

	orchestrator := syncer.New(repo, syncScheduler, syncMetrics, syncer.Config{
		MaxAttempts:    cfg.SyncMaxAttempts,
		InitialBackoff: cfg.SyncInitialBackoff,
		MaxBackoff:     cfg.SyncMaxBackoff,
	})

	sources := buildSources(cfg)

	syncRunner := handlers.SyncRunnerFunc(
		func(ctx context.Context, scope source.Scope, mode models.SyncMode) (*models.SyncSummary, error) {
			return orchestrator.Sync(ctx, sources, scope, mode)
		})

	router := api.NewRouter(api.RouterParams{
		Professors:   handlers.NewProfessorsHandler(repo),
		Search:       handlers.NewSearchHandler(searchService),
		Recommend:    handlers.NewRecommendHandler(recommendService),
		Summary:      handlers.NewSummaryHandler(summaryService),
		Reviews:      handlers.NewReviewsHandler(reviewService),
		Sync:         handlers.NewSyncHandler(syncRunner),
		MaxBodyBytes: cfg.MaxRequestBodyBytes,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting requests first, then drain in-flight jobs, then flush
	// telemetry.
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	if riverClient != nil {
		slog.Info("Stopping River job queue...")

		if err := riverClient.Stop(shutdownCtx); err != nil {
			slog.Error("River forced to shutdown", "error", err)
		}
	}

	if err := observability.ShutdownMeterProvider(shutdownCtx, meterProvider); err != nil {
		slog.Error("Meter provider shutdown failed", "error", err)
	}

	if err := observability.ShutdownTracerProvider(shutdownCtx, tracerProvider); err != nil {
		slog.Error("Tracer provider shutdown failed", "error", err)
	}

	slog.Info("Server exited")
}

// newMetrics creates the metric collectors, or nil when metrics are disabled.
func newMetrics(provider *sdkmetric.MeterProvider) (*observability.Metrics, error) {
	if provider == nil {
		return nil, nil
	}

	return observability.NewMetrics(provider.Meter("github.com/profscope/hub"))
}

// initRiver registers the workers and starts the job queue client. Workers
// are added after the client exists because the recompute worker chains a
// summary refresh through the client-backed inserter.
func initRiver(
	ctx context.Context,
	db *pgxpool.Pool,
	cfg *config.Config,
	recomputeService *service.RecomputeService,
	summaryService *service.SummaryService,
) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.RecomputeMaxWorkers},
		},
		Workers:      workers,
		ErrorHandler: &jobs.ErrorHandler{},
		JobTimeout:   60 * time.Second,
		MaxAttempts:  cfg.RecomputeMaxAttempts,
	})
	if err != nil {
		return nil, err
	}

	inserter := jobs.NewRiverJobInserter(riverClient)

	river.AddWorker(workers, jobs.NewRecomputeWorker(jobs.RecomputeWorkerDeps{
		Recomputer:  recomputeService,
		RateLimiter: rate.NewLimiter(rate.Limit(cfg.EmbeddingRequestsPerSecond), 1),
		Inserter:    inserter,
	}))
	river.AddWorker(workers, jobs.NewSummaryWorker(jobs.SummaryWorkerDeps{
		Refresher: summaryService,
	}))

	if err := riverClient.Start(ctx); err != nil {
		return nil, err
	}

	return riverClient, nil
}

// buildSources assembles the source adapters in merge order: the catalog
// establishes professor identity, review sources attach text afterwards.
func buildSources(cfg *config.Config) []source.Adapter {
	httpClient := source.NewHTTPClient(cfg.SourceRequestTimeout)

	return []source.Adapter{
		catalog.New(catalog.Config{
			HTTPClient:        httpClient,
			RequestsPerSecond: cfg.SourceRequestsPerSecond,
		}),
		reviewsite.New(reviewsite.Config{HTTPClient: httpClient}),
		forum.New(forum.Config{HTTPClient: httpClient}),
	}
}
