// Command backfill-embeddings repairs professors that have reviews but no
// stored vector, e.g. after the embedding provider was configured late or a
// batch of jobs was lost.
//
// By default it enqueues river jobs for the API workers to process. With
// -direct it recomputes in this process instead, useful when no API server
// is running.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/panjf2000/ants/v2"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/profscope/hub/internal/config"
	"github.com/profscope/hub/internal/embeddings"
	"github.com/profscope/hub/internal/jobs"
	"github.com/profscope/hub/internal/observability"
	"github.com/profscope/hub/internal/repository"
	"github.com/profscope/hub/internal/service"
	"github.com/profscope/hub/pkg/database"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	direct := flag.Bool("direct", false, "recompute in this process instead of enqueueing jobs")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	observability.SetupLogger(cfg.LogLevel)

	if *direct && cfg.OpenAIAPIKey == "" {
		slog.Error("OPENAI_API_KEY is required for direct recompute")

		return exitFailure
	}

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, nil)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	repo := repository.New(db)

	if *direct {
		return runDirect(ctx, cfg, repo)
	}

	return runEnqueue(ctx, db, repo)
}

// runEnqueue inserts one recompute job per missing embedding; the API
// process works them off under its own rate limit.
func runEnqueue(ctx context.Context, db *pgxpool.Pool, repo *repository.Postgres) int {
	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{})
	if err != nil {
		slog.Error("Failed to create job queue client", "error", err)

		return exitFailure
	}

	stats, err := jobs.Backfill(ctx, repo, jobs.NewRiverJobInserter(riverClient))
	if err != nil {
		slog.Error("Backfill failed", "error", err)

		return exitFailure
	}

	slog.Info("Backfill complete", "enqueued", stats.RecomputesEnqueued, "errors", stats.Errors)

	if stats.Errors > 0 {
		return exitFailure
	}

	return exitSuccess
}

// runDirect recomputes embeddings in-process on a bounded worker pool.
func runDirect(ctx context.Context, cfg *config.Config, repo *repository.Postgres) int {
	ids, err := repo.ListProfessorIDsForBackfill(ctx)
	if err != nil {
		slog.Error("Failed to list professors for backfill", "error", err)

		return exitFailure
	}

	if len(ids) == 0 {
		slog.Info("Nothing to backfill")

		return exitSuccess
	}

	recompute := service.NewRecomputeService(service.RecomputeServiceParams{
		Store:    repo,
		Embedder: embeddings.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.EmbeddingModel),
	})

	pool, err := ants.NewPool(cfg.RecomputeMaxWorkers)
	if err != nil {
		slog.Error("Failed to create worker pool", "error", err)

		return exitFailure
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var failures atomic.Int64

	for _, id := range ids {
		wg.Add(1)

		professorID := id
		submitErr := pool.Submit(func() {
			defer wg.Done()

			if err := recompute.Recompute(ctx, professorID); err != nil {
				slog.Error("Recompute failed", "professor_id", professorID, "error", err)
				failures.Add(1)
			}
		})
		if submitErr != nil {
			wg.Done()
			slog.Error("Failed to submit recompute", "professor_id", professorID, "error", submitErr)
			failures.Add(1)
		}
	}

	wg.Wait()

	slog.Info("Backfill complete",
		"professors", len(ids), "failures", failures.Load())

	if failures.Load() > 0 {
		return exitFailure
	}

	return exitSuccess
}
