// Command sync runs one ingestion pass from the command line. Dry-run is the
// default; pass -commit to apply the run to the live store.
//
// Usage:
//
//	go run ./cmd/sync -department CMPT -recent-terms 3
//	go run ./cmd/sync -department CMPT -commit
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/profscope/hub/internal/config"
	"github.com/profscope/hub/internal/jobs"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/observability"
	"github.com/profscope/hub/internal/repository"
	"github.com/profscope/hub/internal/source"
	"github.com/profscope/hub/internal/source/catalog"
	"github.com/profscope/hub/internal/source/forum"
	"github.com/profscope/hub/internal/source/reviewsite"
	"github.com/profscope/hub/internal/syncer"
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
	department := flag.String("department", "", "department code to walk, e.g. CMPT")
	recentTerms := flag.Int("recent-terms", 2, "how many most recent terms the catalog walks")
	maxCourses := flag.Int("max-courses", 0, "cap on courses processed (0 = no cap)")
	maxItems := flag.Int("max-items", 0, "cap on records per review source (0 = no cap)")
	professor := flag.String("professor", "", "narrow review sources to one instructor")
	commit := flag.Bool("commit", false, "apply the run to the live store (default is dry-run)")
	noScrape := flag.Bool("no-scrape", false, "skip the scraping review-site source")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	observability.SetupLogger(cfg.LogLevel)

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, nil)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	repo := repository.New(db)

	// On commit, changed professors get recompute jobs through an
	// insert-only river client; the API process works them off.
	var scheduler syncer.RecomputeScheduler

	if *commit {
		riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{})
		if err != nil {
			slog.Error("Failed to create job queue client", "error", err)

			return exitFailure
		}

		scheduler = jobs.NewSchedulerAdapter(jobs.NewRiverJobInserter(riverClient))
	}

	orchestrator := syncer.New(repo, scheduler, nil, syncer.Config{
		MaxAttempts:    cfg.SyncMaxAttempts,
		InitialBackoff: cfg.SyncInitialBackoff,
		MaxBackoff:     cfg.SyncMaxBackoff,
	})

	httpClient := source.NewHTTPClient(cfg.SourceRequestTimeout)

	sources := []source.Adapter{
		catalog.New(catalog.Config{
			HTTPClient:        httpClient,
			RequestsPerSecond: cfg.SourceRequestsPerSecond,
		}),
	}

	if !*noScrape {
		sources = append(sources, reviewsite.New(reviewsite.Config{HTTPClient: httpClient}))
	}

	sources = append(sources, forum.New(forum.Config{HTTPClient: httpClient}))

	scope := source.Scope{
		Department:    *department,
		RecentTerms:   *recentTerms,
		MaxCourses:    *maxCourses,
		MaxItems:      *maxItems,
		ProfessorName: *professor,
	}

	mode := models.SyncDryRun
	if *commit {
		mode = models.SyncCommit
	}

	summary, err := orchestrator.Sync(ctx, sources, scope, mode)
	if err != nil {
		slog.Error("Sync run failed", "error", err)

		return exitFailure
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		slog.Error("Failed to render summary", "error", err)

		return exitFailure
	}

	os.Stdout.Write(out)
	os.Stdout.Write([]byte("\n"))

	if len(summary.SourceErrors) > 0 {
		return exitFailure
	}

	return exitSuccess
}
