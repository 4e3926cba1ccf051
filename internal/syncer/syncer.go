// Package syncer walks source adapters and merges their records into the
// store through idempotent natural-key upserts. A run in dry_run mode replays
// the same upserts against a staging overlay, so the reported counts are
// exactly what commit mode would do.
package syncer

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/profscope/hub/internal/apperrors"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/observability"
	"github.com/profscope/hub/internal/source"
	"github.com/profscope/hub/internal/store"
)

const (
	defaultMaxAttempts            = 4
	defaultInitialBackoffWhenZero = 500 * time.Millisecond
	backoffMultiplier             = 2
)

// RecomputeScheduler enqueues an embedding recompute for one professor.
// Satisfied by the river-backed inserter in internal/jobs.
type RecomputeScheduler interface {
	ScheduleRecompute(ctx context.Context, professorID int64) error
}

// Config holds the retry policy for transient source failures.
type Config struct {
	MaxAttempts    int           // Total attempts per Next call, including the first.
	InitialBackoff time.Duration // Backoff after first failure; doubles each attempt, capped by MaxBackoff.
	MaxBackoff     time.Duration // Upper bound on backoff between attempts.
}

// Orchestrator runs sync batches against a live store.
type Orchestrator struct {
	live      store.SyncStore
	scheduler RecomputeScheduler
	validate  *validator.Validate
	metrics   observability.SyncMetrics
	cfg       Config
}

// New creates a sync orchestrator. scheduler and metrics may be nil; without
// a scheduler, commit runs skip recompute enqueueing.
func New(live store.SyncStore, scheduler RecomputeScheduler, metrics observability.SyncMetrics, cfg Config) *Orchestrator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}

	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoffWhenZero
	}

	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}

	return &Orchestrator{
		live:      live,
		scheduler: scheduler,
		validate:  validator.New(),
		metrics:   metrics,
		cfg:       cfg,
	}
}

// runState carries the accumulation shared across one run's source walks.
type runState struct {
	target    store.SyncStore
	summary   *models.SyncSummary
	touched   map[int64]bool
	seenNames map[string]bool
	names     []string // professor names in first-seen order
}

// Sync walks every source in order and applies its records. In dry_run mode
// all writes land in a staging overlay and the live store is untouched.
// Review sources search by professor name: a pinned scope.ProfessorName
// limits them to that one professor, otherwise they run once per professor
// the identity sources discovered earlier in the run. A source whose walk
// aborts is reported in SourceErrors; the run itself only fails on context
// cancellation or an invalid mode.
func (o *Orchestrator) Sync(
	ctx context.Context, sources []source.Adapter, scope source.Scope, mode models.SyncMode,
) (*models.SyncSummary, error) {
	if mode != models.SyncDryRun && mode != models.SyncCommit {
		return nil, apperrors.NewValidationError("mode", fmt.Sprintf("unknown sync mode %q", mode))
	}

	target := o.live
	if mode == models.SyncDryRun {
		target = store.NewStaging(o.live)
	}

	summary := &models.SyncSummary{RunID: uuid.New(), Mode: mode}
	run := &runState{
		target:    target,
		summary:   summary,
		touched:   make(map[int64]bool),
		seenNames: make(map[string]bool),
	}

	slog.InfoContext(ctx, "sync run starting",
		"run_id", summary.RunID, "mode", mode, "sources", len(sources), "department", scope.Department)

	for _, adapter := range sources {
		scopes := o.scopesFor(adapter, scope, run)
		if len(scopes) == 0 {
			slog.InfoContext(ctx, "review source skipped, no professors in scope",
				"run_id", summary.RunID, "source", adapter.Name())

			continue
		}

		for _, sc := range scopes {
			if err := o.syncSource(ctx, adapter, sc, run); err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("sync run cancelled: %w", err)
				}

				label := adapter.Name()
				if sc.ProfessorName != "" && scope.ProfessorName == "" {
					label += " (" + sc.ProfessorName + ")"
				}

				slog.ErrorContext(ctx, "source walk aborted",
					"run_id", summary.RunID, "source", adapter.Name(),
					"professor", sc.ProfessorName, "error", err)
				summary.SourceErrors = append(summary.SourceErrors, label+": "+err.Error())
			}
		}
	}

	if mode == models.SyncCommit {
		o.scheduleRecomputes(ctx, summary, run.touched)
	}

	slog.InfoContext(ctx, "sync run finished",
		"run_id", summary.RunID, "mode", mode,
		"professors", summary.Professors, "reviews", summary.Reviews,
		"recomputes_scheduled", summary.RecomputesScheduled)

	return summary, nil
}

// scopesFor expands one adapter into the scopes it will be fetched with.
// Identity sources and name-pinned requests get the request scope as-is;
// other review sources fan out over the professors discovered so far. An
// empty result means the source has nothing to search for and is skipped.
func (o *Orchestrator) scopesFor(adapter source.Adapter, scope source.Scope, run *runState) []source.Scope {
	if adapter.Kind() == models.SourceCatalog || scope.ProfessorName != "" {
		return []source.Scope{scope}
	}

	scopes := make([]source.Scope, 0, len(run.names))

	for _, name := range run.names {
		sc := scope
		sc.ProfessorName = name
		scopes = append(scopes, sc)
	}

	return scopes
}

// syncSource applies one adapter's records in yield order.
func (o *Orchestrator) syncSource(
	ctx context.Context, adapter source.Adapter, scope source.Scope, run *runState,
) error {
	it, err := adapter.Fetch(ctx, scope)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	for {
		rec, err := o.nextWithRetry(ctx, adapter.Name(), it)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		o.applyRecord(ctx, run, rec)
	}
}

// nextWithRetry pulls the next record, retrying transient source failures
// with exponential backoff and jitter. Permanent failures and EOF pass
// through unchanged.
func (o *Orchestrator) nextWithRetry(ctx context.Context, sourceName string, it source.Iterator) (*source.Record, error) {
	var lastErr error

	backoff := o.cfg.InitialBackoff

	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		rec, err := it.Next(ctx)
		if err == nil || errors.Is(err, io.EOF) {
			return rec, err
		}

		if !errors.Is(err, apperrors.ErrTransientSource) {
			return nil, err
		}

		lastErr = err

		if attempt == o.cfg.MaxAttempts {
			break
		}

		if o.metrics != nil {
			o.metrics.RecordSourceRetry(ctx, sourceName)
		}

		sleep := jitter(backoff)
		slog.WarnContext(ctx, "source call failed, retrying after backoff",
			"source", sourceName,
			"attempt", attempt,
			"max_attempts", o.cfg.MaxAttempts,
			"backoff", sleep,
			"error", err,
		)

		if err := sleepCtx(ctx, sleep); err != nil {
			return nil, err
		}

		backoff = min(backoff*backoffMultiplier, o.cfg.MaxBackoff)
	}

	return nil, lastErr
}

// applyRecord upserts the record's professor and, when it carries text, its
// review. Validation failures are skipped; store failures are counted and do
// not abort the run.
func (o *Orchestrator) applyRecord(ctx context.Context, run *runState, rec *source.Record) {
	target, summary, touched := run.target, run.summary, run.touched

	profReq := &models.UpsertProfessorRequest{
		Name:        source.NormalizeText(rec.ProfessorName),
		Department:  rec.Department,
		ProfileURL:  rec.ProfileURL,
		CourseCodes: rec.CourseCodes,
	}

	if err := o.validate.Struct(profReq); err != nil {
		slog.DebugContext(ctx, "professor record failed validation", "key", rec.Key.String(), "error", err)
		o.count(ctx, "professor", &summary.Professors, outcomeSkipped)

		return
	}

	prof, outcome, err := target.UpsertProfessor(ctx, profReq)
	if err != nil {
		o.countError(ctx, "professor", &summary.Professors, rec, err)

		return
	}

	o.count(ctx, "professor", &summary.Professors, outcome.String())

	if !run.seenNames[prof.Name] {
		run.seenNames[prof.Name] = true
		run.names = append(run.names, prof.Name)
	}

	if !rec.IsReview() {
		return
	}

	revReq := reviewRequest(rec, prof.ID)
	if err := o.validate.Struct(revReq); err != nil {
		slog.DebugContext(ctx, "review record failed validation", "key", rec.Key.String(), "error", err)
		o.count(ctx, "review", &summary.Reviews, outcomeSkipped)

		return
	}

	_, outcome, err = target.UpsertReview(ctx, revReq)
	if err != nil {
		o.countError(ctx, "review", &summary.Reviews, rec, err)

		return
	}

	o.count(ctx, "review", &summary.Reviews, outcome.String())

	if outcome == store.OutcomeAdded || outcome == store.OutcomeUpdated {
		touched[prof.ID] = true
	}
}

// scheduleRecomputes enqueues one recompute per professor whose review set
// changed, in id order. Enqueue failures are logged and skipped; the reviews
// are already committed and a later run or backfill picks them up.
func (o *Orchestrator) scheduleRecomputes(ctx context.Context, summary *models.SyncSummary, touched map[int64]bool) {
	if o.scheduler == nil || len(touched) == 0 {
		return
	}

	ids := make([]int64, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := o.scheduler.ScheduleRecompute(ctx, id); err != nil {
			slog.ErrorContext(ctx, "failed to schedule recompute",
				"run_id", summary.RunID, "professor_id", id, "error", err)

			continue
		}

		summary.RecomputesScheduled++
	}

	if o.metrics != nil && summary.RecomputesScheduled > 0 {
		o.metrics.RecordRecomputesScheduled(ctx, int64(summary.RecomputesScheduled))
	}
}

const (
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

func (o *Orchestrator) count(ctx context.Context, kind string, counts *models.SyncCounts, outcome string) {
	switch outcome {
	case "added":
		counts.Added++
	case "updated":
		counts.Updated++
	case outcomeFailed:
		counts.Failed++
	default:
		// unchanged rows and validation failures both count as skipped
		counts.Skipped++
		outcome = outcomeSkipped
	}

	if o.metrics != nil {
		o.metrics.RecordRecord(ctx, kind, outcome)
	}
}

func (o *Orchestrator) countError(
	ctx context.Context, kind string, counts *models.SyncCounts, rec *source.Record, err error,
) {
	if errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrNotFound) {
		slog.DebugContext(ctx, "record rejected by store", "kind", kind, "key", rec.Key.String(), "error", err)
		o.count(ctx, kind, counts, outcomeSkipped)

		return
	}

	slog.ErrorContext(ctx, "store upsert failed", "kind", kind, "key", rec.Key.String(), "error", err)
	o.count(ctx, kind, counts, outcomeFailed)
}

func reviewRequest(rec *source.Record, professorID int64) *models.UpsertReviewRequest {
	req := &models.UpsertReviewRequest{
		ProfessorID: professorID,
		Text:        source.NormalizeText(rec.ReviewText),
		SourceKind:  rec.Key.Source,
		Rating:      rec.Rating,
		ReviewedAt:  rec.ReviewedAt,
	}

	if rec.Key.Kind == source.KeyExternal {
		id := rec.Key.ExternalID
		req.ExternalID = &id
	} else {
		hash := rec.Key.ContentHash
		req.ContentHash = &hash
	}

	return req
}

// jitter returns a duration between 50% and 100% of duration to avoid thundering herd.
func jitter(duration time.Duration) time.Duration {
	const jitterHalf = 2

	half := duration / jitterHalf

	if half <= 0 {
		return duration
	}

	var buf [8]byte

	if _, err := rand.Read(buf[:]); err != nil {
		return half
	}

	randVal := binary.BigEndian.Uint64(buf[:])
	halfNanos := half.Nanoseconds()

	if halfNanos <= 0 {
		return half
	}

	//nolint:gosec // G115: modulo result is in [0, halfNanos), safe to convert to int64
	jitterNanos := int64(randVal % uint64(halfNanos))

	return half + time.Duration(jitterNanos)
}

// sleepCtx blocks for the given duration or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
