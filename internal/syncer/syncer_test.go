package syncer

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profscope/hub/internal/apperrors"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/source"
	"github.com/profscope/hub/internal/store"
)

type step struct {
	rec *source.Record
	err error
}

type scriptedIterator struct {
	steps []step
}

func (s *scriptedIterator) Next(_ context.Context) (*source.Record, error) {
	if len(s.steps) == 0 {
		return nil, io.EOF
	}

	next := s.steps[0]
	s.steps = s.steps[1:]

	return next.rec, next.err
}

type fakeAdapter struct {
	name    string
	kind    models.SourceKind
	steps   []step
	fetches []source.Scope
}

func (f *fakeAdapter) Name() string            { return f.name }
func (f *fakeAdapter) Kind() models.SourceKind { return f.kind }

// Fetch replays the scripted steps. Like the real review sources it searches
// by name: with a professor pinned in scope only that professor's records
// come back. Errors are always replayed.
func (f *fakeAdapter) Fetch(_ context.Context, scope source.Scope) (source.Iterator, error) {
	f.fetches = append(f.fetches, scope)

	steps := make([]step, 0, len(f.steps))

	for _, st := range f.steps {
		if scope.ProfessorName != "" && st.rec != nil && st.rec.ProfessorName != scope.ProfessorName {
			continue
		}

		steps = append(steps, st)
	}

	return &scriptedIterator{steps: steps}, nil
}

type schedulerFunc func(ctx context.Context, professorID int64) error

func (f schedulerFunc) ScheduleRecompute(ctx context.Context, professorID int64) error {
	return f(ctx, professorID)
}

func identityRecord(name string) *source.Record {
	dept := "CMPT"

	return &source.Record{
		Key:           source.ExternalKey(models.SourceCatalog, "2025/fall/cmpt/110/d100#"+name),
		ProfessorName: name,
		Department:    &dept,
		CourseCodes:   []string{"CMPT110"},
	}
}

func reviewRecord(name, postID, text string) *source.Record {
	return &source.Record{
		Key:           source.ExternalKey(models.SourceForum, postID),
		ProfessorName: name,
		ReviewText:    text,
	}
}

func fastConfig() Config {
	return Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestOrchestrator_Sync(t *testing.T) {
	ctx := context.Background()

	sources := []source.Adapter{
		&fakeAdapter{name: "catalog", kind: models.SourceCatalog, steps: []step{
			{rec: identityRecord("Ada Lee")},
			{rec: identityRecord("Grace Ho")},
		}},
		&fakeAdapter{name: "forum", kind: models.SourceForum, steps: []step{
			{rec: reviewRecord("Ada Lee", "p1", "clear lectures")},
			{rec: reviewRecord("Ada Lee", "p2", "heavy workload")},
		}},
	}

	t.Run("commit applies records and schedules recomputes", func(t *testing.T) {
		mem := store.NewMemory()

		var scheduled []int64

		o := New(mem, schedulerFunc(func(_ context.Context, id int64) error {
			scheduled = append(scheduled, id)

			return nil
		}), nil, fastConfig())

		summary, err := o.Sync(ctx, sources, source.Scope{Department: "CMPT"}, models.SyncCommit)
		require.NoError(t, err)

		assert.Equal(t, models.SyncCounts{Added: 2, Skipped: 2}, summary.Professors)
		assert.Equal(t, models.SyncCounts{Added: 2}, summary.Reviews)
		assert.Equal(t, 1, summary.RecomputesScheduled)
		assert.Empty(t, summary.SourceErrors)

		// only the professor whose reviews changed gets a recompute
		prof, err := mem.GetProfessorByName(ctx, "Ada Lee")
		require.NoError(t, err)
		assert.Equal(t, []int64{prof.ID}, scheduled)

		reviews, err := mem.ListReviewsByProfessor(ctx, prof.ID)
		require.NoError(t, err)
		assert.Len(t, reviews, 2)
	})

	t.Run("dry run leaves the store untouched but reports commit counts", func(t *testing.T) {
		mem := store.NewMemory()

		scheduled := 0
		o := New(mem, schedulerFunc(func(_ context.Context, _ int64) error {
			scheduled++

			return nil
		}), nil, fastConfig())

		dry, err := o.Sync(ctx, sources, source.Scope{Department: "CMPT"}, models.SyncDryRun)
		require.NoError(t, err)

		profs, err := mem.ListProfessors(ctx)
		require.NoError(t, err)
		assert.Empty(t, profs)
		assert.Zero(t, scheduled)
		assert.Zero(t, dry.RecomputesScheduled)

		commit, err := o.Sync(ctx, sources, source.Scope{Department: "CMPT"}, models.SyncCommit)
		require.NoError(t, err)

		assert.Equal(t, commit.Professors, dry.Professors)
		assert.Equal(t, commit.Reviews, dry.Reviews)
	})

	t.Run("second commit run is fully idempotent", func(t *testing.T) {
		mem := store.NewMemory()
		o := New(mem, nil, nil, fastConfig())

		_, err := o.Sync(ctx, sources, source.Scope{Department: "CMPT"}, models.SyncCommit)
		require.NoError(t, err)

		again, err := o.Sync(ctx, sources, source.Scope{Department: "CMPT"}, models.SyncCommit)
		require.NoError(t, err)

		assert.Zero(t, again.Professors.Added)
		assert.Zero(t, again.Reviews.Added)
		assert.Zero(t, again.Reviews.Updated)
		assert.Equal(t, 2, again.Reviews.Skipped)
	})

	t.Run("review sources fan out over discovered professors", func(t *testing.T) {
		mem := store.NewMemory()
		o := New(mem, nil, nil, fastConfig())

		forum := &fakeAdapter{name: "forum", kind: models.SourceForum, steps: []step{
			{rec: reviewRecord("Ada Lee", "p1", "clear lectures")},
			{rec: reviewRecord("Grace Ho", "p2", "fair exams")},
		}}
		fanned := []source.Adapter{
			&fakeAdapter{name: "catalog", kind: models.SourceCatalog, steps: []step{
				{rec: identityRecord("Ada Lee")},
				{rec: identityRecord("Grace Ho")},
			}},
			forum,
		}

		summary, err := o.Sync(ctx, fanned, source.Scope{Department: "CMPT"}, models.SyncCommit)
		require.NoError(t, err)

		// one search per professor the catalog pass found, in discovery order
		require.Len(t, forum.fetches, 2)
		assert.Equal(t, "Ada Lee", forum.fetches[0].ProfessorName)
		assert.Equal(t, "Grace Ho", forum.fetches[1].ProfessorName)
		assert.Equal(t, 2, summary.Reviews.Added)
		assert.Empty(t, summary.SourceErrors)
	})

	t.Run("pinned professor limits review sources to one search", func(t *testing.T) {
		mem := store.NewMemory()
		o := New(mem, nil, nil, fastConfig())

		forum := &fakeAdapter{name: "forum", kind: models.SourceForum, steps: []step{
			{rec: reviewRecord("Ada Lee", "p1", "clear lectures")},
			{rec: reviewRecord("Grace Ho", "p2", "fair exams")},
		}}
		pinned := []source.Adapter{
			&fakeAdapter{name: "catalog", kind: models.SourceCatalog, steps: []step{
				{rec: identityRecord("Ada Lee")},
				{rec: identityRecord("Grace Ho")},
			}},
			forum,
		}

		summary, err := o.Sync(ctx, pinned,
			source.Scope{Department: "CMPT", ProfessorName: "Ada Lee"}, models.SyncCommit)
		require.NoError(t, err)

		require.Len(t, forum.fetches, 1)
		assert.Equal(t, "Ada Lee", forum.fetches[0].ProfessorName)
		assert.Equal(t, 1, summary.Reviews.Added)
	})

	t.Run("review source with no professors in scope is skipped, not failed", func(t *testing.T) {
		mem := store.NewMemory()
		o := New(mem, nil, nil, fastConfig())

		forum := &fakeAdapter{name: "forum", kind: models.SourceForum, steps: []step{
			{rec: reviewRecord("Ada Lee", "p1", "clear lectures")},
		}}

		summary, err := o.Sync(ctx, []source.Adapter{forum}, source.Scope{}, models.SyncCommit)
		require.NoError(t, err)

		assert.Empty(t, forum.fetches)
		assert.Empty(t, summary.SourceErrors)
		assert.Zero(t, summary.Reviews.Added)
	})

	t.Run("unknown mode rejected", func(t *testing.T) {
		o := New(store.NewMemory(), nil, nil, fastConfig())

		_, err := o.Sync(ctx, sources, source.Scope{}, models.SyncMode("yolo"))
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestOrchestrator_Retry(t *testing.T) {
	ctx := context.Background()

	t.Run("transient failure is retried and the record lands", func(t *testing.T) {
		mem := store.NewMemory()
		o := New(mem, nil, nil, fastConfig())

		flaky := &fakeAdapter{name: "forum", kind: models.SourceForum, steps: []step{
			{rec: identityRecord("Ada Lee")},
			{err: apperrors.NewTransientSourceError("forum", errors.New("503"))},
			{rec: reviewRecord("Ada Lee", "p1", "clear lectures")},
		}}

		summary, err := o.Sync(ctx, []source.Adapter{flaky}, source.Scope{ProfessorName: "Ada Lee"}, models.SyncCommit)
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Reviews.Added)
		assert.Empty(t, summary.SourceErrors)
	})

	t.Run("exhausted retries abort the source but not the run", func(t *testing.T) {
		mem := store.NewMemory()
		o := New(mem, nil, nil, Config{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond})

		down := &fakeAdapter{name: "forum", kind: models.SourceForum, steps: []step{
			{err: apperrors.NewTransientSourceError("forum", errors.New("timeout"))},
			{err: apperrors.NewTransientSourceError("forum", errors.New("timeout"))},
			{err: apperrors.NewTransientSourceError("forum", errors.New("timeout"))},
		}}
		healthy := &fakeAdapter{name: "catalog", kind: models.SourceCatalog, steps: []step{
			{rec: identityRecord("Ada Lee")},
		}}

		summary, err := o.Sync(ctx, []source.Adapter{down, healthy}, source.Scope{ProfessorName: "Ada Lee"}, models.SyncCommit)
		require.NoError(t, err)

		require.Len(t, summary.SourceErrors, 1)
		assert.Contains(t, summary.SourceErrors[0], "forum")
		assert.Equal(t, 1, summary.Professors.Added)
	})

	t.Run("invalid record is skipped without retry", func(t *testing.T) {
		mem := store.NewMemory()
		o := New(mem, nil, nil, fastConfig())

		bad := &fakeAdapter{name: "catalog", kind: models.SourceCatalog, steps: []step{
			{rec: &source.Record{Key: source.ExternalKey(models.SourceCatalog, "p1"), ProfessorName: "   "}},
			{rec: identityRecord("Ada Lee")},
		}}

		summary, err := o.Sync(ctx, []source.Adapter{bad}, source.Scope{}, models.SyncCommit)
		require.NoError(t, err)

		assert.Equal(t, models.SyncCounts{Added: 1, Skipped: 1}, summary.Professors)
		assert.Empty(t, summary.SourceErrors)
	})
}
