package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profscope/hub/internal/apperrors"
	"github.com/profscope/hub/internal/models"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func seedProfessor(t *testing.T, m *Memory, name string) *models.Professor {
	t.Helper()

	prof, outcome, err := m.UpsertProfessor(context.Background(), &models.UpsertProfessorRequest{Name: name})
	require.NoError(t, err)
	require.Equal(t, OutcomeAdded, outcome)

	return prof
}

func TestMemory_UpsertProfessor(t *testing.T) {
	ctx := context.Background()

	t.Run("insert then identical upsert is unchanged", func(t *testing.T) {
		m := NewMemory()

		first, outcome, err := m.UpsertProfessor(ctx, &models.UpsertProfessorRequest{
			Name:        "Ada Lee",
			Department:  strPtr("CMPT"),
			CourseCodes: []string{"CMPT110"},
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeAdded, outcome)

		second, outcome, err := m.UpsertProfessor(ctx, &models.UpsertProfessorRequest{
			Name:        "Ada Lee",
			Department:  strPtr("CMPT"),
			CourseCodes: []string{"CMPT110"},
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnchanged, outcome)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.CreatedAt, second.CreatedAt)

		all, err := m.ListProfessors(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("merge unions course codes and preserves created_at", func(t *testing.T) {
		m := NewMemory()

		first, _, err := m.UpsertProfessor(ctx, &models.UpsertProfessorRequest{
			Name:        "Ada Lee",
			CourseCodes: []string{"CMPT110"},
		})
		require.NoError(t, err)

		merged, outcome, err := m.UpsertProfessor(ctx, &models.UpsertProfessorRequest{
			Name:        "Ada Lee",
			Department:  strPtr("CMPT"),
			CourseCodes: []string{"CMPT225", "CMPT110"},
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeUpdated, outcome)
		assert.Equal(t, []string{"CMPT110", "CMPT225"}, merged.CourseCodes)
		require.NotNil(t, merged.Department)
		assert.Equal(t, "CMPT", *merged.Department)
		assert.Equal(t, first.CreatedAt, merged.CreatedAt)
	})

	t.Run("nil fields do not clear stored values", func(t *testing.T) {
		m := NewMemory()

		_, _, err := m.UpsertProfessor(ctx, &models.UpsertProfessorRequest{
			Name:       "Ada Lee",
			Department: strPtr("CMPT"),
		})
		require.NoError(t, err)

		prof, outcome, err := m.UpsertProfessor(ctx, &models.UpsertProfessorRequest{Name: "Ada Lee"})
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnchanged, outcome)
		require.NotNil(t, prof.Department)
		assert.Equal(t, "CMPT", *prof.Department)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		m := NewMemory()

		_, _, err := m.UpsertProfessor(ctx, &models.UpsertProfessorRequest{})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestMemory_UpsertReview(t *testing.T) {
	ctx := context.Background()

	t.Run("same natural key never duplicates", func(t *testing.T) {
		m := NewMemory()
		prof := seedProfessor(t, m, "Ada Lee")

		req := &models.UpsertReviewRequest{
			ProfessorID: prof.ID,
			Text:        "clear lectures",
			SourceKind:  models.SourceForum,
			ExternalID:  strPtr("abc1"),
		}

		first, outcome, err := m.UpsertReview(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAdded, outcome)

		second, outcome, err := m.UpsertReview(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnchanged, outcome)
		assert.Equal(t, first.ID, second.ID)

		reviews, err := m.ListReviewsByProfessor(ctx, prof.ID)
		require.NoError(t, err)
		assert.Len(t, reviews, 1)
	})

	t.Run("changed text replaces fields but keeps id and created_at", func(t *testing.T) {
		m := NewMemory()
		prof := seedProfessor(t, m, "Ada Lee")

		first, _, err := m.UpsertReview(ctx, &models.UpsertReviewRequest{
			ProfessorID: prof.ID,
			Text:        "clear lectures",
			SourceKind:  models.SourceForum,
			ExternalID:  strPtr("abc1"),
		})
		require.NoError(t, err)

		updated, outcome, err := m.UpsertReview(ctx, &models.UpsertReviewRequest{
			ProfessorID: prof.ID,
			Text:        "clear lectures, edited",
			SourceKind:  models.SourceForum,
			ExternalID:  strPtr("abc1"),
			Rating:      intPtr(5),
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeUpdated, outcome)
		assert.Equal(t, first.ID, updated.ID)
		assert.Equal(t, first.CreatedAt, updated.CreatedAt)
		assert.Equal(t, "clear lectures, edited", updated.Text)
	})

	t.Run("same external id under different source kinds is two reviews", func(t *testing.T) {
		m := NewMemory()
		prof := seedProfessor(t, m, "Ada Lee")

		_, outcome, err := m.UpsertReview(ctx, &models.UpsertReviewRequest{
			ProfessorID: prof.ID, Text: "a", SourceKind: models.SourceForum, ExternalID: strPtr("x1"),
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeAdded, outcome)

		_, outcome, err = m.UpsertReview(ctx, &models.UpsertReviewRequest{
			ProfessorID: prof.ID, Text: "a", SourceKind: models.SourceReviewSite, ContentHash: strPtr("x1"),
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeAdded, outcome)
	})

	t.Run("both or neither key part rejected", func(t *testing.T) {
		m := NewMemory()
		prof := seedProfessor(t, m, "Ada Lee")

		_, _, err := m.UpsertReview(ctx, &models.UpsertReviewRequest{
			ProfessorID: prof.ID, Text: "a", SourceKind: models.SourceForum,
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation)

		_, _, err = m.UpsertReview(ctx, &models.UpsertReviewRequest{
			ProfessorID: prof.ID, Text: "a", SourceKind: models.SourceForum,
			ExternalID: strPtr("x"), ContentHash: strPtr("y"),
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("unknown professor rejected", func(t *testing.T) {
		m := NewMemory()

		_, _, err := m.UpsertReview(ctx, &models.UpsertReviewRequest{
			ProfessorID: 99, Text: "a", SourceKind: models.SourceForum, ExternalID: strPtr("x"),
		})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestMemory_PutEmbedding(t *testing.T) {
	ctx := context.Background()

	t.Run("generation must strictly increase", func(t *testing.T) {
		m := NewMemory()
		prof := seedProfessor(t, m, "Ada Lee")

		ok, err := m.PutEmbedding(ctx, &models.ProfessorEmbedding{
			ProfessorID: prof.ID, Vector: []float32{1, 0}, Generation: 2,
		})
		require.NoError(t, err)
		assert.True(t, ok)

		// a slower recompute finishing late must not roll the vector back
		ok, err = m.PutEmbedding(ctx, &models.ProfessorEmbedding{
			ProfessorID: prof.ID, Vector: []float32{0, 1}, Generation: 1,
		})
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = m.PutEmbedding(ctx, &models.ProfessorEmbedding{
			ProfessorID: prof.ID, Vector: []float32{0, 1}, Generation: 2,
		})
		require.NoError(t, err)
		assert.False(t, ok)

		emb, err := m.GetEmbedding(ctx, prof.ID)
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0}, emb.Vector)
		assert.Equal(t, int64(2), emb.Generation)

		ok, err = m.PutEmbedding(ctx, &models.ProfessorEmbedding{
			ProfessorID: prof.ID, Vector: []float32{0, 1}, Generation: 3,
		})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("delete clears and tolerates absent vectors", func(t *testing.T) {
		m := NewMemory()
		prof := seedProfessor(t, m, "Ada Lee")

		require.NoError(t, m.DeleteEmbedding(ctx, prof.ID))

		_, err := m.PutEmbedding(ctx, &models.ProfessorEmbedding{ProfessorID: prof.ID, Vector: []float32{1}, Generation: 1})
		require.NoError(t, err)
		require.NoError(t, m.DeleteEmbedding(ctx, prof.ID))

		_, err = m.GetEmbedding(ctx, prof.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestMemory_NearestProfessors(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	a, _, err := m.UpsertProfessor(ctx, &models.UpsertProfessorRequest{Name: "A", Department: strPtr("CMPT")})
	require.NoError(t, err)
	b, _, err := m.UpsertProfessor(ctx, &models.UpsertProfessorRequest{Name: "B", Department: strPtr("MATH")})
	require.NoError(t, err)
	c, _, err := m.UpsertProfessor(ctx, &models.UpsertProfessorRequest{Name: "C", Department: strPtr("CMPT")})
	require.NoError(t, err)
	noVec, _, err := m.UpsertProfessor(ctx, &models.UpsertProfessorRequest{Name: "D"})
	require.NoError(t, err)

	_, err = m.PutEmbedding(ctx, &models.ProfessorEmbedding{ProfessorID: a.ID, Vector: []float32{1, 0}, Generation: 1})
	require.NoError(t, err)
	_, err = m.PutEmbedding(ctx, &models.ProfessorEmbedding{ProfessorID: b.ID, Vector: []float32{0.6, 0.8}, Generation: 1})
	require.NoError(t, err)
	// same vector as A to exercise the id tie-break
	_, err = m.PutEmbedding(ctx, &models.ProfessorEmbedding{ProfessorID: c.ID, Vector: []float32{1, 0}, Generation: 1})
	require.NoError(t, err)

	query := []float32{1, 0}

	t.Run("orders by score then id and omits vectorless professors", func(t *testing.T) {
		got, err := m.NearestProfessors(ctx, query, 10, nil, 0)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, a.ID, got[0].ProfessorID)
		assert.Equal(t, c.ID, got[1].ProfessorID)
		assert.Equal(t, b.ID, got[2].ProfessorID)

		for _, r := range got {
			assert.NotEqual(t, noVec.ID, r.ProfessorID)
		}
	})

	t.Run("department filter", func(t *testing.T) {
		got, err := m.NearestProfessors(ctx, query, 10, strPtr("MATH"), 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, b.ID, got[0].ProfessorID)
	})

	t.Run("min score and limit", func(t *testing.T) {
		got, err := m.NearestProfessors(ctx, query, 10, nil, 0.95)
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = m.NearestProfessors(ctx, query, 1, nil, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, a.ID, got[0].ProfessorID)
	})
}

func TestMemory_LatestReviewTime(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	m.now = func() time.Time {
		clock = clock.Add(time.Minute)

		return clock
	}

	prof := seedProfessor(t, m, "Ada Lee")

	got, err := m.LatestReviewTime(ctx, prof.ID)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, _, err = m.UpsertReview(ctx, &models.UpsertReviewRequest{
		ProfessorID: prof.ID, Text: "a", SourceKind: models.SourceForum, ExternalID: strPtr("x1"),
	})
	require.NoError(t, err)

	_, _, err = m.UpsertReview(ctx, &models.UpsertReviewRequest{
		ProfessorID: prof.ID, Text: "b", SourceKind: models.SourceForum, ExternalID: strPtr("x2"),
	})
	require.NoError(t, err)

	got, err = m.LatestReviewTime(ctx, prof.ID)
	require.NoError(t, err)
	assert.Equal(t, base.Add(3*time.Minute), got)
}

func TestMemory_Summaries(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	prof := seedProfessor(t, m, "Ada Lee")

	_, err := m.GetSummary(ctx, prof.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, m.PutSummary(ctx, &models.Summary{
		ProfessorID: prof.ID,
		Pros:        []string{"clear"},
		Cons:        []string{"tough grading"},
		UpdatedAt:   time.Now(),
	}))

	got, err := m.GetSummary(ctx, prof.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"clear"}, got.Pros)
	assert.Equal(t, []string{"tough grading"}, got.Cons)
}
