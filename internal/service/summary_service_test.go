package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profscope/hub/internal/apperrors"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/store"
	"github.com/profscope/hub/internal/summarize"
)

type scriptedSummarizer struct {
	sections summarize.Sections
	err      error
	calls    int
}

func (s *scriptedSummarizer) Summarize(_ context.Context, _ string) (summarize.Sections, error) {
	s.calls++

	return s.sections, s.err
}

func newSummaryService(mem *store.Memory, client summarize.Client) *SummaryService {
	return NewSummaryService(SummaryServiceParams{
		Store:         mem,
		Client:        client,
		RefreshWindow: 7 * 24 * time.Hour,
	})
}

func TestSummaryService_GetOrRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("generates on first read and serves the cache afterwards", func(t *testing.T) {
		mem := store.NewMemory()
		prof := seedProfessorWithReviews(t, mem, "Ada Lee", "clear lectures")

		client := &scriptedSummarizer{sections: summarize.Sections{Pros: []string{"clear lectures"}}}
		svc := newSummaryService(mem, client)

		summary, err := svc.GetOrRefresh(ctx, prof.ID, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"clear lectures"}, summary.Pros)
		assert.Equal(t, 1, client.calls)

		again, err := svc.GetOrRefresh(ctx, prof.ID, false)
		require.NoError(t, err)
		assert.Equal(t, summary.UpdatedAt, again.UpdatedAt)
		assert.Equal(t, 1, client.calls)
	})

	t.Run("a newer review invalidates the cache", func(t *testing.T) {
		mem := store.NewMemory()
		prof := seedProfessorWithReviews(t, mem, "Ada Lee", "clear lectures")

		client := &scriptedSummarizer{}
		svc := newSummaryService(mem, client)

		_, err := svc.GetOrRefresh(ctx, prof.ID, false)
		require.NoError(t, err)

		id := "later-post"
		_, _, err = mem.UpsertReview(ctx, &models.UpsertReviewRequest{
			ProfessorID: prof.ID, Text: "heavy workload", SourceKind: models.SourceForum, ExternalID: &id,
		})
		require.NoError(t, err)

		_, err = svc.GetOrRefresh(ctx, prof.ID, false)
		require.NoError(t, err)
		assert.Equal(t, 2, client.calls)
	})

	t.Run("refresh window forces regeneration of an aged digest", func(t *testing.T) {
		mem := store.NewMemory()
		prof := seedProfessorWithReviews(t, mem, "Ada Lee", "clear lectures")

		client := &scriptedSummarizer{}
		svc := newSummaryService(mem, client)

		_, err := svc.GetOrRefresh(ctx, prof.ID, false)
		require.NoError(t, err)

		svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

		_, err = svc.GetOrRefresh(ctx, prof.ID, false)
		require.NoError(t, err)
		assert.Equal(t, 2, client.calls)
	})

	t.Run("force bypasses freshness", func(t *testing.T) {
		mem := store.NewMemory()
		prof := seedProfessorWithReviews(t, mem, "Ada Lee", "clear lectures")

		client := &scriptedSummarizer{}
		svc := newSummaryService(mem, client)

		_, err := svc.GetOrRefresh(ctx, prof.ID, false)
		require.NoError(t, err)

		_, err = svc.GetOrRefresh(ctx, prof.ID, true)
		require.NoError(t, err)
		assert.Equal(t, 2, client.calls)
	})

	t.Run("no reviews and no cache", func(t *testing.T) {
		mem := store.NewMemory()

		prof, _, err := mem.UpsertProfessor(ctx, &models.UpsertProfessorRequest{Name: "Ada Lee"})
		require.NoError(t, err)

		svc := newSummaryService(mem, &scriptedSummarizer{})

		_, err = svc.GetOrRefresh(ctx, prof.ID, false)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("failed refresh serves the stale digest", func(t *testing.T) {
		mem := store.NewMemory()
		prof := seedProfessorWithReviews(t, mem, "Ada Lee", "clear lectures")

		client := &scriptedSummarizer{sections: summarize.Sections{Pros: []string{"clear lectures"}}}
		svc := newSummaryService(mem, client)

		stale, err := svc.GetOrRefresh(ctx, prof.ID, false)
		require.NoError(t, err)

		client.err = errors.New("model overloaded")

		got, err := svc.GetOrRefresh(ctx, prof.ID, true)
		require.NoError(t, err)
		assert.Equal(t, stale.Pros, got.Pros)
		assert.Equal(t, stale.UpdatedAt, got.UpdatedAt)
	})

	t.Run("unconfigured capability with no cache", func(t *testing.T) {
		mem := store.NewMemory()
		prof := seedProfessorWithReviews(t, mem, "Ada Lee", "clear lectures")

		svc := newSummaryService(mem, summarize.Disabled{})

		_, err := svc.GetOrRefresh(ctx, prof.ID, false)
		assert.ErrorIs(t, err, apperrors.ErrCapabilityUnavailable)
	})

	t.Run("unknown professor", func(t *testing.T) {
		svc := newSummaryService(store.NewMemory(), &scriptedSummarizer{})

		_, err := svc.GetOrRefresh(ctx, 404, false)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestSummaryService_Refresh(t *testing.T) {
	ctx := context.Background()

	mem := store.NewMemory()
	prof := seedProfessorWithReviews(t, mem, "Ada Lee", "clear lectures")

	client := &scriptedSummarizer{sections: summarize.Sections{Neutral: []string{"mixed feedback"}}}
	svc := newSummaryService(mem, client)

	require.NoError(t, svc.Refresh(ctx, prof.ID))

	stored, err := mem.GetSummary(ctx, prof.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"mixed feedback"}, stored.Neutral)
}

func TestFormatReviewsForSummary(t *testing.T) {
	rating := 4
	reviewed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	payload := formatReviewsForSummary([]models.Review{
		{Text: "clear lectures", SourceKind: models.SourceForum, Rating: &rating, ReviewedAt: &reviewed},
		{Text: "  ", SourceKind: models.SourceForum},
		{Text: "heavy workload", SourceKind: models.SourceReviewSite},
	})

	assert.Equal(t,
		"Review 1 (source=forum, rating=4, timestamp=2025-03-01T12:00:00Z):\nclear lectures\n\n"+
			"Review 3 (source=review_site):\nheavy workload",
		payload)
}
