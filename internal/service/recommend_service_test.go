package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profscope/hub/internal/apperrors"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/store"
)

func TestRecommendService_Recommend(t *testing.T) {
	ctx := context.Background()

	evenWeights := models.RecommendationWeights{Clarity: 1, Workload: 1, Grading: 1}

	t.Run("ranks favorable reviews above unfavorable ones", func(t *testing.T) {
		mem := store.NewMemory()
		good := seedProfessorWithReviews(t, mem, "Ada Lee", "clear and organized lectures")
		bad := seedProfessorWithReviews(t, mem, "Grace Ho", "confusing and unclear lectures")

		svc := NewRecommendService(mem, nil)

		results, err := svc.Recommend(ctx, evenWeights, 10)
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Equal(t, good.ID, results[0].ProfessorID)
		assert.Equal(t, bad.ID, results[1].ProfessorID)

		// one review with balance +2: clarity 0.5 + 2/6, other components 0.5
		assert.InDelta(t, 0.8333, results[0].Breakdown.ClarityScore, 1e-3)
		assert.InDelta(t, 0.5, results[0].Breakdown.WorkloadScore, 1e-9)
		assert.InDelta(t, 0.6111, results[0].Composite, 1e-3)

		// "unclear" also matches the "clear" keyword, so the balance is -1
		assert.InDelta(t, 0.3333, results[1].Breakdown.ClarityScore, 1e-3)
		assert.Equal(t, 1, results[1].Breakdown.ReviewCount)
	})

	t.Run("zero-review professors are excluded", func(t *testing.T) {
		mem := store.NewMemory()
		seedProfessorWithReviews(t, mem, "Ada Lee", "clear lectures")

		_, _, err := mem.UpsertProfessor(ctx, &models.UpsertProfessorRequest{Name: "No Reviews"})
		require.NoError(t, err)

		svc := NewRecommendService(mem, nil)

		results, err := svc.Recommend(ctx, evenWeights, 10)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, "Ada Lee", results[0].Name)
	})

	t.Run("weights are scale invariant", func(t *testing.T) {
		mem := store.NewMemory()
		seedProfessorWithReviews(t, mem, "Ada Lee", "clear lectures", "heavy workload")
		seedProfessorWithReviews(t, mem, "Grace Ho", "light workload", "unclear notes")

		svc := NewRecommendService(mem, nil)

		twice, err := svc.Recommend(ctx, models.RecommendationWeights{Clarity: 2}, 10)
		require.NoError(t, err)

		quadruple, err := svc.Recommend(ctx, models.RecommendationWeights{Clarity: 4}, 10)
		require.NoError(t, err)

		assert.Equal(t, twice, quadruple)
	})

	t.Run("all-zero weights fall back to the component average", func(t *testing.T) {
		mem := store.NewMemory()
		prof := seedProfessorWithReviews(t, mem, "Ada Lee", "clear lectures")

		svc := NewRecommendService(mem, nil)

		results, err := svc.Recommend(ctx, models.RecommendationWeights{}, 10)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, prof.ID, results[0].ProfessorID)
		// clarity 0.6667, workload 0.5, grading 0.5
		assert.InDelta(t, 0.5556, results[0].Composite, 1e-3)
	})

	t.Run("ties break by professor id ascending", func(t *testing.T) {
		mem := store.NewMemory()
		first := seedProfessorWithReviews(t, mem, "Ada Lee", "solid course")
		second := seedProfessorWithReviews(t, mem, "Grace Ho", "solid course")

		svc := NewRecommendService(mem, nil)

		results, err := svc.Recommend(ctx, evenWeights, 10)
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Equal(t, first.ID, results[0].ProfessorID)
		assert.Equal(t, second.ID, results[1].ProfessorID)
	})

	t.Run("limit caps the output", func(t *testing.T) {
		mem := store.NewMemory()
		seedProfessorWithReviews(t, mem, "Ada Lee", "clear lectures")
		seedProfessorWithReviews(t, mem, "Grace Ho", "clear lectures")
		seedProfessorWithReviews(t, mem, "Alan Po", "clear lectures")

		svc := NewRecommendService(mem, nil)

		results, err := svc.Recommend(ctx, evenWeights, 2)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("negative weights rejected", func(t *testing.T) {
		svc := NewRecommendService(store.NewMemory(), nil)

		_, err := svc.Recommend(ctx, models.RecommendationWeights{Clarity: -1}, 10)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestReviewMetrics_AvgRating(t *testing.T) {
	five := 5
	three := 3

	breakdown := reviewMetrics([]models.Review{
		{Text: "great", Rating: &five},
		{Text: "fine", Rating: &three},
		{Text: "unrated"},
	})

	// unrated reviews count as zero, matching the rating aggregation used
	// everywhere else in the pipeline
	assert.InDelta(t, 8.0/3.0, breakdown.AvgRating, 1e-9)
	assert.Equal(t, 3, breakdown.ReviewCount)
}
