package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profscope/hub/internal/apperrors"
	"github.com/profscope/hub/internal/embeddings"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/store"
	"github.com/profscope/hub/pkg/cache"
)

type countingCacheMetrics struct {
	hits, misses int
}

func (m *countingCacheMetrics) RecordHit(_ context.Context, _ string)  { m.hits++ }
func (m *countingCacheMetrics) RecordMiss(_ context.Context, _ string) { m.misses++ }

// seedVector registers a professor with a fixed embedding.
func seedVector(t *testing.T, mem *store.Memory, name string, department *string, vec []float32) *models.Professor {
	t.Helper()

	ctx := context.Background()

	prof, _, err := mem.UpsertProfessor(ctx, &models.UpsertProfessorRequest{Name: name, Department: department})
	require.NoError(t, err)

	_, err = mem.PutEmbedding(ctx, &models.ProfessorEmbedding{ProfessorID: prof.ID, Vector: vec, Generation: 1})
	require.NoError(t, err)

	return prof
}

func TestSearchService_Search(t *testing.T) {
	ctx := context.Background()
	cmpt := "CMPT"
	math := "MATH"

	fixedQuery := embedFunc(func(_ context.Context, _ string) ([]float32, error) {
		return []float32{1, 0}, nil
	})

	t.Run("ranks by score descending", func(t *testing.T) {
		mem := store.NewMemory()
		a := seedVector(t, mem, "Ada Lee", &cmpt, []float32{1, 0})
		b := seedVector(t, mem, "Grace Ho", &math, []float32{1, 1})
		seedVector(t, mem, "Alan Po", &cmpt, []float32{0, 1})

		svc := NewSearchService(SearchServiceParams{Store: mem, Embedder: fixedQuery})

		results, err := svc.Search(ctx, "clear lectures", 2, nil)
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Equal(t, a.ID, results[0].ProfessorID)
		assert.InDelta(t, 1.0, results[0].Score, 1e-9)
		assert.Equal(t, b.ID, results[1].ProfessorID)
		assert.InDelta(t, 0.7071, results[1].Score, 1e-3)
	})

	t.Run("department filter and min score", func(t *testing.T) {
		mem := store.NewMemory()
		a := seedVector(t, mem, "Ada Lee", &cmpt, []float32{1, 0})
		seedVector(t, mem, "Grace Ho", &math, []float32{1, 0})
		seedVector(t, mem, "Alan Po", &cmpt, []float32{0, 1})

		svc := NewSearchService(SearchServiceParams{Store: mem, Embedder: fixedQuery, MinScore: 0.5})

		results, err := svc.Search(ctx, "clear lectures", 10, &cmpt)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, a.ID, results[0].ProfessorID)
	})

	t.Run("professor without a vector is absent", func(t *testing.T) {
		mem := store.NewMemory()
		seedVector(t, mem, "Ada Lee", nil, []float32{1, 0})

		_, _, err := mem.UpsertProfessor(ctx, &models.UpsertProfessorRequest{Name: "No Reviews"})
		require.NoError(t, err)

		svc := NewSearchService(SearchServiceParams{Store: mem, Embedder: fixedQuery})

		results, err := svc.Search(ctx, "anything", 10, nil)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("query embedding is cached across calls", func(t *testing.T) {
		mem := store.NewMemory()
		seedVector(t, mem, "Ada Lee", nil, []float32{1, 0})

		embeds := 0
		counting := embedFunc(func(_ context.Context, _ string) ([]float32, error) {
			embeds++

			return []float32{1, 0}, nil
		})

		queryCache, err := cache.NewLoaderCache[string, []float32](16, func(k string) string { return k })
		require.NoError(t, err)

		metrics := &countingCacheMetrics{}
		svc := NewSearchService(SearchServiceParams{
			Store: mem, Embedder: counting, QueryCache: queryCache, CacheMetrics: metrics,
		})

		_, err = svc.Search(ctx, "clear lectures", 5, nil)
		require.NoError(t, err)

		// same query after whitespace normalization
		_, err = svc.Search(ctx, "  Clear   Lectures ", 5, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, embeds)
		assert.Equal(t, 1, metrics.hits)
		assert.Equal(t, 1, metrics.misses)
	})

	t.Run("empty query rejected", func(t *testing.T) {
		svc := NewSearchService(SearchServiceParams{Store: store.NewMemory(), Embedder: fixedQuery})

		_, err := svc.Search(ctx, "   ", 5, nil)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("disabled capability surfaces as unavailable", func(t *testing.T) {
		svc := NewSearchService(SearchServiceParams{Store: store.NewMemory(), Embedder: embeddings.Disabled{}})

		_, err := svc.Search(ctx, "clear lectures", 5, nil)
		assert.ErrorIs(t, err, apperrors.ErrCapabilityUnavailable)
	})
}
