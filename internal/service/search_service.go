package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/profscope/hub/internal/embeddings"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/observability"
	"github.com/profscope/hub/internal/source"
	"github.com/profscope/hub/internal/store"
	"github.com/profscope/hub/pkg/cache"
)

const searchQueryCacheName = "search_query"

const (
	defaultTopK = 10
	maxTopK     = 100
)

// Sentinel errors for search (used by handlers for status mapping).
var ErrEmptyQuery = errors.New("query is required and must be non-empty")

// SearchService answers free-text nearest-neighbor queries over professor
// vectors. The query embedding is cached so repeated queries don't re-hit the
// embedding provider; professors without a stored vector never appear in
// results.
type SearchService struct {
	store        store.EmbeddingStore
	embedder     embeddings.Client
	queryCache   *cache.LoaderCache[string, []float32]
	cacheMetrics observability.CacheMetrics
	minScore     float64
	logger       *slog.Logger
}

// SearchServiceParams configures SearchService. QueryCache and CacheMetrics
// may be nil (no caching).
type SearchServiceParams struct {
	Store        store.EmbeddingStore
	Embedder     embeddings.Client
	QueryCache   *cache.LoaderCache[string, []float32]
	CacheMetrics observability.CacheMetrics
	MinScore     float64
	Logger       *slog.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(p SearchServiceParams) *SearchService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SearchService{
		store:        p.Store,
		embedder:     p.Embedder,
		queryCache:   p.QueryCache,
		cacheMetrics: p.CacheMetrics,
		minScore:     p.MinScore,
		logger:       logger,
	}
}

// Search embeds the query text and returns the topK professors whose stored
// vectors score highest against it, descending score, ties broken by lower
// professor id. A non-positive topK falls back to the default.
func (s *SearchService) Search(
	ctx context.Context, query string, topK int, department *string,
) ([]models.ProfessorWithScore, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if topK <= 0 {
		topK = defaultTopK
	}

	if topK > maxTopK {
		topK = maxTopK
	}

	embedding, err := s.queryEmbedding(ctx, query)
	if err != nil {
		s.logger.ErrorContext(ctx, "search: query embedding failed", "error", err)
		//nolint:wrapcheck // CapabilityUnavailableError passes through for handler status mapping
		return nil, err
	}

	results, err := s.store.NearestProfessors(ctx, embedding, topK, department, s.minScore)
	if err != nil {
		s.logger.ErrorContext(ctx, "search: nearest professors failed", "error", err)

		return nil, fmt.Errorf("nearest professors: %w", err)
	}

	return results, nil
}

// queryEmbedding returns the query vector, cached under the normalized query
// text so trivially different phrasings of the same query share an entry.
func (s *SearchService) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	if s.queryCache == nil {
		return s.embedder.Embed(ctx, query)
	}

	key := strings.ToLower(source.NormalizeText(query))

	embedding, hit, err := s.queryCache.GetWithStats(ctx, key,
		func(ctx context.Context, _ string) ([]float32, error) {
			return s.embedder.Embed(ctx, query)
		})
	if err != nil {
		return nil, err
	}

	if s.cacheMetrics != nil {
		if hit {
			s.cacheMetrics.RecordHit(ctx, searchQueryCacheName)
		} else {
			s.cacheMetrics.RecordMiss(ctx, searchQueryCacheName)
		}
	}

	return embedding, nil
}
