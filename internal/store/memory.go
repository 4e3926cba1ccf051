package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/profscope/hub/internal/apperrors"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/pkg/vectors"
)

// Memory is an in-process implementation of the full persistence port. It
// backs unit tests, local development without Postgres, and the dry-run
// staging overlay. All methods are safe for concurrent use.
type Memory struct {
	mu sync.Mutex

	nextProfessorID int64
	nextReviewID    int64

	professors map[int64]*models.Professor
	byName     map[string]int64

	reviews map[int64]*models.Review
	byKey   map[string]int64

	embeddings map[int64]*models.ProfessorEmbedding
	summaries  map[int64]*models.Summary

	now func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextProfessorID: 1,
		nextReviewID:    1,
		professors:      make(map[int64]*models.Professor),
		byName:          make(map[string]int64),
		reviews:         make(map[int64]*models.Review),
		byKey:           make(map[string]int64),
		embeddings:      make(map[int64]*models.ProfessorEmbedding),
		summaries:       make(map[int64]*models.Summary),
		now:             time.Now,
	}
}

func reviewKey(kind models.SourceKind, externalID, contentHash *string) string {
	if externalID != nil {
		return string(kind) + "|id:" + *externalID
	}

	if contentHash != nil {
		return string(kind) + "|hash:" + *contentHash
	}

	return string(kind) + "|"
}

// UpsertProfessor implements ProfessorStore.
func (m *Memory) UpsertProfessor(_ context.Context, req *models.UpsertProfessorRequest) (*models.Professor, Outcome, error) {
	if req.Name == "" {
		return nil, 0, apperrors.NewValidationError("name", "professor name is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	id, ok := m.byName[req.Name]
	if !ok {
		prof := &models.Professor{
			ID:          m.nextProfessorID,
			Name:        req.Name,
			Department:  copyStr(req.Department),
			ProfileURL:  copyStr(req.ProfileURL),
			CourseCodes: append([]string(nil), req.CourseCodes...),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		m.nextProfessorID++
		m.professors[prof.ID] = prof
		m.byName[prof.Name] = prof.ID

		return copyProfessor(prof), OutcomeAdded, nil
	}

	prof := m.professors[id]
	changed := false

	if req.Department != nil && !strEqual(prof.Department, req.Department) {
		prof.Department = copyStr(req.Department)
		changed = true
	}

	if req.ProfileURL != nil && !strEqual(prof.ProfileURL, req.ProfileURL) {
		prof.ProfileURL = copyStr(req.ProfileURL)
		changed = true
	}

	for _, code := range req.CourseCodes {
		if !contains(prof.CourseCodes, code) {
			prof.CourseCodes = append(prof.CourseCodes, code)
			changed = true
		}
	}

	if !changed {
		return copyProfessor(prof), OutcomeUnchanged, nil
	}

	prof.UpdatedAt = now

	return copyProfessor(prof), OutcomeUpdated, nil
}

// GetProfessor implements ProfessorStore.
func (m *Memory) GetProfessor(_ context.Context, id int64) (*models.Professor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prof, ok := m.professors[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("professor", "")
	}

	return copyProfessor(prof), nil
}

// GetProfessorByName implements ProfessorStore.
func (m *Memory) GetProfessorByName(_ context.Context, name string) (*models.Professor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byName[name]
	if !ok {
		return nil, apperrors.NewNotFoundError("professor", "")
	}

	return copyProfessor(m.professors[id]), nil
}

// ListProfessors implements ProfessorStore.
func (m *Memory) ListProfessors(_ context.Context) ([]models.Professor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Professor, 0, len(m.professors))
	for _, prof := range m.professors {
		out = append(out, *copyProfessor(prof))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// UpsertReview implements ReviewStore.
func (m *Memory) UpsertReview(_ context.Context, req *models.UpsertReviewRequest) (*models.Review, Outcome, error) {
	if (req.ExternalID == nil) == (req.ContentHash == nil) {
		return nil, 0, apperrors.NewValidationError("natural_key", "exactly one of external_id and content_hash must be set")
	}

	if !models.ValidSourceKind(req.SourceKind) {
		return nil, 0, apperrors.NewValidationError("source_kind", "unknown source kind")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.professors[req.ProfessorID]; !ok {
		return nil, 0, apperrors.NewNotFoundError("professor", "")
	}

	now := m.now()
	key := reviewKey(req.SourceKind, req.ExternalID, req.ContentHash)

	id, ok := m.byKey[key]
	if !ok {
		rev := &models.Review{
			ID:          m.nextReviewID,
			ProfessorID: req.ProfessorID,
			Text:        req.Text,
			SourceKind:  req.SourceKind,
			ExternalID:  copyStr(req.ExternalID),
			ContentHash: copyStr(req.ContentHash),
			Rating:      copyInt(req.Rating),
			ReviewedAt:  copyTime(req.ReviewedAt),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		m.nextReviewID++
		m.reviews[rev.ID] = rev
		m.byKey[key] = rev.ID

		return copyReview(rev), OutcomeAdded, nil
	}

	rev := m.reviews[id]
	if rev.ProfessorID == req.ProfessorID &&
		rev.Text == req.Text &&
		intEqual(rev.Rating, req.Rating) &&
		timeEqual(rev.ReviewedAt, req.ReviewedAt) {
		return copyReview(rev), OutcomeUnchanged, nil
	}

	rev.ProfessorID = req.ProfessorID
	rev.Text = req.Text
	rev.Rating = copyInt(req.Rating)
	rev.ReviewedAt = copyTime(req.ReviewedAt)
	rev.UpdatedAt = now

	return copyReview(rev), OutcomeUpdated, nil
}

// GetReviewByKey implements ReviewStore.
func (m *Memory) GetReviewByKey(_ context.Context, kind models.SourceKind, externalID, contentHash *string) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byKey[reviewKey(kind, externalID, contentHash)]
	if !ok {
		return nil, apperrors.NewNotFoundError("review", "")
	}

	return copyReview(m.reviews[id]), nil
}

// ListReviewsByProfessor implements ReviewStore.
func (m *Memory) ListReviewsByProfessor(_ context.Context, professorID int64) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Review

	for _, rev := range m.reviews {
		if rev.ProfessorID == professorID {
			out = append(out, *copyReview(rev))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// LatestReviewTime implements ReviewStore.
func (m *Memory) LatestReviewTime(_ context.Context, professorID int64) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest time.Time

	for _, rev := range m.reviews {
		if rev.ProfessorID == professorID && rev.CreatedAt.After(latest) {
			latest = rev.CreatedAt
		}
	}

	return latest, nil
}

// GetEmbedding implements EmbeddingStore.
func (m *Memory) GetEmbedding(_ context.Context, professorID int64) (*models.ProfessorEmbedding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	emb, ok := m.embeddings[professorID]
	if !ok {
		return nil, apperrors.NewNotFoundError("embedding", "")
	}

	return copyEmbedding(emb), nil
}

// PutEmbedding implements EmbeddingStore. The generation compare and the write
// happen under one lock acquisition, which is what makes the guard atomic.
func (m *Memory) PutEmbedding(_ context.Context, emb *models.ProfessorEmbedding) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.embeddings[emb.ProfessorID]; ok && existing.Generation >= emb.Generation {
		return false, nil
	}

	stored := copyEmbedding(emb)
	stored.UpdatedAt = m.now()
	m.embeddings[emb.ProfessorID] = stored

	return true, nil
}

// DeleteEmbedding implements EmbeddingStore.
func (m *Memory) DeleteEmbedding(_ context.Context, professorID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.embeddings, professorID)

	return nil
}

// NearestProfessors implements EmbeddingStore with a linear scan. Fine for
// tests and small datasets; the Postgres implementation uses an HNSW index.
func (m *Memory) NearestProfessors(_ context.Context, queryVec []float32, limit int, department *string, minScore float64) ([]models.ProfessorWithScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.ProfessorWithScore

	for id, emb := range m.embeddings {
		prof, ok := m.professors[id]
		if !ok {
			continue
		}

		if department != nil && !strEqual(prof.Department, department) {
			continue
		}

		score := vectors.CosineScore(queryVec, emb.Vector)
		if score < minScore {
			continue
		}

		out = append(out, models.ProfessorWithScore{
			ProfessorID: id,
			Name:        prof.Name,
			Department:  copyStr(prof.Department),
			Score:       score,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}

		return out[i].ProfessorID < out[j].ProfessorID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// GetSummary implements SummaryStore.
func (m *Memory) GetSummary(_ context.Context, professorID int64) (*models.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.summaries[professorID]
	if !ok {
		return nil, apperrors.NewNotFoundError("summary", "")
	}

	out := *s
	out.Pros = append([]string(nil), s.Pros...)
	out.Cons = append([]string(nil), s.Cons...)
	out.Neutral = append([]string(nil), s.Neutral...)

	return &out, nil
}

// PutSummary implements SummaryStore.
func (m *Memory) PutSummary(_ context.Context, summary *models.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := *summary
	s.Pros = append([]string(nil), summary.Pros...)
	s.Cons = append([]string(nil), summary.Cons...)
	s.Neutral = append([]string(nil), summary.Neutral...)
	m.summaries[summary.ProfessorID] = &s

	return nil
}

// seedProfessor inserts a professor with its id preserved. Used by Staging to
// copy live rows into the overlay before replaying an upsert against them.
func (m *Memory) seedProfessor(p *models.Professor) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.professors[p.ID]; ok {
		return
	}

	cp := copyProfessor(p)
	m.professors[cp.ID] = cp
	m.byName[cp.Name] = cp.ID

	if cp.ID >= m.nextProfessorID {
		m.nextProfessorID = cp.ID + 1
	}
}

// seedReview inserts a review with its id preserved. Used by Staging.
func (m *Memory) seedReview(r *models.Review) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reviews[r.ID]; ok {
		return
	}

	cp := copyReview(r)
	m.reviews[cp.ID] = cp
	m.byKey[reviewKey(cp.SourceKind, cp.ExternalID, cp.ContentHash)] = cp.ID

	if cp.ID >= m.nextReviewID {
		m.nextReviewID = cp.ID + 1
	}
}

func copyProfessor(p *models.Professor) *models.Professor {
	out := *p
	out.Department = copyStr(p.Department)
	out.ProfileURL = copyStr(p.ProfileURL)
	out.CourseCodes = append([]string(nil), p.CourseCodes...)

	return &out
}

func copyReview(r *models.Review) *models.Review {
	out := *r
	out.ExternalID = copyStr(r.ExternalID)
	out.ContentHash = copyStr(r.ContentHash)
	out.Rating = copyInt(r.Rating)
	out.ReviewedAt = copyTime(r.ReviewedAt)

	return &out
}

func copyEmbedding(e *models.ProfessorEmbedding) *models.ProfessorEmbedding {
	out := *e
	out.Vector = append([]float32(nil), e.Vector...)

	return &out
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}

	v := *s

	return &v
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}

	v := *i

	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	v := *t

	return &v
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

func strEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

func intEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Equal(*b)
}
