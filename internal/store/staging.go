package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/profscope/hub/internal/apperrors"
	"github.com/profscope/hub/internal/models"
)

// Staging is a copy-on-write overlay over a live SyncStore. Reads fall
// through to the live store; the first write touching a row copies it into an
// in-memory overlay and every write lands there. Dry-run sync runs the exact
// same upsert code as commit against the overlay, so the added/updated
// classification it reports is the one commit would produce, while the live
// store never sees a write.
//
// Ids assigned to rows first created in the overlay are provisional: a later
// commit run assigns its own.
type Staging struct {
	base    SyncStore
	overlay *Memory

	mu               sync.Mutex
	seededProfessors map[string]bool
	seededReviews    map[string]bool
}

// NewStaging creates an overlay on top of base.
func NewStaging(base SyncStore) *Staging {
	return &Staging{
		base:             base,
		overlay:          NewMemory(),
		seededProfessors: make(map[string]bool),
		seededReviews:    make(map[string]bool),
	}
}

func (s *Staging) seedProfessorByName(ctx context.Context, name string) error {
	s.mu.Lock()
	seeded := s.seededProfessors[name]
	s.seededProfessors[name] = true
	s.mu.Unlock()

	if seeded {
		return nil
	}

	prof, err := s.base.GetProfessorByName(ctx, name)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}

		return err
	}

	s.overlay.seedProfessor(prof)

	return nil
}

func (s *Staging) seedReviewByKey(ctx context.Context, kind models.SourceKind, externalID, contentHash *string) error {
	key := reviewKey(kind, externalID, contentHash)

	s.mu.Lock()
	seeded := s.seededReviews[key]
	s.seededReviews[key] = true
	s.mu.Unlock()

	if seeded {
		return nil
	}

	rev, err := s.base.GetReviewByKey(ctx, kind, externalID, contentHash)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}

		return err
	}

	// The review's professor must exist in the overlay for the replayed
	// upsert to validate against.
	if err := s.seedProfessorByID(ctx, rev.ProfessorID); err != nil {
		return err
	}

	s.overlay.seedReview(rev)

	return nil
}

func (s *Staging) seedProfessorByID(ctx context.Context, id int64) error {
	if _, err := s.overlay.GetProfessor(ctx, id); err == nil {
		return nil
	}

	prof, err := s.base.GetProfessor(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}

		return err
	}

	s.mu.Lock()
	s.seededProfessors[prof.Name] = true
	s.mu.Unlock()

	s.overlay.seedProfessor(prof)

	return nil
}

// UpsertProfessor implements ProfessorStore against the overlay.
func (s *Staging) UpsertProfessor(ctx context.Context, req *models.UpsertProfessorRequest) (*models.Professor, Outcome, error) {
	if err := s.seedProfessorByName(ctx, req.Name); err != nil {
		return nil, 0, err
	}

	return s.overlay.UpsertProfessor(ctx, req)
}

// GetProfessor implements ProfessorStore.
func (s *Staging) GetProfessor(ctx context.Context, id int64) (*models.Professor, error) {
	prof, err := s.overlay.GetProfessor(ctx, id)
	if err == nil {
		return prof, nil
	}

	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	return s.base.GetProfessor(ctx, id)
}

// GetProfessorByName implements ProfessorStore.
func (s *Staging) GetProfessorByName(ctx context.Context, name string) (*models.Professor, error) {
	if err := s.seedProfessorByName(ctx, name); err != nil {
		return nil, err
	}

	return s.overlay.GetProfessorByName(ctx, name)
}

// ListProfessors implements ProfessorStore. Overlay rows win over live rows
// with the same id.
func (s *Staging) ListProfessors(ctx context.Context) ([]models.Professor, error) {
	live, err := s.base.ListProfessors(ctx)
	if err != nil {
		return nil, err
	}

	staged, err := s.overlay.ListProfessors(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.Professor, len(live)+len(staged))
	for _, p := range live {
		byID[p.ID] = p
	}

	for _, p := range staged {
		byID[p.ID] = p
	}

	out := make([]models.Professor, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// UpsertReview implements ReviewStore against the overlay.
func (s *Staging) UpsertReview(ctx context.Context, req *models.UpsertReviewRequest) (*models.Review, Outcome, error) {
	if (req.ExternalID == nil) == (req.ContentHash == nil) {
		return nil, 0, apperrors.NewValidationError("natural_key", "exactly one of external_id and content_hash must be set")
	}

	if err := s.seedReviewByKey(ctx, req.SourceKind, req.ExternalID, req.ContentHash); err != nil {
		return nil, 0, err
	}

	return s.overlay.UpsertReview(ctx, req)
}

// GetReviewByKey implements ReviewStore.
func (s *Staging) GetReviewByKey(ctx context.Context, kind models.SourceKind, externalID, contentHash *string) (*models.Review, error) {
	rev, err := s.overlay.GetReviewByKey(ctx, kind, externalID, contentHash)
	if err == nil {
		return rev, nil
	}

	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	return s.base.GetReviewByKey(ctx, kind, externalID, contentHash)
}

// ListReviewsByProfessor implements ReviewStore. Overlay rows win over live
// rows with the same natural key.
func (s *Staging) ListReviewsByProfessor(ctx context.Context, professorID int64) ([]models.Review, error) {
	live, err := s.base.ListReviewsByProfessor(ctx, professorID)
	if err != nil {
		return nil, err
	}

	staged, err := s.overlay.ListReviewsByProfessor(ctx, professorID)
	if err != nil {
		return nil, err
	}

	byNK := make(map[string]models.Review, len(live)+len(staged))
	for _, r := range live {
		byNK[reviewKey(r.SourceKind, r.ExternalID, r.ContentHash)] = r
	}

	for _, r := range staged {
		byNK[reviewKey(r.SourceKind, r.ExternalID, r.ContentHash)] = r
	}

	out := make([]models.Review, 0, len(byNK))
	for _, r := range byNK {
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// LatestReviewTime implements ReviewStore.
func (s *Staging) LatestReviewTime(ctx context.Context, professorID int64) (time.Time, error) {
	liveT, err := s.base.LatestReviewTime(ctx, professorID)
	if err != nil {
		return time.Time{}, err
	}

	stagedT, err := s.overlay.LatestReviewTime(ctx, professorID)
	if err != nil {
		return time.Time{}, err
	}

	if stagedT.After(liveT) {
		return stagedT, nil
	}

	return liveT, nil
}
