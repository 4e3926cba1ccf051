package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/profscope/hub/internal/apperrors"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/store"
)

const reviewColumns = `id, professor_id, text, source_kind, external_id, content_hash,
	rating, reviewed_at, created_at, updated_at`

func scanReview(row pgx.Row) (*models.Review, error) {
	var rev models.Review

	err := row.Scan(
		&rev.ID, &rev.ProfessorID, &rev.Text, &rev.SourceKind, &rev.ExternalID,
		&rev.ContentHash, &rev.Rating, &rev.ReviewedAt, &rev.CreatedAt, &rev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &rev, nil
}

// UpsertReview implements store.ReviewStore. The natural key is enforced by
// two partial unique indexes, one per key shape; the insert names whichever
// one the request can conflict on.
func (r *Postgres) UpsertReview(ctx context.Context, req *models.UpsertReviewRequest) (*models.Review, store.Outcome, error) {
	if (req.ExternalID == nil) == (req.ContentHash == nil) {
		return nil, 0, apperrors.NewValidationError("natural_key", "exactly one of external_id and content_hash must be set")
	}

	if !models.ValidSourceKind(req.SourceKind) {
		return nil, 0, apperrors.NewValidationError("source_kind", "unknown source kind")
	}

	conflict := `(source_kind, external_id) WHERE external_id IS NOT NULL`
	if req.ContentHash != nil {
		conflict = `(source_kind, content_hash) WHERE content_hash IS NOT NULL`
	}

	for {
		existing, err := r.GetReviewByKey(ctx, req.SourceKind, req.ExternalID, req.ContentHash)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, 0, err
		}

		if existing == nil {
			now := time.Now()

			inserted, err := scanReview(r.db.QueryRow(ctx, `
				INSERT INTO reviews (professor_id, text, source_kind, external_id, content_hash,
					rating, reviewed_at, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
				ON CONFLICT `+conflict+` DO NOTHING
				RETURNING `+reviewColumns,
				req.ProfessorID, req.Text, req.SourceKind, req.ExternalID, req.ContentHash,
				req.Rating, req.ReviewedAt, now,
			))
			if err == nil {
				return inserted, store.OutcomeAdded, nil
			}

			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}

			return nil, 0, fmt.Errorf("insert review: %w", err)
		}

		if existing.ProfessorID == req.ProfessorID &&
			existing.Text == req.Text &&
			intPtrEqual(existing.Rating, req.Rating) &&
			timePtrEqual(existing.ReviewedAt, req.ReviewedAt) {
			return existing, store.OutcomeUnchanged, nil
		}

		updated, err := scanReview(r.db.QueryRow(ctx, `
			UPDATE reviews
			SET professor_id = $2, text = $3, rating = $4, reviewed_at = $5, updated_at = $6
			WHERE id = $1
			RETURNING `+reviewColumns,
			existing.ID, req.ProfessorID, req.Text, req.Rating, req.ReviewedAt, time.Now(),
		))
		if err != nil {
			return nil, 0, fmt.Errorf("update review: %w", err)
		}

		return updated, store.OutcomeUpdated, nil
	}
}

// GetReviewByKey implements store.ReviewStore.
func (r *Postgres) GetReviewByKey(ctx context.Context, kind models.SourceKind, externalID, contentHash *string) (*models.Review, error) {
	var row pgx.Row

	switch {
	case externalID != nil:
		row = r.db.QueryRow(ctx,
			`SELECT `+reviewColumns+` FROM reviews WHERE source_kind = $1 AND external_id = $2`,
			kind, *externalID,
		)
	case contentHash != nil:
		row = r.db.QueryRow(ctx,
			`SELECT `+reviewColumns+` FROM reviews WHERE source_kind = $1 AND content_hash = $2`,
			kind, *contentHash,
		)
	default:
		return nil, apperrors.NewValidationError("natural_key", "external_id or content_hash is required")
	}

	rev, err := scanReview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("review", "review not found")
		}

		return nil, fmt.Errorf("get review by key: %w", err)
	}

	return rev, nil
}

// ListReviewsByProfessor implements store.ReviewStore.
func (r *Postgres) ListReviewsByProfessor(ctx context.Context, professorID int64) ([]models.Review, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE professor_id = $1 ORDER BY id`,
		professorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}

	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}

		reviews = append(reviews, *rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reviews: %w", err)
	}

	return reviews, nil
}

// LatestReviewTime implements store.ReviewStore.
func (r *Postgres) LatestReviewTime(ctx context.Context, professorID int64) (time.Time, error) {
	var latest *time.Time

	err := r.db.QueryRow(ctx,
		`SELECT MAX(created_at) FROM reviews WHERE professor_id = $1`,
		professorID,
	).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("latest review time: %w", err)
	}

	if latest == nil {
		return time.Time{}, nil
	}

	return *latest, nil
}
