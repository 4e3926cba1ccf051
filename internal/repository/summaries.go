package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/profscope/hub/internal/apperrors"
	"github.com/profscope/hub/internal/models"
)

// GetSummary implements store.SummaryStore.
func (r *Postgres) GetSummary(ctx context.Context, professorID int64) (*models.Summary, error) {
	var s models.Summary

	err := r.db.QueryRow(ctx, `
		SELECT professor_id, pros, cons, neutral, updated_at
		FROM summaries WHERE professor_id = $1`,
		professorID,
	).Scan(&s.ProfessorID, &s.Pros, &s.Cons, &s.Neutral, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("summary", "summary not found")
		}

		return nil, fmt.Errorf("get summary: %w", err)
	}

	return &s, nil
}

// PutSummary implements store.SummaryStore.
func (r *Postgres) PutSummary(ctx context.Context, summary *models.Summary) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO summaries (professor_id, pros, cons, neutral, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (professor_id) DO UPDATE SET
			pros = EXCLUDED.pros,
			cons = EXCLUDED.cons,
			neutral = EXCLUDED.neutral,
			updated_at = EXCLUDED.updated_at`,
		summary.ProfessorID, summary.Pros, summary.Cons, summary.Neutral, summary.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put summary: %w", err)
	}

	return nil
}
