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

const professorColumns = `id, name, department, profile_url, course_codes, created_at, updated_at`

func scanProfessor(row pgx.Row) (*models.Professor, error) {
	var prof models.Professor

	err := row.Scan(
		&prof.ID, &prof.Name, &prof.Department, &prof.ProfileURL,
		&prof.CourseCodes, &prof.CreatedAt, &prof.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &prof, nil
}

// UpsertProfessor implements store.ProfessorStore. The select-merge-update
// sequence keeps the merge semantics in one place (Go) at the cost of a
// second round trip; a lost insert race falls through to the merge path.
func (r *Postgres) UpsertProfessor(ctx context.Context, req *models.UpsertProfessorRequest) (*models.Professor, store.Outcome, error) {
	if req.Name == "" {
		return nil, 0, apperrors.NewValidationError("name", "professor name is required")
	}

	for {
		existing, err := r.GetProfessorByName(ctx, req.Name)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, 0, err
		}

		if existing == nil {
			now := time.Now()

			inserted, err := scanProfessor(r.db.QueryRow(ctx, `
				INSERT INTO professors (name, department, profile_url, course_codes, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $5)
				ON CONFLICT (name) DO NOTHING
				RETURNING `+professorColumns,
				req.Name, req.Department, req.ProfileURL, req.CourseCodes, now,
			))
			if err == nil {
				return inserted, store.OutcomeAdded, nil
			}

			if errors.Is(err, pgx.ErrNoRows) {
				// concurrent insert won; merge against it
				continue
			}

			return nil, 0, fmt.Errorf("insert professor: %w", err)
		}

		merged, changed := mergeProfessor(existing, req)
		if !changed {
			return existing, store.OutcomeUnchanged, nil
		}

		updated, err := scanProfessor(r.db.QueryRow(ctx, `
			UPDATE professors
			SET department = $2, profile_url = $3, course_codes = $4, updated_at = $5
			WHERE id = $1
			RETURNING `+professorColumns,
			existing.ID, merged.Department, merged.ProfileURL, merged.CourseCodes, time.Now(),
		))
		if err != nil {
			return nil, 0, fmt.Errorf("update professor: %w", err)
		}

		return updated, store.OutcomeUpdated, nil
	}
}

func mergeProfessor(existing *models.Professor, req *models.UpsertProfessorRequest) (*models.Professor, bool) {
	merged := *existing
	merged.CourseCodes = append([]string(nil), existing.CourseCodes...)
	changed := false

	if req.Department != nil && !strPtrEqual(existing.Department, req.Department) {
		merged.Department = req.Department
		changed = true
	}

	if req.ProfileURL != nil && !strPtrEqual(existing.ProfileURL, req.ProfileURL) {
		merged.ProfileURL = req.ProfileURL
		changed = true
	}

	for _, code := range req.CourseCodes {
		if !containsStr(merged.CourseCodes, code) {
			merged.CourseCodes = append(merged.CourseCodes, code)
			changed = true
		}
	}

	return &merged, changed
}

// GetProfessor implements store.ProfessorStore.
func (r *Postgres) GetProfessor(ctx context.Context, id int64) (*models.Professor, error) {
	prof, err := scanProfessor(r.db.QueryRow(ctx,
		`SELECT `+professorColumns+` FROM professors WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("professor", "professor not found")
		}

		return nil, fmt.Errorf("get professor: %w", err)
	}

	return prof, nil
}

// GetProfessorByName implements store.ProfessorStore.
func (r *Postgres) GetProfessorByName(ctx context.Context, name string) (*models.Professor, error) {
	prof, err := scanProfessor(r.db.QueryRow(ctx,
		`SELECT `+professorColumns+` FROM professors WHERE name = $1`, name,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("professor", "professor not found")
		}

		return nil, fmt.Errorf("get professor by name: %w", err)
	}

	return prof, nil
}

// ListProfessors implements store.ProfessorStore.
func (r *Postgres) ListProfessors(ctx context.Context) ([]models.Professor, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+professorColumns+` FROM professors ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list professors: %w", err)
	}
	defer rows.Close()

	professors := []models.Professor{}

	for rows.Next() {
		prof, err := scanProfessor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan professor: %w", err)
		}

		professors = append(professors, *prof)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating professors: %w", err)
	}

	return professors, nil
}
