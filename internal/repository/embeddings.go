package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/profscope/hub/internal/apperrors"
	"github.com/profscope/hub/internal/models"
)

// GetEmbedding implements store.EmbeddingStore.
func (r *Postgres) GetEmbedding(ctx context.Context, professorID int64) (*models.ProfessorEmbedding, error) {
	var (
		emb models.ProfessorEmbedding
		vec pgvector.HalfVector
	)

	err := r.db.QueryRow(ctx, `
		SELECT professor_id, embedding, generation, review_set_at, updated_at
		FROM professor_embeddings WHERE professor_id = $1`,
		professorID,
	).Scan(&emb.ProfessorID, &vec, &emb.Generation, &emb.ReviewSetAt, &emb.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("embedding", "embedding not found")
		}

		return nil, fmt.Errorf("get embedding: %w", err)
	}

	emb.Vector = vec.Slice()

	return &emb, nil
}

// PutEmbedding implements store.EmbeddingStore. The WHERE clause on the
// conflict update is the generation guard: a write whose generation does not
// exceed the stored one affects zero rows and is reported as dropped.
// Uses halfvec storage (2 bytes per dimension); pgvector-go converts float32
// to float16 when encoding.
func (r *Postgres) PutEmbedding(ctx context.Context, emb *models.ProfessorEmbedding) (bool, error) {
	vec := pgvector.NewHalfVector(emb.Vector)

	tag, err := r.db.Exec(ctx, `
		INSERT INTO professor_embeddings (professor_id, embedding, generation, review_set_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (professor_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			generation = EXCLUDED.generation,
			review_set_at = EXCLUDED.review_set_at,
			updated_at = EXCLUDED.updated_at
		WHERE professor_embeddings.generation < EXCLUDED.generation`,
		emb.ProfessorID, vec, emb.Generation, emb.ReviewSetAt, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("put embedding: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// DeleteEmbedding implements store.EmbeddingStore.
func (r *Postgres) DeleteEmbedding(ctx context.Context, professorID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM professor_embeddings WHERE professor_id = $1`, professorID,
	)
	if err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}

	return nil
}

// NearestProfessors implements store.EmbeddingStore. Uses cosine distance
// (<=>); score = 1 - distance. Professors without a stored vector have no row
// to match, so they are absent from results rather than zero-scored.
func (r *Postgres) NearestProfessors(
	ctx context.Context, queryVec []float32, limit int, department *string, minScore float64,
) ([]models.ProfessorWithScore, error) {
	vec := pgvector.NewHalfVector(queryVec)

	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.name, p.department, (1 - (e.embedding <=> $1)) AS score
		FROM professor_embeddings e
		INNER JOIN professors p ON p.id = e.professor_id
		WHERE ($2::text IS NULL OR p.department = $2)
		  AND (1 - (e.embedding <=> $1)) >= $3
		ORDER BY e.embedding <=> $1, p.id
		LIMIT $4`,
		vec, department, minScore, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("nearest professors: %w", err)
	}
	defer rows.Close()

	results := []models.ProfessorWithScore{}

	for rows.Next() {
		var row models.ProfessorWithScore

		if err := rows.Scan(&row.ProfessorID, &row.Name, &row.Department, &row.Score); err != nil {
			return nil, fmt.Errorf("scan professor with score: %w", err)
		}

		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nearest: %w", err)
	}

	return results, nil
}

// ListProfessorIDsForBackfill returns ids of professors that have at least
// one review but no embedding row yet.
func (r *Postgres) ListProfessorIDsForBackfill(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT rv.professor_id FROM reviews rv
		WHERE NOT EXISTS (
			SELECT 1 FROM professor_embeddings e WHERE e.professor_id = rv.professor_id
		)
		ORDER BY rv.professor_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list professor ids for backfill: %w", err)
	}
	defer rows.Close()

	var ids []int64

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan professor id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating backfill ids: %w", err)
	}

	return ids, nil
}
