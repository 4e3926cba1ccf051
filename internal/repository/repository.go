// Package repository implements the persistence port on PostgreSQL with
// pgvector. One Postgres value serves all tables; methods are split per table
// across files in this package.
package repository

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements store.Store on a pgx connection pool.
type Postgres struct {
	db *pgxpool.Pool
}

// New creates a Postgres repository on the given pool.
func New(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Equal(*b)
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}
