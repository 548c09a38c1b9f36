package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/retention/internal/db"
)

// SQLiteIdentifierSequenceRepo allocates scope-bound sequence values
// atomically using the identifier_sequences table.
type SQLiteIdentifierSequenceRepo struct {
	db db.DBTX
}

// NewSQLiteIdentifierSequenceRepo creates a new SQLiteIdentifierSequenceRepo.
func NewSQLiteIdentifierSequenceRepo(conn db.DBTX) *SQLiteIdentifierSequenceRepo {
	return &SQLiteIdentifierSequenceRepo{db: conn}
}

// Next returns the next value for scope, starting at 1.
// Allocation is atomic and safe under concurrent writes.
func (r *SQLiteIdentifierSequenceRepo) Next(ctx context.Context, scope string) (int, error) {
	seedQuery := `INSERT OR IGNORE INTO identifier_sequences (scope, next_seq) VALUES (?, 1)`
	if _, err := r.db.ExecContext(ctx, seedQuery, scope); err != nil {
		return 0, fmt.Errorf("seeding identifier sequence for %s: %w", scope, err)
	}

	var next int
	allocQuery := `UPDATE identifier_sequences
		SET next_seq = next_seq + 1
		WHERE scope = ?
		RETURNING next_seq - 1`
	if err := r.db.QueryRowContext(ctx, allocQuery, scope).Scan(&next); err != nil {
		return 0, fmt.Errorf("allocating next seq for scope %s: %w", scope, err)
	}

	return next, nil
}
