package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/retention/internal/db"
	"github.com/alexanderramin/retention/internal/domain"
)

// SQLiteVitalRepo stores explicit vital-record definitions. A node without a
// row inherits from its ancestors.
type SQLiteVitalRepo struct {
	db db.DBTX
}

// NewSQLiteVitalRepo creates a new SQLiteVitalRepo.
func NewSQLiteVitalRepo(conn db.DBTX) *SQLiteVitalRepo {
	return &SQLiteVitalRepo{db: conn}
}

// Get returns the node's own definition, or nil when it has none.
func (r *SQLiteVitalRepo) Get(ctx context.Context, nodeID string) (*domain.VitalRecordDefinition, error) {
	var (
		enabled int
		period  string
	)
	err := r.db.QueryRowContext(ctx, `SELECT enabled, review_period FROM vital_record_definitions WHERE node_id = ?`, nodeID).
		Scan(&enabled, &period)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading vital record definition: %w", err)
	}
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	return &domain.VitalRecordDefinition{Enabled: intToBool(enabled), ReviewPeriod: p}, nil
}

func (r *SQLiteVitalRepo) Set(ctx context.Context, nodeID string, def domain.VitalRecordDefinition, at time.Time) error {
	query := `INSERT INTO vital_record_definitions (node_id, enabled, review_period, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET enabled = excluded.enabled, review_period = excluded.review_period, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, nodeID, boolToInt(def.Enabled), def.ReviewPeriod.String(), formatTime(at)); err != nil {
		return fmt.Errorf("setting vital record definition: %w", err)
	}
	return nil
}

func (r *SQLiteVitalRepo) Delete(ctx context.Context, nodeID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM vital_record_definitions WHERE node_id = ?`, nodeID); err != nil {
		return fmt.Errorf("deleting vital record definition: %w", err)
	}
	return nil
}
