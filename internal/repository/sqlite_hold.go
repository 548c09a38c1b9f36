package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/retention/internal/db"
	"github.com/alexanderramin/retention/internal/domain"
)

// SQLiteHoldRepo stores holds and their freeze edges.
type SQLiteHoldRepo struct {
	db db.DBTX
}

// NewSQLiteHoldRepo creates a new SQLiteHoldRepo.
func NewSQLiteHoldRepo(conn db.DBTX) *SQLiteHoldRepo {
	return &SQLiteHoldRepo{db: conn}
}

const holdColumns = `id, file_plan_id, name, reason, description, created_at, updated_at`

func (r *SQLiteHoldRepo) Create(ctx context.Context, h *domain.Hold) error {
	query := `INSERT INTO holds (` + holdColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		h.ID,
		h.FilePlanID,
		h.Name,
		h.Reason,
		h.Description,
		formatTime(h.CreatedAt),
		formatTime(h.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting hold: %w", err)
	}
	return nil
}

func (r *SQLiteHoldRepo) GetByID(ctx context.Context, id string) (*domain.Hold, error) {
	query := `SELECT ` + holdColumns + ` FROM holds WHERE id = ?`
	h, err := scanHold(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("hold", id, err)
	}
	return h, nil
}

func (r *SQLiteHoldRepo) GetByName(ctx context.Context, filePlanID, name string) (*domain.Hold, error) {
	query := `SELECT ` + holdColumns + ` FROM holds WHERE file_plan_id = ? AND name = ?`
	h, err := scanHold(r.db.QueryRowContext(ctx, query, filePlanID, name))
	if err != nil {
		return nil, notFound("hold", name, err)
	}
	return h, nil
}

func (r *SQLiteHoldRepo) ListByFilePlan(ctx context.Context, filePlanID string) ([]*domain.Hold, error) {
	query := `SELECT ` + holdColumns + ` FROM holds WHERE file_plan_id = ? ORDER BY created_at, rowid`
	rows, err := r.db.QueryContext(ctx, query, filePlanID)
	if err != nil {
		return nil, fmt.Errorf("listing holds: %w", err)
	}
	defer rows.Close()

	var holds []*domain.Hold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning hold: %w", err)
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating holds: %w", err)
	}
	return holds, nil
}

func (r *SQLiteHoldRepo) Update(ctx context.Context, h *domain.Hold) error {
	query := `UPDATE holds SET name = ?, reason = ?, description = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, h.Name, h.Reason, h.Description, formatTime(h.UpdatedAt), h.ID)
	if err != nil {
		return fmt.Errorf("updating hold: %w", err)
	}
	return requireAffected(res, "hold", h.ID)
}

// Delete removes the hold; its freeze edges cascade.
func (r *SQLiteHoldRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting hold: %w", err)
	}
	return requireAffected(res, "hold", id)
}

// AddEdge links the hold to a node. It reports false when the edge existed.
func (r *SQLiteHoldRepo) AddEdge(ctx context.Context, e domain.FreezeEdge) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO freeze_edges (hold_id, node_id, created_at) VALUES (?, ?, ?)`,
		e.HoldID, e.NodeID, formatTime(e.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("adding freeze edge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteHoldRepo) RemoveEdge(ctx context.Context, holdID, nodeID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM freeze_edges WHERE hold_id = ? AND node_id = ?`, holdID, nodeID)
	if err != nil {
		return false, fmt.Errorf("removing freeze edge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n > 0, nil
}

// ListHeldBy returns the holds covering nodeID, oldest hold first.
func (r *SQLiteHoldRepo) ListHeldBy(ctx context.Context, nodeID string) ([]domain.Hold, error) {
	query := `SELECT h.id, h.file_plan_id, h.name, h.reason, h.description, h.created_at, h.updated_at
		FROM holds h JOIN freeze_edges e ON e.hold_id = h.id
		WHERE e.node_id = ?
		ORDER BY h.created_at, h.rowid`
	rows, err := r.db.QueryContext(ctx, query, nodeID)
	if err != nil {
		return nil, fmt.Errorf("listing holds of node: %w", err)
	}
	defer rows.Close()

	var holds []domain.Hold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning hold: %w", err)
		}
		holds = append(holds, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating holds: %w", err)
	}
	return holds, nil
}

func (r *SQLiteHoldRepo) ListHeld(ctx context.Context, holdID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT node_id FROM freeze_edges WHERE hold_id = ? ORDER BY created_at, rowid`, holdID)
	if err != nil {
		return nil, fmt.Errorf("listing held nodes: %w", err)
	}
	return collectIDs(rows)
}

func (r *SQLiteHoldRepo) CountEdges(ctx context.Context, nodeID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM freeze_edges WHERE node_id = ?`, nodeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting freeze edges: %w", err)
	}
	return n, nil
}

func scanHold(s rowScanner) (*domain.Hold, error) {
	var (
		h                    domain.Hold
		createdAt, updatedAt string
	)
	if err := s.Scan(&h.ID, &h.FilePlanID, &h.Name, &h.Reason, &h.Description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if h.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if h.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}
