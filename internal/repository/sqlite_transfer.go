package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/retention/internal/db"
	"github.com/alexanderramin/retention/internal/domain"
)

// SQLiteTransferRepo stores pending transfers and accessions.
type SQLiteTransferRepo struct {
	db db.DBTX
}

// NewSQLiteTransferRepo creates a new SQLiteTransferRepo.
func NewSQLiteTransferRepo(conn db.DBTX) *SQLiteTransferRepo {
	return &SQLiteTransferRepo{db: conn}
}

const transferColumns = `id, accession, action_id, created_at, created_by`

func (r *SQLiteTransferRepo) Create(ctx context.Context, tr *domain.Transfer) error {
	query := `INSERT INTO transfers (` + transferColumns + `) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, tr.ID, boolToInt(tr.Accession), tr.ActionID, formatTime(tr.CreatedAt), tr.CreatedBy); err != nil {
		return fmt.Errorf("inserting transfer: %w", err)
	}
	for _, id := range tr.NodeIDs {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO transfer_items (transfer_id, node_id) VALUES (?, ?)`, tr.ID, id); err != nil {
			return fmt.Errorf("inserting transfer item %s: %w", id, err)
		}
	}
	return nil
}

func (r *SQLiteTransferRepo) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	var (
		tr        domain.Transfer
		accession int
		createdAt string
	)
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&tr.ID, &accession, &tr.ActionID, &createdAt, &tr.CreatedBy)
	if err != nil {
		return nil, notFound("transfer", id, err)
	}
	tr.Accession = intToBool(accession)
	if tr.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT node_id FROM transfer_items WHERE transfer_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("listing transfer items: %w", err)
	}
	if tr.NodeIDs, err = collectIDs(rows); err != nil {
		return nil, err
	}
	return &tr, nil
}

// GetByNode returns the pending transfer containing nodeID.
func (r *SQLiteTransferRepo) GetByNode(ctx context.Context, nodeID string) (*domain.Transfer, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT transfer_id FROM transfer_items WHERE node_id = ? LIMIT 1`, nodeID).Scan(&id)
	if err != nil {
		return nil, notFound("transfer of node", nodeID, err)
	}
	return r.GetByID(ctx, id)
}

func (r *SQLiteTransferRepo) List(ctx context.Context) ([]*domain.Transfer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM transfers ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}
	transfers := make([]*domain.Transfer, 0, len(ids))
	for _, id := range ids {
		tr, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, tr)
	}
	return transfers, nil
}

func (r *SQLiteTransferRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transfers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting transfer: %w", err)
	}
	return requireAffected(res, "transfer", id)
}

// DeleteByAction drops the pending transfer started by actionID, if any.
func (r *SQLiteTransferRepo) DeleteByAction(ctx context.Context, actionID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transfers WHERE action_id = ?`, actionID)
	if err != nil {
		return false, fmt.Errorf("deleting transfer of action: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting transfer of action: %w", err)
	}
	return n > 0, nil
}

// RemoveItem takes nodeID out of whatever pending transfer lists it.
func (r *SQLiteTransferRepo) RemoveItem(ctx context.Context, nodeID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transfer_items WHERE node_id = ?`, nodeID); err != nil {
		return fmt.Errorf("removing transfer item: %w", err)
	}
	return nil
}
