package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/retention/internal/db"
	"github.com/alexanderramin/retention/internal/domain"
)

// SQLiteNodeRepo implements NodeRepo using a SQLite database.
type SQLiteNodeRepo struct {
	db db.DBTX
}

// NewSQLiteNodeRepo creates a new SQLiteNodeRepo.
func NewSQLiteNodeRepo(conn db.DBTX) *SQLiteNodeRepo {
	return &SQLiteNodeRepo{db: conn}
}

const nodeColumns = `id, parent_id, kind, name, identifier, declared, content,
	cut_off, cut_off_date, closed, transferred, transferred_at, accessioned,
	ghosted, destroyed_at, vital, review_as_of, created_at, updated_at`

func (r *SQLiteNodeRepo) Create(ctx context.Context, n *domain.Node) error {
	query := `INSERT INTO nodes (` + nodeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		nullableString(n.ParentID),
		string(n.Kind),
		n.Name,
		n.Identifier,
		boolToInt(n.Declared),
		n.Content,
		boolToInt(n.CutOff),
		nullableTimeToString(n.CutOffDate),
		boolToInt(n.Closed),
		boolToInt(n.Transferred),
		nullableTimeToString(n.TransferredAt),
		boolToInt(n.Accessioned),
		boolToInt(n.Ghosted),
		nullableTimeToString(n.DestroyedAt),
		boolToInt(n.Vital),
		nullableTimeToString(n.ReviewAsOf),
		formatTime(n.CreatedAt),
		formatTime(n.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting node: %w", err)
	}
	return nil
}

func (r *SQLiteNodeRepo) GetByID(ctx context.Context, id string) (*domain.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = ?`
	n, err := scanNode(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("node", id, err)
	}
	return n, nil
}

func (r *SQLiteNodeRepo) GetByIdentifier(ctx context.Context, identifier string) (*domain.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE identifier = ? AND identifier != ''`
	n, err := scanNode(r.db.QueryRowContext(ctx, query, identifier))
	if err != nil {
		return nil, notFound("node with identifier", identifier, err)
	}
	return n, nil
}

func (r *SQLiteNodeRepo) ListChildren(ctx context.Context, parentID string) ([]*domain.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE parent_id = ? ORDER BY created_at, rowid`
	return r.listNodes(ctx, query, parentID)
}

func (r *SQLiteNodeRepo) ListFilePlans(ctx context.Context) ([]*domain.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE kind = 'file_plan' ORDER BY created_at, rowid`
	return r.listNodes(ctx, query)
}

func (r *SQLiteNodeRepo) listNodes(ctx context.Context, query string, args ...any) ([]*domain.Node, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*domain.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nodes: %w", err)
	}
	return nodes, nil
}

func (r *SQLiteNodeRepo) ListChildIDs(ctx context.Context, parentID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM nodes WHERE parent_id = ? ORDER BY created_at, rowid`, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing child ids: %w", err)
	}
	return collectIDs(rows)
}

// AncestorChain returns id followed by its ancestors, nearest first.
func (r *SQLiteNodeRepo) AncestorChain(ctx context.Context, id string) ([]string, error) {
	query := `WITH RECURSIVE chain(id, parent_id, depth) AS (
			SELECT id, parent_id, 0 FROM nodes WHERE id = ?
			UNION ALL
			SELECT n.id, n.parent_id, c.depth + 1 FROM nodes n JOIN chain c ON n.id = c.parent_id
		)
		SELECT id FROM chain ORDER BY depth`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("loading ancestors of %s: %w", id, err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	return ids, nil
}

func (r *SQLiteNodeRepo) Update(ctx context.Context, n *domain.Node) error {
	query := `UPDATE nodes SET parent_id = ?, name = ?, identifier = ?, declared = ?, content = ?,
		cut_off = ?, cut_off_date = ?, closed = ?, transferred = ?, transferred_at = ?, accessioned = ?,
		ghosted = ?, destroyed_at = ?, vital = ?, review_as_of = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableString(n.ParentID),
		n.Name,
		n.Identifier,
		boolToInt(n.Declared),
		n.Content,
		boolToInt(n.CutOff),
		nullableTimeToString(n.CutOffDate),
		boolToInt(n.Closed),
		boolToInt(n.Transferred),
		nullableTimeToString(n.TransferredAt),
		boolToInt(n.Accessioned),
		boolToInt(n.Ghosted),
		nullableTimeToString(n.DestroyedAt),
		boolToInt(n.Vital),
		nullableTimeToString(n.ReviewAsOf),
		formatTime(n.UpdatedAt),
		n.ID,
	)
	if err != nil {
		return fmt.Errorf("updating node: %w", err)
	}
	return requireAffected(res, "node", n.ID)
}

func (r *SQLiteNodeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting node: %w", err)
	}
	return requireAffected(res, "node", id)
}

func (r *SQLiteNodeRepo) GetProperties(ctx context.Context, id string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, value FROM node_properties WHERE node_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer rows.Close()

	props := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		props[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}
	return props, nil
}

func (r *SQLiteNodeRepo) GetProperty(ctx context.Context, id, name string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM node_properties WHERE node_id = ? AND name = ?`, id, name).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading property %s: %w", name, err)
	}
	return value, true, nil
}

func (r *SQLiteNodeRepo) SetProperty(ctx context.Context, id, name, value string) error {
	query := `INSERT INTO node_properties (node_id, name, value) VALUES (?, ?, ?)
		ON CONFLICT(node_id, name) DO UPDATE SET value = excluded.value`
	if _, err := r.db.ExecContext(ctx, query, id, name, value); err != nil {
		return fmt.Errorf("setting property %s: %w", name, err)
	}
	return nil
}

func (r *SQLiteNodeRepo) DeleteProperty(ctx context.Context, id, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM node_properties WHERE node_id = ? AND name = ?`, id, name); err != nil {
		return fmt.Errorf("deleting property %s: %w", name, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(s rowScanner) (*domain.Node, error) {
	var (
		n                                                  domain.Node
		parentID                                           sql.NullString
		kind                                               string
		declared, cutOff, closed, transferred, accessioned int
		ghosted, vital                                     int
		cutOffDate, transferredAt, destroyedAt, reviewAsOf sql.NullString
		createdAt, updatedAt                               string
	)
	err := s.Scan(&n.ID, &parentID, &kind, &n.Name, &n.Identifier, &declared, &n.Content,
		&cutOff, &cutOffDate, &closed, &transferred, &transferredAt, &accessioned,
		&ghosted, &destroyedAt, &vital, &reviewAsOf, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	n.ParentID = stringPtr(parentID)
	n.Kind = domain.NodeKind(kind)
	n.Declared = intToBool(declared)
	n.CutOff = intToBool(cutOff)
	n.CutOffDate = parseNullableTime(cutOffDate)
	n.Closed = intToBool(closed)
	n.Transferred = intToBool(transferred)
	n.TransferredAt = parseNullableTime(transferredAt)
	n.Accessioned = intToBool(accessioned)
	n.Ghosted = intToBool(ghosted)
	n.DestroyedAt = parseNullableTime(destroyedAt)
	n.Vital = intToBool(vital)
	n.ReviewAsOf = parseNullableTime(reviewAsOf)
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if n.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func collectIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ids: %w", err)
	}
	return ids, nil
}

func requireAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}
