package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/retention/internal/db"
	"github.com/alexanderramin/retention/internal/domain"
)

// SQLiteDispositionRepo stores current disposition actions, their event
// completions and the per-node history of completed actions.
type SQLiteDispositionRepo struct {
	db db.DBTX
}

// NewSQLiteDispositionRepo creates a new SQLiteDispositionRepo.
func NewSQLiteDispositionRepo(conn db.DBTX) *SQLiteDispositionRepo {
	return &SQLiteDispositionRepo{db: conn}
}

const actionColumns = `id, node_id, definition_id, name, as_of, started_at, started_by, completed_at, completed_by, seq, created_at`

func (r *SQLiteDispositionRepo) InsertCurrent(ctx context.Context, a *domain.DispositionAction) error {
	query := `INSERT INTO disposition_actions (` + actionColumns + `, is_current) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, 1)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.NodeID,
		a.DefinitionID,
		a.Name,
		nullableTimeToString(a.AsOf),
		nullableTimeToString(a.StartedAt),
		nullableString(a.StartedBy),
		nullableTimeToString(a.CompletedAt),
		nullableString(a.CompletedBy),
		formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting disposition action: %w", err)
	}
	a.Seq = 0
	return r.writeEvents(ctx, a)
}

func (r *SQLiteDispositionRepo) GetCurrent(ctx context.Context, nodeID string) (*domain.DispositionAction, error) {
	query := `SELECT ` + actionColumns + ` FROM disposition_actions WHERE node_id = ? AND is_current = 1`
	a, err := scanAction(r.db.QueryRowContext(ctx, query, nodeID))
	if err != nil {
		return nil, notFound("current disposition action of node", nodeID, err)
	}
	if err := r.loadEvents(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *SQLiteDispositionRepo) UpdateCurrent(ctx context.Context, a *domain.DispositionAction) error {
	query := `UPDATE disposition_actions
		SET definition_id = ?, name = ?, as_of = ?, started_at = ?, started_by = ?, completed_at = ?, completed_by = ?
		WHERE id = ? AND is_current = 1`
	res, err := r.db.ExecContext(ctx, query,
		a.DefinitionID,
		a.Name,
		nullableTimeToString(a.AsOf),
		nullableTimeToString(a.StartedAt),
		nullableString(a.StartedBy),
		nullableTimeToString(a.CompletedAt),
		nullableString(a.CompletedBy),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating disposition action: %w", err)
	}
	if err := requireAffected(res, "current disposition action", a.ID); err != nil {
		return err
	}
	return r.writeEvents(ctx, a)
}

// ArchiveCurrent saves the final state of a and appends it to the node's
// history.
func (r *SQLiteDispositionRepo) ArchiveCurrent(ctx context.Context, a *domain.DispositionAction) error {
	if err := r.UpdateCurrent(ctx, a); err != nil {
		return err
	}
	query := `UPDATE disposition_actions
		SET is_current = 0,
		    seq = (SELECT COALESCE(MAX(seq), 0) + 1 FROM disposition_actions WHERE node_id = ? AND is_current = 0)
		WHERE id = ?
		RETURNING seq`
	if err := r.db.QueryRowContext(ctx, query, a.NodeID, a.ID).Scan(&a.Seq); err != nil {
		return fmt.Errorf("archiving disposition action: %w", err)
	}
	return nil
}

func (r *SQLiteDispositionRepo) DeleteCurrent(ctx context.Context, nodeID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM disposition_actions WHERE node_id = ? AND is_current = 1`, nodeID); err != nil {
		return fmt.Errorf("deleting current disposition action: %w", err)
	}
	return nil
}

func (r *SQLiteDispositionRepo) DeleteHistory(ctx context.Context, nodeID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM disposition_actions WHERE node_id = ? AND is_current = 0`, nodeID); err != nil {
		return fmt.Errorf("deleting disposition history: %w", err)
	}
	return nil
}

func (r *SQLiteDispositionRepo) ListHistory(ctx context.Context, nodeID string) ([]*domain.DispositionAction, error) {
	query := `SELECT ` + actionColumns + ` FROM disposition_actions WHERE node_id = ? AND is_current = 0 ORDER BY seq`
	return r.listActions(ctx, query, nodeID)
}

func (r *SQLiteDispositionRepo) LastCompletedAt(ctx context.Context, nodeID string) (*time.Time, error) {
	var completedAt sql.NullString
	query := `SELECT completed_at FROM disposition_actions
		WHERE node_id = ? AND is_current = 0 AND completed_at IS NOT NULL
		ORDER BY seq DESC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, nodeID).Scan(&completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading last completed action: %w", err)
	}
	return parseNullableTime(completedAt), nil
}

func (r *SQLiteDispositionRepo) ListCurrentAtStep(ctx context.Context, definitionID string) ([]*domain.DispositionAction, error) {
	query := `SELECT ` + actionColumns + ` FROM disposition_actions WHERE definition_id = ? AND is_current = 1 ORDER BY created_at, rowid`
	return r.listActions(ctx, query, definitionID)
}

func (r *SQLiteDispositionRepo) CountCurrentAtStep(ctx context.Context, definitionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM disposition_actions WHERE definition_id = ? AND is_current = 1`, definitionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting actions at step: %w", err)
	}
	return n, nil
}

func (r *SQLiteDispositionRepo) listActions(ctx context.Context, query string, args ...any) ([]*domain.DispositionAction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing disposition actions: %w", err)
	}
	var actions []*domain.DispositionAction
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning disposition action: %w", err)
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating disposition actions: %w", err)
	}
	rows.Close()

	// Events are loaded after the cursor closes; a tx has one connection.
	for _, a := range actions {
		if err := r.loadEvents(ctx, a); err != nil {
			return nil, err
		}
	}
	return actions, nil
}

func (r *SQLiteDispositionRepo) writeEvents(ctx context.Context, a *domain.DispositionAction) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM event_completions WHERE action_id = ?`, a.ID); err != nil {
		return fmt.Errorf("clearing event completions: %w", err)
	}
	query := `INSERT INTO event_completions (action_id, position, event_name, complete, completed_at, completed_by)
		VALUES (?, ?, ?, ?, ?, ?)`
	for i, e := range a.Events {
		_, err := r.db.ExecContext(ctx, query,
			a.ID,
			i,
			e.EventName,
			boolToInt(e.Complete),
			nullableTimeToString(e.CompletedAt),
			nullableString(e.CompletedBy),
		)
		if err != nil {
			return fmt.Errorf("inserting event completion %s: %w", e.EventName, err)
		}
	}
	return nil
}

func (r *SQLiteDispositionRepo) loadEvents(ctx context.Context, a *domain.DispositionAction) error {
	query := `SELECT event_name, complete, completed_at, completed_by FROM event_completions
		WHERE action_id = ? ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, a.ID)
	if err != nil {
		return fmt.Errorf("listing event completions: %w", err)
	}
	defer rows.Close()

	a.Events = nil
	for rows.Next() {
		var (
			e           domain.EventCompletion
			complete    int
			completedAt sql.NullString
			completedBy sql.NullString
		)
		if err := rows.Scan(&e.EventName, &complete, &completedAt, &completedBy); err != nil {
			return fmt.Errorf("scanning event completion: %w", err)
		}
		e.Complete = intToBool(complete)
		e.CompletedAt = parseNullableTime(completedAt)
		e.CompletedBy = stringPtr(completedBy)
		a.Events = append(a.Events, e)
	}
	return rows.Err()
}

func scanAction(s rowScanner) (*domain.DispositionAction, error) {
	var (
		a                            domain.DispositionAction
		asOf, startedAt, completedAt sql.NullString
		startedBy, completedBy       sql.NullString
		createdAt                    string
	)
	if err := s.Scan(&a.ID, &a.NodeID, &a.DefinitionID, &a.Name, &asOf, &startedAt, &startedBy,
		&completedAt, &completedBy, &a.Seq, &createdAt); err != nil {
		return nil, err
	}
	a.AsOf = parseNullableTime(asOf)
	a.StartedAt = parseNullableTime(startedAt)
	a.StartedBy = stringPtr(startedBy)
	a.CompletedAt = parseNullableTime(completedAt)
	a.CompletedBy = stringPtr(completedBy)
	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &a, nil
}
