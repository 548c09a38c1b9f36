package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/retention/internal/db"
	"github.com/alexanderramin/retention/internal/domain"
)

// SQLiteScheduleRepo implements ScheduleRepo using a SQLite database.
type SQLiteScheduleRepo struct {
	db db.DBTX
}

// NewSQLiteScheduleRepo creates a new SQLiteScheduleRepo.
func NewSQLiteScheduleRepo(conn db.DBTX) *SQLiteScheduleRepo {
	return &SQLiteScheduleRepo{db: conn}
}

const scheduleColumns = `id, category_id, instructions, authority, record_level_disposition, created_at, updated_at`

const definitionColumns = `id, schedule_id, position, name, description, period, period_property, events, eligible_on_first_complete_event`

// Create inserts the schedule and its steps. Step positions are taken from
// slice order.
func (r *SQLiteScheduleRepo) Create(ctx context.Context, s *domain.DispositionSchedule) error {
	query := `INSERT INTO disposition_schedules (` + scheduleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.CategoryID,
		s.Instructions,
		s.Authority,
		boolToInt(s.RecordLevelDisposition),
		formatTime(s.CreatedAt),
		formatTime(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting schedule: %w", err)
	}
	for i := range s.Steps {
		s.Steps[i].ScheduleID = s.ID
		s.Steps[i].Position = i
		if err := r.insertStep(ctx, &s.Steps[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteScheduleRepo) GetByID(ctx context.Context, id string) (*domain.DispositionSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM disposition_schedules WHERE id = ?`
	return r.get(ctx, query, id)
}

func (r *SQLiteScheduleRepo) GetByCategory(ctx context.Context, categoryID string) (*domain.DispositionSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM disposition_schedules WHERE category_id = ?`
	return r.get(ctx, query, categoryID)
}

func (r *SQLiteScheduleRepo) get(ctx context.Context, query, key string) (*domain.DispositionSchedule, error) {
	var (
		s                    domain.DispositionSchedule
		recordLevel          int
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx, query, key).Scan(&s.ID, &s.CategoryID, &s.Instructions, &s.Authority,
		&recordLevel, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound("disposition schedule", key, err)
	}
	s.RecordLevelDisposition = intToBool(recordLevel)
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	steps, err := r.listSteps(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Steps = steps
	return &s, nil
}

func (r *SQLiteScheduleRepo) Update(ctx context.Context, s *domain.DispositionSchedule) error {
	query := `UPDATE disposition_schedules SET instructions = ?, authority = ?, record_level_disposition = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		s.Instructions,
		s.Authority,
		boolToInt(s.RecordLevelDisposition),
		formatTime(s.UpdatedAt),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating schedule: %w", err)
	}
	return requireAffected(res, "disposition schedule", s.ID)
}

// AddStep appends d to the end of its schedule.
func (r *SQLiteScheduleRepo) AddStep(ctx context.Context, d *domain.DispositionActionDefinition) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM disposition_action_definitions WHERE schedule_id = ?`, d.ScheduleID).Scan(&count); err != nil {
		return fmt.Errorf("counting steps: %w", err)
	}
	d.Position = count
	return r.insertStep(ctx, d)
}

func (r *SQLiteScheduleRepo) insertStep(ctx context.Context, d *domain.DispositionActionDefinition) error {
	events, err := encodeStrings(d.Events)
	if err != nil {
		return err
	}
	query := `INSERT INTO disposition_action_definitions (` + definitionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		d.ID,
		d.ScheduleID,
		d.Position,
		d.Name,
		d.Description,
		periodToValue(d.Period),
		nullableString(d.PeriodProperty),
		events,
		boolToInt(d.EligibleOnFirstCompleteEvent),
	)
	if err != nil {
		return fmt.Errorf("inserting step: %w", err)
	}
	return nil
}

func (r *SQLiteScheduleRepo) GetStep(ctx context.Context, id string) (*domain.DispositionActionDefinition, error) {
	query := `SELECT ` + definitionColumns + ` FROM disposition_action_definitions WHERE id = ?`
	d, err := scanDefinition(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("disposition step", id, err)
	}
	return d, nil
}

func (r *SQLiteScheduleRepo) UpdateStep(ctx context.Context, d *domain.DispositionActionDefinition) error {
	events, err := encodeStrings(d.Events)
	if err != nil {
		return err
	}
	query := `UPDATE disposition_action_definitions
		SET name = ?, description = ?, period = ?, period_property = ?, events = ?, eligible_on_first_complete_event = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		d.Name,
		d.Description,
		periodToValue(d.Period),
		nullableString(d.PeriodProperty),
		events,
		boolToInt(d.EligibleOnFirstCompleteEvent),
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating step: %w", err)
	}
	return requireAffected(res, "disposition step", d.ID)
}

// DeleteStepIfUnoccupied removes the step unless a current action references
// it. The check and the delete are one statement, so a node filed onto the
// step by a concurrent transaction makes the delete a no-op rather than a
// dangling reference. Remaining steps are renumbered.
func (r *SQLiteScheduleRepo) DeleteStepIfUnoccupied(ctx context.Context, id string) (bool, error) {
	var scheduleID string
	err := r.db.QueryRowContext(ctx, `SELECT schedule_id FROM disposition_action_definitions WHERE id = ?`, id).Scan(&scheduleID)
	if err != nil {
		return false, notFound("disposition step", id, err)
	}

	query := `DELETE FROM disposition_action_definitions
		WHERE id = ?
		AND NOT EXISTS (SELECT 1 FROM disposition_actions WHERE definition_id = ? AND is_current = 1)`
	res, err := r.db.ExecContext(ctx, query, id, id)
	if err != nil {
		return false, fmt.Errorf("deleting step: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	renumber := `UPDATE disposition_action_definitions
		SET position = (SELECT COUNT(*) FROM disposition_action_definitions d2
			WHERE d2.schedule_id = disposition_action_definitions.schedule_id
			AND d2.position < disposition_action_definitions.position)
		WHERE schedule_id = ?`
	if _, err := r.db.ExecContext(ctx, renumber, scheduleID); err != nil {
		return false, fmt.Errorf("renumbering steps: %w", err)
	}
	return true, nil
}

func (r *SQLiteScheduleRepo) listSteps(ctx context.Context, scheduleID string) ([]domain.DispositionActionDefinition, error) {
	query := `SELECT ` + definitionColumns + ` FROM disposition_action_definitions WHERE schedule_id = ? ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("listing steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.DispositionActionDefinition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		steps = append(steps, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating steps: %w", err)
	}
	return steps, nil
}

func scanDefinition(s rowScanner) (*domain.DispositionActionDefinition, error) {
	var (
		d                      domain.DispositionActionDefinition
		period, periodProperty sql.NullString
		events                 string
		firstComplete          int
	)
	if err := s.Scan(&d.ID, &d.ScheduleID, &d.Position, &d.Name, &d.Description, &period, &periodProperty,
		&events, &firstComplete); err != nil {
		return nil, err
	}
	if period.Valid {
		p, err := domain.ParsePeriod(period.String)
		if err != nil {
			return nil, err
		}
		d.Period = &p
	}
	d.PeriodProperty = stringPtr(periodProperty)
	list, err := decodeStrings(events)
	if err != nil {
		return nil, err
	}
	d.Events = list
	d.EligibleOnFirstCompleteEvent = intToBool(firstComplete)
	return &d, nil
}

func periodToValue(p *domain.Period) interface{} {
	if p == nil {
		return nil
	}
	return p.String()
}
