package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/retention/internal/db"
	"github.com/alexanderramin/retention/internal/domain"
)

// SQLiteProjectionRepo stores the search projection of each node.
type SQLiteProjectionRepo struct {
	db db.DBTX
}

// NewSQLiteProjectionRepo creates a new SQLiteProjectionRepo.
func NewSQLiteProjectionRepo(conn db.DBTX) *SQLiteProjectionRepo {
	return &SQLiteProjectionRepo{db: conn}
}

const projectionColumns = `node_id, disposition_action_name, disposition_action_as_of, disposition_events_eligible,
	disposition_events, disposition_period, disposition_period_expression, has_disposition_schedule,
	disposition_instructions, disposition_authority, vital_record_review_period,
	vital_record_review_period_expression, hold_reasons, frozen`

func (r *SQLiteProjectionRepo) Upsert(ctx context.Context, p domain.Projection, at time.Time) error {
	events, err := encodeStrings(p.DispositionEvents)
	if err != nil {
		return err
	}
	reasons, err := encodeStrings(p.HoldReasons)
	if err != nil {
		return err
	}
	query := `INSERT INTO search_projections (` + projectionColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET
			disposition_action_name = excluded.disposition_action_name,
			disposition_action_as_of = excluded.disposition_action_as_of,
			disposition_events_eligible = excluded.disposition_events_eligible,
			disposition_events = excluded.disposition_events,
			disposition_period = excluded.disposition_period,
			disposition_period_expression = excluded.disposition_period_expression,
			has_disposition_schedule = excluded.has_disposition_schedule,
			disposition_instructions = excluded.disposition_instructions,
			disposition_authority = excluded.disposition_authority,
			vital_record_review_period = excluded.vital_record_review_period,
			vital_record_review_period_expression = excluded.vital_record_review_period_expression,
			hold_reasons = excluded.hold_reasons,
			frozen = excluded.frozen,
			updated_at = excluded.updated_at`
	_, err = r.db.ExecContext(ctx, query,
		p.NodeID,
		nullableString(p.DispositionActionName),
		nullableTimeToString(p.DispositionActionAsOf),
		boolToInt(p.DispositionEventsEligible),
		events,
		nullableString(p.DispositionPeriod),
		nullableString(p.DispositionPeriodExpression),
		boolToInt(p.HasDispositionSchedule),
		nullableString(p.DispositionInstructions),
		nullableString(p.DispositionAuthority),
		nullableString(p.VitalRecordReviewPeriod),
		nullableString(p.VitalRecordReviewPeriodExpression),
		reasons,
		boolToInt(p.Frozen),
		formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("upserting projection: %w", err)
	}
	return nil
}

func (r *SQLiteProjectionRepo) Get(ctx context.Context, nodeID string) (*domain.Projection, error) {
	var (
		p                        domain.Projection
		name, period, periodExpr sql.NullString
		instructions, authority  sql.NullString
		vitalPeriod, vitalExpr   sql.NullString
		asOf                     sql.NullString
		events, reasons          string
		eligible, has, frozen    int
	)
	query := `SELECT ` + projectionColumns + ` FROM search_projections WHERE node_id = ?`
	err := r.db.QueryRowContext(ctx, query, nodeID).Scan(
		&p.NodeID, &name, &asOf, &eligible, &events, &period, &periodExpr, &has,
		&instructions, &authority, &vitalPeriod, &vitalExpr, &reasons, &frozen)
	if err != nil {
		return nil, notFound("projection of node", nodeID, err)
	}
	p.DispositionActionName = stringPtr(name)
	p.DispositionActionAsOf = parseNullableTime(asOf)
	p.DispositionEventsEligible = intToBool(eligible)
	if p.DispositionEvents, err = decodeStrings(events); err != nil {
		return nil, err
	}
	p.DispositionPeriod = stringPtr(period)
	p.DispositionPeriodExpression = stringPtr(periodExpr)
	p.HasDispositionSchedule = intToBool(has)
	p.DispositionInstructions = stringPtr(instructions)
	p.DispositionAuthority = stringPtr(authority)
	p.VitalRecordReviewPeriod = stringPtr(vitalPeriod)
	p.VitalRecordReviewPeriodExpression = stringPtr(vitalExpr)
	if p.HoldReasons, err = decodeStrings(reasons); err != nil {
		return nil, err
	}
	p.Frozen = intToBool(frozen)
	return &p, nil
}
