package domain

import "time"

// Projection is the denormalized, queryable mirror of a node's retention
// state. It is always derived, never edited directly.
type Projection struct {
	NodeID string

	DispositionActionName       *string
	DispositionActionAsOf       *time.Time
	DispositionEventsEligible   bool
	DispositionEvents           []string
	DispositionPeriod           *string
	DispositionPeriodExpression *string

	HasDispositionSchedule  bool
	DispositionInstructions *string
	DispositionAuthority    *string

	VitalRecordReviewPeriod           *string
	VitalRecordReviewPeriodExpression *string

	HoldReasons []string
	Frozen      bool
}
