package domain

import "time"

// DispositionSchedule is owned by exactly one category.
type DispositionSchedule struct {
	ID                     string
	CategoryID             string
	Instructions           string
	Authority              string
	RecordLevelDisposition bool
	Steps                  []DispositionActionDefinition // ordered by Position
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Step returns the definition with the given ID.
func (s *DispositionSchedule) Step(id string) (*DispositionActionDefinition, bool) {
	for i := range s.Steps {
		if s.Steps[i].ID == id {
			return &s.Steps[i], true
		}
	}
	return nil, false
}

// StepAt returns the definition at position i.
func (s *DispositionSchedule) StepAt(i int) (*DispositionActionDefinition, bool) {
	if i < 0 || i >= len(s.Steps) {
		return nil, false
	}
	return &s.Steps[i], true
}

// IndexOf returns the position of the definition with the given ID, or -1.
func (s *DispositionSchedule) IndexOf(id string) int {
	for i := range s.Steps {
		if s.Steps[i].ID == id {
			return i
		}
	}
	return -1
}

// GovernedKind is the node kind that carries disposition state.
func (s *DispositionSchedule) GovernedKind() NodeKind {
	if s.RecordLevelDisposition {
		return KindRecord
	}
	return KindFolder
}

// DispositionActionDefinition is one step of a schedule. Steps are addressed
// by ID; names may repeat.
type DispositionActionDefinition struct {
	ID                           string
	ScheduleID                   string
	Position                     int
	Name                         string
	Description                  string
	Period                       *Period
	PeriodProperty               *string
	Events                       []string
	EligibleOnFirstCompleteEvent bool
}

// IsManual reports whether the step has neither timing nor events.
func (d *DispositionActionDefinition) IsManual() bool {
	return d.Period == nil && len(d.Events) == 0
}

// HasEvent reports whether name is one of the step's events.
func (d *DispositionActionDefinition) HasEvent(name string) bool {
	for _, e := range d.Events {
		if e == name {
			return true
		}
	}
	return false
}

// Step field names reported by StepUpdate.Apply.
const (
	StepFieldName                         = "name"
	StepFieldDescription                  = "description"
	StepFieldPeriod                       = "period"
	StepFieldPeriodProperty               = "periodProperty"
	StepFieldEvents                       = "events"
	StepFieldEligibleOnFirstCompleteEvent = "eligibleOnFirstCompleteEvent"
)

// StepUpdate carries the fields to change on a definition. Nil means
// unchanged. ClearPeriod/ClearPeriodProperty set the field to null.
type StepUpdate struct {
	Name                         *string
	Description                  *string
	Period                       *Period
	ClearPeriod                  bool
	PeriodProperty               *string
	ClearPeriodProperty          bool
	Events                       *[]string
	EligibleOnFirstCompleteEvent *bool
}

// Apply mutates d and returns the names of fields whose value changed.
func (u StepUpdate) Apply(d *DispositionActionDefinition) []string {
	var changed []string
	if u.Name != nil && *u.Name != d.Name {
		d.Name = *u.Name
		changed = append(changed, StepFieldName)
	}
	if u.Description != nil && *u.Description != d.Description {
		d.Description = *u.Description
		changed = append(changed, StepFieldDescription)
	}
	switch {
	case u.ClearPeriod && d.Period != nil:
		d.Period = nil
		changed = append(changed, StepFieldPeriod)
	case u.Period != nil && (d.Period == nil || *d.Period != *u.Period):
		p := *u.Period
		d.Period = &p
		changed = append(changed, StepFieldPeriod)
	}
	switch {
	case u.ClearPeriodProperty && d.PeriodProperty != nil:
		d.PeriodProperty = nil
		changed = append(changed, StepFieldPeriodProperty)
	case u.PeriodProperty != nil && (d.PeriodProperty == nil || *d.PeriodProperty != *u.PeriodProperty):
		pp := *u.PeriodProperty
		d.PeriodProperty = &pp
		changed = append(changed, StepFieldPeriodProperty)
	}
	if u.Events != nil && !equalStrings(*u.Events, d.Events) {
		d.Events = append([]string(nil), (*u.Events)...)
		changed = append(changed, StepFieldEvents)
	}
	if u.EligibleOnFirstCompleteEvent != nil && *u.EligibleOnFirstCompleteEvent != d.EligibleOnFirstCompleteEvent {
		d.EligibleOnFirstCompleteEvent = *u.EligibleOnFirstCompleteEvent
		changed = append(changed, StepFieldEligibleOnFirstCompleteEvent)
	}
	return changed
}

// AffectsCurrentAction reports whether any changed field requires recomputing the
// current action of nodes positioned at the step.
func AffectsCurrentAction(changed []string) bool {
	for _, f := range changed {
		switch f {
		case StepFieldName, StepFieldPeriod, StepFieldPeriodProperty, StepFieldEvents, StepFieldEligibleOnFirstCompleteEvent:
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
