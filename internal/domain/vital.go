package domain

import (
	"fmt"
	"time"
)

// VitalRecordDefinition is an explicit vital-record setting on a node.
type VitalRecordDefinition struct {
	Enabled      bool
	ReviewPeriod Period
}

// Normalize returns the definition as it is stored. A disabled definition
// without a period gets none. An enabled definition needs a known unit.
func (d VitalRecordDefinition) Normalize() (VitalRecordDefinition, error) {
	if d.ReviewPeriod.Unit == "" {
		if d.Enabled {
			return d, &InvalidPeriodError{Expression: "", Reason: "vital record review needs a period"}
		}
		d.ReviewPeriod = Period{Unit: PeriodNone}
		return d, nil
	}
	if !d.ReviewPeriod.Unit.Valid() {
		return d, &InvalidPeriodError{Expression: d.ReviewPeriod.String(), Reason: fmt.Sprintf("unknown unit %q", d.ReviewPeriod.Unit)}
	}
	return d, nil
}

// EffectiveVitalRecordDefinition is the resolved definition for a node and
// the node it was inherited from. Definition is nil when no ancestor sets one.
type EffectiveVitalRecordDefinition struct {
	Definition *VitalRecordDefinition
	SourceID   string
}

// Active reports whether a review schedule applies.
func (e EffectiveVitalRecordDefinition) Active() bool {
	return e.Definition != nil && e.Definition.Enabled && e.Definition.ReviewPeriod.Unit != PeriodNone
}

// ApplyVitalState sets or clears the vital marker and review date.
func (n *Node) ApplyVitalState(def EffectiveVitalRecordDefinition, now time.Time) {
	if !def.Active() {
		n.Vital = false
		n.ReviewAsOf = nil
		n.UpdatedAt = now
		return
	}
	n.Vital = true
	n.ReviewAsOf = def.Definition.ReviewPeriod.NextDate(now)
	n.UpdatedAt = now
}
