package retention

import (
	"time"

	"github.com/alexanderramin/retention/internal/domain"
)

// Basis supplies the dates an as-of calculation may start from.
type Basis struct {
	Now time.Time

	// LastCompletedAt is the completion time of the node's last completed
	// disposition action, if any.
	LastCompletedAt *time.Time

	// Property returns a date-valued node property, or nil when unset.
	Property func(name string) *time.Time
}

// CalculateAsOf returns basis + period for def, or nil when the step has no
// timing or its period property is unset.
func CalculateAsOf(def *domain.DispositionActionDefinition, basis Basis) *time.Time {
	if def.Period == nil || def.Period.Unit == domain.PeriodNone {
		return nil
	}

	base := basis.Now
	if def.PeriodProperty != nil && *def.PeriodProperty != "" {
		prop := *def.PeriodProperty
		var resolved *time.Time
		if prop == domain.PropDispositionAsOf && basis.LastCompletedAt != nil {
			resolved = basis.LastCompletedAt
		} else if basis.Property != nil {
			resolved = basis.Property(prop)
		}
		if resolved == nil {
			if prop != domain.PropDispositionAsOf {
				return nil
			}
			resolved = &basis.Now
		}
		base = *resolved
	}
	return def.Period.NextDate(base)
}

// NewAction instantiates the next action for def with fresh event stubs.
func NewAction(id, nodeID string, def *domain.DispositionActionDefinition, basis Basis) *domain.DispositionAction {
	return &domain.DispositionAction{
		ID:           id,
		NodeID:       nodeID,
		DefinitionID: def.ID,
		Name:         def.Name,
		AsOf:         CalculateAsOf(def, basis),
		Events:       domain.NewEventStubs(def.Events),
		CreatedAt:    basis.Now,
	}
}
