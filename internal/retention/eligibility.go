package retention

import (
	"time"

	"github.com/alexanderramin/retention/internal/domain"
)

// Eligibility is the evaluated predicate for a node's current step.
type Eligibility struct {
	TimeOK   bool
	EventsOK bool
}

// Eligible reports whether both the time and event conditions hold.
func (e Eligibility) Eligible() bool {
	return e.TimeOK && e.EventsOK
}

// Reason describes the unmet condition, or "" when eligible.
func (e Eligibility) Reason() string {
	switch {
	case !e.TimeOK && !e.EventsOK:
		return "as-of date not reached and events incomplete"
	case !e.TimeOK:
		return "as-of date not reached"
	case !e.EventsOK:
		return "events incomplete"
	default:
		return ""
	}
}

// Evaluate computes eligibility of action against its definition at now.
//
// timeOK holds when the step has no period (or a none period), or when now is
// at or after the as-of date. A timed step whose as-of date is unknown (its
// period property is unset) is not time-eligible.
func Evaluate(action *domain.DispositionAction, def *domain.DispositionActionDefinition, now time.Time) Eligibility {
	var e Eligibility
	switch {
	case def.Period == nil || def.Period.Unit == domain.PeriodNone:
		e.TimeOK = true
	case action.AsOf != nil:
		e.TimeOK = !now.Before(*action.AsOf)
	}
	e.EventsOK = action.EventsSatisfied(def.EligibleOnFirstCompleteEvent)
	return e
}
