package retention

import "github.com/alexanderramin/retention/internal/domain"

// ProjectionInput is the authoritative state a node's projection derives from.
type ProjectionInput struct {
	NodeID     string
	Action     *domain.DispositionAction
	Definition *domain.DispositionActionDefinition
	Schedule   *domain.DispositionSchedule
	Vital      domain.EffectiveVitalRecordDefinition
	Holds      []domain.Hold // holds with a freeze edge on the node, oldest first
}

// Project derives the search projection. It is a pure function of its input.
func Project(in ProjectionInput) domain.Projection {
	p := domain.Projection{NodeID: in.NodeID}

	if in.Action != nil {
		name := in.Action.Name
		p.DispositionActionName = &name
		if in.Action.AsOf != nil {
			asOf := *in.Action.AsOf
			p.DispositionActionAsOf = &asOf
		}
		if names := in.Action.EventNames(); len(names) > 0 {
			p.DispositionEvents = names
		}
		firstComplete := in.Definition != nil && in.Definition.EligibleOnFirstCompleteEvent
		p.DispositionEventsEligible = len(in.Action.Events) > 0 && in.Action.EventsSatisfied(firstComplete)
	}
	if in.Definition != nil && in.Definition.Period != nil {
		unit := string(in.Definition.Period.Unit)
		expr := in.Definition.Period.Expression()
		p.DispositionPeriod = &unit
		p.DispositionPeriodExpression = &expr
	}

	if in.Schedule != nil {
		p.HasDispositionSchedule = true
		instructions := in.Schedule.Instructions
		authority := in.Schedule.Authority
		p.DispositionInstructions = &instructions
		p.DispositionAuthority = &authority
	}

	if d := in.Vital.Definition; d != nil && d.Enabled {
		unit := string(d.ReviewPeriod.Unit)
		expr := d.ReviewPeriod.Expression()
		p.VitalRecordReviewPeriod = &unit
		p.VitalRecordReviewPeriodExpression = &expr
	}

	for _, h := range in.Holds {
		p.HoldReasons = append(p.HoldReasons, h.Reason)
	}
	p.Frozen = len(in.Holds) > 0
	return p
}
