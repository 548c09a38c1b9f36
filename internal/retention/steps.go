package retention

import "github.com/alexanderramin/retention/internal/domain"

// FirstStep returns the first definition of the schedule.
func FirstStep(s *domain.DispositionSchedule) (*domain.DispositionActionDefinition, bool) {
	if s == nil {
		return nil, false
	}
	return s.StepAt(0)
}

// StepAfter returns the definition following the one that produced
// completed, or false if completed was the last step.
//
// When the definition is no longer part of the schedule the step is matched
// by name, mirroring how history survives schedule edits.
func StepAfter(s *domain.DispositionSchedule, completed *domain.DispositionAction) (*domain.DispositionActionDefinition, bool) {
	if s == nil {
		return nil, false
	}
	idx := s.IndexOf(completed.DefinitionID)
	if idx < 0 {
		for i := range s.Steps {
			if s.Steps[i].Name == completed.Name {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return nil, false
	}
	return s.StepAt(idx + 1)
}

// IsGoverned reports whether a node of kind carries disposition state under s.
func IsGoverned(s *domain.DispositionSchedule, kind domain.NodeKind) bool {
	return s != nil && s.GovernedKind() == kind
}
