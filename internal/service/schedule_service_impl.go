package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/repository"
	"github.com/alexanderramin/retention/internal/retention"
	"github.com/google/uuid"
)

// ErrScheduleExists is returned when a category already owns a schedule.
var ErrScheduleExists = errors.New("category already has a disposition schedule")

type scheduleService struct {
	eng *Engine
}

func NewScheduleService(eng *Engine) ScheduleService {
	return &scheduleService{eng: eng}
}

// CreateSchedule attaches a schedule to a category and initializes every
// node it now governs. Nodes that were governed by an ancestor's schedule
// start over under the new one.
func (s *scheduleService) CreateSchedule(ctx context.Context, categoryID string, spec ScheduleSpec) (*domain.DispositionSchedule, error) {
	var created *domain.DispositionSchedule
	err := s.eng.run(ctx, "schedule.create", map[string]any{"node_id": categoryID}, func(ctx context.Context, lc *lifecycle) error {
		sched, err := lc.createSchedule(ctx, categoryID, spec)
		created = sched
		return err
	})
	return created, err
}

// GetSchedule returns the effective schedule of a node, or nil when no
// ancestor owns one.
func (s *scheduleService) GetSchedule(ctx context.Context, nodeID string) (*domain.DispositionSchedule, error) {
	var sched *domain.DispositionSchedule
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		var err error
		sched, err = r.scheduleFor(ctx, nodeID)
		return err
	})
	return sched, err
}

// UpdateSchedule changes schedule-level fields. Toggling record-level
// disposition discards the lifecycle state at the old level and initializes
// the nodes at the new level.
func (s *scheduleService) UpdateSchedule(ctx context.Context, scheduleID string, upd ScheduleUpdate) (*domain.DispositionSchedule, error) {
	var updated *domain.DispositionSchedule
	err := s.eng.run(ctx, "schedule.update", map[string]any{"schedule_id": scheduleID}, func(ctx context.Context, lc *lifecycle) error {
		sched, err := lc.schedules.GetByID(ctx, scheduleID)
		if err != nil {
			return err
		}
		if upd.Instructions != nil {
			sched.Instructions = *upd.Instructions
		}
		if upd.Authority != nil {
			sched.Authority = *upd.Authority
		}
		toggled := upd.RecordLevelDisposition != nil && *upd.RecordLevelDisposition != sched.RecordLevelDisposition
		if toggled {
			sched.RecordLevelDisposition = *upd.RecordLevelDisposition
		}
		sched.UpdatedAt = lc.now
		if err := lc.schedules.Update(ctx, sched); err != nil {
			return err
		}
		updated = sched
		return lc.governedUnder(ctx, sched.CategoryID, func(n *domain.Node) error {
			if !toggled {
				return nil
			}
			if err := lc.reset(ctx, n.ID); err != nil {
				return err
			}
			return lc.initialize(ctx, n, sched, triggerRecordLevel)
		})
	})
	return updated, err
}

// AddStep appends a step. When the schedule had no steps, governed nodes
// that never started a lifecycle are initialized at the new step.
func (s *scheduleService) AddStep(ctx context.Context, scheduleID string, spec StepSpec) (*domain.DispositionActionDefinition, error) {
	var added *domain.DispositionActionDefinition
	err := s.eng.run(ctx, "step.add", map[string]any{"schedule_id": scheduleID, "action": spec.Name}, func(ctx context.Context, lc *lifecycle) error {
		sched, err := lc.schedules.GetByID(ctx, scheduleID)
		if err != nil {
			return err
		}
		def, err := newDefinition(sched.ID, len(sched.Steps), spec)
		if err != nil {
			return err
		}
		if err := lc.schedules.AddStep(ctx, def); err != nil {
			return err
		}
		added = def
		if def.Position != 0 {
			return nil
		}
		sched.Steps = append(sched.Steps, *def)
		return lc.governedUnder(ctx, sched.CategoryID, func(n *domain.Node) error {
			return lc.initialize(ctx, n, sched, triggerStepAdded)
		})
	})
	return added, err
}

// UpdateStep applies field changes to a step and returns the names of the
// fields that changed. Only nodes whose current action was produced by the
// step are recalculated.
func (s *scheduleService) UpdateStep(ctx context.Context, stepID string, upd domain.StepUpdate) ([]string, error) {
	var changed []string
	err := s.eng.run(ctx, "step.update", map[string]any{"step_id": stepID}, func(ctx context.Context, lc *lifecycle) error {
		def, err := lc.schedules.GetStep(ctx, stepID)
		if err != nil {
			return err
		}
		changed = upd.Apply(def)
		if len(changed) == 0 {
			return nil
		}
		if strings.TrimSpace(def.Name) == "" {
			return fmt.Errorf("step %s: name is required", stepID)
		}
		if err := lc.schedules.UpdateStep(ctx, def); err != nil {
			return err
		}
		if !domain.AffectsCurrentAction(changed) {
			return nil
		}
		return lc.rescheduleStep(ctx, def, changed)
	})
	return changed, err
}

// RemoveStep deletes a step that no node currently occupies. The occupancy
// check is repeated by the delete statement itself, so a node that reached
// the step after the first check still blocks the removal.
func (s *scheduleService) RemoveStep(ctx context.Context, stepID string) error {
	return s.eng.run(ctx, "step.remove", map[string]any{"step_id": stepID}, func(ctx context.Context, lc *lifecycle) error {
		def, err := lc.schedules.GetStep(ctx, stepID)
		if err != nil {
			return err
		}
		occupants, err := lc.actions.CountCurrentAtStep(ctx, stepID)
		if err != nil {
			return err
		}
		if occupants == 0 {
			deleted, err := lc.schedules.DeleteStepIfUnoccupied(ctx, stepID)
			if err != nil {
				return err
			}
			if deleted {
				return nil
			}
			if occupants, err = lc.actions.CountCurrentAtStep(ctx, stepID); err != nil {
				return err
			}
		}
		return &domain.StepInUseError{StepID: stepID, StepName: def.Name, Occupants: occupants}
	})
}

func (lc *lifecycle) createSchedule(ctx context.Context, categoryID string, spec ScheduleSpec) (*domain.DispositionSchedule, error) {
	if _, err := lc.nodeOfKind(ctx, categoryID, "create schedule", domain.KindCategory); err != nil {
		return nil, err
	}
	_, err := lc.schedules.GetByCategory(ctx, categoryID)
	if err == nil {
		return nil, fmt.Errorf("category %s: %w", categoryID, ErrScheduleExists)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	sched := &domain.DispositionSchedule{
		ID:                     uuid.New().String(),
		CategoryID:             categoryID,
		Instructions:           spec.Instructions,
		Authority:              spec.Authority,
		RecordLevelDisposition: spec.RecordLevelDisposition,
		CreatedAt:              lc.now,
		UpdatedAt:              lc.now,
	}
	for i, step := range spec.Steps {
		def, err := newDefinition(sched.ID, i, step)
		if err != nil {
			return nil, err
		}
		sched.Steps = append(sched.Steps, *def)
	}
	if err := lc.schedules.Create(ctx, sched); err != nil {
		return nil, err
	}
	err = lc.governedUnder(ctx, categoryID, func(n *domain.Node) error {
		if err := lc.reset(ctx, n.ID); err != nil {
			return err
		}
		return lc.initialize(ctx, n, sched, triggerScheduleCreated)
	})
	return sched, err
}

// rescheduleStep brings the current actions positioned at def in line with
// its edited fields.
func (lc *lifecycle) rescheduleStep(ctx context.Context, def *domain.DispositionActionDefinition, changed []string) error {
	timing := false
	events := false
	for _, f := range changed {
		switch f {
		case domain.StepFieldPeriod, domain.StepFieldPeriodProperty:
			timing = true
		case domain.StepFieldEvents:
			events = true
		}
	}
	occupants, err := lc.actions.ListCurrentAtStep(ctx, def.ID)
	if err != nil {
		return err
	}
	for _, a := range occupants {
		n, err := lc.nodes.GetByID(ctx, a.NodeID)
		if err != nil {
			return err
		}
		lc.touch(n.ID)
		a.Name = def.Name
		if events {
			a.ReplaceEvents(def.Events)
		}
		if timing {
			basis, err := lc.basis(ctx, n)
			if err != nil {
				return err
			}
			a.AsOf = retention.CalculateAsOf(def, basis)
		}
		if err := lc.actions.UpdateCurrent(ctx, a); err != nil {
			return err
		}
		lc.rescheduled[triggerStepEdited]++
	}
	return nil
}

func newDefinition(scheduleID string, position int, spec StepSpec) (*domain.DispositionActionDefinition, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, fmt.Errorf("step %d: name is required", position+1)
	}
	def := &domain.DispositionActionDefinition{
		ID:                           uuid.New().String(),
		ScheduleID:                   scheduleID,
		Position:                     position,
		Name:                         name,
		Description:                  spec.Description,
		PeriodProperty:               spec.PeriodProperty,
		Events:                       append([]string(nil), spec.Events...),
		EligibleOnFirstCompleteEvent: spec.EligibleOnFirstCompleteEvent,
	}
	if spec.Period != nil {
		p := *spec.Period
		def.Period = &p
	}
	return def, nil
}
