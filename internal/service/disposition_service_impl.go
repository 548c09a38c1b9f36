package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/repository"
	"github.com/alexanderramin/retention/internal/retention"
	"github.com/google/uuid"
)

type dispositionService struct {
	eng *Engine
}

func NewDispositionService(eng *Engine) DispositionService {
	return &dispositionService{eng: eng}
}

// GetNextAction returns the node's current action, or nil when the node is
// unscheduled or its lifecycle ended.
func (s *dispositionService) GetNextAction(ctx context.Context, nodeID string) (*domain.DispositionAction, error) {
	var a *domain.DispositionAction
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		if _, err := r.nodes.GetByID(ctx, nodeID); err != nil {
			return err
		}
		var err error
		a, err = r.currentAction(ctx, nodeID)
		return err
	})
	return a, err
}

func (s *dispositionService) GetCompletedActions(ctx context.Context, nodeID string) ([]*domain.DispositionAction, error) {
	var history []*domain.DispositionAction
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		if _, err := r.nodes.GetByID(ctx, nodeID); err != nil {
			return err
		}
		var err error
		history, err = r.actions.ListHistory(ctx, nodeID)
		return err
	})
	return history, err
}

// IsEligible evaluates the current step of a node. A node without a current
// action is never eligible.
func (s *dispositionService) IsEligible(ctx context.Context, nodeID string) (retention.Eligibility, error) {
	var el retention.Eligibility
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		if _, err := r.nodes.GetByID(ctx, nodeID); err != nil {
			return err
		}
		cur, err := r.currentAction(ctx, nodeID)
		if err != nil || cur == nil {
			return err
		}
		def, err := r.definitionOf(ctx, cur)
		if err != nil {
			return err
		}
		el = retention.Evaluate(cur, def, s.eng.now())
		return nil
	})
	return el, err
}

func (s *dispositionService) CompleteEvent(ctx context.Context, req EventRequest) (*domain.DispositionAction, error) {
	var updated *domain.DispositionAction
	fields := map[string]any{"node_id": req.NodeID, "event": req.Event}
	err := s.eng.run(ctx, "event.complete", fields, func(ctx context.Context, lc *lifecycle) error {
		cur, err := lc.actionForEvent(ctx, req)
		if err != nil {
			return err
		}
		at := lc.now
		if req.CompletedAt != nil {
			at = req.CompletedAt.UTC()
		}
		if err := cur.CompleteEvent(req.Event, at, req.CompletedBy); err != nil {
			return err
		}
		if err := lc.actions.UpdateCurrent(ctx, cur); err != nil {
			return err
		}
		updated = cur
		return nil
	})
	return updated, err
}

func (s *dispositionService) UndoEvent(ctx context.Context, req EventRequest) (*domain.DispositionAction, error) {
	var updated *domain.DispositionAction
	fields := map[string]any{"node_id": req.NodeID, "event": req.Event}
	err := s.eng.run(ctx, "event.undo", fields, func(ctx context.Context, lc *lifecycle) error {
		cur, err := lc.actionForEvent(ctx, req)
		if err != nil {
			return err
		}
		if err := cur.UndoEvent(req.Event); err != nil {
			return err
		}
		if err := lc.actions.UpdateCurrent(ctx, cur); err != nil {
			return err
		}
		updated = cur
		return nil
	})
	return updated, err
}

// EditAsOfDate overrides the as-of date of the current action. Holds do not
// block it.
func (s *dispositionService) EditAsOfDate(ctx context.Context, nodeID string, asOf time.Time) (*domain.DispositionAction, error) {
	var updated *domain.DispositionAction
	err := s.eng.run(ctx, "action.edit_as_of", map[string]any{"node_id": nodeID}, func(ctx context.Context, lc *lifecycle) error {
		if _, err := lc.nodes.GetByID(ctx, nodeID); err != nil {
			return err
		}
		cur, err := lc.currentAction(ctx, nodeID)
		if err != nil {
			return err
		}
		if cur == nil {
			return &domain.NotEligibleError{NodeID: nodeID, Action: "editAsOf", Reason: "no pending disposition action"}
		}
		at := asOf.UTC()
		cur.AsOf = &at
		if err := lc.actions.UpdateCurrent(ctx, cur); err != nil {
			return err
		}
		lc.touch(nodeID)
		updated = cur
		return nil
	})
	return updated, err
}

// Execute runs the node's current step. Transfer and accession only start
// here; CompleteTransfer finishes them.
func (s *dispositionService) Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error) {
	var result *ExecuteResult
	fields := map[string]any{"node_id": req.NodeID, "action": req.Action, "force": req.Force}
	err := s.eng.run(ctx, "action.execute", fields, func(ctx context.Context, lc *lifecycle) error {
		n, sched, cur, err := lc.governedAction(ctx, req.NodeID, req.Action)
		if err != nil {
			return err
		}
		if cur.StartedAt != nil {
			if _, err := lc.transfers.GetByNode(ctx, n.ID); err == nil {
				return &domain.NotEligibleError{NodeID: n.ID, Action: cur.Name, Reason: "transfer pending completion"}
			} else if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}
		if domain.IsDestructiveAction(cur.Name) {
			frozen, err := lc.frozenBy(ctx, n)
			if err != nil {
				return err
			}
			if frozen != "" {
				return &domain.NodeFrozenError{NodeID: n.ID, Action: cur.Name, FrozenNodeID: frozen}
			}
		}
		if !req.Force {
			def, err := lc.definitionOf(ctx, cur)
			if err != nil {
				return err
			}
			if el := retention.Evaluate(cur, def, lc.now); !el.Eligible() {
				return &domain.NotEligibleError{NodeID: n.ID, Action: cur.Name, Reason: el.Reason()}
			}
		}

		cur.Start(lc.now, req.Actor)
		result = &ExecuteResult{Executed: cur}
		switch cur.Name {
		case domain.ActionCutoff:
			err = lc.cascade(ctx, n, func(m *domain.Node) { m.ApplyCutoff(lc.now) })
		case domain.ActionDestroy:
			err = lc.cascade(ctx, n, func(m *domain.Node) { m.Ghost(lc.now) })
		case domain.ActionTransfer, domain.ActionAccession:
			result.TransferID, err = lc.startTransfer(ctx, n, cur, req.Actor)
			return err
		}
		if err != nil {
			return err
		}
		cur.Complete(lc.now, req.Actor)
		result.Next, err = lc.advance(ctx, n, cur, sched)
		return err
	})
	return result, err
}

// UndoCutoff reverses a completed cutoff: the marker is cleared on the node
// and its contained records and the cutoff step becomes the current action
// again, timestamps cleared. History is left as it is.
func (s *dispositionService) UndoCutoff(ctx context.Context, nodeID, actor string) (*domain.DispositionAction, error) {
	var restored *domain.DispositionAction
	fields := map[string]any{"node_id": nodeID, "actor": actor}
	err := s.eng.run(ctx, "action.undo_cutoff", fields, func(ctx context.Context, lc *lifecycle) error {
		n, err := lc.nodes.GetByID(ctx, nodeID)
		if err != nil {
			return err
		}
		sched, err := lc.scheduleFor(ctx, nodeID)
		if err != nil {
			return err
		}
		if err := checkLevel(n, sched, "undoCutoff"); err != nil {
			return err
		}
		if !n.CutOff {
			return &domain.NotEligibleError{NodeID: nodeID, Action: "undoCutoff", Reason: "node is not cut off"}
		}
		history, err := lc.actions.ListHistory(ctx, nodeID)
		if err != nil {
			return err
		}
		var snapshot *domain.DispositionAction
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].Name == domain.ActionCutoff {
				snapshot = history[i]
				break
			}
		}
		if snapshot == nil {
			return &domain.NotEligibleError{NodeID: nodeID, Action: "undoCutoff", Reason: "no completed cutoff"}
		}

		if err := lc.cascade(ctx, n, func(m *domain.Node) { m.ClearCutoff(lc.now) }); err != nil {
			return err
		}
		if err := lc.actions.DeleteCurrent(ctx, nodeID); err != nil {
			return err
		}
		restored = &domain.DispositionAction{
			ID:           uuid.New().String(),
			NodeID:       nodeID,
			DefinitionID: snapshot.DefinitionID,
			Name:         snapshot.Name,
			AsOf:         snapshot.AsOf,
			Events:       append([]domain.EventCompletion(nil), snapshot.Events...),
			CreatedAt:    lc.now,
		}
		if def, ok := sched.Step(snapshot.DefinitionID); ok {
			restored.Name = def.Name
		} else if idx := stepIndexByName(sched, snapshot.Name); idx >= 0 {
			restored.DefinitionID = sched.Steps[idx].ID
		}
		return lc.actions.InsertCurrent(ctx, restored)
	})
	return restored, err
}

// CompleteTransfer stamps the items of a pending transfer, completes the
// transfer step and advances the lifecycle. The transfer is then removed.
func (s *dispositionService) CompleteTransfer(ctx context.Context, transferID, actor string) ([]*domain.Node, error) {
	var items []*domain.Node
	fields := map[string]any{"transfer_id": transferID, "actor": actor}
	err := s.eng.run(ctx, "transfer.complete", fields, func(ctx context.Context, lc *lifecycle) error {
		tr, err := lc.transfers.GetByID(ctx, transferID)
		if err != nil {
			return err
		}
		if len(tr.NodeIDs) == 0 {
			return fmt.Errorf("transfer %s has no items", transferID)
		}
		governed, err := lc.nodes.GetByID(ctx, tr.NodeIDs[0])
		if err != nil {
			return err
		}
		cur, err := lc.currentAction(ctx, governed.ID)
		if err != nil {
			return err
		}
		if cur == nil || cur.ID != tr.ActionID {
			return fmt.Errorf("transfer %s: action %s is no longer current on %s", transferID, tr.ActionID, governed.ID)
		}
		for _, id := range tr.NodeIDs {
			n := governed
			if id != governed.ID {
				if n, err = lc.nodes.GetByID(ctx, id); err != nil {
					return err
				}
			}
			n.MarkTransferred(tr.Accession, lc.now)
			if err := lc.nodes.Update(ctx, n); err != nil {
				return err
			}
			lc.touch(n.ID)
			items = append(items, n)
		}
		sched, err := lc.scheduleFor(ctx, governed.ID)
		if err != nil {
			return err
		}
		cur.Complete(lc.now, actor)
		if _, err := lc.advance(ctx, governed, cur, sched); err != nil {
			return err
		}
		return lc.transfers.Delete(ctx, tr.ID)
	})
	return items, err
}

func (s *dispositionService) GetTransfer(ctx context.Context, transferID string) (*domain.Transfer, error) {
	var tr *domain.Transfer
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		var err error
		tr, err = r.transfers.GetByID(ctx, transferID)
		return err
	})
	return tr, err
}

func (s *dispositionService) ListTransfers(ctx context.Context) ([]*domain.Transfer, error) {
	var list []*domain.Transfer
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		var err error
		list, err = r.transfers.List(ctx)
		return err
	})
	return list, err
}

func (s *dispositionService) GetProjection(ctx context.Context, nodeID string) (*domain.Projection, error) {
	var p *domain.Projection
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		var err error
		p, err = r.projections.Get(ctx, nodeID)
		return err
	})
	return p, err
}

func checkLevel(n *domain.Node, sched *domain.DispositionSchedule, action string) error {
	if sched == nil {
		return &domain.NotEligibleError{NodeID: n.ID, Action: action, Reason: "no disposition schedule"}
	}
	if n.Kind != sched.GovernedKind() {
		return &domain.WrongLevelError{NodeID: n.ID, Action: action, NodeKind: n.Kind, Governed: sched.GovernedKind()}
	}
	return nil
}

func stepIndexByName(s *domain.DispositionSchedule, name string) int {
	for i := range s.Steps {
		if s.Steps[i].Name == name {
			return i
		}
	}
	return -1
}

// governedAction loads a node with its schedule and current action, checking
// that the node is governed and, when action is set, positioned at it.
func (lc *lifecycle) governedAction(ctx context.Context, nodeID, action string) (*domain.Node, *domain.DispositionSchedule, *domain.DispositionAction, error) {
	n, err := lc.nodes.GetByID(ctx, nodeID)
	if err != nil {
		return nil, nil, nil, err
	}
	sched, err := lc.scheduleFor(ctx, nodeID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := checkLevel(n, sched, action); err != nil {
		return nil, nil, nil, err
	}
	cur, err := lc.currentAction(ctx, nodeID)
	if err != nil {
		return nil, nil, nil, err
	}
	if cur == nil {
		return nil, nil, nil, &domain.NotEligibleError{NodeID: nodeID, Action: action, Reason: "no pending disposition action"}
	}
	if action != "" && cur.Name != action {
		return nil, nil, nil, &domain.NotEligibleError{
			NodeID: nodeID, Action: action,
			Reason: fmt.Sprintf("current step is %q", cur.Name),
		}
	}
	return n, sched, cur, nil
}

func (lc *lifecycle) actionForEvent(ctx context.Context, req EventRequest) (*domain.DispositionAction, error) {
	if _, err := lc.nodes.GetByID(ctx, req.NodeID); err != nil {
		return nil, err
	}
	cur, err := lc.currentAction(ctx, req.NodeID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, &domain.UnknownEventError{NodeID: req.NodeID, EventName: req.Event}
	}
	lc.touch(req.NodeID)
	return cur, nil
}

// cascade applies mark to n and, for a folder, to each contained record.
func (lc *lifecycle) cascade(ctx context.Context, n *domain.Node, mark func(*domain.Node)) error {
	targets := []*domain.Node{n}
	if n.Kind == domain.KindFolder {
		kids, err := lc.nodes.ListChildren(ctx, n.ID)
		if err != nil {
			return err
		}
		targets = append(targets, kids...)
	}
	for _, t := range targets {
		mark(t)
		if err := lc.nodes.Update(ctx, t); err != nil {
			return err
		}
		lc.touch(t.ID)
	}
	return nil
}

// startTransfer records a pending transfer of n and its contained records.
func (lc *lifecycle) startTransfer(ctx context.Context, n *domain.Node, cur *domain.DispositionAction, actor string) (string, error) {
	if err := lc.actions.UpdateCurrent(ctx, cur); err != nil {
		return "", err
	}
	ids := []string{n.ID}
	if n.Kind == domain.KindFolder {
		kids, err := lc.nodes.ListChildIDs(ctx, n.ID)
		if err != nil {
			return "", err
		}
		ids = append(ids, kids...)
	}
	tr := &domain.Transfer{
		ID:        uuid.New().String(),
		Accession: cur.Name == domain.ActionAccession,
		ActionID:  cur.ID,
		NodeIDs:   ids,
		CreatedAt: lc.now,
		CreatedBy: actor,
	}
	if err := lc.transfers.Create(ctx, tr); err != nil {
		return "", err
	}
	lc.touch(n.ID)
	return tr.ID, nil
}

// definitionOf returns the step definition behind a, falling back to a
// manual definition when the step no longer exists.
func (r *repos) definitionOf(ctx context.Context, a *domain.DispositionAction) (*domain.DispositionActionDefinition, error) {
	def, err := r.schedules.GetStep(ctx, a.DefinitionID)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.DispositionActionDefinition{ID: a.DefinitionID, Name: a.Name}, nil
	}
	return def, err
}
