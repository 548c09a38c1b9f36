package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/repository"
	"github.com/google/uuid"
)

// ErrHoldExists is returned when a file plan already has a hold of that name.
var ErrHoldExists = errors.New("hold already exists")

type holdService struct {
	eng *Engine
}

func NewHoldService(eng *Engine) HoldService {
	return &holdService{eng: eng}
}

func (s *holdService) CreateHold(ctx context.Context, filePlanID, name, reason, description string) (*domain.Hold, error) {
	var created *domain.Hold
	err := s.eng.run(ctx, "hold.create", map[string]any{"node_id": filePlanID, "name": name}, func(ctx context.Context, lc *lifecycle) error {
		h, err := lc.createHold(ctx, filePlanID, name, reason, description)
		created = h
		return err
	})
	return created, err
}

// Freeze places nodes under a hold. An existing hold is reused when HoldID
// is set or a hold named Name already exists in the file plan.
func (s *holdService) Freeze(ctx context.Context, req FreezeRequest) (*domain.Hold, error) {
	var hold *domain.Hold
	fields := map[string]any{"hold_id": req.HoldID, "nodes": len(req.NodeIDs)}
	err := s.eng.run(ctx, "hold.freeze", fields, func(ctx context.Context, lc *lifecycle) error {
		if len(req.NodeIDs) == 0 {
			return errors.New("freeze: no nodes given")
		}
		var err error
		if req.HoldID != "" {
			hold, err = lc.holds.GetByID(ctx, req.HoldID)
		} else {
			hold, err = lc.holdFor(ctx, req)
		}
		if err != nil {
			return err
		}
		return lc.addEdges(ctx, hold, req.NodeIDs)
	})
	return hold, err
}

func (s *holdService) AddToHold(ctx context.Context, holdID string, nodeIDs ...string) error {
	fields := map[string]any{"hold_id": holdID, "nodes": len(nodeIDs)}
	return s.eng.run(ctx, "hold.add", fields, func(ctx context.Context, lc *lifecycle) error {
		hold, err := lc.holds.GetByID(ctx, holdID)
		if err != nil {
			return err
		}
		return lc.addEdges(ctx, hold, nodeIDs)
	})
}

func (s *holdService) EditHoldReason(ctx context.Context, holdID, reason string) (*domain.Hold, error) {
	var hold *domain.Hold
	err := s.eng.run(ctx, "hold.edit_reason", map[string]any{"hold_id": holdID}, func(ctx context.Context, lc *lifecycle) error {
		h, err := lc.holds.GetByID(ctx, holdID)
		if err != nil {
			return err
		}
		h.Reason = reason
		h.UpdatedAt = lc.now
		if err := lc.holds.Update(ctx, h); err != nil {
			return err
		}
		held, err := lc.holds.ListHeld(ctx, holdID)
		if err != nil {
			return err
		}
		lc.touch(held...)
		hold = h
		return nil
	})
	return hold, err
}

// Unfreeze removes this hold's edges to the given nodes. A node stays
// frozen while another hold still covers it.
func (s *holdService) Unfreeze(ctx context.Context, holdID string, nodeIDs ...string) error {
	fields := map[string]any{"hold_id": holdID, "nodes": len(nodeIDs)}
	return s.eng.run(ctx, "hold.unfreeze", fields, func(ctx context.Context, lc *lifecycle) error {
		if _, err := lc.holds.GetByID(ctx, holdID); err != nil {
			return err
		}
		for _, id := range nodeIDs {
			removed, err := lc.holds.RemoveEdge(ctx, holdID, id)
			if err != nil {
				return err
			}
			if removed {
				lc.edgesGone++
				lc.touch(id)
			}
		}
		return nil
	})
}

// RelinquishHold deletes the hold together with all of its edges.
func (s *holdService) RelinquishHold(ctx context.Context, holdID string) error {
	return s.eng.run(ctx, "hold.relinquish", map[string]any{"hold_id": holdID}, func(ctx context.Context, lc *lifecycle) error {
		if _, err := lc.holds.GetByID(ctx, holdID); err != nil {
			return err
		}
		held, err := lc.holds.ListHeld(ctx, holdID)
		if err != nil {
			return err
		}
		if err := lc.holds.Delete(ctx, holdID); err != nil {
			return err
		}
		lc.edgesGone += len(held)
		lc.touch(held...)
		return nil
	})
}

func (s *holdService) GetHold(ctx context.Context, holdID string) (*domain.Hold, error) {
	var h *domain.Hold
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		var err error
		h, err = r.holds.GetByID(ctx, holdID)
		return err
	})
	return h, err
}

func (s *holdService) ListHolds(ctx context.Context, filePlanID string) ([]*domain.Hold, error) {
	var list []*domain.Hold
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		var err error
		list, err = r.holds.ListByFilePlan(ctx, filePlanID)
		return err
	})
	return list, err
}

func (s *holdService) HeldBy(ctx context.Context, nodeID string) ([]domain.Hold, error) {
	var list []domain.Hold
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		if _, err := r.nodes.GetByID(ctx, nodeID); err != nil {
			return err
		}
		var err error
		list, err = r.holds.ListHeldBy(ctx, nodeID)
		return err
	})
	return list, err
}

func (s *holdService) GetHeld(ctx context.Context, holdID string) ([]*domain.Node, error) {
	var nodes []*domain.Node
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		ids, err := r.holds.ListHeld(ctx, holdID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			n, err := r.nodes.GetByID(ctx, id)
			if err != nil {
				return err
			}
			nodes = append(nodes, n)
		}
		return nil
	})
	return nodes, err
}

// IsFrozen reports whether at least one hold covers the node directly.
func (s *holdService) IsFrozen(ctx context.Context, nodeID string) (bool, error) {
	var frozen bool
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		if _, err := r.nodes.GetByID(ctx, nodeID); err != nil {
			return err
		}
		count, err := r.holds.CountEdges(ctx, nodeID)
		frozen = count > 0
		return err
	})
	return frozen, err
}

func (lc *lifecycle) createHold(ctx context.Context, filePlanID, name, reason, description string) (*domain.Hold, error) {
	if _, err := lc.nodeOfKind(ctx, filePlanID, "create hold", domain.KindFilePlan); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("hold name is required")
	}
	_, err := lc.holds.GetByName(ctx, filePlanID, name)
	if err == nil {
		return nil, fmt.Errorf("%q: %w", name, ErrHoldExists)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	h := &domain.Hold{
		ID:          uuid.New().String(),
		FilePlanID:  filePlanID,
		Name:        name,
		Reason:      reason,
		Description: description,
		CreatedAt:   lc.now,
		UpdatedAt:   lc.now,
	}
	if err := lc.holds.Create(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// holdFor finds the named hold in the file plan of the first node, or
// creates it.
func (lc *lifecycle) holdFor(ctx context.Context, req FreezeRequest) (*domain.Hold, error) {
	chain, err := lc.nodes.AncestorChain(ctx, req.NodeIDs[0])
	if err != nil {
		return nil, err
	}
	filePlanID := chain[len(chain)-1]
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "hold-" + uuid.New().String()[:8]
	}
	h, err := lc.holds.GetByName(ctx, filePlanID, name)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return lc.createHold(ctx, filePlanID, name, req.Reason, req.Description)
}

// addEdges links hold to each node. Only folders and records can be held;
// linking an already held node is a no-op.
func (lc *lifecycle) addEdges(ctx context.Context, hold *domain.Hold, nodeIDs []string) error {
	for _, id := range nodeIDs {
		if _, err := lc.nodeOfKind(ctx, id, "freeze", domain.KindFolder, domain.KindRecord); err != nil {
			return err
		}
		added, err := lc.holds.AddEdge(ctx, domain.FreezeEdge{HoldID: hold.ID, NodeID: id, CreatedAt: lc.now})
		if err != nil {
			return err
		}
		if added {
			lc.edgesAdded++
		}
		lc.touch(id)
	}
	return nil
}
