package service

import (
	"context"

	"github.com/alexanderramin/retention/internal/domain"
)

type vitalRecordService struct {
	eng *Engine
}

func NewVitalRecordService(eng *Engine) VitalRecordService {
	return &vitalRecordService{eng: eng}
}

// GetDefinition resolves the effective vital-record definition of a node.
func (s *vitalRecordService) GetDefinition(ctx context.Context, nodeID string) (domain.EffectiveVitalRecordDefinition, error) {
	var eff domain.EffectiveVitalRecordDefinition
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		var err error
		eff, err = r.vitalFor(ctx, nodeID)
		return err
	})
	return eff, err
}

// SetDefinition sets an explicit definition on a node and recomputes review
// state for it and every descendant inheriting from it.
func (s *vitalRecordService) SetDefinition(ctx context.Context, nodeID string, def domain.VitalRecordDefinition) error {
	return s.eng.run(ctx, "vital.set", map[string]any{"node_id": nodeID, "enabled": def.Enabled}, func(ctx context.Context, lc *lifecycle) error {
		if _, err := lc.nodeOfKind(ctx, nodeID, "set vital definition", domain.KindCategory, domain.KindFolder, domain.KindRecord); err != nil {
			return err
		}
		if err := lc.putVital(ctx, nodeID, def); err != nil {
			return err
		}
		return lc.cascadeVital(ctx, nodeID)
	})
}

// ClearDefinition removes the node's own definition so it inherits again.
func (s *vitalRecordService) ClearDefinition(ctx context.Context, nodeID string) error {
	return s.eng.run(ctx, "vital.clear", map[string]any{"node_id": nodeID}, func(ctx context.Context, lc *lifecycle) error {
		if _, err := lc.nodes.GetByID(ctx, nodeID); err != nil {
			return err
		}
		if err := lc.vitals.Delete(ctx, nodeID); err != nil {
			return err
		}
		return lc.cascadeVital(ctx, nodeID)
	})
}

// Review records a completed vital-record review, moving reviewAsOf one
// review period past now.
func (s *vitalRecordService) Review(ctx context.Context, nodeID, actor string) (*domain.Node, error) {
	var reviewed *domain.Node
	fields := map[string]any{"node_id": nodeID, "actor": actor}
	err := s.eng.run(ctx, "vital.review", fields, func(ctx context.Context, lc *lifecycle) error {
		n, err := lc.nodeOfKind(ctx, nodeID, "review", domain.KindFolder, domain.KindRecord)
		if err != nil {
			return err
		}
		eff, err := lc.vitalFor(ctx, nodeID)
		if err != nil {
			return err
		}
		if !eff.Active() {
			return &domain.NotEligibleError{NodeID: nodeID, Action: "review", Reason: "not a vital record"}
		}
		if err := lc.applyVital(ctx, n); err != nil {
			return err
		}
		reviewed = n
		return nil
	})
	return reviewed, err
}

// putVital validates and stores an explicit definition without cascading.
func (lc *lifecycle) putVital(ctx context.Context, nodeID string, def domain.VitalRecordDefinition) error {
	def, err := def.Normalize()
	if err != nil {
		return err
	}
	return lc.vitals.Set(ctx, nodeID, def, lc.now)
}
