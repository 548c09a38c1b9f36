package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/repository"
	"github.com/alexanderramin/retention/internal/retention"
	"github.com/google/uuid"
)

// ErrWrongKind is returned when an operation is applied to a node of the
// wrong kind, such as closing a record.
var ErrWrongKind = errors.New("wrong node kind")

type filePlanService struct {
	eng *Engine
}

func NewFilePlanService(eng *Engine) FilePlanService {
	return &filePlanService{eng: eng}
}

func (s *filePlanService) CreateFilePlan(ctx context.Context, name string) (*domain.Node, error) {
	var created *domain.Node
	err := s.eng.run(ctx, "fileplan.create", map[string]any{"name": name}, func(ctx context.Context, lc *lifecycle) error {
		n, err := lc.createNode(ctx, nil, domain.KindFilePlan, name, "")
		created = n
		return err
	})
	return created, err
}

func (s *filePlanService) CreateCategory(ctx context.Context, parentID, name string) (*domain.Node, error) {
	var created *domain.Node
	err := s.eng.run(ctx, "category.create", map[string]any{"parent_id": parentID}, func(ctx context.Context, lc *lifecycle) error {
		parent, err := lc.nodes.GetByID(ctx, parentID)
		if err != nil {
			return err
		}
		created, err = lc.createNode(ctx, parent, domain.KindCategory, name, "")
		return err
	})
	return created, err
}

func (s *filePlanService) CreateFolder(ctx context.Context, categoryID, name string) (*domain.Node, error) {
	var created *domain.Node
	err := s.eng.run(ctx, "folder.create", map[string]any{"parent_id": categoryID}, func(ctx context.Context, lc *lifecycle) error {
		parent, err := lc.nodes.GetByID(ctx, categoryID)
		if err != nil {
			return err
		}
		n, err := lc.createNode(ctx, parent, domain.KindFolder, name, "")
		if err != nil {
			return err
		}
		created = n
		return lc.enterGovernance(ctx, n)
	})
	return created, err
}

func (s *filePlanService) FileRecord(ctx context.Context, folderID string, req FileRecordRequest) (*domain.Node, error) {
	var filed *domain.Node
	err := s.eng.run(ctx, "record.file", map[string]any{"parent_id": folderID}, func(ctx context.Context, lc *lifecycle) error {
		n, err := lc.fileRecord(ctx, folderID, req)
		filed = n
		return err
	})
	return filed, err
}

func (s *filePlanService) DeclareRecord(ctx context.Context, recordID string) (*domain.Node, error) {
	var declared *domain.Node
	err := s.eng.run(ctx, "record.declare", map[string]any{"node_id": recordID}, func(ctx context.Context, lc *lifecycle) error {
		n, err := lc.nodes.GetByID(ctx, recordID)
		if err != nil {
			return err
		}
		declared = n
		return lc.declare(ctx, n)
	})
	return declared, err
}

func (s *filePlanService) FileAndDeclare(ctx context.Context, folderID string, req FileRecordRequest) (*domain.Node, error) {
	var filed *domain.Node
	err := s.eng.run(ctx, "record.file_and_declare", map[string]any{"parent_id": folderID}, func(ctx context.Context, lc *lifecycle) error {
		n, err := lc.fileRecord(ctx, folderID, req)
		if err != nil {
			return err
		}
		filed = n
		return lc.declare(ctx, n)
	})
	return filed, err
}

func (s *filePlanService) SetIdentifier(ctx context.Context, nodeID, identifier string) (*domain.Node, error) {
	var updated *domain.Node
	err := s.eng.run(ctx, "node.set_identifier", map[string]any{"node_id": nodeID}, func(ctx context.Context, lc *lifecycle) error {
		n, err := lc.nodes.GetByID(ctx, nodeID)
		if err != nil {
			return err
		}
		if err := n.SetIdentifier(identifier, lc.now); err != nil {
			return err
		}
		updated = n
		return lc.nodes.Update(ctx, n)
	})
	return updated, err
}

// SetProperties writes node properties. An empty value removes the property.
// When the current step measures its period from a changed property, the
// step's as-of date is recalculated.
func (s *filePlanService) SetProperties(ctx context.Context, nodeID string, props map[string]string) error {
	return s.eng.run(ctx, "node.set_properties", map[string]any{"node_id": nodeID}, func(ctx context.Context, lc *lifecycle) error {
		n, err := lc.nodes.GetByID(ctx, nodeID)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if props[name] == "" {
				err = lc.nodes.DeleteProperty(ctx, nodeID, name)
			} else {
				err = lc.nodes.SetProperty(ctx, nodeID, name, props[name])
			}
			if err != nil {
				return err
			}
		}
		return lc.propertiesChanged(ctx, n, props)
	})
}

func (s *filePlanService) GetProperties(ctx context.Context, nodeID string) (map[string]string, error) {
	var props map[string]string
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		if _, err := r.nodes.GetByID(ctx, nodeID); err != nil {
			return err
		}
		var err error
		props, err = r.nodes.GetProperties(ctx, nodeID)
		return err
	})
	return props, err
}

func (s *filePlanService) CloseFolder(ctx context.Context, folderID string) (*domain.Node, error) {
	var folder *domain.Node
	err := s.eng.run(ctx, "folder.close", map[string]any{"node_id": folderID}, func(ctx context.Context, lc *lifecycle) error {
		n, err := lc.nodeOfKind(ctx, folderID, "close", domain.KindFolder)
		if err != nil {
			return err
		}
		n.Closed = true
		n.UpdatedAt = lc.now
		folder = n
		lc.touch(n.ID)
		return lc.nodes.Update(ctx, n)
	})
	return folder, err
}

func (s *filePlanService) ReopenFolder(ctx context.Context, folderID string) (*domain.Node, error) {
	var folder *domain.Node
	err := s.eng.run(ctx, "folder.reopen", map[string]any{"node_id": folderID}, func(ctx context.Context, lc *lifecycle) error {
		n, err := lc.nodeOfKind(ctx, folderID, "reopen", domain.KindFolder)
		if err != nil {
			return err
		}
		if n.CutOff {
			return &domain.NotEligibleError{NodeID: n.ID, Action: "reopen", Reason: "folder is cut off"}
		}
		n.Closed = false
		n.UpdatedAt = lc.now
		folder = n
		lc.touch(n.ID)
		return lc.nodes.Update(ctx, n)
	})
	return folder, err
}

// Move refiles a node under a new parent. Nodes in the moved subtree whose
// effective schedule changed are reset and reinitialized; nodes whose
// effective vital-record definition changed get their review state
// recomputed.
func (s *filePlanService) Move(ctx context.Context, nodeID, newParentID string) (*domain.Node, error) {
	var moved *domain.Node
	fields := map[string]any{"node_id": nodeID, "parent_id": newParentID}
	err := s.eng.run(ctx, "node.move", fields, func(ctx context.Context, lc *lifecycle) error {
		n, err := lc.nodes.GetByID(ctx, nodeID)
		if err != nil {
			return err
		}
		parent, err := lc.nodes.GetByID(ctx, newParentID)
		if err != nil {
			return err
		}
		if err := lc.checkContainment(ctx, parent, n.Kind); err != nil {
			return err
		}
		if err := lc.checkNotWithin(ctx, parent, n); err != nil {
			return err
		}

		before, err := lc.snapshotSubtree(ctx, n.ID)
		if err != nil {
			return err
		}
		n.ParentID = &parent.ID
		n.UpdatedAt = lc.now
		if err := lc.nodes.Update(ctx, n); err != nil {
			return err
		}
		if err := lc.refile(ctx, n.ID, before); err != nil {
			return err
		}
		moved, err = lc.nodes.GetByID(ctx, n.ID)
		return err
	})
	return moved, err
}

// Copy duplicates a node and its subtree under targetParentID. The copy gets
// new IDs and identifiers, fresh lifecycle state computed against the target
// location, and no holds.
func (s *filePlanService) Copy(ctx context.Context, nodeID, targetParentID string) (*domain.Node, error) {
	var copied *domain.Node
	fields := map[string]any{"node_id": nodeID, "parent_id": targetParentID}
	err := s.eng.run(ctx, "node.copy", fields, func(ctx context.Context, lc *lifecycle) error {
		src, err := lc.nodes.GetByID(ctx, nodeID)
		if err != nil {
			return err
		}
		parent, err := lc.nodes.GetByID(ctx, targetParentID)
		if err != nil {
			return err
		}
		if err := lc.checkContainment(ctx, parent, src.Kind); err != nil {
			return err
		}
		if err := lc.checkNotWithin(ctx, parent, src); err != nil {
			return err
		}
		rootID, err := lc.copySubtree(ctx, src.ID, parent.ID)
		if err != nil {
			return err
		}
		err = retention.Walk(rootID, lc.childIDs(ctx), func(id string) (bool, error) {
			n, err := lc.nodes.GetByID(ctx, id)
			if err != nil {
				return false, err
			}
			sched, err := lc.scheduleFor(ctx, id)
			if err != nil {
				return false, err
			}
			if err := lc.initialize(ctx, n, sched, triggerCopy); err != nil {
				return false, err
			}
			return n.IsContainer(), lc.applyVital(ctx, n)
		})
		if err != nil {
			return err
		}
		copied, err = lc.nodes.GetByID(ctx, rootID)
		return err
	})
	return copied, err
}

// Delete removes a node and its subtree. Subtrees that contain a held node
// cannot be deleted.
func (s *filePlanService) Delete(ctx context.Context, nodeID string) error {
	return s.eng.run(ctx, "node.delete", map[string]any{"node_id": nodeID}, func(ctx context.Context, lc *lifecycle) error {
		if _, err := lc.nodes.GetByID(ctx, nodeID); err != nil {
			return err
		}
		err := retention.Walk(nodeID, lc.childIDs(ctx), func(id string) (bool, error) {
			count, err := lc.holds.CountEdges(ctx, id)
			if err != nil {
				return false, err
			}
			if count > 0 {
				return false, &domain.NodeFrozenError{NodeID: nodeID, Action: "delete", FrozenNodeID: id}
			}
			return true, nil
		})
		if err != nil {
			return err
		}
		return lc.nodes.Delete(ctx, nodeID)
	})
}

func (s *filePlanService) Get(ctx context.Context, nodeID string) (*domain.Node, error) {
	var n *domain.Node
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		var err error
		n, err = r.nodes.GetByID(ctx, nodeID)
		return err
	})
	return n, err
}

// Resolve looks a node up by ID, then by identifier.
func (s *filePlanService) Resolve(ctx context.Context, ref string) (*domain.Node, error) {
	var n *domain.Node
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		var err error
		n, err = r.resolve(ctx, ref)
		return err
	})
	return n, err
}

func (s *filePlanService) ListChildren(ctx context.Context, parentID string) ([]*domain.Node, error) {
	var kids []*domain.Node
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		if _, err := r.nodes.GetByID(ctx, parentID); err != nil {
			return err
		}
		var err error
		kids, err = r.nodes.ListChildren(ctx, parentID)
		return err
	})
	return kids, err
}

func (s *filePlanService) ListFilePlans(ctx context.Context) ([]*domain.Node, error) {
	var plans []*domain.Node
	err := s.eng.read(ctx, func(ctx context.Context, r *repos) error {
		var err error
		plans, err = r.nodes.ListFilePlans(ctx)
		return err
	})
	return plans, err
}

func (r *repos) resolve(ctx context.Context, ref string) (*domain.Node, error) {
	n, err := r.nodes.GetByID(ctx, ref)
	if err == nil || !errors.Is(err, repository.ErrNotFound) {
		return n, err
	}
	return r.nodes.GetByIdentifier(ctx, ref)
}

func (lc *lifecycle) nodeOfKind(ctx context.Context, id, op string, kinds ...domain.NodeKind) (*domain.Node, error) {
	n, err := lc.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, k := range kinds {
		if n.Kind == k {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%s %s: %w: %s", op, id, ErrWrongKind, n.Kind)
}

func (lc *lifecycle) checkContainment(ctx context.Context, parent *domain.Node, kind domain.NodeKind) error {
	if !parent.CanContain(kind) {
		return &domain.InvalidContainmentError{ParentID: parent.ID, ParentKind: parent.Kind, ChildKind: kind}
	}
	if kind == domain.KindRecord && parent.Closed {
		return &domain.InvalidContainmentError{
			ParentID: parent.ID, ParentKind: parent.Kind, ChildKind: kind,
			Reason: "folder is closed",
		}
	}
	return nil
}

// checkNotWithin rejects placing n under parent when parent is n or one of
// its descendants.
func (lc *lifecycle) checkNotWithin(ctx context.Context, parent, n *domain.Node) error {
	chain, err := lc.nodes.AncestorChain(ctx, parent.ID)
	if err != nil {
		return err
	}
	for _, id := range chain {
		if id == n.ID {
			return &domain.InvalidContainmentError{
				ParentID: parent.ID, ParentKind: parent.Kind, ChildKind: n.Kind,
				Reason: "a node cannot be placed within itself",
			}
		}
	}
	return nil
}

// createNode validates containment and stores a new node with a generated
// identifier when none is given.
func (lc *lifecycle) createNode(ctx context.Context, parent *domain.Node, kind domain.NodeKind, name, identifier string) (*domain.Node, error) {
	var parentID *string
	if parent != nil {
		if err := lc.checkContainment(ctx, parent, kind); err != nil {
			return nil, err
		}
		parentID = &parent.ID
	} else if kind != domain.KindFilePlan {
		return nil, &domain.InvalidContainmentError{ChildKind: kind, Reason: "only file plans may be created at the root"}
	}
	if identifier == "" {
		scope := ""
		if parentID != nil {
			scope = *parentID
		}
		var err error
		if identifier, err = lc.newIdentifier(ctx, kind, scope); err != nil {
			return nil, err
		}
	}
	n := &domain.Node{
		ID:         uuid.New().String(),
		ParentID:   parentID,
		Kind:       kind,
		Name:       name,
		Identifier: identifier,
		CreatedAt:  lc.now,
		UpdatedAt:  lc.now,
	}
	if err := lc.nodes.Create(ctx, n); err != nil {
		return nil, err
	}
	lc.touch(n.ID)
	return n, nil
}

// enterGovernance initializes disposition and vital state for a node that
// was just placed in the hierarchy.
func (lc *lifecycle) enterGovernance(ctx context.Context, n *domain.Node) error {
	sched, err := lc.scheduleFor(ctx, n.ID)
	if err != nil {
		return err
	}
	if err := lc.initialize(ctx, n, sched, ""); err != nil {
		return err
	}
	return lc.applyVital(ctx, n)
}

func (lc *lifecycle) fileRecord(ctx context.Context, folderID string, req FileRecordRequest) (*domain.Node, error) {
	folder, err := lc.nodes.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	n, err := lc.createNode(ctx, folder, domain.KindRecord, req.Name, req.Identifier)
	if err != nil {
		return nil, err
	}
	if req.Content != "" {
		n.Content = req.Content
		if err := lc.nodes.Update(ctx, n); err != nil {
			return nil, err
		}
	}
	// Explicit metadata wins over the generated filing date.
	if err := lc.nodes.SetProperty(ctx, n.ID, domain.PropDateFiled, formatDateProperty(lc.now)); err != nil {
		return nil, err
	}
	for name, value := range req.Properties {
		if value == "" {
			continue
		}
		if err := lc.nodes.SetProperty(ctx, n.ID, name, value); err != nil {
			return nil, err
		}
	}
	if err := lc.enterGovernance(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// declare finalizes a record once its mandatory metadata is set. Declaring
// a declared record is a no-op.
func (lc *lifecycle) declare(ctx context.Context, n *domain.Node) error {
	if n.Kind != domain.KindRecord {
		return fmt.Errorf("declare %s: %w: %s", n.ID, ErrWrongKind, n.Kind)
	}
	if n.Declared {
		return nil
	}
	props, err := lc.nodes.GetProperties(ctx, n.ID)
	if err != nil {
		return err
	}
	var missing []string
	for _, name := range lc.eng.mandatory {
		if props[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &domain.MandatoryPropertyMissingError{NodeID: n.ID, Properties: missing}
	}
	n.Declared = true
	n.UpdatedAt = lc.now
	lc.touch(n.ID)
	return lc.nodes.Update(ctx, n)
}

// propertiesChanged recalculates the current as-of date when the current
// step's period property is among the changed names.
func (lc *lifecycle) propertiesChanged(ctx context.Context, n *domain.Node, changed map[string]string) error {
	lc.touch(n.ID)
	cur, err := lc.currentAction(ctx, n.ID)
	if err != nil || cur == nil {
		return err
	}
	sched, err := lc.scheduleFor(ctx, n.ID)
	if err != nil || sched == nil {
		return err
	}
	def, ok := sched.Step(cur.DefinitionID)
	if !ok || def.PeriodProperty == nil {
		return nil
	}
	if _, hit := changed[*def.PeriodProperty]; !hit {
		return nil
	}
	lc.rescheduled[triggerProperty]++
	return lc.recalculate(ctx, n, cur, def)
}

// governance is the disposition and vital-record context a node had before
// a refile.
type governance struct {
	scheduleKey string
	vital       domain.EffectiveVitalRecordDefinition
}

func scheduleKey(s *domain.DispositionSchedule) string {
	if s == nil {
		return ""
	}
	return s.ID + "/" + string(s.GovernedKind())
}

func sameVital(a, b domain.EffectiveVitalRecordDefinition) bool {
	if a.SourceID != b.SourceID {
		return false
	}
	if a.Definition == nil || b.Definition == nil {
		return a.Definition == b.Definition
	}
	return *a.Definition == *b.Definition
}

func (lc *lifecycle) snapshotSubtree(ctx context.Context, rootID string) (map[string]governance, error) {
	out := make(map[string]governance)
	err := retention.Walk(rootID, lc.childIDs(ctx), func(id string) (bool, error) {
		sched, err := lc.scheduleFor(ctx, id)
		if err != nil {
			return false, err
		}
		vital, err := lc.vitalFor(ctx, id)
		if err != nil {
			return false, err
		}
		out[id] = governance{scheduleKey: scheduleKey(sched), vital: vital}
		return true, nil
	})
	return out, err
}

// refile compares each node of the moved subtree against its pre-move
// governance and reschedules what changed.
func (lc *lifecycle) refile(ctx context.Context, rootID string, before map[string]governance) error {
	return retention.Walk(rootID, lc.childIDs(ctx), func(id string) (bool, error) {
		n, err := lc.nodes.GetByID(ctx, id)
		if err != nil {
			return false, err
		}
		lc.touch(id)
		prev := before[id]

		sched, err := lc.scheduleFor(ctx, id)
		if err != nil {
			return false, err
		}
		if scheduleKey(sched) != prev.scheduleKey {
			if err := lc.reset(ctx, id); err != nil {
				return false, err
			}
			if err := lc.initialize(ctx, n, sched, triggerRefile); err != nil {
				return false, err
			}
		}

		vital, err := lc.vitalFor(ctx, id)
		if err != nil {
			return false, err
		}
		if !sameVital(vital, prev.vital) {
			if err := lc.applyVital(ctx, n); err != nil {
				return false, err
			}
		}
		return n.IsContainer(), nil
	})
}

// copySubtree duplicates the structure rooted at srcID under parentID and
// returns the ID of the copied root.
func (lc *lifecycle) copySubtree(ctx context.Context, srcID, parentID string) (string, error) {
	mapped := map[string]string{}
	err := retention.Walk(srcID, lc.childIDs(ctx), func(id string) (bool, error) {
		src, err := lc.nodes.GetByID(ctx, id)
		if err != nil {
			return false, err
		}
		target := parentID
		if id != srcID {
			target = mapped[*src.ParentID]
		}
		identifier, err := lc.newIdentifier(ctx, src.Kind, target)
		if err != nil {
			return false, err
		}
		dup := *src
		dup.ID = uuid.New().String()
		dup.ParentID = &target
		dup.Identifier = identifier
		dup.ResetLifecycleMarkers()
		dup.CreatedAt = lc.now
		dup.UpdatedAt = lc.now
		if err := lc.nodes.Create(ctx, &dup); err != nil {
			return false, err
		}
		mapped[id] = dup.ID
		lc.touch(dup.ID)

		props, err := lc.nodes.GetProperties(ctx, id)
		if err != nil {
			return false, err
		}
		for name, value := range props {
			if err := lc.nodes.SetProperty(ctx, dup.ID, name, value); err != nil {
				return false, err
			}
		}
		vital, err := lc.vitals.Get(ctx, id)
		if err != nil {
			return false, err
		}
		if vital != nil {
			if err := lc.vitals.Set(ctx, dup.ID, *vital, lc.now); err != nil {
				return false, err
			}
		}
		if src.Kind == domain.KindCategory {
			if err := lc.copySchedule(ctx, id, dup.ID); err != nil {
				return false, err
			}
		}
		return src.IsContainer(), nil
	})
	if err != nil {
		return "", err
	}
	return mapped[srcID], nil
}

func (lc *lifecycle) copySchedule(ctx context.Context, fromCategory, toCategory string) error {
	sched, err := lc.schedules.GetByCategory(ctx, fromCategory)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	dup := *sched
	dup.ID = uuid.New().String()
	dup.CategoryID = toCategory
	dup.CreatedAt = lc.now
	dup.UpdatedAt = lc.now
	dup.Steps = make([]domain.DispositionActionDefinition, len(sched.Steps))
	for i, step := range sched.Steps {
		step.ID = uuid.New().String()
		step.ScheduleID = dup.ID
		step.Events = append([]string(nil), step.Events...)
		dup.Steps[i] = step
	}
	return lc.schedules.Create(ctx, &dup)
}
