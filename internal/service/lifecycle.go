package service

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/retention/internal/db"
	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/repository"
	"github.com/alexanderramin/retention/internal/retention"
	"github.com/google/uuid"
)

// Reschedule triggers, as reported by the rescheduled metric.
const (
	triggerScheduleCreated = "schedule_created"
	triggerStepAdded       = "step_added"
	triggerStepEdited      = "step_edited"
	triggerRecordLevel     = "record_level"
	triggerRefile          = "refile"
	triggerCopy            = "copy"
	triggerProperty        = "property"
)

// lifecycle is the per-transaction state of a mutating use case.
type lifecycle struct {
	*repos
	eng  *Engine
	now  time.Time
	seen map[string]bool

	touched     []string
	rescheduled map[string]int
	executed    []string
	edgesAdded  int
	edgesGone   int
}

func newLifecycle(e *Engine, tx db.DBTX) *lifecycle {
	return &lifecycle{
		repos:       newRepos(tx),
		eng:         e,
		now:         e.now(),
		seen:        make(map[string]bool),
		rescheduled: make(map[string]int),
	}
}

// touch marks nodes whose projection must be re-derived before commit.
func (lc *lifecycle) touch(ids ...string) {
	for _, id := range ids {
		if lc.seen[id] {
			continue
		}
		lc.seen[id] = true
		lc.touched = append(lc.touched, id)
	}
}

func (lc *lifecycle) flushStats() {
	m := lc.eng.metrics
	for trigger, n := range lc.rescheduled {
		m.AddRescheduled(trigger, n)
	}
	for _, name := range lc.executed {
		m.IncrementActionExecuted(name)
	}
	m.AddFreezeEdges("add", lc.edgesAdded)
	m.AddFreezeEdges("remove", lc.edgesGone)
	m.AddProjectionSyncs(len(lc.touched))
}

func (lc *lifecycle) newIdentifier(ctx context.Context, kind domain.NodeKind, parentID string) (string, error) {
	return lc.eng.ids.Generate(ctx, lc.sequences, kind, parentID, lc.now)
}

// initialize gives a governed node with no lifecycle yet its first action.
// Nodes that are mid-lifecycle or terminal are left alone.
func (lc *lifecycle) initialize(ctx context.Context, n *domain.Node, sched *domain.DispositionSchedule, trigger string) error {
	lc.touch(n.ID)
	if !retention.IsGoverned(sched, n.Kind) {
		return nil
	}
	first, ok := retention.FirstStep(sched)
	if !ok {
		return nil
	}
	cur, err := lc.currentAction(ctx, n.ID)
	if err != nil || cur != nil {
		return err
	}
	history, err := lc.actions.ListHistory(ctx, n.ID)
	if err != nil {
		return err
	}
	if len(history) > 0 {
		return nil
	}
	basis, err := lc.basis(ctx, n)
	if err != nil {
		return err
	}
	if err := lc.actions.InsertCurrent(ctx, retention.NewAction(uuid.New().String(), n.ID, first, basis)); err != nil {
		return err
	}
	if trigger != "" {
		lc.rescheduled[trigger]++
	}
	return nil
}

// reset discards all disposition state of a node, including a transfer
// its current action has started.
func (lc *lifecycle) reset(ctx context.Context, nodeID string) error {
	lc.touch(nodeID)
	cur, err := lc.currentAction(ctx, nodeID)
	if err != nil {
		return err
	}
	if cur != nil {
		if _, err := lc.transfers.DeleteByAction(ctx, cur.ID); err != nil {
			return err
		}
	}
	if err := lc.transfers.RemoveItem(ctx, nodeID); err != nil {
		return err
	}
	if err := lc.actions.DeleteCurrent(ctx, nodeID); err != nil {
		return err
	}
	return lc.actions.DeleteHistory(ctx, nodeID)
}

// advance appends done to the history and instantiates the following step,
// returning nil when done was the last step.
func (lc *lifecycle) advance(ctx context.Context, n *domain.Node, done *domain.DispositionAction, sched *domain.DispositionSchedule) (*domain.DispositionAction, error) {
	lc.touch(n.ID)
	if err := lc.actions.ArchiveCurrent(ctx, done); err != nil {
		return nil, err
	}
	lc.executed = append(lc.executed, done.Name)

	def, ok := retention.StepAfter(sched, done)
	if !ok {
		return nil, nil
	}
	basis, err := lc.basis(ctx, n)
	if err != nil {
		return nil, err
	}
	next := retention.NewAction(uuid.New().String(), n.ID, def, basis)
	if err := lc.actions.InsertCurrent(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// recalculate refreshes the as-of date of the node's current action from
// its step definition.
func (lc *lifecycle) recalculate(ctx context.Context, n *domain.Node, a *domain.DispositionAction, def *domain.DispositionActionDefinition) error {
	basis, err := lc.basis(ctx, n)
	if err != nil {
		return err
	}
	a.AsOf = retention.CalculateAsOf(def, basis)
	lc.touch(n.ID)
	return lc.actions.UpdateCurrent(ctx, a)
}

// applyVital recomputes the vital marker and review date of a folder or
// record from its effective definition.
func (lc *lifecycle) applyVital(ctx context.Context, n *domain.Node) error {
	lc.touch(n.ID)
	if n.Kind != domain.KindFolder && n.Kind != domain.KindRecord {
		return nil
	}
	eff, err := lc.vitalFor(ctx, n.ID)
	if err != nil {
		return err
	}
	n.ApplyVitalState(eff, lc.now)
	return lc.nodes.Update(ctx, n)
}

// cascadeVital re-applies vital state to root and every descendant that
// inherits through root.
func (lc *lifecycle) cascadeVital(ctx context.Context, rootID string) error {
	return retention.Walk(rootID, lc.childIDs(ctx), func(id string) (bool, error) {
		if id != rootID {
			own, err := lc.vitals.Get(ctx, id)
			if err != nil {
				return false, err
			}
			if own != nil {
				return false, nil
			}
		}
		n, err := lc.nodes.GetByID(ctx, id)
		if err != nil {
			return false, err
		}
		return true, lc.applyVital(ctx, n)
	})
}

// governedUnder walks the nodes governed through the schedule owned by
// categoryID, skipping subcategories that own a schedule themselves.
func (lc *lifecycle) governedUnder(ctx context.Context, categoryID string, visit func(n *domain.Node) error) error {
	return retention.Walk(categoryID, lc.childIDs(ctx), func(id string) (bool, error) {
		n, err := lc.nodes.GetByID(ctx, id)
		if err != nil {
			return false, err
		}
		if id != categoryID && n.Kind == domain.KindCategory {
			_, err := lc.schedules.GetByCategory(ctx, id)
			if err == nil {
				return false, nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return false, err
			}
		}
		lc.touch(id)
		if err := visit(n); err != nil {
			return false, err
		}
		return n.IsContainer(), nil
	})
}

// syncProjections writes the derived projection of every touched node.
func (lc *lifecycle) syncProjections(ctx context.Context) error {
	for _, id := range lc.touched {
		p, err := lc.deriveProjection(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue // deleted in this transaction
		}
		if err != nil {
			return err
		}
		if err := lc.projections.Upsert(ctx, p, lc.now); err != nil {
			return err
		}
	}
	return nil
}

// basis collects the dates an as-of calculation for n may start from.
func (lc *lifecycle) basis(ctx context.Context, n *domain.Node) (retention.Basis, error) {
	last, err := lc.actions.LastCompletedAt(ctx, n.ID)
	if err != nil {
		return retention.Basis{}, err
	}
	props, err := lc.nodes.GetProperties(ctx, n.ID)
	if err != nil {
		return retention.Basis{}, err
	}
	cutOff := n.CutOffDate
	return retention.Basis{
		Now:             lc.now,
		LastCompletedAt: last,
		Property: func(name string) *time.Time {
			if name == domain.PropCutOffDate && cutOff != nil {
				t := *cutOff
				return &t
			}
			return parseDateProperty(props[name])
		},
	}, nil
}

var datePropertyLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDateProperty(v string) *time.Time {
	if v == "" {
		return nil
	}
	for _, layout := range datePropertyLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func formatDateProperty(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func (r *repos) childIDs(ctx context.Context) func(string) ([]string, error) {
	return func(id string) ([]string, error) {
		return r.nodes.ListChildIDs(ctx, id)
	}
}

// scheduleFor resolves the nearest schedule on the node's ancestor chain.
func (r *repos) scheduleFor(ctx context.Context, nodeID string) (*domain.DispositionSchedule, error) {
	chain, err := r.nodes.AncestorChain(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	s, _, err := retention.Nearest(chain, func(id string) (*domain.DispositionSchedule, bool, error) {
		s, err := r.schedules.GetByCategory(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return s, true, nil
	})
	return s, err
}

// vitalFor resolves the nearest explicit vital-record definition.
func (r *repos) vitalFor(ctx context.Context, nodeID string) (domain.EffectiveVitalRecordDefinition, error) {
	chain, err := r.nodes.AncestorChain(ctx, nodeID)
	if err != nil {
		return domain.EffectiveVitalRecordDefinition{}, err
	}
	def, src, err := retention.Nearest(chain, func(id string) (*domain.VitalRecordDefinition, bool, error) {
		d, err := r.vitals.Get(ctx, id)
		return d, d != nil, err
	})
	if err != nil {
		return domain.EffectiveVitalRecordDefinition{}, err
	}
	return domain.EffectiveVitalRecordDefinition{Definition: def, SourceID: src}, nil
}

func (r *repos) currentAction(ctx context.Context, nodeID string) (*domain.DispositionAction, error) {
	a, err := r.actions.GetCurrent(ctx, nodeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

// deriveProjection computes the projection of a node from authoritative state.
func (r *repos) deriveProjection(ctx context.Context, nodeID string) (domain.Projection, error) {
	sched, err := r.scheduleFor(ctx, nodeID)
	if err != nil {
		return domain.Projection{}, err
	}
	action, err := r.currentAction(ctx, nodeID)
	if err != nil {
		return domain.Projection{}, err
	}
	var def *domain.DispositionActionDefinition
	if action != nil && sched != nil {
		def, _ = sched.Step(action.DefinitionID)
	}
	vital, err := r.vitalFor(ctx, nodeID)
	if err != nil {
		return domain.Projection{}, err
	}
	holds, err := r.holds.ListHeldBy(ctx, nodeID)
	if err != nil {
		return domain.Projection{}, err
	}
	return retention.Project(retention.ProjectionInput{
		NodeID:     nodeID,
		Action:     action,
		Definition: def,
		Schedule:   sched,
		Vital:      vital,
		Holds:      holds,
	}), nil
}

// frozenBy returns the ID of the node whose freeze edge blocks a destructive
// action on n: n itself, a record contained in folder n, or the folder
// containing record n. It returns "" when nothing blocks.
func (r *repos) frozenBy(ctx context.Context, n *domain.Node) (string, error) {
	candidates := []string{n.ID}
	switch n.Kind {
	case domain.KindFolder:
		kids, err := r.nodes.ListChildIDs(ctx, n.ID)
		if err != nil {
			return "", err
		}
		candidates = append(candidates, kids...)
	case domain.KindRecord:
		if n.ParentID != nil {
			candidates = append(candidates, *n.ParentID)
		}
	}
	for _, id := range candidates {
		count, err := r.holds.CountEdges(ctx, id)
		if err != nil {
			return "", err
		}
		if count > 0 {
			return id, nil
		}
	}
	return "", nil
}
