package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/retention/internal/domain"
)

type NodeRepo interface {
	Create(ctx context.Context, n *domain.Node) error
	GetByID(ctx context.Context, id string) (*domain.Node, error)
	GetByIdentifier(ctx context.Context, identifier string) (*domain.Node, error)
	ListChildren(ctx context.Context, parentID string) ([]*domain.Node, error)
	ListChildIDs(ctx context.Context, parentID string) ([]string, error)
	ListFilePlans(ctx context.Context) ([]*domain.Node, error)
	AncestorChain(ctx context.Context, id string) ([]string, error)
	Update(ctx context.Context, n *domain.Node) error
	Delete(ctx context.Context, id string) error

	GetProperties(ctx context.Context, id string) (map[string]string, error)
	GetProperty(ctx context.Context, id, name string) (string, bool, error)
	SetProperty(ctx context.Context, id, name, value string) error
	DeleteProperty(ctx context.Context, id, name string) error
}

type ScheduleRepo interface {
	Create(ctx context.Context, s *domain.DispositionSchedule) error
	GetByID(ctx context.Context, id string) (*domain.DispositionSchedule, error)
	GetByCategory(ctx context.Context, categoryID string) (*domain.DispositionSchedule, error)
	Update(ctx context.Context, s *domain.DispositionSchedule) error
	AddStep(ctx context.Context, d *domain.DispositionActionDefinition) error
	GetStep(ctx context.Context, id string) (*domain.DispositionActionDefinition, error)
	UpdateStep(ctx context.Context, d *domain.DispositionActionDefinition) error
	DeleteStepIfUnoccupied(ctx context.Context, id string) (bool, error)
}

type DispositionRepo interface {
	InsertCurrent(ctx context.Context, a *domain.DispositionAction) error
	GetCurrent(ctx context.Context, nodeID string) (*domain.DispositionAction, error)
	UpdateCurrent(ctx context.Context, a *domain.DispositionAction) error
	ArchiveCurrent(ctx context.Context, a *domain.DispositionAction) error
	DeleteCurrent(ctx context.Context, nodeID string) error
	DeleteHistory(ctx context.Context, nodeID string) error
	ListHistory(ctx context.Context, nodeID string) ([]*domain.DispositionAction, error)
	LastCompletedAt(ctx context.Context, nodeID string) (*time.Time, error)
	ListCurrentAtStep(ctx context.Context, definitionID string) ([]*domain.DispositionAction, error)
	CountCurrentAtStep(ctx context.Context, definitionID string) (int, error)
}

type HoldRepo interface {
	Create(ctx context.Context, h *domain.Hold) error
	GetByID(ctx context.Context, id string) (*domain.Hold, error)
	GetByName(ctx context.Context, filePlanID, name string) (*domain.Hold, error)
	ListByFilePlan(ctx context.Context, filePlanID string) ([]*domain.Hold, error)
	Update(ctx context.Context, h *domain.Hold) error
	Delete(ctx context.Context, id string) error

	AddEdge(ctx context.Context, e domain.FreezeEdge) (bool, error)
	RemoveEdge(ctx context.Context, holdID, nodeID string) (bool, error)
	ListHeldBy(ctx context.Context, nodeID string) ([]domain.Hold, error)
	ListHeld(ctx context.Context, holdID string) ([]string, error)
	CountEdges(ctx context.Context, nodeID string) (int, error)
}

type VitalRepo interface {
	Get(ctx context.Context, nodeID string) (*domain.VitalRecordDefinition, error)
	Set(ctx context.Context, nodeID string, def domain.VitalRecordDefinition, at time.Time) error
	Delete(ctx context.Context, nodeID string) error
}

type ProjectionRepo interface {
	Upsert(ctx context.Context, p domain.Projection, at time.Time) error
	Get(ctx context.Context, nodeID string) (*domain.Projection, error)
}

type TransferRepo interface {
	Create(ctx context.Context, tr *domain.Transfer) error
	GetByID(ctx context.Context, id string) (*domain.Transfer, error)
	GetByNode(ctx context.Context, nodeID string) (*domain.Transfer, error)
	List(ctx context.Context) ([]*domain.Transfer, error)
	DeleteByAction(ctx context.Context, actionID string) (bool, error)
	RemoveItem(ctx context.Context, nodeID string) error
	Delete(ctx context.Context, id string) error
}

type IdentifierSequenceRepo interface {
	Next(ctx context.Context, scope string) (int, error)
}
