package service

import (
	"context"
	"time"

	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/importer"
	"github.com/alexanderramin/retention/internal/retention"
)

// FileRecordRequest describes a record to file into a folder.
type FileRecordRequest struct {
	Name       string
	Content    string
	Identifier string            // optional; generated when empty
	Properties map[string]string // e.g. originator, publicationDate
}

type FilePlanService interface {
	CreateFilePlan(ctx context.Context, name string) (*domain.Node, error)
	CreateCategory(ctx context.Context, parentID, name string) (*domain.Node, error)
	CreateFolder(ctx context.Context, categoryID, name string) (*domain.Node, error)
	FileRecord(ctx context.Context, folderID string, req FileRecordRequest) (*domain.Node, error)
	DeclareRecord(ctx context.Context, recordID string) (*domain.Node, error)
	FileAndDeclare(ctx context.Context, folderID string, req FileRecordRequest) (*domain.Node, error)
	SetIdentifier(ctx context.Context, nodeID, identifier string) (*domain.Node, error)
	SetProperties(ctx context.Context, nodeID string, props map[string]string) error
	GetProperties(ctx context.Context, nodeID string) (map[string]string, error)
	CloseFolder(ctx context.Context, folderID string) (*domain.Node, error)
	ReopenFolder(ctx context.Context, folderID string) (*domain.Node, error)
	Move(ctx context.Context, nodeID, newParentID string) (*domain.Node, error)
	Copy(ctx context.Context, nodeID, targetParentID string) (*domain.Node, error)
	Delete(ctx context.Context, nodeID string) error
	Get(ctx context.Context, nodeID string) (*domain.Node, error)
	Resolve(ctx context.Context, ref string) (*domain.Node, error)
	ListChildren(ctx context.Context, parentID string) ([]*domain.Node, error)
	ListFilePlans(ctx context.Context) ([]*domain.Node, error)
}

// StepSpec describes a new schedule step.
type StepSpec struct {
	Name                         string
	Description                  string
	Period                       *domain.Period
	PeriodProperty               *string
	Events                       []string
	EligibleOnFirstCompleteEvent bool
}

// ScheduleSpec describes a new disposition schedule.
type ScheduleSpec struct {
	Instructions           string
	Authority              string
	RecordLevelDisposition bool
	Steps                  []StepSpec
}

// ScheduleUpdate carries schedule-level field changes. Nil means unchanged.
type ScheduleUpdate struct {
	Instructions           *string
	Authority              *string
	RecordLevelDisposition *bool
}

type ScheduleService interface {
	CreateSchedule(ctx context.Context, categoryID string, spec ScheduleSpec) (*domain.DispositionSchedule, error)
	GetSchedule(ctx context.Context, nodeID string) (*domain.DispositionSchedule, error)
	UpdateSchedule(ctx context.Context, scheduleID string, upd ScheduleUpdate) (*domain.DispositionSchedule, error)
	AddStep(ctx context.Context, scheduleID string, spec StepSpec) (*domain.DispositionActionDefinition, error)
	UpdateStep(ctx context.Context, stepID string, upd domain.StepUpdate) ([]string, error)
	RemoveStep(ctx context.Context, stepID string) error
}

// ExecuteRequest asks for the node's current step to be executed.
type ExecuteRequest struct {
	NodeID string
	Action string
	Actor  string
	// Force bypasses the eligibility gate. The node must still be on the
	// named step at the right level and must not be frozen.
	Force bool
}

// ExecuteResult reports the outcome of an executed step.
type ExecuteResult struct {
	Executed   *domain.DispositionAction
	Next       *domain.DispositionAction // nil when the lifecycle ended or is pending transfer
	TransferID string                    // set for transfer and accession
}

// EventRequest completes or undoes an event on the current step.
type EventRequest struct {
	NodeID      string
	Event       string
	CompletedAt *time.Time // defaults to now
	CompletedBy string
}

type DispositionService interface {
	GetNextAction(ctx context.Context, nodeID string) (*domain.DispositionAction, error)
	GetCompletedActions(ctx context.Context, nodeID string) ([]*domain.DispositionAction, error)
	IsEligible(ctx context.Context, nodeID string) (retention.Eligibility, error)
	CompleteEvent(ctx context.Context, req EventRequest) (*domain.DispositionAction, error)
	UndoEvent(ctx context.Context, req EventRequest) (*domain.DispositionAction, error)
	EditAsOfDate(ctx context.Context, nodeID string, asOf time.Time) (*domain.DispositionAction, error)
	Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error)
	UndoCutoff(ctx context.Context, nodeID, actor string) (*domain.DispositionAction, error)
	CompleteTransfer(ctx context.Context, transferID, actor string) ([]*domain.Node, error)
	GetTransfer(ctx context.Context, transferID string) (*domain.Transfer, error)
	ListTransfers(ctx context.Context) ([]*domain.Transfer, error)
	GetProjection(ctx context.Context, nodeID string) (*domain.Projection, error)
}

// FreezeRequest places nodes under a hold. HoldID reuses an existing hold;
// otherwise a new hold is created with Name (generated when empty) and Reason.
type FreezeRequest struct {
	NodeIDs     []string
	HoldID      string
	Name        string
	Reason      string
	Description string
}

type HoldService interface {
	CreateHold(ctx context.Context, filePlanID, name, reason, description string) (*domain.Hold, error)
	Freeze(ctx context.Context, req FreezeRequest) (*domain.Hold, error)
	AddToHold(ctx context.Context, holdID string, nodeIDs ...string) error
	EditHoldReason(ctx context.Context, holdID, reason string) (*domain.Hold, error)
	Unfreeze(ctx context.Context, holdID string, nodeIDs ...string) error
	RelinquishHold(ctx context.Context, holdID string) error
	GetHold(ctx context.Context, holdID string) (*domain.Hold, error)
	ListHolds(ctx context.Context, filePlanID string) ([]*domain.Hold, error)
	HeldBy(ctx context.Context, nodeID string) ([]domain.Hold, error)
	GetHeld(ctx context.Context, holdID string) ([]*domain.Node, error)
	IsFrozen(ctx context.Context, nodeID string) (bool, error)
}

type VitalRecordService interface {
	GetDefinition(ctx context.Context, nodeID string) (domain.EffectiveVitalRecordDefinition, error)
	SetDefinition(ctx context.Context, nodeID string, def domain.VitalRecordDefinition) error
	ClearDefinition(ctx context.Context, nodeID string) error
	Review(ctx context.Context, nodeID, actor string) (*domain.Node, error)
}

// ImportResult holds the outcome of a file plan import.
type ImportResult struct {
	FilePlan      *domain.Node
	CategoryCount int
	FolderCount   int
	RecordCount   int
	ScheduleCount int
}

type ImportService interface {
	ImportFilePlan(ctx context.Context, filePath string) (*ImportResult, error)
	ImportFilePlanFromSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error)
}
