package service

import (
	"context"

	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/alexanderramin/gantry/internal/importer"
	"github.com/alexanderramin/gantry/internal/scheduler"
)

type ProjectService interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string, force bool) error
}

// TaskService manages the task tree. Schedule fields (dates, duration,
// progress) change through ScheduleService.EditTask so they are validated.
type TaskService interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	GetBySeq(ctx context.Context, projectID string, seq int) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Task, error)
	Rename(ctx context.Context, id, name string) error
	SetLayout(ctx context.Context, id string, sortOrder, marginStartDays, marginEndDays int) error
	// Move re-parents a task; a nil parent makes it a root.
	Move(ctx context.Context, id string, parentID *string) error
	Delete(ctx context.Context, id string) error
}

type DependencyService interface {
	Add(ctx context.Context, link *domain.Predecessor) error
	Remove(ctx context.Context, taskID, predecessorID string) error
	ListByProject(ctx context.Context, projectID string) ([]domain.Predecessor, error)
	ListForTask(ctx context.Context, taskID string) ([]domain.Predecessor, error)
}

type ResourceService interface {
	Create(ctx context.Context, r *domain.Resource) error
	GetByID(ctx context.Context, id string) (*domain.Resource, error)
	List(ctx context.Context) ([]domain.Resource, error)
	Delete(ctx context.Context, id string) error
}

type AllocationService interface {
	Create(ctx context.Context, a *domain.Allocation) error
	ListByTask(ctx context.Context, taskID string) ([]domain.Allocation, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Allocation, error)
	Delete(ctx context.Context, id string) error
}

// ScheduleService runs the scheduling core against stored projects.
type ScheduleService interface {
	Compute(ctx context.Context, req contract.ScheduleRequest) (*contract.ScheduleResponse, error)
	CheckTask(ctx context.Context, taskID string) (*contract.ConstraintResult, error)
	// EditTask validates and commits a schedule edit, then proposes the
	// cascade it causes. A constraint violation is rejected with a
	// *contract.ScheduleError unless edit.Force is set.
	EditTask(ctx context.Context, edit contract.TaskEdit) (*contract.EditResponse, error)
	// ApplyPending commits a batch of edits in one transaction.
	ApplyPending(ctx context.Context, projectID string, pending *scheduler.PendingChanges, force bool) (*contract.BatchResponse, error)
	ProposeCascade(ctx context.Context, taskID string) (*contract.CascadeResult, error)
	// ApplyCascade plans the cascade of req.TaskIDs inside a transaction and
	// writes it. A plan that no longer matches req.Confirmed is rejected with
	// STALE_CASCADE and nothing is written.
	ApplyCascade(ctx context.Context, req contract.CascadeApply) (*contract.CascadeResult, error)
	// SyncDerivedDates stores the computed span of every parent task and
	// returns how many rows changed.
	SyncDerivedDates(ctx context.Context, projectID string) (int, error)
}

// ImportResult holds the outcome of a project import.
type ImportResult struct {
	Project          *domain.Project
	TaskCount        int
	PredecessorCount int
	ResourceCount    int
	AllocationCount  int
}

type ImportService interface {
	ImportProject(ctx context.Context, filePath string) (*ImportResult, error)
	ImportProjectFromSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error)
}
