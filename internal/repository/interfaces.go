package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/gantry/internal/domain"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByShortID(ctx context.Context, shortID string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	GetBySeq(ctx context.Context, projectID string, seq int) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Task, error)
	ListChildren(ctx context.Context, parentID string) ([]domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	// UpdateDates writes only the stored range; used when applying cascades.
	UpdateDates(ctx context.Context, id string, start, end *time.Time, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type PredecessorRepo interface {
	Create(ctx context.Context, p *domain.Predecessor) error
	Delete(ctx context.Context, taskID, predecessorID string) error
	ListByProject(ctx context.Context, projectID string) ([]domain.Predecessor, error)
	ListForTask(ctx context.Context, taskID string) ([]domain.Predecessor, error)
	ListSuccessors(ctx context.Context, predecessorID string) ([]domain.Predecessor, error)
}

type ResourceRepo interface {
	Create(ctx context.Context, r *domain.Resource) error
	GetByID(ctx context.Context, id string) (*domain.Resource, error)
	List(ctx context.Context) ([]domain.Resource, error)
	Delete(ctx context.Context, id string) error
}

type AllocationRepo interface {
	Create(ctx context.Context, a *domain.Allocation) error
	ListByProject(ctx context.Context, projectID string) ([]domain.Allocation, error)
	ListByTask(ctx context.Context, taskID string) ([]domain.Allocation, error)
	Delete(ctx context.Context, id string) error
}

type ProjectSequenceRepo interface {
	NextProjectSeq(ctx context.Context, projectID string) (int, error)
}
