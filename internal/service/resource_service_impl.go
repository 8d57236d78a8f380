package service

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/alexanderramin/gantry/internal/repository"
	"github.com/google/uuid"
)

type resourceService struct {
	resources repository.ResourceRepo
}

func NewResourceService(resources repository.ResourceRepo) ResourceService {
	return &resourceService{resources: resources}
}

func (s *resourceService) Create(ctx context.Context, r *domain.Resource) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Role == "" {
		r.Role = domain.RoleOperator
	}
	if err := r.Validate(); err != nil {
		return invalidEdit("%v", err)
	}
	if r.ManagerID != nil {
		if _, err := s.resources.GetByID(ctx, *r.ManagerID); err != nil {
			return err
		}
	}
	r.CreatedAt = time.Now().UTC()
	return s.resources.Create(ctx, r)
}

func (s *resourceService) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	return s.resources.GetByID(ctx, id)
}

func (s *resourceService) List(ctx context.Context) ([]domain.Resource, error) {
	return s.resources.List(ctx)
}

func (s *resourceService) Delete(ctx context.Context, id string) error {
	return s.resources.Delete(ctx, id)
}

type allocationService struct {
	allocations repository.AllocationRepo
	tasks       repository.TaskRepo
	resources   repository.ResourceRepo
}

func NewAllocationService(allocations repository.AllocationRepo, tasks repository.TaskRepo, resources repository.ResourceRepo) AllocationService {
	return &allocationService{allocations: allocations, tasks: tasks, resources: resources}
}

// Create books a resource onto a task for a date range. Without explicit
// minutes the whole range is booked at a full working day per day.
func (s *allocationService) Create(ctx context.Context, a *domain.Allocation) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.StartDate = calendar.Truncate(a.StartDate)
	a.EndDate = calendar.Truncate(a.EndDate)
	if a.AllocatedMin == 0 && !a.EndDate.Before(a.StartDate) {
		a.AllocatedMin = (calendar.DaysBetween(a.StartDate, a.EndDate) + 1) * calendar.MinutesPerWorkingDay
	}
	if err := a.Validate(); err != nil {
		return invalidEdit("%v", err)
	}
	if _, err := s.tasks.GetByID(ctx, a.TaskID); err != nil {
		return err
	}
	if _, err := s.resources.GetByID(ctx, a.ResourceID); err != nil {
		return err
	}
	a.CreatedAt = time.Now().UTC()
	return s.allocations.Create(ctx, a)
}

func (s *allocationService) ListByTask(ctx context.Context, taskID string) ([]domain.Allocation, error) {
	return s.allocations.ListByTask(ctx, taskID)
}

func (s *allocationService) ListByProject(ctx context.Context, projectID string) ([]domain.Allocation, error) {
	return s.allocations.ListByProject(ctx, projectID)
}

func (s *allocationService) Delete(ctx context.Context, id string) error {
	return s.allocations.Delete(ctx, id)
}
