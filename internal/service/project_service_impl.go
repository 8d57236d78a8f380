package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/alexanderramin/gantry/internal/repository"
	"github.com/google/uuid"
)

type projectService struct {
	projects repository.ProjectRepo
	observer UseCaseObserver
	now      func() time.Time
}

func NewProjectService(projects repository.ProjectRepo, observers ...UseCaseObserver) ProjectService {
	return &projectService{
		projects: projects,
		observer: useCaseObserverOrNoop(observers),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// normalizeProject trims user input and pins the start date to a calendar day.
func normalizeProject(p *domain.Project) error {
	p.ShortID = strings.TrimSpace(p.ShortID)
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return &contract.ScheduleError{Code: contract.ErrInvalidEdit, Message: err.Error()}
	}
	if p.StartDate != nil {
		d := calendar.Truncate(*p.StartDate)
		p.StartDate = &d
	}
	return nil
}

func (s *projectService) Create(ctx context.Context, p *domain.Project) (err error) {
	defer observe(ctx, s.observer, "create-project", time.Now(), &err, map[string]any{"short_id": p.ShortID})

	if err := normalizeProject(p); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	if p.Status == "" {
		p.Status = domain.ProjectActive
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return fmt.Errorf("create project %s: %w", p.ShortID, err)
	}
	return nil
}

func (s *projectService) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", id, err)
	}
	return p, nil
}

func (s *projectService) List(ctx context.Context, includeArchived bool) ([]*domain.Project, error) {
	return s.projects.List(ctx, includeArchived)
}

// Update persists name, short ID and start date. Moving the project start
// does not move stored task dates; a later Compute re-derives defaulted ones.
func (s *projectService) Update(ctx context.Context, p *domain.Project) (err error) {
	defer observe(ctx, s.observer, "update-project", time.Now(), &err, map[string]any{"project_id": p.ID})

	if err := normalizeProject(p); err != nil {
		return err
	}
	p.UpdatedAt = s.now()
	return s.projects.Update(ctx, p)
}

func (s *projectService) Archive(ctx context.Context, id string) (err error) {
	defer observe(ctx, s.observer, "archive-project", time.Now(), &err, map[string]any{"project_id": id})
	return s.projects.Archive(ctx, id)
}

// Delete removes a project with its tasks, links and allocations. Active
// projects need force.
func (s *projectService) Delete(ctx context.Context, id string, force bool) (err error) {
	defer observe(ctx, s.observer, "delete-project", time.Now(), &err, map[string]any{"project_id": id, "force": force})

	if !force {
		p, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !p.IsArchived() {
			return &contract.ScheduleError{
				Code:    contract.ErrInvalidEdit,
				Message: fmt.Sprintf("project %s must be archived before deletion (use --force to override)", p.ShortID),
			}
		}
	}
	return s.projects.Delete(ctx, id)
}
