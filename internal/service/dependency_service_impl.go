package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/alexanderramin/gantry/internal/events"
	"github.com/alexanderramin/gantry/internal/repository"
	"github.com/alexanderramin/gantry/internal/scheduler"
)

type dependencyService struct {
	tasks    repository.TaskRepo
	links    repository.PredecessorRepo
	events   eventSink
	observer UseCaseObserver
}

func NewDependencyService(tasks repository.TaskRepo, links repository.PredecessorRepo, pub events.Publisher, logger *slog.Logger, observers ...UseCaseObserver) DependencyService {
	return &dependencyService{
		tasks:    tasks,
		links:    links,
		events:   newEventSink(pub, logger),
		observer: useCaseObserverOrNoop(observers),
	}
}

// Add stores a predecessor link, replacing the type and lag of an existing
// link between the same tasks. Self-links and links that would close a cycle
// are rejected with DEPENDENCY_CYCLE.
func (s *dependencyService) Add(ctx context.Context, link *domain.Predecessor) (err error) {
	defer observe(ctx, s.observer, "add-dependency", time.Now(), &err, map[string]any{
		"task_id":        link.TaskID,
		"predecessor_id": link.PredecessorID,
	})

	if link.Type == "" {
		link.Type = domain.LinkFinishToStart
	}
	if link.TaskID != "" && link.TaskID == link.PredecessorID {
		return &contract.ScheduleError{Code: contract.ErrDependencyCycle, Message: "a task cannot be its own predecessor"}
	}
	if err := link.Validate(); err != nil {
		return invalidEdit("%v", err)
	}

	task, err := s.tasks.GetByID(ctx, link.TaskID)
	if err != nil {
		return err
	}
	pred, err := s.tasks.GetByID(ctx, link.PredecessorID)
	if err != nil {
		return err
	}
	if task.ProjectID != pred.ProjectID {
		return invalidEdit("%q and %q belong to different projects", task.Name, pred.Name)
	}

	existing, err := s.links.ListByProject(ctx, task.ProjectID)
	if err != nil {
		return fmt.Errorf("listing predecessors: %w", err)
	}
	if scheduler.WouldCreateCycle(existing, link.TaskID, link.PredecessorID) {
		return &contract.ScheduleError{
			Code:    contract.ErrDependencyCycle,
			Message: fmt.Sprintf("%q already depends on %q; linking them the other way would create a cycle", pred.Name, task.Name),
		}
	}

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	if err := s.links.Create(ctx, link); err != nil {
		return err
	}
	s.events.emit(ctx, events.TopicDependencyAdded, events.DependencyAdded{
		TaskID:        link.TaskID,
		PredecessorID: link.PredecessorID,
		Type:          string(link.Type),
		LagDays:       link.LagDays,
	})
	return nil
}

func (s *dependencyService) Remove(ctx context.Context, taskID, predecessorID string) (err error) {
	defer observe(ctx, s.observer, "remove-dependency", time.Now(), &err, map[string]any{
		"task_id":        taskID,
		"predecessor_id": predecessorID,
	})

	if err := s.links.Delete(ctx, taskID, predecessorID); err != nil {
		return err
	}
	s.events.emit(ctx, events.TopicDependencyRemoved, events.DependencyRemoved{TaskID: taskID, PredecessorID: predecessorID})
	return nil
}

func (s *dependencyService) ListByProject(ctx context.Context, projectID string) ([]domain.Predecessor, error) {
	return s.links.ListByProject(ctx, projectID)
}

func (s *dependencyService) ListForTask(ctx context.Context, taskID string) ([]domain.Predecessor, error) {
	return s.links.ListForTask(ctx, taskID)
}
