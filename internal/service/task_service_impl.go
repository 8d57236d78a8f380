package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/db"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/alexanderramin/gantry/internal/events"
	"github.com/alexanderramin/gantry/internal/repository"
	"github.com/alexanderramin/gantry/internal/scheduler"
	"github.com/google/uuid"
)

type taskService struct {
	repos    repository.Set
	uow      db.UnitOfWork
	events   eventSink
	opts     scheduler.Options
	observer UseCaseObserver
}

func NewTaskService(repos repository.Set, uow db.UnitOfWork, pub events.Publisher, opts scheduler.Options, logger *slog.Logger, observers ...UseCaseObserver) TaskService {
	return &taskService{
		repos:    repos,
		uow:      uow,
		events:   newEventSink(pub, logger),
		opts:     opts,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *taskService) optionsFor(p *domain.Project) scheduler.Options {
	opts := s.opts
	opts.ProjectStart = p.StartDate
	return opts
}

// Create numbers the task within its project and stores it. A start without
// an end gets the end implied by the duration.
func (s *taskService) Create(ctx context.Context, t *domain.Task) (err error) {
	defer observe(ctx, s.observer, "create-task", time.Now(), &err, map[string]any{"project_id": t.ProjectID})

	t.Name = strings.TrimSpace(t.Name)
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.StartDate != nil {
		d := calendar.Truncate(*t.StartDate)
		t.StartDate = &d
		if t.EndDate == nil {
			e := calendar.EndFromDuration(d, t.DurationMin)
			t.EndDate = &e
		}
	}
	if t.EndDate != nil {
		d := calendar.Truncate(*t.EndDate)
		t.EndDate = &d
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := t.Validate(); err != nil {
		return invalidEdit("%v", err)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteSet(tx)
		if t.ParentID != nil {
			parent, err := r.Tasks.GetByID(ctx, *t.ParentID)
			if err != nil {
				return fmt.Errorf("parent: %w", err)
			}
			if parent.ProjectID != t.ProjectID {
				return invalidEdit("parent %q belongs to another project", parent.Name)
			}
		}

		seq, err := r.Sequences.NextProjectSeq(ctx, t.ProjectID)
		if err != nil {
			return err
		}
		t.Seq = seq
		if err := r.Tasks.Create(ctx, t); err != nil {
			return err
		}
		return s.resync(ctx, r, t.ProjectID, now)
	})
	if err != nil {
		return err
	}
	s.events.emit(ctx, events.TopicTaskCreated, events.TaskCreated{Task: taskSnapshot(t)})
	return nil
}

func (s *taskService) resync(ctx context.Context, r repository.Set, projectID string, now time.Time) error {
	st, err := loadProjectState(ctx, r, projectID)
	if err != nil {
		return err
	}
	_, err = st.syncDerivedDates(ctx, r.Tasks, s.optionsFor(st.project), now)
	return err
}

func (s *taskService) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return s.repos.Tasks.GetByID(ctx, id)
}

func (s *taskService) GetBySeq(ctx context.Context, projectID string, seq int) (*domain.Task, error) {
	return s.repos.Tasks.GetBySeq(ctx, projectID, seq)
}

func (s *taskService) ListByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	return s.repos.Tasks.ListByProject(ctx, projectID)
}

func (s *taskService) Rename(ctx context.Context, id, name string) (err error) {
	defer observe(ctx, s.observer, "rename-task", time.Now(), &err, map[string]any{"task_id": id})

	name = strings.TrimSpace(name)
	if name == "" {
		return invalidEdit("task name is required")
	}
	return s.update(ctx, id, func(t *domain.Task) error {
		t.Name = name
		return nil
	})
}

func (s *taskService) SetLayout(ctx context.Context, id string, sortOrder, marginStartDays, marginEndDays int) (err error) {
	defer observe(ctx, s.observer, "layout-task", time.Now(), &err, map[string]any{"task_id": id})

	return s.update(ctx, id, func(t *domain.Task) error {
		t.SortOrder = sortOrder
		t.MarginStartDays = marginStartDays
		t.MarginEndDays = marginEndDays
		return nil
	})
}

// Move re-parents a task. The new parent must be in the same project and must
// not sit underneath the task itself.
func (s *taskService) Move(ctx context.Context, id string, parentID *string) (err error) {
	defer observe(ctx, s.observer, "move-task", time.Now(), &err, map[string]any{"task_id": id, "to_root": parentID == nil})

	return s.update(ctx, id, func(t *domain.Task) error {
		t.ParentID = parentID
		return nil
	}, func(ctx context.Context, r repository.Set, t *domain.Task) error {
		if parentID == nil {
			return nil
		}
		if *parentID == t.ID {
			return &contract.ScheduleError{Code: contract.ErrParentLoop, Message: fmt.Sprintf("%q cannot be its own parent", t.Name)}
		}
		tasks, err := r.Tasks.ListByProject(ctx, t.ProjectID)
		if err != nil {
			return err
		}
		parents := make(map[string]*string, len(tasks))
		found := false
		for _, other := range tasks {
			parents[other.ID] = other.ParentID
			found = found || other.ID == *parentID
		}
		if !found {
			return invalidEdit("parent %s is not a task of this project", *parentID)
		}
		seen := map[string]bool{}
		for cur := parentID; cur != nil && !seen[*cur]; cur = parents[*cur] {
			if *cur == t.ID {
				return &contract.ScheduleError{Code: contract.ErrParentLoop, Message: fmt.Sprintf("moving %q under one of its own subtasks would create a parent loop", t.Name)}
			}
			seen[*cur] = true
		}
		return nil
	})
}

// update applies mutate to a task inside a transaction, runs the optional
// checks against the tx, and resyncs parent dates.
func (s *taskService) update(ctx context.Context, id string, mutate func(*domain.Task) error, checks ...func(context.Context, repository.Set, *domain.Task) error) error {
	var updated *domain.Task
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteSet(tx)
		t, err := r.Tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		for _, check := range checks {
			if err := check(ctx, r, t); err != nil {
				return err
			}
		}
		if err := mutate(t); err != nil {
			return err
		}
		if err := t.Validate(); err != nil {
			return invalidEdit("%v", err)
		}
		now := time.Now().UTC()
		t.UpdatedAt = now
		if err := r.Tasks.Update(ctx, t); err != nil {
			return err
		}
		updated = t
		return s.resync(ctx, r, t.ProjectID, now)
	})
	if err != nil {
		return err
	}
	s.events.emit(ctx, events.TopicTaskUpdated, events.TaskUpdated{Task: taskSnapshot(updated)})
	return nil
}

// Delete removes a task and its subtree.
func (s *taskService) Delete(ctx context.Context, id string) (err error) {
	defer observe(ctx, s.observer, "delete-task", time.Now(), &err, map[string]any{"task_id": id})

	var projectID string
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteSet(tx)
		t, err := r.Tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		projectID = t.ProjectID
		if err := r.Tasks.Delete(ctx, id); err != nil {
			return err
		}
		return s.resync(ctx, r, projectID, time.Now().UTC())
	})
	if err != nil {
		return err
	}
	s.events.emit(ctx, events.TopicTaskDeleted, events.TaskDeleted{TaskID: id, ProjectID: projectID})
	return nil
}
