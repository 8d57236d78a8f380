package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/db"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/alexanderramin/gantry/internal/events"
	"github.com/alexanderramin/gantry/internal/repository"
	"github.com/alexanderramin/gantry/internal/scheduler"
)

type scheduleService struct {
	repos    repository.Set
	uow      db.UnitOfWork
	events   eventSink
	logger   *slog.Logger
	opts     scheduler.Options
	observer UseCaseObserver
	now      func() time.Time
}

// NewScheduleService wires the scheduling core to storage. opts carries the
// configured snap, same-day chaining and clock; the project start is filled
// in per project.
func NewScheduleService(
	repos repository.Set,
	uow db.UnitOfWork,
	pub events.Publisher,
	opts scheduler.Options,
	logger *slog.Logger,
	observers ...UseCaseObserver,
) ScheduleService {
	logger = loggerOrDiscard(logger)
	return &scheduleService{
		repos:    repos,
		uow:      uow,
		events:   newEventSink(pub, logger),
		logger:   logger,
		opts:     opts,
		observer: useCaseObserverOrNoop(observers),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *scheduleService) optionsFor(p *domain.Project) scheduler.Options {
	opts := s.opts
	opts.ProjectStart = p.StartDate
	return opts
}

func (s *scheduleService) Compute(ctx context.Context, req contract.ScheduleRequest) (*contract.ScheduleResponse, error) {
	st, err := loadProjectState(ctx, s.repos, req.ProjectID)
	if err != nil {
		return nil, err
	}
	resources, err := s.repos.Resources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}

	opts := s.optionsFor(st.project)
	if req.Today != nil {
		today := calendar.Truncate(*req.Today)
		opts.Today = func() time.Time { return today }
	}
	if req.SameDayChaining {
		opts.SameDayChaining = true
	}

	dated := st.dated(nil, opts)
	resp := &contract.ScheduleResponse{
		Project:     st.project,
		GeneratedAt: s.now(),
		Tasks:       dated,
		Tree:        scheduler.OrganizeHierarchy(dated, st.allocations, resources),
		Statuses:    scheduler.EvaluateStatuses(dated, st.links, opts),
		Constraints: scheduler.CheckAll(dated, st.links, opts),
	}
	if req.IncludeOffsets {
		resp.Offsets = scheduler.IntraDayOffsets(dated, st.links)
	}

	byID := scheduler.IndexDated(dated)
	for _, d := range dated {
		if d.StartDefaulted && !d.HasChildren {
			msg := fmt.Sprintf("%q has no start date and the project has none; using %s", d.Task.Name, calendar.FormatDate(d.Start))
			resp.Warnings = append(resp.Warnings, msg)
			s.logger.WarnContext(ctx, "start date defaulted", "task_id", d.Task.ID, "task", d.Task.Name, "start", calendar.FormatDate(d.Start))
		}
	}
	for _, cycle := range scheduler.FindCycles(st.links) {
		names := make([]string, 0, len(cycle))
		for _, id := range cycle {
			names = append(names, fmt.Sprintf("%q", byID[id].Task.Name))
		}
		resp.Warnings = append(resp.Warnings, "dependency cycle between "+strings.Join(names, ", "))
	}
	return resp, nil
}

func (s *scheduleService) CheckTask(ctx context.Context, taskID string) (*contract.ConstraintResult, error) {
	st, err := loadTaskState(ctx, s.repos, taskID)
	if err != nil {
		return nil, err
	}
	opts := s.optionsFor(st.project)
	byID := scheduler.IndexDated(st.dated(nil, opts))
	res := scheduler.CheckConstraints(byID[taskID], byID, st.links, opts)
	return &res, nil
}

// commitResult is what a validated write leaves behind.
type commitResult struct {
	state   *projectState
	opts    scheduler.Options
	dated   []contract.DatedTask
	checks  map[string]contract.ConstraintResult
	patched []string
	forced  bool
}

type patchBuilder func(st *projectState, opts scheduler.Options) (*scheduler.PendingChanges, []string, error)

// commit loads the project inside a transaction, builds the patches, rejects
// field-level problems and (unless force) constraint violations on the
// focus tasks, then writes the patches and resyncs parent dates.
func (s *scheduleService) commit(ctx context.Context, load func(context.Context, repository.Set) (*projectState, error), force bool, build patchBuilder) (*commitResult, error) {
	var out *commitResult
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteSet(tx)
		st, err := load(ctx, r)
		if err != nil {
			return err
		}
		opts := s.optionsFor(st.project)

		pending, focus, err := build(st, opts)
		if err != nil {
			return err
		}

		overlaid := pending.Overlay(st.tasks)
		patched := make([]string, 0, pending.Len())
		for _, p := range pending.Patches() {
			patched = append(patched, p.TaskID)
			for i := range overlaid {
				if overlaid[i].ID != p.TaskID {
					continue
				}
				if err := overlaid[i].Validate(); err != nil {
					return invalidEdit("%v", err)
				}
			}
		}

		dated := scheduler.CalculateDates(overlaid, st.allocations, opts)
		byID := scheduler.IndexDated(dated)
		checks := make(map[string]contract.ConstraintResult, len(focus))
		forced := false
		for _, id := range focus {
			res := scheduler.CheckConstraints(byID[id], byID, st.links, opts)
			checks[id] = res
			if res.Valid {
				continue
			}
			if !force {
				return &contract.ScheduleError{Code: contract.ErrConstraintViolation, Message: res.Message, Constraint: &res}
			}
			forced = true
		}

		now := s.now()
		if err := st.writePatches(ctx, r.Tasks, pending, now); err != nil {
			return err
		}
		if _, err := st.syncDerivedDates(ctx, r.Tasks, opts, now); err != nil {
			return err
		}

		out = &commitResult{state: st, opts: opts, dated: dated, checks: checks, patched: patched, forced: forced}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *scheduleService) EditTask(ctx context.Context, edit contract.TaskEdit) (resp *contract.EditResponse, err error) {
	startedAt := time.Now()
	fields := map[string]any{"task_id": edit.TaskID, "force": edit.Force}
	defer observe(ctx, s.observer, "edit-task", startedAt, &err, fields)

	load := func(ctx context.Context, r repository.Set) (*projectState, error) {
		return loadTaskState(ctx, r, edit.TaskID)
	}
	build := func(st *projectState, opts scheduler.Options) (*scheduler.PendingChanges, []string, error) {
		return st.editPatch(edit, opts, s.now())
	}

	var out *commitResult
	out, err = s.commit(ctx, load, edit.Force, build)
	if err != nil {
		return nil, err
	}

	byID := scheduler.IndexDated(out.dated)
	resp = &contract.EditResponse{Task: byID[edit.TaskID]}
	if res, ok := out.checks[edit.TaskID]; ok {
		resp.Constraint = res
	} else {
		resp.Constraint = scheduler.CheckConstraints(byID[edit.TaskID], byID, out.state.links, out.opts)
	}
	resp.Cascade, _ = out.state.planCascade([]string{edit.TaskID}, nil, out.opts)
	resp.Cascade.ChangedTaskID = edit.TaskID
	fields["cascade_updates"] = len(resp.Cascade.Updates)
	fields["forced"] = out.forced

	if t, ok := out.state.task(edit.TaskID); ok {
		s.events.emit(ctx, events.TopicTaskUpdated, events.TaskUpdated{Task: taskSnapshot(&t), Forced: out.forced})
	}
	return resp, nil
}

func (s *scheduleService) ApplyPending(ctx context.Context, projectID string, pending *scheduler.PendingChanges, force bool) (resp *contract.BatchResponse, err error) {
	startedAt := time.Now()
	fields := map[string]any{"project_id": projectID, "patches": pending.Len(), "force": force}
	defer observe(ctx, s.observer, "apply-pending", startedAt, &err, fields)

	if pending.Len() == 0 {
		return &contract.BatchResponse{}, nil
	}

	load := func(ctx context.Context, r repository.Set) (*projectState, error) {
		st, err := loadProjectState(ctx, r, projectID)
		if err != nil {
			return nil, err
		}
		for _, p := range pending.Patches() {
			if _, ok := st.task(p.TaskID); !ok {
				return nil, invalidEdit("task %s does not belong to project %s", p.TaskID, st.project.DisplayID())
			}
		}
		return st, nil
	}
	build := func(st *projectState, opts scheduler.Options) (*scheduler.PendingChanges, []string, error) {
		return st.expandBatch(pending, opts)
	}

	var out *commitResult
	out, err = s.commit(ctx, load, force, build)
	if err != nil {
		return nil, err
	}

	resp = &contract.BatchResponse{
		Applied:     len(out.patched),
		Tasks:       out.dated,
		Constraints: out.checks,
	}
	var seeds []string
	for id := range out.checks {
		seeds = append(seeds, id)
	}
	slices.Sort(seeds)
	resp.Cascade, _ = out.state.planCascade(seeds, nil, out.opts)
	fields["cascade_updates"] = len(resp.Cascade.Updates)

	for _, id := range out.patched {
		if t, ok := out.state.task(id); ok {
			s.events.emit(ctx, events.TopicTaskUpdated, events.TaskUpdated{Task: taskSnapshot(&t), Forced: out.forced})
		}
	}
	return resp, nil
}

func (s *scheduleService) ProposeCascade(ctx context.Context, taskID string) (*contract.CascadeResult, error) {
	st, err := loadTaskState(ctx, s.repos, taskID)
	if err != nil {
		return nil, err
	}
	res, _ := st.planCascade([]string{taskID}, nil, s.optionsFor(st.project))
	res.ChangedTaskID = taskID
	return &res, nil
}

func (s *scheduleService) ApplyCascade(ctx context.Context, req contract.CascadeApply) (result *contract.CascadeResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"tasks": len(req.TaskIDs), "confirmed": req.Confirmed != nil}
	defer observe(ctx, s.observer, "apply-cascade", startedAt, &err, fields)

	if len(req.TaskIDs) == 0 {
		return nil, invalidEdit("no task to cascade from")
	}

	var projectID string
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteSet(tx)
		st, err := loadTaskState(ctx, r, req.TaskIDs[0])
		if err != nil {
			return err
		}
		for _, id := range req.TaskIDs[1:] {
			if _, ok := st.task(id); !ok {
				return invalidEdit("task %s does not belong to project %s", id, st.project.DisplayID())
			}
		}
		projectID = st.project.ID
		opts := s.optionsFor(st.project)

		res, pending := st.planCascade(req.TaskIDs, nil, opts)
		res.ChangedTaskID = req.TaskIDs[0]
		if req.Confirmed != nil && !req.Confirmed.SameMoves(res) {
			return &contract.ScheduleError{
				Code:    contract.ErrStaleCascade,
				Message: fmt.Sprintf("the schedule changed since the cascade was proposed (%d move(s) shown, %d needed now); review it again", len(req.Confirmed.Updates), len(res.Updates)),
			}
		}
		result = &res
		if len(res.Updates) == 0 {
			return nil
		}

		now := s.now()
		if err := st.writePatches(ctx, r.Tasks, pending, now); err != nil {
			return err
		}
		_, err = st.syncDerivedDates(ctx, r.Tasks, opts, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	fields["updates"] = len(result.Updates)
	fields["tasks_in_cycle"] = len(result.TasksInCycle)
	if len(result.Updates) > 0 {
		s.events.emit(ctx, events.TopicCascadeApplied, cascadeEvent(projectID, *result))
	}
	return result, nil
}

func (s *scheduleService) SyncDerivedDates(ctx context.Context, projectID string) (int, error) {
	var changed int
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteSet(tx)
		st, err := loadProjectState(ctx, r, projectID)
		if err != nil {
			return err
		}
		changed, err = st.syncDerivedDates(ctx, r.Tasks, s.optionsFor(st.project), s.now())
		return err
	})
	return changed, err
}
