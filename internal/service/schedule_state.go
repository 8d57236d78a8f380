package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/alexanderramin/gantry/internal/repository"
	"github.com/alexanderramin/gantry/internal/scheduler"
)

// projectState is everything the scheduler needs about one project.
type projectState struct {
	project     *domain.Project
	tasks       []domain.Task
	links       []domain.Predecessor
	allocations []domain.Allocation
	children    map[string][]string
}

func loadProjectState(ctx context.Context, r repository.Set, projectID string) (*projectState, error) {
	project, err := r.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := r.Tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	links, err := r.Predecessors.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing predecessors: %w", err)
	}
	allocs, err := r.Allocations.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing allocations: %w", err)
	}
	return &projectState{
		project:     project,
		tasks:       tasks,
		links:       links,
		allocations: allocs,
		children:    childIndex(tasks),
	}, nil
}

// loadTaskState loads the project that owns taskID.
func loadTaskState(ctx context.Context, r repository.Set, taskID string) (*projectState, error) {
	task, err := r.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return loadProjectState(ctx, r, task.ProjectID)
}

func childIndex(tasks []domain.Task) map[string][]string {
	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}
	out := make(map[string][]string)
	for _, t := range tasks {
		if t.ParentID != nil && known[*t.ParentID] && *t.ParentID != t.ID {
			out[*t.ParentID] = append(out[*t.ParentID], t.ID)
		}
	}
	return out
}

func (st *projectState) hasChildren(id string) bool {
	return len(st.children[id]) > 0
}

// leafDescendants lists the leaves under id. Guarded against parent loops.
func (st *projectState) leafDescendants(id string) []string {
	var leaves []string
	seen := map[string]bool{id: true}
	stack := slices.Clone(st.children[id])
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		if kids := st.children[n]; len(kids) > 0 {
			stack = append(stack, kids...)
			continue
		}
		leaves = append(leaves, n)
	}
	slices.Sort(leaves)
	return leaves
}

func (st *projectState) task(id string) (domain.Task, bool) {
	for _, t := range st.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

func (st *projectState) dated(pending *scheduler.PendingChanges, opts scheduler.Options) []contract.DatedTask {
	tasks := st.tasks
	if pending != nil {
		tasks = pending.Overlay(st.tasks)
	}
	return scheduler.CalculateDates(tasks, st.allocations, opts)
}

// shiftSubtree queues every leaf under parentID to move by delta days,
// keeping each leaf's span. Returns the shifted leaves.
func (st *projectState) shiftSubtree(pending *scheduler.PendingChanges, byID map[string]contract.DatedTask, parentID string, delta int) []string {
	leaves := st.leafDescendants(parentID)
	for _, leaf := range leaves {
		d, ok := byID[leaf]
		if !ok {
			continue
		}
		start, end := calendar.AddDays(d.Start, delta), calendar.AddDays(d.End, delta)
		pending.Set(leaf, scheduler.TaskPatch{StartDate: &start, EndDate: &end})
	}
	return leaves
}

// planCascade repeats the cascade proposal until nothing else has to move.
// Moving a parent moves its leaves, and each moved leaf seeds another
// proposal for its own successors. The merged result keeps each task's
// original dates and its final dates. ChangedTaskID is left to the caller.
func (st *projectState) planCascade(seeds []string, base *scheduler.PendingChanges, opts scheduler.Options) (contract.CascadeResult, *scheduler.PendingChanges) {
	pending := scheduler.NewPendingChanges()
	if base != nil {
		for _, p := range base.Patches() {
			pending.Set(p.TaskID, p.TaskPatch)
		}
	}

	var merged contract.CascadeResult
	index := make(map[string]int)
	cycle := make(map[string]bool)

	var queue []string
	for _, id := range seeds {
		queue = append(queue, id)
		if st.hasChildren(id) {
			queue = append(queue, st.leafDescendants(id)...)
		}
	}
	limit := 4*len(st.tasks) + 1

	for round := 0; len(queue) > 0 && round < limit; round++ {
		seed := queue[0]
		queue = queue[1:]

		dated := st.dated(pending, opts)
		byID := scheduler.IndexDated(dated)
		res := scheduler.ProposeCascade(seed, dated, st.links, opts)

		for _, id := range res.TasksInCycle {
			cycle[id] = true
		}
		var leaves contract.CascadeResult
		for _, u := range res.Updates {
			if i, ok := index[u.TaskID]; ok {
				merged.Updates[i].NewStart = u.NewStart
				merged.Updates[i].NewEnd = u.NewEnd
				merged.Updates[i].Reason = u.Reason
			} else {
				index[u.TaskID] = len(merged.Updates)
				merged.Updates = append(merged.Updates, u)
			}

			if st.hasChildren(u.TaskID) {
				delta := calendar.DaysBetween(u.OldStart, u.NewStart)
				queue = append(queue, st.shiftSubtree(pending, byID, u.TaskID, delta)...)
				continue
			}
			leaves.Updates = append(leaves.Updates, u)
		}
		// Leaf moves land after subtree shifts; they were proposed with the shift applied.
		pending.AddCascade(leaves)
	}

	for id := range cycle {
		merged.TasksInCycle = append(merged.TasksInCycle, id)
	}
	slices.Sort(merged.TasksInCycle)
	return merged, pending
}

// writePatches persists every pending patch through the given task repo.
func (st *projectState) writePatches(ctx context.Context, tasks repository.TaskRepo, pending *scheduler.PendingChanges, now time.Time) error {
	overlaid := pending.Overlay(st.tasks)
	byID := make(map[string]*domain.Task, len(overlaid))
	for i := range overlaid {
		byID[overlaid[i].ID] = &overlaid[i]
	}
	for _, p := range pending.Patches() {
		t, ok := byID[p.TaskID]
		if !ok {
			continue
		}
		t.UpdatedAt = now
		if err := tasks.Update(ctx, t); err != nil {
			return fmt.Errorf("updating task %q: %w", t.Name, err)
		}
	}
	st.tasks = overlaid
	return nil
}

// syncDerivedDates stores each parent's computed span where it differs from
// what is stored. Parents whose span rests on a defaulted start are skipped.
func (st *projectState) syncDerivedDates(ctx context.Context, tasks repository.TaskRepo, opts scheduler.Options, now time.Time) (int, error) {
	changed := 0
	for _, d := range st.dated(nil, opts) {
		if !d.HasChildren || d.StartDefaulted {
			continue
		}
		if sameDate(d.Task.StartDate, d.Start) && sameDate(d.Task.EndDate, d.End) {
			continue
		}
		start, end := d.Start, d.End
		if err := tasks.UpdateDates(ctx, d.Task.ID, &start, &end, now); err != nil {
			return changed, fmt.Errorf("syncing dates of %q: %w", d.Task.Name, err)
		}
		changed++
	}
	return changed, nil
}

func sameDate(stored *time.Time, d time.Time) bool {
	return stored != nil && stored.Equal(d)
}
