package service

import (
	"fmt"
	"slices"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/repository"
	"github.com/alexanderramin/gantry/internal/scheduler"
)

func invalidEdit(format string, args ...any) *contract.ScheduleError {
	return &contract.ScheduleError{Code: contract.ErrInvalidEdit, Message: fmt.Sprintf(format, args...)}
}

// editPatch turns a single-task edit into pending patches. A start-only edit
// moves the task keeping its span. A parent can only be moved: its leaves
// shift by the same number of days and its span follows.
// It returns the patches and the tasks whose dates change.
func (st *projectState) editPatch(edit contract.TaskEdit, opts scheduler.Options, now time.Time) (*scheduler.PendingChanges, []string, error) {
	task, ok := st.task(edit.TaskID)
	if !ok {
		return nil, nil, fmt.Errorf("task %s: %w", edit.TaskID, repository.ErrNotFound)
	}
	pending := scheduler.NewPendingChanges()
	if edit.Progress != nil {
		if err := task.SetProgress(*edit.Progress, now); err != nil {
			return nil, nil, invalidEdit("%q: %v", task.Name, err)
		}
		pending.Set(task.ID, scheduler.TaskPatch{Progress: edit.Progress})
	}
	if edit.StartDate == nil && edit.EndDate == nil && edit.DurationMin == nil {
		return pending, nil, nil
	}

	byID := scheduler.IndexDated(st.dated(nil, opts))
	cur := byID[task.ID]

	if st.hasChildren(task.ID) {
		if edit.EndDate != nil || edit.DurationMin != nil {
			return nil, nil, invalidEdit("dates of %q are derived from its subtasks; move it by its start date instead", task.Name)
		}
		delta := calendar.DaysBetween(cur.Start, *edit.StartDate)
		if delta == 0 {
			return pending, nil, nil
		}
		leaves := st.shiftSubtree(pending, byID, task.ID, delta)
		return pending, append([]string{task.ID}, leaves...), nil
	}

	// Edits apply to the computed range so defaulted dates become stored ones.
	start, end := cur.Start, calendar.AddDays(cur.Start, max(cur.DurationDays, 1)-1)
	task.StartDate, task.EndDate = &start, &end
	minutes := task.DurationMin

	if edit.StartDate != nil {
		task.MoveTo(*edit.StartDate, now)
	}
	switch {
	case edit.DurationMin != nil:
		if err := task.Resize(*edit.DurationMin, opts.SnapMinutes, now); err != nil {
			return nil, nil, invalidEdit("%q: %v", task.Name, err)
		}
		if edit.EndDate != nil {
			end := calendar.Truncate(*edit.EndDate)
			if err := task.SetDates(task.StartDate, &end, now); err != nil {
				return nil, nil, invalidEdit("%q: %v", task.Name, err)
			}
		}
	case edit.EndDate != nil:
		if err := task.StretchTo(*edit.EndDate, now); err != nil {
			return nil, nil, invalidEdit("%q: %v", task.Name, err)
		}
	}

	patch := scheduler.TaskPatch{StartDate: task.StartDate, EndDate: task.EndDate}
	if task.DurationMin != minutes || edit.DurationMin != nil {
		patch.DurationMin = &task.DurationMin
	}
	pending.Set(task.ID, patch)
	return pending, []string{task.ID}, nil
}

// expandBatch copies a caller's pending set, turning date edits on parents
// into shifts of their leaves. It returns the tasks whose dates change.
func (st *projectState) expandBatch(in *scheduler.PendingChanges, opts scheduler.Options) (*scheduler.PendingChanges, []string, error) {
	out := scheduler.NewPendingChanges()
	byID := scheduler.IndexDated(st.dated(nil, opts))
	var focus []string

	for _, p := range in.Patches() {
		task, ok := st.task(p.TaskID)
		if !ok {
			return nil, nil, fmt.Errorf("task %s: %w", p.TaskID, repository.ErrNotFound)
		}
		touchesDates := p.StartDate != nil || p.EndDate != nil || p.DurationMin != nil

		if !st.hasChildren(task.ID) {
			out.Set(task.ID, p.TaskPatch)
			if touchesDates {
				focus = append(focus, task.ID)
			}
			continue
		}

		if p.Progress != nil {
			out.Set(task.ID, scheduler.TaskPatch{Progress: p.Progress})
		}
		if p.EndDate != nil || p.DurationMin != nil {
			return nil, nil, invalidEdit("dates of %q are derived from its subtasks; move it by its start date instead", task.Name)
		}
		if p.StartDate == nil {
			continue
		}
		if delta := calendar.DaysBetween(byID[task.ID].Start, *p.StartDate); delta != 0 {
			focus = append(focus, task.ID)
			focus = append(focus, st.shiftSubtree(out, byID, task.ID, delta)...)
		}
	}

	slices.Sort(focus)
	return out, slices.Compact(focus), nil
}
