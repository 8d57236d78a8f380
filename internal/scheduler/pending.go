package scheduler

import (
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
)

// TaskPatch holds edits to one task that have not been written yet. Nil fields
// are untouched.
type TaskPatch struct {
	StartDate   *time.Time
	EndDate     *time.Time
	DurationMin *int
	Progress    *int
}

func (p TaskPatch) merge(o TaskPatch) TaskPatch {
	if o.StartDate != nil {
		p.StartDate = o.StartDate
	}
	if o.EndDate != nil {
		p.EndDate = o.EndDate
	}
	if o.DurationMin != nil {
		p.DurationMin = o.DurationMin
	}
	if o.Progress != nil {
		p.Progress = o.Progress
	}
	return p
}

type PendingPatch struct {
	TaskID string
	TaskPatch
}

// PendingChanges accumulates batch edits so they can be validated and
// cascaded before anything is persisted. Not safe for concurrent use.
type PendingChanges struct {
	patches map[string]TaskPatch
	order   []string
}

func NewPendingChanges() *PendingChanges {
	return &PendingChanges{patches: make(map[string]TaskPatch)}
}

// Set merges patch into whatever is already pending for taskID.
func (p *PendingChanges) Set(taskID string, patch TaskPatch) {
	existing, ok := p.patches[taskID]
	if !ok {
		p.order = append(p.order, taskID)
	}
	p.patches[taskID] = existing.merge(patch)
}

// AddCascade folds a cascade proposal into the pending set.
func (p *PendingChanges) AddCascade(res contract.CascadeResult) {
	for _, u := range res.Updates {
		start, end := u.NewStart, u.NewEnd
		p.Set(u.TaskID, TaskPatch{StartDate: &start, EndDate: &end})
	}
}

func (p *PendingChanges) Len() int { return len(p.order) }

func (p *PendingChanges) Get(taskID string) (TaskPatch, bool) {
	patch, ok := p.patches[taskID]
	return patch, ok
}

// Patches returns the pending edits in the order tasks were first touched.
func (p *PendingChanges) Patches() []PendingPatch {
	out := make([]PendingPatch, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, PendingPatch{TaskID: id, TaskPatch: p.patches[id]})
	}
	return out
}

// Overlay returns a copy of tasks with the pending values applied. A pending
// duration without a pending end recomputes the end from the start.
func (p *PendingChanges) Overlay(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		patch, ok := p.patches[t.ID]
		if ok {
			if patch.StartDate != nil {
				s := calendar.Truncate(*patch.StartDate)
				t.StartDate = &s
			}
			if patch.EndDate != nil {
				e := calendar.Truncate(*patch.EndDate)
				t.EndDate = &e
			}
			if patch.DurationMin != nil {
				t.DurationMin = *patch.DurationMin
				if patch.EndDate == nil && t.StartDate != nil {
					e := calendar.EndFromDuration(*t.StartDate, t.DurationMin)
					t.EndDate = &e
				}
			}
			if patch.Progress != nil {
				t.Progress = *patch.Progress
			}
		}
		out[i] = t
	}
	return out
}
