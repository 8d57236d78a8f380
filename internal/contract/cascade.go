package contract

import (
	"slices"
	"time"
)

// ProposedUpdate is a date change the cascade suggests for one task.
type ProposedUpdate struct {
	TaskID   string
	TaskName string
	OldStart time.Time
	OldEnd   time.Time
	NewStart time.Time
	NewEnd   time.Time
	Reason   string
}

// CascadeResult is a proposal; nothing in it has been applied.
type CascadeResult struct {
	ChangedTaskID string
	Updates       []ProposedUpdate
	TasksInCycle  []string
}

func (r CascadeResult) HasCycle() bool {
	return len(r.TasksInCycle) > 0
}

func (r CascadeResult) InCycle(taskID string) bool {
	return slices.Contains(r.TasksInCycle, taskID)
}

func (r CascadeResult) IsEmpty() bool {
	return len(r.Updates) == 0 && len(r.TasksInCycle) == 0
}

// SameMoves reports whether both proposals move the same tasks to the same
// dates. Order, reasons and cycle reports are ignored.
func (r CascadeResult) SameMoves(other CascadeResult) bool {
	if len(r.Updates) != len(other.Updates) {
		return false
	}
	want := make(map[string]ProposedUpdate, len(r.Updates))
	for _, u := range r.Updates {
		want[u.TaskID] = u
	}
	for _, u := range other.Updates {
		w, ok := want[u.TaskID]
		if !ok || !w.NewStart.Equal(u.NewStart) || !w.NewEnd.Equal(u.NewEnd) {
			return false
		}
	}
	return true
}

// CascadeApply asks for the cascade caused by TaskIDs to be written.
// When Confirmed is set the write goes through only if the cascade planned
// at commit time makes exactly those moves.
type CascadeApply struct {
	TaskIDs   []string
	Confirmed *CascadeResult
}
