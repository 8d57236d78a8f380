package contract

import (
	"time"

	"github.com/alexanderramin/gantry/internal/domain"
)

// DatedTask is a task with concrete, resolved dates.
type DatedTask struct {
	Task  domain.Task
	Start time.Time
	End   time.Time
	// DurationDays is the inclusive calendar span (End - Start + 1).
	DurationDays int
	HasChildren  bool
	Fragmented   bool
	// StartDefaulted is set when neither the task nor the project supplied a
	// start and the calculator fell back to today.
	StartDefaulted bool
}

type ResolvedAllocation struct {
	Allocation domain.Allocation
	Resource   domain.Resource
}

// TaskNode is one node of the organized task tree.
type TaskNode struct {
	DatedTask
	Allocations []ResolvedAllocation
	Subtasks    []*TaskNode
}

// FlatNode is a TaskNode annotated with its depth in a pre-order walk.
type FlatNode struct {
	Node   *TaskNode
	Level  int
	IsLast bool
}

type ScheduleStatus string

const (
	StatusUnconstrained ScheduleStatus = "unconstrained"
	StatusValid         ScheduleStatus = "valid"
	StatusConflicted    ScheduleStatus = "conflicted"
	StatusCycle         ScheduleStatus = "cycle"
)
