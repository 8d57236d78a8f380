// Package events publishes schedule changes after they are committed.
package events

import "context"

const (
	TopicTaskCreated       = "gantry.task.created"
	TopicTaskUpdated       = "gantry.task.updated"
	TopicTaskDeleted       = "gantry.task.deleted"
	TopicDependencyAdded   = "gantry.dependency.added"
	TopicDependencyRemoved = "gantry.dependency.removed"
	TopicCascadeApplied    = "gantry.schedule.cascade_applied"
	TopicProjectImported   = "gantry.project.imported"
)

// TopicAll matches every gantry subject.
const TopicAll = "gantry.>"

// TaskSnapshot is the wire form of a task's schedule fields. Dates are
// YYYY-MM-DD, empty when unset.
type TaskSnapshot struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	ParentID    *string `json:"parent_id,omitempty"`
	Name        string  `json:"name"`
	StartDate   string  `json:"start_date,omitempty"`
	EndDate     string  `json:"end_date,omitempty"`
	DurationMin int     `json:"duration_min"`
	Progress    int     `json:"progress"`
}

type TaskCreated struct {
	Task TaskSnapshot `json:"task"`
}

type TaskUpdated struct {
	Task   TaskSnapshot `json:"task"`
	Forced bool         `json:"forced,omitempty"` // committed despite a constraint violation
}

type TaskDeleted struct {
	TaskID    string `json:"task_id"`
	ProjectID string `json:"project_id"`
}

type DependencyAdded struct {
	TaskID        string `json:"task_id"`
	PredecessorID string `json:"predecessor_id"`
	Type          string `json:"type"`
	LagDays       int    `json:"lag_days"`
}

type DependencyRemoved struct {
	TaskID        string `json:"task_id"`
	PredecessorID string `json:"predecessor_id"`
}

type ShiftedTask struct {
	TaskID   string `json:"task_id"`
	OldStart string `json:"old_start"`
	OldEnd   string `json:"old_end"`
	NewStart string `json:"new_start"`
	NewEnd   string `json:"new_end"`
}

type CascadeApplied struct {
	ProjectID     string        `json:"project_id"`
	ChangedTaskID string        `json:"changed_task_id"`
	Shifted       []ShiftedTask `json:"shifted"`
	TasksInCycle  []string      `json:"tasks_in_cycle,omitempty"`
}

type ProjectImported struct {
	ProjectID        string `json:"project_id"`
	ShortID          string `json:"short_id"`
	TaskCount        int    `json:"task_count"`
	PredecessorCount int    `json:"predecessor_count"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
