package domain

import (
	"fmt"
	"time"
)

// Predecessor links a dependent task (TaskID) to the task it waits on.
type Predecessor struct {
	TaskID        string
	PredecessorID string
	Type          LinkType
	// LagDays shifts the constraint by whole calendar days; negative is lead time.
	LagDays   int
	CreatedAt time.Time
}

func (p *Predecessor) Validate() error {
	if p.TaskID == "" || p.PredecessorID == "" {
		return fmt.Errorf("predecessor link requires both task and predecessor IDs")
	}
	if p.TaskID == p.PredecessorID {
		return fmt.Errorf("task %s cannot depend on itself", p.TaskID)
	}
	if !p.Type.IsValid() {
		return fmt.Errorf("invalid link type %q (expected FS, SS, FF or SF)", p.Type)
	}
	return nil
}
