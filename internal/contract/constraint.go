package contract

import (
	"time"

	"github.com/alexanderramin/gantry/internal/domain"
)

// ConstraintViolation describes one predecessor link the task currently breaks.
type ConstraintViolation struct {
	PredecessorID   string
	PredecessorName string
	Type            domain.LinkType
	LagDays         int
	// MinStart is the earliest start this single link allows.
	MinStart time.Time
	Message  string
}

// ConstraintResult is the outcome of checking a task against all of its
// predecessors at once.
type ConstraintResult struct {
	TaskID        string
	Valid         bool
	Unconstrained bool
	// MinStart/MinEnd are the earliest legal dates under every link, with the
	// task's own span preserved. Nil when the task is unconstrained.
	MinStart   *time.Time
	MinEnd     *time.Time
	Binding    *domain.Predecessor
	Violations []ConstraintViolation
	Message    string
}
