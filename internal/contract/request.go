package contract

import (
	"time"

	"github.com/alexanderramin/gantry/internal/domain"
)

type ScheduleRequest struct {
	ProjectID string
	// Today overrides the fallback date used when neither task nor project
	// has a start. Nil means the calendar day the request is served.
	Today           *time.Time
	SameDayChaining bool
	IncludeOffsets  bool
}

func NewScheduleRequest(projectID string) ScheduleRequest {
	return ScheduleRequest{
		ProjectID:      projectID,
		IncludeOffsets: true,
	}
}

type ScheduleResponse struct {
	Project     *domain.Project
	GeneratedAt time.Time
	Tasks       []DatedTask
	Tree        []*TaskNode
	Statuses    map[string]ScheduleStatus
	Constraints map[string]ConstraintResult
	// Offsets holds intra-day start offsets in minutes, keyed by task ID.
	Offsets  map[string]int
	Warnings []string
}

// TaskEdit is a requested change to one task's schedule fields. Nil fields
// are left as they are.
type TaskEdit struct {
	TaskID      string
	StartDate   *time.Time
	EndDate     *time.Time
	DurationMin *int
	Progress    *int
	// Force commits the edit even if it breaks predecessor constraints.
	Force bool
}

type EditResponse struct {
	Task       DatedTask
	Constraint ConstraintResult
	Cascade    CascadeResult
}

type ScheduleErrorCode string

const (
	ErrConstraintViolation ScheduleErrorCode = "CONSTRAINT_VIOLATION"
	ErrDependencyCycle     ScheduleErrorCode = "DEPENDENCY_CYCLE"
	ErrParentLoop          ScheduleErrorCode = "PARENT_LOOP"
	ErrInvalidEdit         ScheduleErrorCode = "INVALID_EDIT"
	// ErrStaleCascade: the schedule changed after a cascade was shown.
	ErrStaleCascade ScheduleErrorCode = "STALE_CASCADE"
)

type ScheduleError struct {
	Code       ScheduleErrorCode
	Message    string
	Constraint *ConstraintResult
}

func (e *ScheduleError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// BatchResponse reports a committed batch of pending edits.
type BatchResponse struct {
	Applied     int
	Tasks       []DatedTask
	Constraints map[string]ConstraintResult
	Cascade     CascadeResult
}
