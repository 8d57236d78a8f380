package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
)

// Allocation assigns a resource to a task over its own date range, which may
// differ from the task's span when the work is split into fragments.
type Allocation struct {
	ID           string
	TaskID       string
	ResourceID   string
	StartDate    time.Time
	EndDate      time.Time
	AllocatedMin int
	CreatedAt    time.Time
}

func (a *Allocation) Validate() error {
	if a.TaskID == "" || a.ResourceID == "" {
		return fmt.Errorf("allocation requires task and resource IDs")
	}
	if a.EndDate.Before(a.StartDate) {
		return fmt.Errorf("allocation end %s is before start %s",
			calendar.FormatDate(a.EndDate), calendar.FormatDate(a.StartDate))
	}
	if a.AllocatedMin < 0 {
		return fmt.Errorf("allocated minutes must not be negative")
	}
	return nil
}

// IsFragmented reports whether the allocation ranges leave at least one
// uncovered day between them once sorted by start.
func IsFragmented(allocs []Allocation) bool {
	if len(allocs) < 2 {
		return false
	}
	sorted := make([]Allocation, len(allocs))
	copy(sorted, allocs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})
	coveredUntil := sorted[0].EndDate
	for _, a := range sorted[1:] {
		if calendar.DaysBetween(coveredUntil, a.StartDate) > 1 {
			return true
		}
		coveredUntil = calendar.Max(coveredUntil, a.EndDate)
	}
	return false
}

// LatestAllocationEnd returns the latest end date among allocs, or nil.
func LatestAllocationEnd(allocs []Allocation) *time.Time {
	var latest *time.Time
	for i := range allocs {
		if latest == nil || allocs[i].EndDate.After(*latest) {
			e := allocs[i].EndDate
			latest = &e
		}
	}
	return latest
}
