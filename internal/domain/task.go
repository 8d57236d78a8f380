package domain

import (
	"fmt"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
)

type Task struct {
	ID        string
	ProjectID string
	Seq       int // project-scoped sequential ID
	ParentID  *string
	Name      string

	// DurationMin is the canonical duration; 540 minutes is one working day.
	DurationMin int
	StartDate   *time.Time
	EndDate     *time.Time
	Progress    int
	SortOrder   int

	// Slack in days added around the span derived from a parent's children.
	MarginStartDays int
	MarginEndDays   int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks field-level invariants before a task is persisted.
func (t *Task) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("task name is required")
	}
	if t.DurationMin < 0 {
		return fmt.Errorf("task %q: duration must not be negative", t.Name)
	}
	if t.Progress < 0 || t.Progress > 100 {
		return fmt.Errorf("task %q: progress %d must be between 0 and 100", t.Name, t.Progress)
	}
	if t.MarginStartDays < 0 || t.MarginEndDays < 0 {
		return fmt.Errorf("task %q: margins must not be negative", t.Name)
	}
	if t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(*t.StartDate) {
		return fmt.Errorf("task %q: end date %s is before start date %s", t.Name,
			calendar.FormatDate(*t.EndDate), calendar.FormatDate(*t.StartDate))
	}
	if t.ParentID != nil && *t.ParentID == t.ID {
		return fmt.Errorf("task %q cannot be its own parent", t.Name)
	}
	return nil
}

// SpanDays is the inclusive number of calendar days the task occupies: the
// stored range when both dates are set, otherwise the duration in days.
func (t *Task) SpanDays() int {
	if t.StartDate != nil && t.EndDate != nil {
		if n := calendar.DaysBetween(*t.StartDate, *t.EndDate) + 1; n > 0 {
			return n
		}
	}
	return calendar.DurationDays(t.DurationMin)
}

// MoveTo sets a new start date and shifts the end so the span is preserved.
func (t *Task) MoveTo(start time.Time, now time.Time) {
	span := t.SpanDays()
	s := calendar.Truncate(start)
	e := calendar.AddDays(s, span-1)
	t.StartDate = &s
	t.EndDate = &e
	t.UpdatedAt = now
}

// SetDates replaces the stored range. Either side may be nil.
func (t *Task) SetDates(start, end *time.Time, now time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("end date %s is before start date %s",
			calendar.FormatDate(*end), calendar.FormatDate(*start))
	}
	t.StartDate = start
	t.EndDate = end
	t.UpdatedAt = now
	return nil
}

// Resize sets a new duration rounded to the snap granularity. When the task
// has a stored start, the end is recomputed from the new duration.
func (t *Task) Resize(minutes, snap int, now time.Time) error {
	if minutes < 0 {
		return fmt.Errorf("duration must not be negative")
	}
	t.DurationMin = calendar.SnapMinutes(minutes, snap)
	if t.StartDate != nil {
		e := calendar.EndFromDuration(*t.StartDate, t.DurationMin)
		t.EndDate = &e
	}
	t.UpdatedAt = now
	return nil
}

// SetProgress records completion percentage; values outside 0-100 are rejected.
func (t *Task) SetProgress(pct int, now time.Time) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("progress %d must be between 0 and 100", pct)
	}
	t.Progress = pct
	t.UpdatedAt = now
	return nil
}

// StretchTo moves the end date and keeps the start. When the resulting span
// no longer matches the duration, the duration becomes whole working days.
func (t *Task) StretchTo(end time.Time, now time.Time) error {
	e := calendar.Truncate(end)
	if err := t.SetDates(t.StartDate, &e, now); err != nil {
		return err
	}
	if t.StartDate == nil {
		return nil
	}
	if span := calendar.DaysBetween(*t.StartDate, e) + 1; span != calendar.DurationDays(t.DurationMin) {
		t.DurationMin = span * calendar.MinutesPerWorkingDay
	}
	return nil
}
