// Package calendar holds the date and working-time arithmetic shared by the
// scheduler, the importer and the repositories.
//
// Calendar dates carry no time-of-day. They are represented as time.Time values
// at midnight UTC so that day arithmetic never crosses a DST boundary and a
// stored date can never drift by a timezone offset.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Date builds a calendar date from its components.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a strict YYYY-MM-DD string into a calendar date.
// The value is assembled from its year, month and day components rather than
// through a zone-aware parser; dates that would normalise (2024-02-30) are rejected.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	y, errY := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	d, errD := strconv.Atoi(parts[2])
	if errY != nil || errM != nil || errD != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	if m < 1 || m > 12 || d < 1 {
		return time.Time{}, fmt.Errorf("invalid date %q: month or day out of range", s)
	}
	t := Date(y, time.Month(m), d)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, fmt.Errorf("invalid date %q: day out of range for month", s)
	}
	return t, nil
}

// MustDate is ParseDate for literals known to be valid. It panics otherwise.
func MustDate(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseOptionalDate returns nil for empty or unparsable input.
// A bad date is treated as "no date" so the caller's default resolution applies.
func ParseOptionalDate(s string) *time.Time {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil
	}
	return &t
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatOptionalDate renders nil as the empty string.
func FormatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(*t)
}

// Truncate drops the time-of-day of t, keeping the calendar day as seen in t's
// own location, and returns it as a calendar date.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// AddDays shifts a calendar date by n days (n may be negative).
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d+n)
}

// DaysBetween returns the whole number of days from a to b (b - a).
func DaysBetween(a, b time.Time) int {
	a, b = Truncate(a), Truncate(b)
	return int(b.Sub(a).Hours() / 24)
}

// Max returns the later of two dates.
func Max(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// Min returns the earlier of two dates.
func Min(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

// Today returns the current calendar date in the local timezone.
func Today() time.Time {
	return Truncate(time.Now())
}
