package calendar

import (
	"math"
	"time"
)

// MinutesPerWorkingDay is the canonical working day: 9 hours.
const MinutesPerWorkingDay = 540

// DefaultSnapMinutes is the rounding granularity for interactive resizes.
const DefaultSnapMinutes = 15

// MinutesToDays converts a minute duration into fractional working days.
func MinutesToDays(minutes int) float64 {
	return float64(minutes) / MinutesPerWorkingDay
}

// DaysToMinutes converts fractional working days back into minutes, rounded to
// the snap granularity. snap <= 0 rounds to the nearest whole minute.
func DaysToMinutes(days float64, snap int) int {
	return SnapMinutes(int(math.Round(days*MinutesPerWorkingDay)), snap)
}

// SnapMinutes rounds minutes to the nearest multiple of snap, half up.
// snap <= 0 returns minutes unchanged.
func SnapMinutes(minutes, snap int) int {
	if snap <= 0 {
		return minutes
	}
	return int(math.Floor(float64(minutes)/float64(snap)+0.5)) * snap
}

// DurationDays is the number of calendar days a duration occupies:
// ceil(minutes / 540), and never less than one day.
func DurationDays(minutes int) int {
	if minutes <= 0 {
		return 1
	}
	days := (minutes + MinutesPerWorkingDay - 1) / MinutesPerWorkingDay
	if days < 1 {
		return 1
	}
	return days
}

// EndFromDuration returns the inclusive end date of a span that starts on
// start and lasts the given duration.
func EndFromDuration(start time.Time, minutes int) time.Time {
	return AddDays(start, DurationDays(minutes)-1)
}
