// Package scheduler computes task dates, validates predecessor constraints and
// proposes cascades. Inputs are domain records, outputs are contract values,
// and nothing here touches storage. The wall clock is read only when a pass
// needs today's date and Options.Today is nil; inject Today for repeatable
// results.
package scheduler

import (
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
)

// Options tunes a scheduling pass.
type Options struct {
	// ProjectStart is the fallback start for leaves without a stored start.
	ProjectStart *time.Time
	// Today is consulted only when ProjectStart is nil. Nil means calendar.Today.
	Today func() time.Time
	// SameDayChaining lets an FS successor start on its predecessor's end day
	// when the predecessor finishes before the end of that working day.
	SameDayChaining bool
	SnapMinutes     int
}

func DefaultOptions() Options {
	return Options{SnapMinutes: calendar.DefaultSnapMinutes}
}

func (o Options) today() time.Time {
	if o.Today != nil {
		return calendar.Truncate(o.Today())
	}
	return calendar.Today()
}
