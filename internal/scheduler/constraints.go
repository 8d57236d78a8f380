package scheduler

import (
	"fmt"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
)

type checker struct {
	dated   map[string]contract.DatedTask
	links   map[string][]domain.Predecessor
	opts    Options
	offsets *offsetCalc
}

func newChecker(dated map[string]contract.DatedTask, links []domain.Predecessor, opts Options) *checker {
	c := &checker{dated: dated, links: linksByTask(links), opts: opts}
	if opts.SameDayChaining {
		c.offsets = newOffsetCalc(dated, links)
	}
	return c
}

// CheckConstraints validates task against every predecessor link that names it
// as the dependent. Links to predecessors missing from datedByID are ignored.
// The binding constraint is the one demanding the latest start.
func CheckConstraints(task contract.DatedTask, datedByID map[string]contract.DatedTask, links []domain.Predecessor, opts Options) contract.ConstraintResult {
	return newChecker(datedByID, links, opts).check(task)
}

// CheckAll runs CheckConstraints for every task.
func CheckAll(dated []contract.DatedTask, links []domain.Predecessor, opts Options) map[string]contract.ConstraintResult {
	c := newChecker(IndexDated(dated), links, opts)
	out := make(map[string]contract.ConstraintResult, len(dated))
	for _, d := range dated {
		out[d.Task.ID] = c.check(d)
	}
	return out
}

func (c *checker) check(task contract.DatedTask) contract.ConstraintResult {
	res := contract.ConstraintResult{TaskID: task.Task.ID}
	span := max(task.DurationDays, 1)

	var (
		best    time.Time
		binding *domain.Predecessor
	)
	for _, link := range c.links[task.Task.ID] {
		pred, ok := c.dated[link.PredecessorID]
		if !ok {
			continue
		}
		minStart := c.minStart(pred, link, span)
		if binding == nil || minStart.After(best) {
			best = minStart
			l := link
			binding = &l
		}
		if task.Start.Before(minStart) {
			res.Violations = append(res.Violations, contract.ConstraintViolation{
				PredecessorID:   pred.Task.ID,
				PredecessorName: pred.Task.Name,
				Type:            link.Type,
				LagDays:         link.LagDays,
				MinStart:        minStart,
				Message: fmt.Sprintf("%s on %q requires a start on or after %s",
					describeLink(link), pred.Task.Name, calendar.FormatDate(minStart)),
			})
		}
	}

	if binding == nil {
		res.Valid = true
		res.Unconstrained = true
		res.Message = "no predecessors"
		return res
	}

	minEnd := calendar.AddDays(best, span-1)
	res.MinStart = &best
	res.MinEnd = &minEnd
	res.Binding = binding
	res.Valid = len(res.Violations) == 0

	predName := c.dated[binding.PredecessorID].Task.Name
	if res.Valid {
		res.Message = fmt.Sprintf("ok: earliest start %s (%s on %q)",
			calendar.FormatDate(best), describeLink(*binding), predName)
	} else {
		res.Message = fmt.Sprintf("%q starts %s but %s on %q requires %s or later",
			task.Task.Name, calendar.FormatDate(task.Start), describeLink(*binding), predName,
			calendar.FormatDate(best))
	}
	return res
}

// minStart converts one link into the earliest start it allows. End bounds
// (FF, SF) become start bounds by keeping the task's span.
func (c *checker) minStart(pred contract.DatedTask, link domain.Predecessor, span int) time.Time {
	switch link.Type {
	case domain.LinkStartToStart:
		return calendar.AddDays(pred.Start, link.LagDays)
	case domain.LinkFinishToFinish:
		return calendar.AddDays(pred.End, link.LagDays-(span-1))
	case domain.LinkStartToFinish:
		return calendar.AddDays(pred.Start, link.LagDays-(span-1))
	default:
		if c.offsets != nil && c.offsets.endMinute(pred.Task.ID) < calendar.MinutesPerWorkingDay {
			return calendar.AddDays(pred.End, link.LagDays)
		}
		return calendar.AddDays(pred.End, 1+link.LagDays)
	}
}

func describeLink(l domain.Predecessor) string {
	if l.LagDays == 0 {
		return l.Type.Label()
	}
	return fmt.Sprintf("%s %+dd", l.Type.Label(), l.LagDays)
}
