package scheduler

import (
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
)

// CalculateDates resolves concrete start and end dates for every task.
// Parents span their children plus margins; leaves use their stored dates,
// falling back to the project start (or today) and their duration. The result
// keeps the order of tasks.
func CalculateDates(tasks []domain.Task, allocations []domain.Allocation, opts Options) []contract.DatedTask {
	if len(tasks) == 0 {
		return nil
	}

	parents := effectiveParents(tasks)
	children := make(map[string][]string)
	byID := make(map[string]domain.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
		if p, ok := parents[t.ID]; ok {
			children[p] = append(children[p], t.ID)
		}
	}
	allocsByTask := make(map[string][]domain.Allocation)
	for _, a := range allocations {
		allocsByTask[a.TaskID] = append(allocsByTask[a.TaskID], a)
	}

	var fallback *time.Time
	if opts.ProjectStart != nil {
		ps := calendar.Truncate(*opts.ProjectStart)
		fallback = &ps
	}

	memo := make(map[string]contract.DatedTask, len(tasks))

	leaf := func(t domain.Task) contract.DatedTask {
		dt := contract.DatedTask{Task: t}
		switch {
		case t.StartDate != nil:
			dt.Start = calendar.Truncate(*t.StartDate)
		case fallback != nil:
			dt.Start = *fallback
		default:
			dt.Start = opts.today()
			dt.StartDefaulted = true
		}
		if t.EndDate != nil {
			dt.End = calendar.Truncate(*t.EndDate)
		} else {
			dt.End = calendar.EndFromDuration(dt.Start, t.DurationMin)
		}
		if allocs := allocsByTask[t.ID]; domain.IsFragmented(allocs) {
			dt.Fragmented = true
			if last := domain.LatestAllocationEnd(allocs); last != nil && last.After(dt.End) {
				dt.End = calendar.Truncate(*last)
			}
		}
		return dt
	}

	type frame struct {
		id   string
		next int
	}
	for _, root := range tasks {
		if _, hasParent := parents[root.ID]; hasParent {
			continue
		}
		stack := []frame{{id: root.ID}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := children[top.id]
			if top.next < len(kids) {
				child := kids[top.next]
				top.next++
				stack = append(stack, frame{id: child})
				continue
			}
			t := byID[top.id]
			var dt contract.DatedTask
			if len(kids) == 0 {
				dt = leaf(t)
			} else {
				spans := make([]contract.DatedTask, len(kids))
				for i, id := range kids {
					spans[i] = memo[id]
				}
				dt = parentSpan(t, spans)
			}
			if dt.End.Before(dt.Start) {
				dt.End = dt.Start
			}
			dt.DurationDays = calendar.DaysBetween(dt.Start, dt.End) + 1
			memo[top.id] = dt
			stack = stack[:len(stack)-1]
		}
	}

	out := make([]contract.DatedTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, memo[t.ID])
	}
	return out
}

// parentSpan derives a parent's dates from its children's: the earliest start
// and latest end, widened by the parent's margins.
func parentSpan(t domain.Task, kids []contract.DatedTask) contract.DatedTask {
	dt := contract.DatedTask{Task: t, HasChildren: true}
	for i, c := range kids {
		if i == 0 || c.Start.Before(dt.Start) {
			dt.Start = c.Start
		}
		if i == 0 || c.End.After(dt.End) {
			dt.End = c.End
		}
		dt.StartDefaulted = dt.StartDefaulted || c.StartDefaulted
	}
	dt.Start = calendar.AddDays(dt.Start, -t.MarginStartDays)
	dt.End = calendar.AddDays(dt.End, t.MarginEndDays)
	if dt.End.Before(dt.Start) {
		dt.End = dt.Start
	}
	dt.DurationDays = calendar.DaysBetween(dt.Start, dt.End) + 1
	return dt
}

// IndexDated keys dated tasks by task ID.
func IndexDated(dated []contract.DatedTask) map[string]contract.DatedTask {
	out := make(map[string]contract.DatedTask, len(dated))
	for _, d := range dated {
		out[d.Task.ID] = d
	}
	return out
}
