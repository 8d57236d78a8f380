package scheduler

import (
	"fmt"
	"slices"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
)

// ProposeCascade works out which successors of changedID must move so that
// every predecessor constraint holds again. dated must already reflect the
// change. Each affected task is proposed at its earliest legal start with its
// span kept; tasks on a dependency cycle are reported and left alone.
// A parent whose derived span changes, because the changed task or a moved
// task sits under it, has its own successors checked too. Derived parent
// spans are not reported as updates. Nothing is applied.
func ProposeCascade(changedID string, dated []contract.DatedTask, links []domain.Predecessor, opts Options) contract.CascadeResult {
	res := contract.CascadeResult{ChangedTaskID: changedID}

	byID := IndexDated(dated)
	if _, ok := byID[changedID]; !ok {
		return res
	}
	w := newCascadeWalk(changedID, dated, byID, links, opts)

	seeds := append([]string{changedID}, w.ancestors(changedID)...)
	limit := 4*len(dated) + 1
	for round := 0; len(seeds) > 0 && round < limit; round++ {
		seed := seeds[0]
		seeds = seeds[1:]
		moved, shifted := w.walk(seed)
		for _, id := range moved {
			seeds = append(seeds, w.refreshAncestors(id)...)
		}
		seeds = append(seeds, shifted...)
	}

	res.Updates = w.updates
	for id := range w.cycle {
		res.TasksInCycle = append(res.TasksInCycle, id)
	}
	slices.Sort(res.TasksInCycle)
	return res
}

type cascadeWalk struct {
	origin   string
	byID     map[string]contract.DatedTask
	succ     map[string][]string
	parents  map[string]string
	children map[string][]string
	checker  *checker

	updates []contract.ProposedUpdate
	index   map[string]int
	cycle   map[string]bool
}

func newCascadeWalk(origin string, dated []contract.DatedTask, byID map[string]contract.DatedTask, links []domain.Predecessor, opts Options) *cascadeWalk {
	known := make(map[string]bool, len(byID))
	tasks := make([]domain.Task, 0, len(dated))
	for _, d := range dated {
		known[d.Task.ID] = true
		tasks = append(tasks, d.Task)
	}
	parents := effectiveParents(tasks)
	children := make(map[string][]string)
	for _, t := range tasks {
		if p, ok := parents[t.ID]; ok {
			children[p] = append(children[p], t.ID)
		}
	}
	return &cascadeWalk{
		origin:   origin,
		byID:     byID,
		succ:     successorIndex(links, known),
		parents:  parents,
		children: children,
		checker:  newChecker(byID, links, opts),
		index:    make(map[string]int),
		cycle:    make(map[string]bool),
	}
}

// walk moves the successors of seed that now violate a constraint, in
// topological order. It returns the tasks it moved and the descendants
// carried along under moved parents.
func (w *cascadeWalk) walk(seed string) (moved, shifted []string) {
	scope := reachable(seed, w.succ)
	components := stronglyConnected(scope, w.succ)
	inCycle := cycleMembers(components, w.succ)
	for id := range inCycle {
		w.cycle[id] = true
	}

	dirty := make(map[string]bool)
	for _, next := range w.succ[seed] {
		dirty[next] = true
	}

	// Tarjan emits sinks first; walk backwards for topological order.
	for i := len(components) - 1; i >= 0; i-- {
		comp := components[i]
		if len(comp) != 1 {
			continue
		}
		id := comp[0]
		if id == seed || id == w.origin || inCycle[id] || !dirty[id] {
			continue
		}

		current := w.byID[id]
		check := w.checker.check(current)
		if check.Valid || check.MinStart == nil {
			continue
		}

		span := max(current.DurationDays, 1)
		next := current
		next.Start = *check.MinStart
		next.End = calendar.AddDays(next.Start, span-1)
		next.DurationDays = span
		shifted = append(shifted, w.shiftDescendants(id, calendar.DaysBetween(current.Start, next.Start))...)
		w.set(id, next)
		w.record(current, next, cascadeReason(check, w.byID))

		moved = append(moved, id)
		for _, s := range w.succ[id] {
			dirty[s] = true
		}
	}
	return moved, shifted
}

// shiftDescendants moves everything under id by delta days.
func (w *cascadeWalk) shiftDescendants(id string, delta int) []string {
	if delta == 0 {
		return nil
	}
	var out []string
	stack := slices.Clone(w.children[id])
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		d := w.byID[n]
		d.Start = calendar.AddDays(d.Start, delta)
		d.End = calendar.AddDays(d.End, delta)
		w.byID[n] = d
		out = append(out, n)
		stack = append(stack, w.children[n]...)
	}
	slices.Sort(out)
	return out
}

// record merges a move into the result; a task moved twice keeps its
// original dates and its latest ones.
func (w *cascadeWalk) record(from, to contract.DatedTask, reason string) {
	id := from.Task.ID
	if i, ok := w.index[id]; ok {
		w.updates[i].NewStart = to.Start
		w.updates[i].NewEnd = to.End
		w.updates[i].Reason = reason
		return
	}
	w.index[id] = len(w.updates)
	w.updates = append(w.updates, contract.ProposedUpdate{
		TaskID:   id,
		TaskName: from.Task.Name,
		OldStart: from.Start,
		OldEnd:   from.End,
		NewStart: to.Start,
		NewEnd:   to.End,
		Reason:   reason,
	})
}

func (w *cascadeWalk) set(id string, d contract.DatedTask) {
	w.byID[id] = d
	if w.checker.offsets != nil {
		w.checker.offsets.reset()
	}
}

func (w *cascadeWalk) ancestors(id string) []string {
	var out []string
	for p, ok := w.parents[id]; ok; p, ok = w.parents[p] {
		out = append(out, p)
	}
	return out
}

// refreshAncestors re-derives the spans above id and returns the ancestors
// whose start or end changed, nearest first.
func (w *cascadeWalk) refreshAncestors(id string) []string {
	var changed []string
	for _, p := range w.ancestors(id) {
		kids := make([]contract.DatedTask, 0, len(w.children[p]))
		for _, k := range w.children[p] {
			kids = append(kids, w.byID[k])
		}
		old := w.byID[p]
		next := parentSpan(old.Task, kids)
		if next.Start.Equal(old.Start) && next.End.Equal(old.End) {
			break
		}
		w.set(p, next)
		changed = append(changed, p)
	}
	return changed
}

func cascadeReason(check contract.ConstraintResult, byID map[string]contract.DatedTask) string {
	if check.Binding == nil {
		return check.Message
	}
	return fmt.Sprintf("%s on %q", describeLink(*check.Binding), byID[check.Binding.PredecessorID].Task.Name)
}
