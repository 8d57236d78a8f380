package scheduler

import (
	"slices"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
)

// offsetCalc resolves how far into its start day (in minutes) each task begins
// when it is chained behind a finish-to-start predecessor that ends that day.
// Tasks on a finish-to-start cycle always start at minute 0.
type offsetCalc struct {
	dated   map[string]contract.DatedTask
	fsPreds map[string][]string
	cyclic  map[string]bool
	memo    map[string]int
}

func newOffsetCalc(dated map[string]contract.DatedTask, links []domain.Predecessor) *offsetCalc {
	var fsLinks []domain.Predecessor
	fs := make(map[string][]string)
	for _, l := range links {
		if l.Type == domain.LinkFinishToStart {
			fsLinks = append(fsLinks, l)
			fs[l.TaskID] = append(fs[l.TaskID], l.PredecessorID)
		}
	}
	succ := successorIndex(fsLinks, nil)
	nodes := make([]string, 0, len(fs))
	for id := range fs {
		nodes = append(nodes, id)
	}
	slices.Sort(nodes)
	return &offsetCalc{
		dated:   dated,
		fsPreds: fs,
		cyclic:  cycleMembers(stronglyConnected(nodes, succ), succ),
		memo:    make(map[string]int),
	}
}

// reset drops memoised offsets after dates in the underlying map changed.
func (c *offsetCalc) reset() {
	clear(c.memo)
}

func (c *offsetCalc) offset(id string) int {
	if v, ok := c.memo[id]; ok {
		return v
	}
	t, ok := c.dated[id]
	if !ok || c.cyclic[id] {
		return 0
	}
	best := 0
	for _, pid := range c.fsPreds[id] {
		p, ok := c.dated[pid]
		if !ok || !p.End.Equal(t.Start) {
			continue
		}
		best = max(best, c.endMinute(pid))
	}
	c.memo[id] = best
	return best
}

// endMinute is the minute of its end day at which the task finishes, in (0, 540].
func (c *offsetCalc) endMinute(id string) int {
	t, ok := c.dated[id]
	if !ok {
		return calendar.MinutesPerWorkingDay
	}
	span := max(t.DurationDays, 1)
	m := c.offset(id) + t.Task.DurationMin - calendar.MinutesPerWorkingDay*(span-1)
	if m <= 0 || m > calendar.MinutesPerWorkingDay {
		return calendar.MinutesPerWorkingDay
	}
	return m
}

// IntraDayOffsets returns, for every task, the minute of its start day at which
// it begins. Tasks not chained behind a same-day finish get 0.
func IntraDayOffsets(dated []contract.DatedTask, links []domain.Predecessor) map[string]int {
	c := newOffsetCalc(IndexDated(dated), links)
	out := make(map[string]int, len(dated))
	for _, d := range dated {
		out[d.Task.ID] = c.offset(d.Task.ID)
	}
	return out
}
