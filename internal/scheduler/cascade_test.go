package scheduler

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shift(d contract.DatedTask, days int) contract.DatedTask {
	d.Start = calendar.AddDays(d.Start, days)
	d.End = calendar.AddDays(d.End, days)
	return d
}

func TestProposeCascade_HundredTaskChain(t *testing.T) {
	ds, links := chain(100, "2024-01-01")
	ds[0] = shift(ds[0], 5)

	res := ProposeCascade("T0", ds, links, DefaultOptions())
	require.Len(t, res.Updates, 99)
	assert.Empty(t, res.TasksInCycle)

	for i, u := range res.Updates {
		assert.Equal(t, fmt.Sprintf("T%d", i+1), u.TaskID, "updates come in chain order")
		assert.Equal(t, calendar.AddDays(calendar.MustDate("2024-01-01"), i+6), u.NewStart)
		assert.Equal(t, u.NewStart, u.NewEnd, "one-day span preserved")
		assert.Equal(t, ds[i+1].Start, u.OldStart)
	}
}

func TestProposeCascade_TwoTaskCycle(t *testing.T) {
	a := dated("A", "2024-01-01", "2024-01-02")
	b := dated("B", "2024-01-03", "2024-01-04")
	links := []domain.Predecessor{fs("A", "B"), fs("B", "A")}

	for _, changed := range []string{"A", "B"} {
		res := ProposeCascade(changed, []contract.DatedTask{a, b}, links, DefaultOptions())
		assert.Equal(t, []string{"A", "B"}, res.TasksInCycle, "from %s", changed)
		assert.Empty(t, res.Updates, "from %s", changed)
		assert.True(t, res.HasCycle())
		assert.True(t, res.InCycle("A"))
	}
}

func TestProposeCascade_StopsAtSatisfiedTask(t *testing.T) {
	a := dated("a", "2024-01-03", "2024-01-03")
	b := dated("b", "2024-01-10", "2024-01-10") // already far enough out
	c := dated("c", "2024-01-03", "2024-01-03") // conflicts with b, but b never moves
	links := []domain.Predecessor{fs("b", "a"), fs("c", "b")}

	res := ProposeCascade("a", []contract.DatedTask{a, b, c}, links, DefaultOptions())
	assert.Empty(t, res.Updates)
}

func TestProposeCascade_DiamondMovesJoinOnce(t *testing.T) {
	a := dated("a", "2024-01-05", "2024-01-05")
	b := dated("b", "2024-01-02", "2024-01-03")
	c := dated("c", "2024-01-02", "2024-01-02")
	d := dated("d", "2024-01-04", "2024-01-04")
	links := []domain.Predecessor{fs("b", "a"), fs("c", "a"), fs("d", "b"), fs("d", "c")}

	res := ProposeCascade("a", []contract.DatedTask{a, b, c, d}, links, DefaultOptions())
	require.Len(t, res.Updates, 3)

	byID := map[string]contract.ProposedUpdate{}
	for _, u := range res.Updates {
		byID[u.TaskID] = u
	}
	assert.Equal(t, "2024-01-06", calendar.FormatDate(byID["b"].NewStart))
	assert.Equal(t, "2024-01-07", calendar.FormatDate(byID["b"].NewEnd))
	assert.Equal(t, "2024-01-06", calendar.FormatDate(byID["c"].NewStart))
	// d waits for the later of the two moved branches.
	assert.Equal(t, "2024-01-08", calendar.FormatDate(byID["d"].NewStart))
	assert.Equal(t, "d", res.Updates[2].TaskID)
}

func TestProposeCascade_ConsidersPredecessorsOutsideTheChange(t *testing.T) {
	a := dated("a", "2024-01-05", "2024-01-05")
	other := dated("other", "2024-01-01", "2024-01-20")
	b := dated("b", "2024-01-02", "2024-01-02")
	links := []domain.Predecessor{fs("b", "a"), fs("b", "other")}

	res := ProposeCascade("a", []contract.DatedTask{a, other, b}, links, DefaultOptions())
	require.Len(t, res.Updates, 1)
	assert.Equal(t, "2024-01-21", calendar.FormatDate(res.Updates[0].NewStart))
	assert.Contains(t, res.Updates[0].Reason, `"other"`)
}

func TestProposeCascade_CycleDownstreamStillReported(t *testing.T) {
	a := dated("a", "2024-01-05", "2024-01-05")
	b := dated("b", "2024-01-01", "2024-01-01")
	c := dated("c", "2024-01-01", "2024-01-01")
	d := dated("d", "2024-01-01", "2024-01-01")
	links := []domain.Predecessor{fs("b", "a"), fs("c", "b"), fs("b", "c"), fs("d", "a")}

	res := ProposeCascade("a", []contract.DatedTask{a, b, c, d}, links, DefaultOptions())
	assert.Equal(t, []string{"b", "c"}, res.TasksInCycle)
	require.Len(t, res.Updates, 1)
	assert.Equal(t, "d", res.Updates[0].TaskID)
}

func TestProposeCascade_UnknownTask(t *testing.T) {
	ds, links := chain(3, "2024-01-01")
	res := ProposeCascade("missing", ds, links, DefaultOptions())
	assert.True(t, res.IsEmpty())
}

// TestProposeCascade_Invariants property-tests random DAGs: after applying the
// proposal every task reachable from the change satisfies its constraints, and
// no task is proposed twice.
func TestProposeCascade_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := calendar.MustDate("2024-01-01")
	types := []domain.LinkType{domain.LinkFinishToStart, domain.LinkStartToStart, domain.LinkFinishToFinish, domain.LinkStartToFinish}

	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(25) + 2
		ds := make([]contract.DatedTask, n)
		for i := range ds {
			s := calendar.AddDays(base, rng.Intn(30))
			e := calendar.AddDays(s, rng.Intn(4))
			ds[i] = dated(fmt.Sprintf("t%d", i), calendar.FormatDate(s), calendar.FormatDate(e))
		}
		// Edges only go from lower to higher index, so the graph is acyclic.
		var links []domain.Predecessor
		for i := 1; i < n; i++ {
			for j := 0; j < i; j++ {
				if rng.Intn(4) == 0 {
					links = append(links, link(ds[i].Task.ID, ds[j].Task.ID, types[rng.Intn(4)], rng.Intn(5)-2))
				}
			}
		}

		changed := rng.Intn(n)
		ds[changed] = shift(ds[changed], rng.Intn(20))
		res := ProposeCascade(ds[changed].Task.ID, ds, links, DefaultOptions())
		assert.Empty(t, res.TasksInCycle, "trial %d", trial)

		seen := map[string]bool{}
		applied := IndexDated(ds)
		for _, u := range res.Updates {
			assert.False(t, seen[u.TaskID], "trial %d: %s proposed twice", trial, u.TaskID)
			seen[u.TaskID] = true
			d := applied[u.TaskID]
			assert.Equal(t, calendar.DaysBetween(d.Start, d.End), calendar.DaysBetween(u.NewStart, u.NewEnd), "trial %d: span kept", trial)
			assert.True(t, u.NewStart.After(u.OldStart), "trial %d: cascades only push later", trial)
			d.Start, d.End = u.NewStart, u.NewEnd
			applied[u.TaskID] = d
		}

		succ := successorIndex(links, nil)
		for _, id := range reachable(ds[changed].Task.ID, succ)[1:] {
			res := CheckConstraints(applied[id], applied, links, DefaultOptions())
			// A task that was valid before and untouched by the change can stay
			// invalid only if it was invalid to begin with.
			before := CheckConstraints(IndexDated(ds)[id], IndexDated(ds), links, DefaultOptions())
			if !res.Valid {
				assert.False(t, seen[id], "trial %d: moved task %s still invalid", trial, id)
				assert.False(t, before.Valid, "trial %d: %s became invalid without a proposal", trial, id)
			}
		}
	}
}

func updatesByID(res contract.CascadeResult) map[string]contract.ProposedUpdate {
	out := make(map[string]contract.ProposedUpdate, len(res.Updates))
	for _, u := range res.Updates {
		out[u.TaskID] = u
	}
	return out
}

func TestProposeCascade_StretchedParentMovesItsSuccessors(t *testing.T) {
	opts := projectStart("2024-03-01")
	tasks := []domain.Task{
		newTask("X", withStart("2024-03-05")),
		newTask("P"),
		newTask("Leaf", withParent("P"), withStart("2024-03-02")),
		newTask("S", withStart("2024-03-03")),
	}
	links := []domain.Predecessor{fs("Leaf", "X"), fs("S", "P")}

	res := ProposeCascade("X", CalculateDates(tasks, nil, opts), links, opts)
	got := updatesByID(res)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-06", calendar.FormatDate(got["Leaf"].NewStart))
	assert.Equal(t, "2024-03-07", calendar.FormatDate(got["S"].NewStart))
	assert.NotContains(t, got, "P", "derived parent spans are not proposed")
}

func TestProposeCascade_ChangedLeafReachesParentSuccessors(t *testing.T) {
	opts := projectStart("2024-03-01")
	tasks := []domain.Task{
		newTask("Phase"),
		newTask("Leaf", withParent("Phase"), withStart("2024-03-10")),
		newTask("Next", withStart("2024-03-02")),
	}
	links := []domain.Predecessor{fs("Next", "Phase")}

	res := ProposeCascade("Leaf", CalculateDates(tasks, nil, opts), links, opts)
	require.Len(t, res.Updates, 1)
	assert.Equal(t, "Next", res.Updates[0].TaskID)
	assert.Equal(t, "2024-03-11", calendar.FormatDate(res.Updates[0].NewStart))
}

func TestProposeCascade_MovedParentCarriesItsLeaves(t *testing.T) {
	opts := projectStart("2024-03-01")
	tasks := []domain.Task{
		newTask("A", withStart("2024-03-05")),
		newTask("P"),
		newTask("L", withParent("P"), withStart("2024-03-02")),
		newTask("M", withStart("2024-03-03")),
	}
	links := []domain.Predecessor{fs("P", "A"), fs("M", "L")}

	res := ProposeCascade("A", CalculateDates(tasks, nil, opts), links, opts)
	got := updatesByID(res)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-06", calendar.FormatDate(got["P"].NewStart))
	assert.Equal(t, "2024-03-07", calendar.FormatDate(got["M"].NewStart), "M follows the carried leaf")
}
