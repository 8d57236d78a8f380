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

func TestCalculateDates_DesignScenario(t *testing.T) {
	tasks := []domain.Task{
		newTask("phase", withSort(0)),
		newTask("design", withParent("phase"), withDuration(1080)),
		newTask("review", withParent("phase"), withDuration(540), withStart("2024-03-03")),
	}
	links := []domain.Predecessor{fs("review", "design")}
	opts := projectStart("2024-03-01")

	got := IndexDated(CalculateDates(tasks, nil, opts))

	design := got["design"]
	assert.Equal(t, calendar.MustDate("2024-03-01"), design.Start)
	assert.Equal(t, calendar.MustDate("2024-03-02"), design.End)
	assert.Equal(t, 2, design.DurationDays)

	review := got["review"]
	assert.Equal(t, calendar.MustDate("2024-03-03"), review.Start)
	assert.Equal(t, calendar.MustDate("2024-03-03"), review.End)

	phase := got["phase"]
	assert.True(t, phase.HasChildren)
	assert.Equal(t, calendar.MustDate("2024-03-01"), phase.Start)
	assert.Equal(t, calendar.MustDate("2024-03-03"), phase.End)

	res := CheckConstraints(review, got, links, opts)
	assert.True(t, res.Valid, res.Message)
	require.NotNil(t, res.MinStart)
	assert.Equal(t, calendar.MustDate("2024-03-03"), *res.MinStart)
}

func TestCalculateDates_LeafFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		task      domain.Task
		opts      Options
		start     string
		end       string
		defaulted bool
	}{
		{"stored range", newTask("a", withStart("2024-05-01"), withEnd("2024-05-09")), projectStart("2024-01-01"), "2024-05-01", "2024-05-09", false},
		{"project start", newTask("a", withDuration(1620)), projectStart("2024-01-01"), "2024-01-01", "2024-01-03", false},
		{"today fallback", newTask("a", withDuration(541)), Options{Today: fixedToday("2024-07-15")}, "2024-07-15", "2024-07-16", true},
		{"zero duration spans one day", newTask("a", withDuration(0), withStart("2024-02-28")), DefaultOptions(), "2024-02-28", "2024-02-28", false},
		{"end before start clamped", newTask("a", withStart("2024-02-10"), withEnd("2024-02-01")), DefaultOptions(), "2024-02-10", "2024-02-10", false},
		{"stored end only", newTask("a", withEnd("2024-01-05")), projectStart("2024-01-01"), "2024-01-01", "2024-01-05", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateDates([]domain.Task{tt.task}, nil, tt.opts)
			require.Len(t, got, 1)
			assert.Equal(t, tt.start, calendar.FormatDate(got[0].Start))
			assert.Equal(t, tt.end, calendar.FormatDate(got[0].End))
			assert.Equal(t, tt.defaulted, got[0].StartDefaulted)
			assert.Equal(t, calendar.DaysBetween(got[0].Start, got[0].End)+1, got[0].DurationDays)
		})
	}
}

func TestCalculateDates_Margins(t *testing.T) {
	tasks := []domain.Task{
		newTask("p", withMargins(2, 3)),
		newTask("c1", withParent("p"), withStart("2024-04-10"), withEnd("2024-04-12")),
		newTask("c2", withParent("p"), withStart("2024-04-11"), withEnd("2024-04-20")),
	}
	got := IndexDated(CalculateDates(tasks, nil, DefaultOptions()))
	assert.Equal(t, "2024-04-08", calendar.FormatDate(got["p"].Start))
	assert.Equal(t, "2024-04-23", calendar.FormatDate(got["p"].End))
	assert.Equal(t, 16, got["p"].DurationDays)
}

func TestCalculateDates_StoredParentDatesAreIgnored(t *testing.T) {
	tasks := []domain.Task{
		newTask("p", withStart("2023-01-01"), withEnd("2025-01-01")),
		newTask("c", withParent("p"), withStart("2024-04-10")),
	}
	got := IndexDated(CalculateDates(tasks, nil, DefaultOptions()))
	assert.Equal(t, "2024-04-10", calendar.FormatDate(got["p"].Start))
	assert.Equal(t, "2024-04-10", calendar.FormatDate(got["p"].End))
}

func TestCalculateDates_UnknownParentBecomesRoot(t *testing.T) {
	tasks := []domain.Task{newTask("orphan", withParent("ghost"), withStart("2024-01-02"))}
	got := CalculateDates(tasks, nil, DefaultOptions())
	require.Len(t, got, 1)
	assert.False(t, got[0].HasChildren)
	assert.Equal(t, "2024-01-02", calendar.FormatDate(got[0].Start))
}

func TestCalculateDates_ParentLoopTerminates(t *testing.T) {
	tasks := []domain.Task{
		newTask("a", withParent("b"), withStart("2024-01-01")),
		newTask("b", withParent("a"), withStart("2024-01-05")),
		newTask("c", withParent("a"), withStart("2024-01-03")),
	}
	got := IndexDated(CalculateDates(tasks, nil, DefaultOptions()))
	require.Len(t, got, 3)
	// a and b lose their looping parents; c still hangs off a.
	assert.True(t, got["a"].HasChildren)
	assert.Equal(t, "2024-01-03", calendar.FormatDate(got["a"].Start))
	assert.False(t, got["b"].HasChildren)
	assert.Equal(t, "2024-01-05", calendar.FormatDate(got["b"].Start))
}

func TestCalculateDates_FragmentedLeafUsesLatestAllocation(t *testing.T) {
	tasks := []domain.Task{newTask("a", withStart("2024-06-01"), withDuration(1080))}
	allocs := []domain.Allocation{
		{TaskID: "a", ResourceID: "r1", StartDate: calendar.MustDate("2024-06-01"), EndDate: calendar.MustDate("2024-06-01")},
		{TaskID: "a", ResourceID: "r1", StartDate: calendar.MustDate("2024-06-05"), EndDate: calendar.MustDate("2024-06-06")},
	}
	got := CalculateDates(tasks, allocs, DefaultOptions())
	require.Len(t, got, 1)
	assert.True(t, got[0].Fragmented)
	assert.Equal(t, "2024-06-06", calendar.FormatDate(got[0].End))
}

func TestCalculateDates_ContiguousAllocationsDoNotExtend(t *testing.T) {
	tasks := []domain.Task{newTask("a", withStart("2024-06-01"), withDuration(540))}
	allocs := []domain.Allocation{
		{TaskID: "a", ResourceID: "r1", StartDate: calendar.MustDate("2024-06-01"), EndDate: calendar.MustDate("2024-06-02")},
		{TaskID: "a", ResourceID: "r2", StartDate: calendar.MustDate("2024-06-03"), EndDate: calendar.MustDate("2024-06-04")},
	}
	got := CalculateDates(tasks, allocs, DefaultOptions())
	assert.False(t, got[0].Fragmented)
	assert.Equal(t, "2024-06-01", calendar.FormatDate(got[0].End))
}

func TestCalculateDates_DeepHierarchy(t *testing.T) {
	const depth = 20000
	tasks := make([]domain.Task, depth)
	tasks[0] = newTask("n0")
	for i := 1; i < depth; i++ {
		tasks[i] = newTask(fmt.Sprintf("n%d", i), withParent(fmt.Sprintf("n%d", i-1)))
	}
	tasks[depth-1].StartDate = ptrDate("2024-09-09")

	got := CalculateDates(tasks, nil, DefaultOptions())
	require.Len(t, got, depth)
	assert.Equal(t, "2024-09-09", calendar.FormatDate(got[0].Start))
}

func TestCalculateDates_Empty(t *testing.T) {
	assert.Empty(t, CalculateDates(nil, nil, DefaultOptions()))
}

// TestCalculateDates_Invariants property-tests random forests: leaves without a
// stored end span DurationDays, and every parent spans exactly its children
// plus margins.
func TestCalculateDates_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := calendar.MustDate("2024-01-01")

	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(30) + 1
		tasks := make([]domain.Task, n)
		for i := range tasks {
			tk := newTask(fmt.Sprintf("t%d", i), withDuration(rng.Intn(5000)))
			if i > 0 && rng.Intn(3) > 0 {
				p := fmt.Sprintf("t%d", rng.Intn(i))
				tk.ParentID = &p
			}
			if rng.Intn(2) == 0 {
				s := calendar.AddDays(base, rng.Intn(120))
				tk.StartDate = &s
			}
			tk.MarginStartDays = rng.Intn(3)
			tk.MarginEndDays = rng.Intn(3)
			tasks[i] = tk
		}

		got := CalculateDates(tasks, nil, projectStart("2024-01-01"))
		require.Len(t, got, n)
		byID := IndexDated(got)

		children := make(map[string][]contract.DatedTask)
		for _, d := range got {
			if d.Task.ParentID != nil {
				children[*d.Task.ParentID] = append(children[*d.Task.ParentID], d)
			}
		}

		for _, d := range got {
			assert.False(t, d.End.Before(d.Start), "trial %d %s: end before start", trial, d.Task.ID)
			kids := children[d.Task.ID]
			if len(kids) == 0 {
				want := calendar.AddDays(d.Start, calendar.DurationDays(d.Task.DurationMin)-1)
				assert.Equal(t, want, d.End, "trial %d leaf %s", trial, d.Task.ID)
				continue
			}
			minStart, maxEnd := kids[0].Start, kids[0].End
			for _, k := range kids[1:] {
				minStart = calendar.Min(minStart, k.Start)
				maxEnd = calendar.Max(maxEnd, k.End)
			}
			assert.Equal(t, calendar.AddDays(minStart, -d.Task.MarginStartDays), byID[d.Task.ID].Start, "trial %d parent %s start", trial, d.Task.ID)
			assert.Equal(t, calendar.AddDays(maxEnd, d.Task.MarginEndDays), byID[d.Task.ID].End, "trial %d parent %s end", trial, d.Task.ID)
		}
	}
}
