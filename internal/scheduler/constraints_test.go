package scheduler

import (
	"testing"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func index(ds ...contract.DatedTask) map[string]contract.DatedTask {
	return IndexDated(ds)
}

func TestCheckConstraints_FinishToStartWholeDay(t *testing.T) {
	pred := dated("pred", "2024-01-08", "2024-01-10")
	links := []domain.Predecessor{fs("next", "pred")}

	sameDay := dated("next", "2024-01-10", "2024-01-10")
	res := CheckConstraints(sameDay, index(pred, sameDay), links, DefaultOptions())
	assert.False(t, res.Valid)
	require.NotNil(t, res.MinStart)
	assert.Equal(t, "2024-01-11", calendar.FormatDate(*res.MinStart))
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "pred", res.Violations[0].PredecessorID)
	assert.Contains(t, res.Message, `"pred"`)
	assert.Contains(t, res.Message, "2024-01-11")

	nextDay := dated("next", "2024-01-11", "2024-01-11")
	res = CheckConstraints(nextDay, index(pred, nextDay), links, DefaultOptions())
	assert.True(t, res.Valid, res.Message)
	assert.False(t, res.Unconstrained)
	assert.Empty(t, res.Violations)
}

func TestCheckConstraints_LinkTypes(t *testing.T) {
	pred := dated("pred", "2024-03-01", "2024-03-05")
	tests := []struct {
		name     string
		typ      domain.LinkType
		lag      int
		task     contract.DatedTask
		minStart string
		valid    bool
	}{
		{"FS lag 2", domain.LinkFinishToStart, 2, dated("t", "2024-03-07", "2024-03-08"), "2024-03-08", false},
		{"FS negative lag", domain.LinkFinishToStart, -2, dated("t", "2024-03-04", "2024-03-04"), "2024-03-04", true},
		{"SS", domain.LinkStartToStart, 0, dated("t", "2024-03-01", "2024-03-02"), "2024-03-01", true},
		{"SS lag 1 violated", domain.LinkStartToStart, 1, dated("t", "2024-03-01", "2024-03-02"), "2024-03-02", false},
		{"FF keeps span", domain.LinkFinishToFinish, 0, dated("t", "2024-03-01", "2024-03-03"), "2024-03-03", false},
		{"FF satisfied", domain.LinkFinishToFinish, 0, dated("t", "2024-03-04", "2024-03-06"), "2024-03-03", true},
		{"SF", domain.LinkStartToFinish, 0, dated("t", "2024-02-28", "2024-03-01"), "2024-02-28", true},
		{"SF lag 3", domain.LinkStartToFinish, 3, dated("t", "2024-02-28", "2024-03-01"), "2024-03-02", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := []domain.Predecessor{link("t", "pred", tt.typ, tt.lag)}
			res := CheckConstraints(tt.task, index(pred, tt.task), links, DefaultOptions())
			require.NotNil(t, res.MinStart)
			assert.Equal(t, tt.minStart, calendar.FormatDate(*res.MinStart))
			assert.Equal(t, tt.valid, res.Valid, res.Message)
			span := tt.task.DurationDays
			assert.Equal(t, calendar.AddDays(*res.MinStart, span-1), *res.MinEnd)
		})
	}
}

func TestCheckConstraints_BindingIsLatestAcrossAllLinks(t *testing.T) {
	a := dated("a", "2024-01-01", "2024-01-05")
	b := dated("b", "2024-01-01", "2024-01-12")
	c := dated("c", "2024-01-03", "2024-01-03")
	task := dated("t", "2024-01-08", "2024-01-08")
	links := []domain.Predecessor{
		fs("t", "a"),
		fs("t", "b"),
		link("t", "c", domain.LinkStartToStart, 0),
	}

	res := CheckConstraints(task, index(a, b, c, task), links, DefaultOptions())
	assert.False(t, res.Valid)
	require.NotNil(t, res.Binding)
	assert.Equal(t, "b", res.Binding.PredecessorID)
	assert.Equal(t, "2024-01-13", calendar.FormatDate(*res.MinStart))
	// Only b is violated; a and c are satisfied on their own.
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "b", res.Violations[0].PredecessorID)
}

func TestCheckConstraints_Unconstrained(t *testing.T) {
	task := dated("t", "2024-01-08", "2024-01-08")
	res := CheckConstraints(task, index(task), nil, DefaultOptions())
	assert.True(t, res.Valid)
	assert.True(t, res.Unconstrained)
	assert.Nil(t, res.MinStart)
}

func TestCheckConstraints_DanglingPredecessorIgnored(t *testing.T) {
	task := dated("t", "2024-01-08", "2024-01-08")
	links := []domain.Predecessor{fs("t", "deleted")}
	res := CheckConstraints(task, index(task), links, DefaultOptions())
	assert.True(t, res.Valid)
	assert.True(t, res.Unconstrained)
}

func TestCheckConstraints_SameDayChaining(t *testing.T) {
	// A half-day predecessor leaves room on its end day.
	pred := dated("pred", "2024-01-10", "2024-01-10")
	pred.Task.DurationMin = 270
	task := dated("t", "2024-01-10", "2024-01-10")
	links := []domain.Predecessor{fs("t", "pred")}

	opts := DefaultOptions()
	assert.False(t, CheckConstraints(task, index(pred, task), links, opts).Valid)

	opts.SameDayChaining = true
	res := CheckConstraints(task, index(pred, task), links, opts)
	assert.True(t, res.Valid, res.Message)

	// A full-day predecessor still pushes to the next day.
	pred.Task.DurationMin = 540
	res = CheckConstraints(task, index(pred, task), links, opts)
	assert.False(t, res.Valid)
	assert.Equal(t, "2024-01-11", calendar.FormatDate(*res.MinStart))
}

func TestCheckAll(t *testing.T) {
	ds, links := chain(3, "2024-01-01")
	ds[2].Start = calendar.MustDate("2024-01-02")
	ds[2].End = ds[2].Start

	got := CheckAll(ds, links, DefaultOptions())
	require.Len(t, got, 3)
	assert.True(t, got["T0"].Unconstrained)
	assert.True(t, got["T1"].Valid)
	assert.False(t, got["T2"].Valid)
}
