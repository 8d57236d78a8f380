package scheduler

import (
	"testing"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestPendingChanges_SetMergesFields(t *testing.T) {
	p := NewPendingChanges()
	p.Set("a", TaskPatch{StartDate: ptrDate("2024-02-01")})
	p.Set("b", TaskPatch{Progress: intPtr(50)})
	p.Set("a", TaskPatch{DurationMin: intPtr(1080)})

	require.Equal(t, 2, p.Len())
	patches := p.Patches()
	assert.Equal(t, "a", patches[0].TaskID)
	assert.Equal(t, "b", patches[1].TaskID)
	require.NotNil(t, patches[0].StartDate)
	require.NotNil(t, patches[0].DurationMin)
	assert.Equal(t, 1080, *patches[0].DurationMin)
}

func TestPendingChanges_Overlay(t *testing.T) {
	tasks := []domain.Task{
		newTask("a", withStart("2024-01-01"), withEnd("2024-01-01")),
		newTask("b", withStart("2024-01-05")),
	}
	p := NewPendingChanges()
	p.Set("a", TaskPatch{DurationMin: intPtr(1620)})
	p.Set("b", TaskPatch{StartDate: ptrDate("2024-01-09"), Progress: intPtr(30)})

	got := p.Overlay(tasks)
	assert.Equal(t, "2024-01-03", calendar.FormatOptionalDate(got[0].EndDate))
	assert.Equal(t, "2024-01-09", calendar.FormatOptionalDate(got[1].StartDate))
	assert.Equal(t, 30, got[1].Progress)

	// The input is untouched.
	assert.Equal(t, "2024-01-01", calendar.FormatOptionalDate(tasks[0].EndDate))
	assert.Equal(t, 0, tasks[1].Progress)
}

func TestPendingChanges_AddCascade(t *testing.T) {
	p := NewPendingChanges()
	p.AddCascade(contract.CascadeResult{Updates: []contract.ProposedUpdate{
		{TaskID: "x", NewStart: calendar.MustDate("2024-03-01"), NewEnd: calendar.MustDate("2024-03-02")},
		{TaskID: "y", NewStart: calendar.MustDate("2024-03-03"), NewEnd: calendar.MustDate("2024-03-03")},
	}})
	require.Equal(t, 2, p.Len())
	x, ok := p.Get("x")
	require.True(t, ok)
	assert.Equal(t, "2024-03-02", calendar.FormatOptionalDate(x.EndDate))

	p.AddCascade(contract.CascadeResult{Updates: []contract.ProposedUpdate{
		{TaskID: "x", NewStart: calendar.MustDate("2024-03-05"), NewEnd: calendar.MustDate("2024-03-06")},
	}})
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, "x", p.Patches()[0].TaskID)
	assert.Equal(t, "2024-03-06", calendar.FormatOptionalDate(p.Patches()[0].EndDate))
}

func TestPendingChanges_OverlayFeedsCascade(t *testing.T) {
	tasks := []domain.Task{
		newTask("a", withStart("2024-01-01")),
		newTask("b", withStart("2024-01-02")),
	}
	links := []domain.Predecessor{fs("b", "a")}

	p := NewPendingChanges()
	p.Set("a", TaskPatch{StartDate: ptrDate("2024-01-04"), EndDate: ptrDate("2024-01-04")})
	ds := CalculateDates(p.Overlay(tasks), nil, DefaultOptions())

	res := ProposeCascade("a", ds, links, DefaultOptions())
	require.Len(t, res.Updates, 1)
	p.AddCascade(res)

	final := CalculateDates(p.Overlay(tasks), nil, DefaultOptions())
	assert.Equal(t, contract.StatusValid, EvaluateStatuses(final, links, DefaultOptions())["b"])
}
