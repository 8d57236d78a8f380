package scheduler

import (
	"fmt"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
)

type taskOpt func(*domain.Task)

func withStart(s string) taskOpt {
	return func(t *domain.Task) {
		d := calendar.MustDate(s)
		t.StartDate = &d
	}
}

func withEnd(s string) taskOpt {
	return func(t *domain.Task) {
		d := calendar.MustDate(s)
		t.EndDate = &d
	}
}

func withDuration(min int) taskOpt {
	return func(t *domain.Task) { t.DurationMin = min }
}

func withParent(id string) taskOpt {
	return func(t *domain.Task) { t.ParentID = &id }
}

func withMargins(start, end int) taskOpt {
	return func(t *domain.Task) {
		t.MarginStartDays = start
		t.MarginEndDays = end
	}
}

func withSort(order int) taskOpt {
	return func(t *domain.Task) { t.SortOrder = order }
}

func newTask(id string, opts ...taskOpt) domain.Task {
	t := domain.Task{ID: id, ProjectID: "p1", Name: id, DurationMin: calendar.MinutesPerWorkingDay}
	for _, o := range opts {
		o(&t)
	}
	return t
}

func link(task, pred string, typ domain.LinkType, lag int) domain.Predecessor {
	return domain.Predecessor{TaskID: task, PredecessorID: pred, Type: typ, LagDays: lag}
}

func fs(task, pred string) domain.Predecessor {
	return link(task, pred, domain.LinkFinishToStart, 0)
}

// dated builds a DatedTask directly from literal dates.
func dated(id, start, end string) contract.DatedTask {
	s, e := calendar.MustDate(start), calendar.MustDate(end)
	return contract.DatedTask{
		Task:         domain.Task{ID: id, Name: id, DurationMin: (calendar.DaysBetween(s, e) + 1) * calendar.MinutesPerWorkingDay},
		Start:        s,
		End:          e,
		DurationDays: calendar.DaysBetween(s, e) + 1,
	}
}

func fixedToday(s string) func() time.Time {
	d := calendar.MustDate(s)
	return func() time.Time { return d }
}

func projectStart(s string) Options {
	o := DefaultOptions()
	d := calendar.MustDate(s)
	o.ProjectStart = &d
	return o
}

// chain returns n one-day tasks T0..Tn-1 laid end to end from start, each
// finish-to-start on the previous one.
func chain(n int, start string) ([]contract.DatedTask, []domain.Predecessor) {
	base := calendar.MustDate(start)
	var tasks []contract.DatedTask
	var links []domain.Predecessor
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("T%d", i)
		d := calendar.AddDays(base, i)
		tasks = append(tasks, contract.DatedTask{
			Task:         domain.Task{ID: id, Name: id, DurationMin: calendar.MinutesPerWorkingDay},
			Start:        d,
			End:          d,
			DurationDays: 1,
		})
		if i > 0 {
			links = append(links, fs(id, fmt.Sprintf("T%d", i-1)))
		}
	}
	return tasks, links
}

func ptrDate(s string) *time.Time {
	d := calendar.MustDate(s)
	return &d
}
