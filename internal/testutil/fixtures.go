package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/google/uuid"
)

var (
	testShortIDCounter atomic.Int64
	testSeqCounter     atomic.Int64
)

type ProjectOption func(*domain.Project)

func WithProjectStart(date string) ProjectOption {
	return func(p *domain.Project) {
		d := calendar.MustDate(date)
		p.StartDate = &d
	}
}

func WithoutProjectStart() ProjectOption {
	return func(p *domain.Project) {
		p.StartDate = nil
	}
}

func WithProjectStatus(s domain.ProjectStatus) ProjectOption {
	return func(p *domain.Project) {
		p.Status = s
	}
}

func WithShortID(id string) ProjectOption {
	return func(p *domain.Project) {
		p.ShortID = id
	}
}

func defaultShortID(name string) string {
	upper := strings.ToUpper(name)
	var letters []byte
	for i := 0; i < len(upper) && len(letters) < 3; i++ {
		if upper[i] >= 'A' && upper[i] <= 'Z' {
			letters = append(letters, upper[i])
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	n := testShortIDCounter.Add(1)
	return fmt.Sprintf("%s%02d", string(letters), n)
}

// NewTestProject builds an active project starting 2024-03-01.
func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC().Truncate(time.Second)
	start := calendar.MustDate("2024-03-01")
	p := &domain.Project{
		ID:        uuid.New().String(),
		ShortID:   defaultShortID(name),
		Name:      name,
		StartDate: &start,
		Status:    domain.ProjectActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type TaskOption func(*domain.Task)

func WithParent(id string) TaskOption {
	return func(t *domain.Task) {
		t.ParentID = &id
	}
}

func WithDuration(minutes int) TaskOption {
	return func(t *domain.Task) {
		t.DurationMin = minutes
	}
}

func WithStart(date string) TaskOption {
	return func(t *domain.Task) {
		d := calendar.MustDate(date)
		t.StartDate = &d
	}
}

func WithEnd(date string) TaskOption {
	return func(t *domain.Task) {
		d := calendar.MustDate(date)
		t.EndDate = &d
	}
}

func WithSortOrder(n int) TaskOption {
	return func(t *domain.Task) {
		t.SortOrder = n
	}
}

func WithMargins(start, end int) TaskOption {
	return func(t *domain.Task) {
		t.MarginStartDays = start
		t.MarginEndDays = end
	}
}

func WithProgress(pct int) TaskOption {
	return func(t *domain.Task) {
		t.Progress = pct
	}
}

// NewTestTask builds a one-working-day task with no stored dates.
func NewTestTask(projectID, name string, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC().Truncate(time.Second)
	t := &domain.Task{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		Seq:         int(testSeqCounter.Add(1)),
		Name:        name,
		DurationMin: calendar.MinutesPerWorkingDay,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewTestLink builds a finish-to-start link: taskID waits for predecessorID.
func NewTestLink(taskID, predecessorID string, opts ...func(*domain.Predecessor)) *domain.Predecessor {
	p := &domain.Predecessor{
		TaskID:        taskID,
		PredecessorID: predecessorID,
		Type:          domain.LinkFinishToStart,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func WithLinkType(t domain.LinkType) func(*domain.Predecessor) {
	return func(p *domain.Predecessor) { p.Type = t }
}

func WithLag(days int) func(*domain.Predecessor) {
	return func(p *domain.Predecessor) { p.LagDays = days }
}

func NewTestResource(name string, role domain.ResourceRole) *domain.Resource {
	return &domain.Resource{
		ID:        uuid.New().String(),
		Name:      name,
		Role:      role,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func NewTestAllocation(taskID, resourceID, start, end string) *domain.Allocation {
	return &domain.Allocation{
		ID:           uuid.New().String(),
		TaskID:       taskID,
		ResourceID:   resourceID,
		StartDate:    calendar.MustDate(start),
		EndDate:      calendar.MustDate(end),
		AllocatedMin: calendar.MinutesPerWorkingDay,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}
