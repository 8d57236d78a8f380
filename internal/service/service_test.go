package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/db"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/alexanderramin/gantry/internal/repository"
	"github.com/alexanderramin/gantry/internal/scheduler"
	"github.com/alexanderramin/gantry/internal/testutil"
	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps every published event in order.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

var testToday = calendar.MustDate("2024-06-03")

func testOptions() scheduler.Options {
	opts := scheduler.DefaultOptions()
	opts.Today = func() time.Time { return testToday }
	return opts
}

type fixture struct {
	db       *sql.DB
	repos    repository.Set
	uow      db.UnitOfWork
	pub      *recordingPublisher
	observer *recordingObserver

	projects ProjectService
	tasks    TaskService
	deps     DependencyService
	schedule ScheduleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	f := &fixture{
		db:       database,
		repos:    repository.NewSQLiteSet(database),
		uow:      testutil.NewTestUoW(database),
		pub:      &recordingPublisher{},
		observer: &recordingObserver{},
	}
	f.projects = NewProjectService(f.repos.Projects, f.observer)
	f.tasks = NewTaskService(f.repos, f.uow, f.pub, testOptions(), nil, f.observer)
	f.deps = NewDependencyService(f.repos.Tasks, f.repos.Predecessors, f.pub, nil, f.observer)
	f.schedule = NewScheduleService(f.repos, f.uow, f.pub, testOptions(), nil, f.observer)
	return f
}

func (f *fixture) project(t *testing.T, opts ...testutil.ProjectOption) *domain.Project {
	t.Helper()
	p := testutil.NewTestProject("Build", opts...)
	require.NoError(t, f.repos.Projects.Create(context.Background(), p))
	return p
}

func (f *fixture) task(t *testing.T, projectID, name string, opts ...testutil.TaskOption) *domain.Task {
	t.Helper()
	task := testutil.NewTestTask(projectID, name, opts...)
	require.NoError(t, f.repos.Tasks.Create(context.Background(), task))
	return task
}

func (f *fixture) link(t *testing.T, taskID, predecessorID string, opts ...func(*domain.Predecessor)) {
	t.Helper()
	require.NoError(t, f.repos.Predecessors.Create(context.Background(), testutil.NewTestLink(taskID, predecessorID, opts...)))
}

func (f *fixture) reload(t *testing.T, id string) *domain.Task {
	t.Helper()
	task, err := f.repos.Tasks.GetByID(context.Background(), id)
	require.NoError(t, err)
	return task
}

// requireDates asserts a task's stored range.
func requireDates(t *testing.T, task *domain.Task, start, end string) {
	t.Helper()
	require.NotNil(t, task.StartDate, "%s start", task.Name)
	require.NotNil(t, task.EndDate, "%s end", task.Name)
	require.Equal(t, start, calendar.FormatDate(*task.StartDate), "%s start", task.Name)
	require.Equal(t, end, calendar.FormatDate(*task.EndDate), "%s end", task.Name)
}

func datePtr(s string) *time.Time {
	d := calendar.MustDate(s)
	return &d
}

func intPtr(n int) *int { return &n }
