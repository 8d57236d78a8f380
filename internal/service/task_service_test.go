package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/alexanderramin/gantry/internal/events"
	"github.com/alexanderramin/gantry/internal/repository"
	"github.com/alexanderramin/gantry/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireCode(t *testing.T, err error, code contract.ScheduleErrorCode) {
	t.Helper()
	var schedErr *contract.ScheduleError
	require.True(t, errors.As(err, &schedErr), "expected a schedule error, got %v", err)
	assert.Equal(t, code, schedErr.Code)
}

func TestTaskCreate_NumbersWithinProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t)
	other := f.project(t)

	first := &domain.Task{ProjectID: p.ID, Name: "  Survey ", DurationMin: 540}
	second := &domain.Task{ProjectID: p.ID, Name: "Dig", DurationMin: 1080, StartDate: datePtr("2024-03-04")}
	elsewhere := &domain.Task{ProjectID: other.ID, Name: "Elsewhere", DurationMin: 540}
	require.NoError(t, f.tasks.Create(ctx, first))
	require.NoError(t, f.tasks.Create(ctx, second))
	require.NoError(t, f.tasks.Create(ctx, elsewhere))

	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, "Survey", first.Name)
	assert.Equal(t, 2, second.Seq)
	assert.Equal(t, 1, elsewhere.Seq)
	assert.NotEmpty(t, first.ID)

	requireDates(t, f.reload(t, second.ID), "2024-03-04", "2024-03-05")

	got, err := f.tasks.GetBySeq(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	assert.Equal(t, []string{events.TopicTaskCreated, events.TopicTaskCreated, events.TopicTaskCreated}, f.pub.Topics())
}

func TestTaskCreate_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t)
	other := f.project(t)
	foreignParent := f.task(t, other.ID, "Foreign")

	err := f.tasks.Create(ctx, &domain.Task{ProjectID: p.ID, Name: "   "})
	requireCode(t, err, contract.ErrInvalidEdit)

	err = f.tasks.Create(ctx, &domain.Task{ProjectID: p.ID, Name: "Bad", Progress: 101})
	requireCode(t, err, contract.ErrInvalidEdit)

	err = f.tasks.Create(ctx, &domain.Task{ProjectID: p.ID, Name: "Orphan", ParentID: &foreignParent.ID})
	requireCode(t, err, contract.ErrInvalidEdit)

	missing := "missing"
	err = f.tasks.Create(ctx, &domain.Task{ProjectID: p.ID, Name: "Orphan", ParentID: &missing})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	tasks, err := f.tasks.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskCreate_ChildSyncsParentDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t)

	parent := &domain.Task{ProjectID: p.ID, Name: "Phase", DurationMin: 540}
	require.NoError(t, f.tasks.Create(ctx, parent))
	child := &domain.Task{ProjectID: p.ID, Name: "Pour", ParentID: &parent.ID, DurationMin: 1080, StartDate: datePtr("2024-03-11")}
	require.NoError(t, f.tasks.Create(ctx, child))

	requireDates(t, f.reload(t, parent.ID), "2024-03-11", "2024-03-12")
}

func TestTaskMove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t)
	other := f.project(t)
	top := f.task(t, p.ID, "Top")
	mid := f.task(t, p.ID, "Mid", testutil.WithParent(top.ID))
	leaf := f.task(t, p.ID, "Leaf", testutil.WithParent(mid.ID))
	loose := f.task(t, p.ID, "Loose")
	stranger := f.task(t, other.ID, "Stranger")

	requireCode(t, f.tasks.Move(ctx, top.ID, &top.ID), contract.ErrParentLoop)
	requireCode(t, f.tasks.Move(ctx, top.ID, &leaf.ID), contract.ErrParentLoop)
	requireCode(t, f.tasks.Move(ctx, loose.ID, &stranger.ID), contract.ErrInvalidEdit)

	require.NoError(t, f.tasks.Move(ctx, loose.ID, &mid.ID))
	moved := f.reload(t, loose.ID)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, mid.ID, *moved.ParentID)

	require.NoError(t, f.tasks.Move(ctx, leaf.ID, nil))
	assert.Nil(t, f.reload(t, leaf.ID).ParentID)
}

func TestTaskRenameAndLayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t)
	task := f.task(t, p.ID, "Draft")

	requireCode(t, f.tasks.Rename(ctx, task.ID, "  "), contract.ErrInvalidEdit)
	require.NoError(t, f.tasks.Rename(ctx, task.ID, "Final"))
	assert.Equal(t, "Final", f.reload(t, task.ID).Name)

	requireCode(t, f.tasks.SetLayout(ctx, task.ID, 0, -1, 0), contract.ErrInvalidEdit)
	require.NoError(t, f.tasks.SetLayout(ctx, task.ID, 7, 1, 2))
	stored := f.reload(t, task.ID)
	assert.Equal(t, 7, stored.SortOrder)
	assert.Equal(t, 1, stored.MarginStartDays)
	assert.Equal(t, 2, stored.MarginEndDays)

	err := f.tasks.Rename(ctx, "missing", "x")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTaskDelete_RemovesSubtreeAndResyncs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t)

	parent := &domain.Task{ProjectID: p.ID, Name: "Phase", DurationMin: 540}
	require.NoError(t, f.tasks.Create(ctx, parent))
	group := &domain.Task{ProjectID: p.ID, Name: "Group", ParentID: &parent.ID, DurationMin: 540}
	require.NoError(t, f.tasks.Create(ctx, group))
	early := &domain.Task{ProjectID: p.ID, Name: "Early", ParentID: &group.ID, DurationMin: 540, StartDate: datePtr("2024-03-01")}
	require.NoError(t, f.tasks.Create(ctx, early))
	late := &domain.Task{ProjectID: p.ID, Name: "Late", ParentID: &parent.ID, DurationMin: 540, StartDate: datePtr("2024-03-10")}
	require.NoError(t, f.tasks.Create(ctx, late))
	requireDates(t, f.reload(t, parent.ID), "2024-03-01", "2024-03-10")

	require.NoError(t, f.tasks.Delete(ctx, group.ID))

	_, err := f.tasks.GetByID(ctx, early.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	requireDates(t, f.reload(t, parent.ID), "2024-03-10", "2024-03-10")

	topics := f.pub.Topics()
	assert.Equal(t, events.TopicTaskDeleted, topics[len(topics)-1])
	assert.ErrorIs(t, f.tasks.Delete(ctx, group.ID), repository.ErrNotFound)
}

func TestTaskService_ObservesWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t)

	task := &domain.Task{ProjectID: p.ID, Name: "Observed", DurationMin: 540}
	require.NoError(t, f.tasks.Create(ctx, task))
	require.NoError(t, f.tasks.Rename(ctx, task.ID, "Renamed"))
	require.Error(t, f.tasks.Move(ctx, task.ID, &task.ID))
	require.NoError(t, f.tasks.SetLayout(ctx, task.ID, 3, 0, 0))
	require.NoError(t, f.tasks.Delete(ctx, task.ID))

	var names []string
	for _, ev := range f.observer.events {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{"create-task", "rename-task", "move-task", "layout-task", "delete-task"}, names)
	assert.False(t, f.observer.events[2].Success)
	assert.Equal(t, task.ID, f.observer.events[4].Fields["task_id"])
}
