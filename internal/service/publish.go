package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/alexanderramin/gantry/internal/calendar"
	"github.com/alexanderramin/gantry/internal/contract"
	"github.com/alexanderramin/gantry/internal/domain"
	"github.com/alexanderramin/gantry/internal/events"
)

// eventSink publishes after commit. A failed publish is logged and dropped;
// the write it describes has already succeeded.
type eventSink struct {
	pub    events.Publisher
	logger *slog.Logger
}

func newEventSink(pub events.Publisher, logger *slog.Logger) eventSink {
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	return eventSink{pub: pub, logger: loggerOrDiscard(logger)}
}

func (s eventSink) emit(ctx context.Context, topic string, event any) {
	if err := s.pub.Publish(ctx, topic, event); err != nil {
		s.logger.WarnContext(ctx, "event publish failed", "topic", topic, "error", err)
	}
}

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func taskSnapshot(t *domain.Task) events.TaskSnapshot {
	return events.TaskSnapshot{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		ParentID:    t.ParentID,
		Name:        t.Name,
		StartDate:   calendar.FormatOptionalDate(t.StartDate),
		EndDate:     calendar.FormatOptionalDate(t.EndDate),
		DurationMin: t.DurationMin,
		Progress:    t.Progress,
	}
}

func cascadeEvent(projectID string, res contract.CascadeResult) events.CascadeApplied {
	ev := events.CascadeApplied{
		ProjectID:     projectID,
		ChangedTaskID: res.ChangedTaskID,
		TasksInCycle:  res.TasksInCycle,
	}
	for _, u := range res.Updates {
		ev.Shifted = append(ev.Shifted, events.ShiftedTask{
			TaskID:   u.TaskID,
			OldStart: calendar.FormatDate(u.OldStart),
			OldEnd:   calendar.FormatDate(u.OldEnd),
			NewStart: calendar.FormatDate(u.NewStart),
			NewEnd:   calendar.FormatDate(u.NewEnd),
		})
	}
	return ev
}
