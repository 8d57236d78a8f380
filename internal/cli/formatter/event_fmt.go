package formatter

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/alexanderramin/gantry/internal/events"
)

// FormatEvent renders one received event as a single log-style line.
func FormatEvent(msg events.Message, at time.Time) string {
	payload := string(msg.Data)
	var compact bytes.Buffer
	if err := json.Compact(&compact, msg.Data); err == nil {
		payload = compact.String()
	}
	return Dim(at.Format("15:04:05")) + " " + topicStyle(msg.Topic) + " " + payload
}

func topicStyle(topic string) string {
	switch topic {
	case events.TopicCascadeApplied:
		return StyleYellowBold.Render(topic)
	case events.TopicTaskDeleted, events.TopicDependencyRemoved:
		return StyleRed.Render(topic)
	case events.TopicTaskCreated, events.TopicDependencyAdded, events.TopicProjectImported:
		return StyleGreen.Render(topic)
	default:
		return StyleBlue.Render(topic)
	}
}
