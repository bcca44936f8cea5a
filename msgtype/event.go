package msgtype

import (
	"encoding/json"

	"github.com/poiesic/chatvault/core"
)

// EventHandler handles conversation events: calls and membership
// changes. The payload records the event kind plus whatever details
// the content declares.
type EventHandler struct{}

var _ Handler = (*EventHandler)(nil)

type eventContent struct {
	DurationSeconds int      `json:"duration_seconds"`
	Targets         []string `json:"targets"`
}

func (h *EventHandler) Type() core.MessageType {
	return core.MessageTypeEvent
}

func (h *EventHandler) CanHandle(rawType string) bool {
	switch rawType {
	case "call", "call_ended", "member_added", "member_removed":
		return true
	}
	return false
}

func (h *EventHandler) Extract(msg *core.RawMessage) map[string]any {
	payload := map[string]any{"event": msg.Type}

	var details eventContent
	if err := json.Unmarshal([]byte(msg.Content), &details); err != nil {
		return payload
	}
	if details.DurationSeconds > 0 {
		payload["duration_seconds"] = details.DurationSeconds
	}
	if len(details.Targets) > 0 {
		payload["targets"] = details.Targets
	}
	return payload
}
