package msgtype

import (
	"encoding/json"

	"github.com/poiesic/chatvault/core"
)

// ContactHandler handles shared contact cards.
type ContactHandler struct{}

var _ Handler = (*ContactHandler)(nil)

type contactContent struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

func (h *ContactHandler) Type() core.MessageType {
	return core.MessageTypeContact
}

func (h *ContactHandler) CanHandle(rawType string) bool {
	switch rawType {
	case "contact", "contact_card":
		return true
	}
	return false
}

func (h *ContactHandler) Extract(msg *core.RawMessage) map[string]any {
	var card contactContent
	if err := json.Unmarshal([]byte(msg.Content), &card); err != nil {
		return map[string]any{}
	}

	payload := map[string]any{}
	if card.Name != "" {
		payload["name"] = card.Name
	}
	if card.Phone != "" {
		payload["phone"] = card.Phone
	}
	if card.Email != "" {
		payload["email"] = card.Email
	}
	return payload
}
