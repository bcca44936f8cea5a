package msgtype

import "github.com/poiesic/chatvault/core"

// FallbackHandler matches every raw type so dispatch is total. Its
// payload is always empty.
type FallbackHandler struct{}

var _ Handler = (*FallbackHandler)(nil)

func (h *FallbackHandler) Type() core.MessageType {
	return core.MessageTypeUnknown
}

func (h *FallbackHandler) CanHandle(rawType string) bool {
	return true
}

func (h *FallbackHandler) Extract(msg *core.RawMessage) map[string]any {
	return map[string]any{}
}
