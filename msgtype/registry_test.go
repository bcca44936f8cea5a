package msgtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/chatvault/core"
)

func TestDispatchResolvesExactlyOneHandler(t *testing.T) {
	registry := NewRegistry()

	// Every raw type tag a built-in handler claims must be claimed by
	// exactly one handler, so registration order never matters for them.
	tags := []string{
		"text", "richtext", "rich_text",
		"media", "image", "video", "audio", "file", "gif", "sticker", "voice",
		"poll",
		"call", "call_ended", "member_added", "member_removed",
		"contact", "contact_card",
	}
	for _, tag := range tags {
		claimed := 0
		for _, h := range registry.Handlers() {
			if h.CanHandle(tag) {
				claimed++
			}
		}
		assert.Equalf(t, 1, claimed, "tag %q claimed by %d handlers", tag, claimed)
	}
}

func TestDispatchIsTotal(t *testing.T) {
	registry := NewRegistry()

	msg := &core.RawMessage{Type: "something-nobody-registered", Content: "???"}
	msgType, payload := registry.Dispatch(msg, core.MessageTypeUnknown)
	assert.Equal(t, core.MessageTypeUnknown, msgType)
	assert.Empty(t, payload)
	require.NotNil(t, payload)
}

func TestDispatchUsesHintForGenericTypes(t *testing.T) {
	registry := NewRegistry()

	tests := []struct {
		name    string
		rawType string
		hint    core.MessageType
		want    core.MessageType
	}{
		{"empty type takes hint", "", core.MessageTypeMedia, core.MessageTypeMedia},
		{"message tag takes hint", "message", core.MessageTypeText, core.MessageTypeText},
		{"generic tag takes hint", "generic", core.MessageTypeText, core.MessageTypeText},
		{"explicit type wins over hint", "poll", core.MessageTypeText, core.MessageTypePoll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &core.RawMessage{Type: tt.rawType}
			got, _ := registry.Dispatch(msg, tt.hint)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRichTextExtractsLinksAndMentions(t *testing.T) {
	registry := NewRegistry()

	msg := &core.RawMessage{
		Type:    "text",
		Content: "see https://example.com/a and ping @alice or @bob.smith",
	}
	msgType, payload := registry.Dispatch(msg, core.MessageTypeText)
	require.Equal(t, core.MessageTypeText, msgType)
	assert.Equal(t, []string{"https://example.com/a"}, payload["links"])
	assert.Equal(t, []string{"alice", "bob.smith"}, payload["mentions"])
}

func TestMediaExtractsAttachmentsAndInlineSources(t *testing.T) {
	registry := NewRegistry()

	msg := &core.RawMessage{
		Type:    "image",
		Content: `<img src="https://cdn.example.com/photos/cat.jpg">`,
		Attachments: []core.RawAttachment{
			{FileName: "dog.png", ContentType: "image/png", SizeBytes: 1024, Location: "media/dog.png"},
		},
	}
	msgType, payload := registry.Dispatch(msg, core.MessageTypeText)
	require.Equal(t, core.MessageTypeMedia, msgType)

	media, ok := payload["media"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, media, 2)
	assert.Equal(t, "dog.png", media[0]["file_name"])
	assert.Equal(t, "image/png", media[0]["content_type"])
	assert.Equal(t, "cat.jpg", media[1]["file_name"])
	assert.Equal(t, "https://cdn.example.com/photos/cat.jpg", media[1]["location"])
}

func TestPollExtraction(t *testing.T) {
	registry := NewRegistry()

	msg := &core.RawMessage{
		Type:    "poll",
		Content: `{"question":"lunch?","options":[{"text":"pizza","votes":3},{"text":"sushi","votes":5}]}`,
	}
	msgType, payload := registry.Dispatch(msg, core.MessageTypeText)
	require.Equal(t, core.MessageTypePoll, msgType)
	assert.Equal(t, "lunch?", payload["question"])
	assert.Equal(t, 8, payload["total_votes"])

	options, ok := payload["options"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, options, 2)
	assert.Equal(t, "pizza", options[0]["text"])
}

func TestPollMalformedContentYieldsEmptyPayload(t *testing.T) {
	registry := NewRegistry()

	msg := &core.RawMessage{Type: "poll", Content: "{not json"}
	msgType, payload := registry.Dispatch(msg, core.MessageTypeText)
	assert.Equal(t, core.MessageTypePoll, msgType)
	assert.Empty(t, payload)
	require.NotNil(t, payload)
}

func TestEventExtraction(t *testing.T) {
	registry := NewRegistry()

	msg := &core.RawMessage{
		Type:    "call_ended",
		Content: `{"duration_seconds":245}`,
	}
	msgType, payload := registry.Dispatch(msg, core.MessageTypeText)
	require.Equal(t, core.MessageTypeEvent, msgType)
	assert.Equal(t, "call_ended", payload["event"])
	assert.EqualValues(t, 245, payload["duration_seconds"])
}

func TestContactExtraction(t *testing.T) {
	registry := NewRegistry()

	msg := &core.RawMessage{
		Type:    "contact",
		Content: `{"name":"Carol","phone":"+15550100","email":"carol@example.com"}`,
	}
	msgType, payload := registry.Dispatch(msg, core.MessageTypeText)
	require.Equal(t, core.MessageTypeContact, msgType)
	assert.Equal(t, "Carol", payload["name"])
	assert.Equal(t, "+15550100", payload["phone"])
	assert.Equal(t, "carol@example.com", payload["email"])
}

type stickerHandler struct{}

func (h *stickerHandler) Type() core.MessageType      { return core.MessageType("sticker") }
func (h *stickerHandler) CanHandle(rawType string) bool { return rawType == "custom_sticker" }
func (h *stickerHandler) Extract(msg *core.RawMessage) map[string]any {
	return map[string]any{"sticker_id": msg.Content}
}

func TestRegisterCustomHandler(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stickerHandler{})

	msg := &core.RawMessage{Type: "custom_sticker", Content: "pack-7"}
	msgType, payload := registry.Dispatch(msg, core.MessageTypeUnknown)
	assert.Equal(t, core.MessageType("sticker"), msgType)
	assert.Equal(t, "pack-7", payload["sticker_id"])

	// Fallback is still behind the custom handler.
	msgType, _ = registry.Dispatch(&core.RawMessage{Type: "still-unknown"}, core.MessageTypeUnknown)
	assert.Equal(t, core.MessageTypeUnknown, msgType)
}
