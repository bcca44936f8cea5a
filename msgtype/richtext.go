package msgtype

import (
	"regexp"

	"github.com/poiesic/chatvault/core"
)

var (
	linkPattern    = regexp.MustCompile(`https?://[^\s<>"']+`)
	mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_.]+)`)
)

// RichTextHandler handles plain and rich text messages. Its payload
// carries the links and mentions found in the raw content.
type RichTextHandler struct{}

var _ Handler = (*RichTextHandler)(nil)

func (h *RichTextHandler) Type() core.MessageType {
	return core.MessageTypeText
}

func (h *RichTextHandler) CanHandle(rawType string) bool {
	switch rawType {
	case "text", "richtext", "rich_text":
		return true
	}
	return false
}

func (h *RichTextHandler) Extract(msg *core.RawMessage) map[string]any {
	payload := map[string]any{}

	if links := linkPattern.FindAllString(msg.Content, -1); len(links) > 0 {
		payload["links"] = links
	}
	if matches := mentionPattern.FindAllStringSubmatch(msg.Content, -1); len(matches) > 0 {
		mentions := make([]string, len(matches))
		for i, m := range matches {
			mentions[i] = m[1]
		}
		payload["mentions"] = mentions
	}
	return payload
}
