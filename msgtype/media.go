package msgtype

import (
	"path"
	"regexp"

	"github.com/poiesic/chatvault/core"
)

var srcPattern = regexp.MustCompile(`src="([^"]+)"`)

// MediaHandler handles image, video, audio and file messages. Its
// payload declares the media references the transformer lifts into
// attachment entities.
type MediaHandler struct{}

var _ Handler = (*MediaHandler)(nil)

func (h *MediaHandler) Type() core.MessageType {
	return core.MessageTypeMedia
}

func (h *MediaHandler) CanHandle(rawType string) bool {
	switch rawType {
	case "media", "image", "video", "audio", "file", "gif", "sticker", "voice":
		return true
	}
	return false
}

func (h *MediaHandler) Extract(msg *core.RawMessage) map[string]any {
	var media []map[string]any

	for _, att := range msg.Attachments {
		media = append(media, map[string]any{
			"file_name":    att.FileName,
			"content_type": att.ContentType,
			"size_bytes":   att.SizeBytes,
			"location":     att.Location,
		})
	}

	// Inline media embedded in the markup rather than declared as
	// attachments.
	for _, m := range srcPattern.FindAllStringSubmatch(msg.Content, -1) {
		media = append(media, map[string]any{
			"file_name":    path.Base(m[1]),
			"content_type": "",
			"size_bytes":   int64(0),
			"location":     m[1],
		})
	}

	if len(media) == 0 {
		return map[string]any{}
	}
	return map[string]any{"media": media}
}
