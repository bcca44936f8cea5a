package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing when the source export
// carries no natural identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs, which in turn makes
// re-transformation and re-loading of the same export idempotent.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID in the fixed-width decimal form used for
// database keys.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// MessageType tags a message with the structural kind resolved by the
// handler registry.
type MessageType string

const (
	// MessageTypeText represents a plain or rich text message.
	MessageTypeText MessageType = "text"
	// MessageTypeMedia represents an image, video, audio or file message.
	MessageTypeMedia MessageType = "media"
	// MessageTypePoll represents a poll with options and vote counts.
	MessageTypePoll MessageType = "poll"
	// MessageTypeEvent represents a conversation event such as a call or
	// a membership change.
	MessageTypeEvent MessageType = "event"
	// MessageTypeContact represents a shared contact card.
	MessageTypeContact MessageType = "contact"
	// MessageTypeUnknown is the total fallback for records no other
	// handler claims.
	MessageTypeUnknown MessageType = "unknown"
)

// RawExport is the decoded export payload before normalization.
// It is immutable once produced by the extractor and is owned by the
// pipeline run until consumed by the transformer.
type RawExport struct {
	// ExportID references the audit copy in raw storage. The loader
	// anchors the relational rows on it.
	ExportID      string                      `json:"export_id"`
	UserID        string                      `json:"user_id"`
	ExportDate    time.Time                   `json:"export_date"`
	SourceFile    string                      `json:"source_file"`
	Conversations map[string]*RawConversation `json:"conversations"`
}

// RawConversation is a single conversation as it appears in the export.
type RawConversation struct {
	DisplayName string       `json:"display_name"`
	Type        string       `json:"type"` // "group" or "direct"; empty when the export omits it
	Messages    []RawMessage `json:"messages"`
}

// RawMessage is a single message record as it appears in the export.
// Timestamp is kept verbatim; parsing and UTC normalization happen in
// the transformer so a bad value fails the message, not the extraction.
type RawMessage struct {
	ID          string          `json:"id,omitempty"`
	Timestamp   string          `json:"timestamp"`
	SenderID    string          `json:"sender_id"`
	SenderName  string          `json:"sender_name"`
	Content     string          `json:"content"`
	Type        string          `json:"type,omitempty"`
	Edited      bool            `json:"edited,omitempty"`
	Deleted     bool            `json:"deleted,omitempty"`
	Attachments []RawAttachment `json:"attachments,omitempty"`
}

// RawAttachment is a media reference declared on a raw message.
type RawAttachment struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Conversation is a normalized conversation with recomputed aggregates.
//
// Invariants:
//   - FirstMessageTime <= LastMessageTime
//   - MessageCount == len(Messages)
//   - every Message.ConversationID references this conversation
type Conversation struct {
	ConversationID   string         `json:"conversation_id"`
	DisplayName      string         `json:"display_name"`
	Type             string         `json:"type"`
	FirstMessageTime time.Time      `json:"first_message_time"`
	LastMessageTime  time.Time      `json:"last_message_time"`
	MessageCount     int            `json:"message_count"`
	ParticipantCount int            `json:"participant_count"`
	Participants     []*Participant `json:"participants"`
	Messages         []*Message     `json:"messages"`
}

// Participant is a conversation member, identified by the composite key
// (ConversationID, UserID).
type Participant struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	DisplayName    string `json:"display_name"`
	IsSelf         bool   `json:"is_self"`
}

// Message is a normalized message. Payload holds the type-specific
// structured fields extracted by the handler registry.
type Message struct {
	MessageID      string         `json:"message_id"`
	ConversationID string         `json:"conversation_id"`
	Timestamp      time.Time      `json:"timestamp"` // always UTC
	SenderID       string         `json:"sender_id"`
	SenderName     string         `json:"sender_name"`
	RawContent     string         `json:"raw_content"`
	Content        string         `json:"content"` // cleaned
	Type           MessageType    `json:"type"`
	IsEdited       bool           `json:"is_edited"`
	IsDeleted      bool           `json:"is_deleted"`
	Payload        map[string]any `json:"payload,omitempty"`
	Attachments    []*Attachment  `json:"attachments,omitempty"`
}

// Attachment is a file reference linked to its parent message.
type Attachment struct {
	AttachmentID string `json:"attachment_id"`
	MessageID    string `json:"message_id"`
	FileName     string `json:"file_name"`
	ContentType  string `json:"content_type"`
	SizeBytes    int64  `json:"size_bytes"`
	Location     string `json:"location"`
}

// CleanGraph is the normalized entity set produced by the transformer
// and consumed by the loader. After a successful load the persisted
// rows are the source of truth and the graph is discardable.
type CleanGraph struct {
	ExportID      string          `json:"export_id"`
	UserID        string          `json:"user_id"`
	ExportDate    time.Time       `json:"export_date"`
	SourceFile    string          `json:"source_file,omitempty"`
	Conversations []*Conversation `json:"conversations"`
}

// TotalMessages returns the number of messages across all conversations.
func (g *CleanGraph) TotalMessages() int {
	n := 0
	for _, c := range g.Conversations {
		n += len(c.Messages)
	}
	return n
}

// TotalAttachments returns the number of attachments across all conversations.
func (g *CleanGraph) TotalAttachments() int {
	n := 0
	for _, c := range g.Conversations {
		for _, m := range c.Messages {
			n += len(m.Attachments)
		}
	}
	return n
}
