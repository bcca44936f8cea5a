package transform

import "errors"

var (
	// ErrRegistryRequired is returned when a handler registry is not provided.
	ErrRegistryRequired = errors.New("handler registry required")

	// ErrNilExport indicates Transform was called without a raw export.
	ErrNilExport = errors.New("raw export required")

	// ErrTimestamp indicates a message timestamp could not be parsed.
	// It fails the individual message, never the run.
	ErrTimestamp = errors.New("unparseable timestamp")
)

// WarningKind classifies recoverable per-message failures.
type WarningKind string

// WarningTimestamp marks a message dropped for an unparseable timestamp.
const WarningTimestamp WarningKind = "timestamp_error"

// Warning records a recoverable failure on an individual message.
// The message is skipped; its conversation continues.
type Warning struct {
	ConversationID string      `json:"conversation_id"`
	MessageIndex   int         `json:"message_index"`
	Kind           WarningKind `json:"kind"`
	Detail         string      `json:"detail"`
}
