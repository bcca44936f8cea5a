package load

import "errors"

var (
	// ErrDatabaseRequired is returned when a database handle is not provided.
	ErrDatabaseRequired = errors.New("database required")
)

// ConversationError records a per-conversation load failure. The
// conversation's transaction rolled back; the rest of the run
// continued.
type ConversationError struct {
	ConversationID string `json:"conversation_id"`
	Detail         string `json:"detail"`
}

func (e ConversationError) Error() string {
	return "conversation " + e.ConversationID + ": " + e.Detail
}
