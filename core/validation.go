// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// ValidateConversation validates a Conversation according to domain rules.
//
// Validation rules:
//   - ConversationID must not be empty
//   - FirstMessageTime must not be after LastMessageTime
//   - MessageCount must equal the number of attached messages
//   - every attached message must reference this conversation and fall
//     within the [first, last] window
//
// A conversation with zero messages is valid; its time window is the
// zero value and its counts are zero.
func ValidateConversation(conv *Conversation) error {
	if conv == nil {
		return fmt.Errorf("%w: conversation is nil", ErrInvalidConversation)
	}

	if conv.ConversationID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConversation, ErrEmptyConversationID)
	}

	if conv.FirstMessageTime.After(conv.LastMessageTime) {
		return fmt.Errorf("%w: %w", ErrInvalidConversation, ErrTimeWindowInverted)
	}

	if conv.MessageCount != len(conv.Messages) {
		return fmt.Errorf("%w: %w: count %d, messages %d",
			ErrInvalidConversation, ErrMessageCountMismatch, conv.MessageCount, len(conv.Messages))
	}

	for _, msg := range conv.Messages {
		if err := ValidateMessage(msg); err != nil {
			return err
		}
		if msg.ConversationID != conv.ConversationID {
			return fmt.Errorf("%w: %w: message %s", ErrInvalidMessage, ErrDanglingConversationRef, msg.MessageID)
		}
		if msg.Timestamp.Before(conv.FirstMessageTime) || msg.Timestamp.After(conv.LastMessageTime) {
			return fmt.Errorf("%w: %w: message %s", ErrInvalidMessage, ErrTimestampOutsideWindow, msg.MessageID)
		}
	}

	return nil
}

// ValidateMessage validates a Message according to domain rules.
//
// Validation rules:
//   - MessageID must not be empty
//   - ConversationID must not be empty
//
// NOT validated:
//   - Payload (may be empty for any type; extraction is total)
//   - Content (a deleted message may have no content)
func ValidateMessage(msg *Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message is nil", ErrInvalidMessage)
	}

	if msg.MessageID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyMessageID)
	}

	if msg.ConversationID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyConversationID)
	}

	return nil
}

// ValidateGraph validates every conversation in a CleanGraph.
func ValidateGraph(graph *CleanGraph) error {
	if graph == nil {
		return fmt.Errorf("%w: graph is nil", ErrInvalidConversation)
	}
	for _, conv := range graph.Conversations {
		if err := ValidateConversation(conv); err != nil {
			return err
		}
	}
	return nil
}
