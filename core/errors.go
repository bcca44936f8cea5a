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

import "errors"

// Domain validation errors
var (
	// ErrInvalidConversation indicates a Conversation failed validation.
	ErrInvalidConversation = errors.New("invalid conversation")

	// ErrInvalidMessage indicates a Message failed validation.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrEmptyConversationID indicates the ConversationID field is empty.
	ErrEmptyConversationID = errors.New("conversation id cannot be empty")

	// ErrEmptyMessageID indicates the MessageID field is empty.
	ErrEmptyMessageID = errors.New("message id cannot be empty")

	// ErrTimeWindowInverted indicates FirstMessageTime is after LastMessageTime.
	ErrTimeWindowInverted = errors.New("first message time is after last message time")

	// ErrMessageCountMismatch indicates MessageCount disagrees with the
	// number of attached Message entities.
	ErrMessageCountMismatch = errors.New("message count does not match messages")

	// ErrTimestampOutsideWindow indicates a message timestamp falls outside
	// its conversation's [first, last] window.
	ErrTimestampOutsideWindow = errors.New("timestamp outside conversation window")

	// ErrDanglingConversationRef indicates a message references a
	// conversation other than the one that owns it.
	ErrDanglingConversationRef = errors.New("message references another conversation")
)
