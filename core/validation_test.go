package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateConversation(t *testing.T) {
	early := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	late := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	valid := func() *Conversation {
		return &Conversation{
			ConversationID:   "conv-1",
			DisplayName:      "Alice, Bob",
			Type:             "direct",
			FirstMessageTime: early,
			LastMessageTime:  late,
			MessageCount:     2,
			Messages: []*Message{
				{MessageID: "m1", ConversationID: "conv-1", Timestamp: early, SenderID: "u1"},
				{MessageID: "m2", ConversationID: "conv-1", Timestamp: late, SenderID: "u2"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Conversation)
		wantErr error
	}{
		{
			name:    "valid conversation",
			mutate:  func(c *Conversation) {},
			wantErr: nil,
		},
		{
			name: "empty conversation is valid",
			mutate: func(c *Conversation) {
				c.Messages = nil
				c.MessageCount = 0
				c.FirstMessageTime = time.Time{}
				c.LastMessageTime = time.Time{}
			},
			wantErr: nil,
		},
		{
			name:    "missing conversation id",
			mutate:  func(c *Conversation) { c.ConversationID = "" },
			wantErr: ErrEmptyConversationID,
		},
		{
			name: "inverted time window",
			mutate: func(c *Conversation) {
				c.FirstMessageTime = late
				c.LastMessageTime = early
			},
			wantErr: ErrTimeWindowInverted,
		},
		{
			name:    "message count mismatch",
			mutate:  func(c *Conversation) { c.MessageCount = 5 },
			wantErr: ErrMessageCountMismatch,
		},
		{
			name: "message before window",
			mutate: func(c *Conversation) {
				c.Messages[0].Timestamp = early.Add(-time.Hour)
			},
			wantErr: ErrTimestampOutsideWindow,
		},
		{
			name: "message after window",
			mutate: func(c *Conversation) {
				c.Messages[1].Timestamp = late.Add(time.Hour)
			},
			wantErr: ErrTimestampOutsideWindow,
		},
		{
			name: "message referencing another conversation",
			mutate: func(c *Conversation) {
				c.Messages[1].ConversationID = "conv-other"
			},
			wantErr: ErrDanglingConversationRef,
		},
		{
			name: "message missing id",
			mutate: func(c *Conversation) {
				c.Messages[0].MessageID = ""
			},
			wantErr: ErrEmptyMessageID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := valid()
			tt.mutate(conv)

			err := ValidateConversation(conv)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateGraph(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	graph := &CleanGraph{
		ExportID: "exp-1",
		Conversations: []*Conversation{
			{
				ConversationID:   "a",
				FirstMessageTime: ts,
				LastMessageTime:  ts,
				MessageCount:     1,
				Messages: []*Message{
					{MessageID: "m1", ConversationID: "a", Timestamp: ts, SenderID: "u1"},
				},
			},
			{ConversationID: "b"},
		},
	}

	if err := ValidateGraph(graph); err != nil {
		t.Fatalf("expected valid graph, got %v", err)
	}

	graph.Conversations[1].ConversationID = ""
	if err := ValidateGraph(graph); !errors.Is(err, ErrEmptyConversationID) {
		t.Fatalf("expected ErrEmptyConversationID, got %v", err)
	}
}
