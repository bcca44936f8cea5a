package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/chatvault/core"
)

func TestRawExportSerialization(t *testing.T) {
	raw := &core.RawExport{
		ExportID:   "exp-1",
		UserID:     "u-1",
		ExportDate: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		SourceFile: "export.json",
		Conversations: map[string]*core.RawConversation{
			"conv-1": {
				DisplayName: "Weekend Plans",
				Type:        "group",
				Messages: []core.RawMessage{
					{ID: "m-1", Timestamp: "2024-03-01T10:00:00Z", SenderID: "u-1", Content: "hello",
						Attachments: []core.RawAttachment{{FileName: "cat.jpg", ContentType: "image/jpeg"}}},
				},
			},
		},
	}

	data, err := MarshalRawExport(raw)
	require.NoError(t, err)

	got, err := UnmarshalRawExport(data)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestCleanGraphSerialization(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	graph := &core.CleanGraph{
		ExportID:   "exp-1",
		UserID:     "u-1",
		SourceFile: "export.json",
		Conversations: []*core.Conversation{
			{
				ConversationID:   "conv-1",
				DisplayName:      "Alice, Bob",
				Type:             "direct",
				FirstMessageTime: ts,
				LastMessageTime:  ts,
				MessageCount:     1,
				ParticipantCount: 1,
				Participants: []*core.Participant{
					{ConversationID: "conv-1", UserID: "u-1", DisplayName: "Alice", IsSelf: true},
				},
				Messages: []*core.Message{
					{
						MessageID: "m-1", ConversationID: "conv-1", Timestamp: ts,
						SenderID: "u-1", Content: "photo", Type: core.MessageTypeMedia,
						Payload: map[string]any{"caption": "look"},
						Attachments: []*core.Attachment{
							{AttachmentID: "att-1", MessageID: "m-1", FileName: "cat.jpg", SizeBytes: 2048},
						},
					},
				},
			},
		},
	}

	data, err := MarshalCleanGraph(graph)
	require.NoError(t, err)

	got, err := UnmarshalCleanGraph(data)
	require.NoError(t, err)
	assert.Equal(t, graph, got)
}

func TestRunStateSerialization(t *testing.T) {
	state := &core.RunState{
		RunID:       "run-1",
		Phase:       core.PhaseLoading,
		Status:      core.StatusFailed,
		FailedPhase: core.PhaseLoading,
		ErrorDetail: "conversation conv-2: injected failure",
		SourceFile:  "export.tar",
		StartedAt:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC),
	}

	data, err := MarshalRunState(state)
	require.NoError(t, err)

	got, err := UnmarshalRunState(data)
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestUnmarshalGarbage(t *testing.T) {
	_, err := UnmarshalRawExport([]byte("not json"))
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalCleanGraph([]byte("{truncated"))
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalRunState([]byte(""))
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
