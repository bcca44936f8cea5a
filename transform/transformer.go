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

// Package transform converts a raw export into the clean entity graph.
//
// Individual malformed messages are dropped with a recorded warning;
// conversation aggregates are recomputed from the accepted messages
// only, so the invariants hold even when messages are dropped. A
// conversation left with zero valid messages is retained with zero
// counts for auditability.
package transform

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/chatvault/core"
	"github.com/poiesic/chatvault/msgtype"
	"github.com/poiesic/chatvault/normalize"
)

// Transformer converts RawExport values into CleanGraph values.
type Transformer struct {
	registry *msgtype.Registry
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a Transformer.
type Option func(*Transformer) error

// WithPoolSize enables parallel processing of independent
// conversations across a bounded worker pool of the given size.
// Default is serial processing.
func WithPoolSize(size int) Option {
	return func(t *Transformer) error {
		if size < 2 {
			return nil
		}
		if t.pool != nil {
			t.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		t.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transformer) error {
		if logger == nil {
			logger = slog.Default()
		}
		t.logger = logger
		return nil
	}
}

// New creates a Transformer backed by the given handler registry.
func New(registry *msgtype.Registry, opts ...Option) (*Transformer, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	t := &Transformer{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			t.Release()
			return nil, err
		}
	}
	return t, nil
}

// Release releases the worker pool, if any.
// The transformer should not be used after calling Release.
func (t *Transformer) Release() {
	if t.pool != nil {
		t.pool.Release()
	}
}

// Transform converts a raw export into a clean graph. currentUserName
// identifies the exporting user so their participant rows carry the
// is-self flag.
//
// Output ordering is deterministic for identical input: conversations
// sort by id, messages by (timestamp, id), participants by user id.
func (t *Transformer) Transform(ctx context.Context, raw *core.RawExport, currentUserName string) (*core.CleanGraph, []Warning, error) {
	if raw == nil || raw.Conversations == nil {
		return nil, nil, ErrNilExport
	}

	graph := &core.CleanGraph{
		ExportID:   raw.ExportID,
		UserID:     raw.UserID,
		ExportDate: raw.ExportDate,
		SourceFile: raw.SourceFile,
	}

	var (
		mu       sync.Mutex
		warnings []Warning
	)
	collect := func(conv *core.Conversation, convWarnings []Warning) {
		mu.Lock()
		defer mu.Unlock()
		graph.Conversations = append(graph.Conversations, conv)
		warnings = append(warnings, convWarnings...)
	}

	if t.pool != nil {
		var (
			wg        sync.WaitGroup
			submitErr error
		)
		for convID, rawConv := range raw.Conversations {
			wg.Add(1)
			convID, rawConv := convID, rawConv
			err := t.pool.Submit(func() {
				defer wg.Done()
				collect(t.transformConversation(convID, rawConv, raw.UserID, currentUserName))
			})
			if err != nil {
				wg.Done()
				submitErr = err
				break
			}
		}
		// In-flight workers must finish before this call returns;
		// they append to the graph under mu.
		wg.Wait()
		if submitErr != nil {
			return nil, nil, submitErr
		}
	} else {
		for convID, rawConv := range raw.Conversations {
			collect(t.transformConversation(convID, rawConv, raw.UserID, currentUserName))
		}
	}

	slices.SortFunc(graph.Conversations, func(a, b *core.Conversation) int {
		return cmp.Compare(a.ConversationID, b.ConversationID)
	})
	slices.SortFunc(warnings, func(a, b Warning) int {
		if c := cmp.Compare(a.ConversationID, b.ConversationID); c != 0 {
			return c
		}
		return cmp.Compare(a.MessageIndex, b.MessageIndex)
	})

	t.logger.Info("transform complete",
		"conversations", len(graph.Conversations),
		"messages", graph.TotalMessages(),
		"dropped", len(warnings))
	return graph, warnings, nil
}

// transformConversation builds one clean conversation. Per-message
// failures become warnings; the conversation never aborts.
func (t *Transformer) transformConversation(convID string, rawConv *core.RawConversation, exportUserID, currentUserName string) (*core.Conversation, []Warning) {
	conv := &core.Conversation{
		ConversationID: convID,
		DisplayName:    rawConv.DisplayName,
		Type:           rawConv.Type,
	}

	var warnings []Warning
	participants := map[string]*core.Participant{}
	hashSeen := map[string]int{}

	for i, rawMsg := range rawConv.Messages {
		ts, err := parseTimestamp(rawMsg.Timestamp)
		if err != nil {
			t.logger.Warn("dropping message with unparseable timestamp",
				"conversation", convID, "index", i, "value", rawMsg.Timestamp)
			warnings = append(warnings, Warning{
				ConversationID: convID,
				MessageIndex:   i,
				Kind:           WarningTimestamp,
				Detail:         fmt.Sprintf("%v: %q", err, rawMsg.Timestamp),
			})
			continue
		}

		cleaned, hint := normalize.Normalize(rawMsg.Content)
		msgType, payload := t.registry.Dispatch(&rawConv.Messages[i], hint)

		msg := &core.Message{
			MessageID:      messageID(convID, &rawMsg, ts, hashSeen),
			ConversationID: convID,
			Timestamp:      ts,
			SenderID:       rawMsg.SenderID,
			SenderName:     rawMsg.SenderName,
			RawContent:     rawMsg.Content,
			Content:        cleaned,
			Type:           msgType,
			IsEdited:       rawMsg.Edited,
			IsDeleted:      rawMsg.Deleted,
			Payload:        payload,
		}
		msg.Attachments = liftAttachments(msg, &rawConv.Messages[i])
		conv.Messages = append(conv.Messages, msg)

		if p, ok := participants[rawMsg.SenderID]; ok {
			if p.DisplayName == "" {
				p.DisplayName = rawMsg.SenderName
			}
		} else {
			participants[rawMsg.SenderID] = &core.Participant{
				ConversationID: convID,
				UserID:         rawMsg.SenderID,
				DisplayName:    rawMsg.SenderName,
				IsSelf:         rawMsg.SenderID == exportUserID || (currentUserName != "" && rawMsg.SenderName == currentUserName),
			}
		}
	}

	for _, p := range participants {
		conv.Participants = append(conv.Participants, p)
	}
	slices.SortFunc(conv.Participants, func(a, b *core.Participant) int {
		return cmp.Compare(a.UserID, b.UserID)
	})
	slices.SortFunc(conv.Messages, func(a, b *core.Message) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.MessageID, b.MessageID)
	})

	// Aggregates come from the accepted messages only, so dropping a
	// malformed message keeps the invariants intact.
	conv.MessageCount = len(conv.Messages)
	conv.ParticipantCount = len(conv.Participants)
	if len(conv.Messages) > 0 {
		conv.FirstMessageTime = conv.Messages[0].Timestamp
		conv.LastMessageTime = conv.Messages[len(conv.Messages)-1].Timestamp
	}

	if conv.DisplayName == "" {
		conv.DisplayName = participantListName(conv.Participants)
	}
	if conv.Type == "" {
		if conv.ParticipantCount > 2 {
			conv.Type = "group"
		} else {
			conv.Type = "direct"
		}
	}

	return conv, warnings
}

// messageID returns the natural message id, or a deterministic
// content-hash id so re-transformation yields identical output.
// Byte-identical duplicates in the same conversation get an ordinal
// suffix in the seed: each occurrence keeps its own identity, so the
// loaded row count matches the message count.
func messageID(convID string, msg *core.RawMessage, ts time.Time, seen map[string]int) string {
	if msg.ID != "" {
		return msg.ID
	}
	seed := convID + "|" + ts.Format(time.RFC3339Nano) + "|" + msg.SenderID + "|" + msg.Content
	n := seen[seed]
	seen[seed] = n + 1
	if n > 0 {
		seed += "|" + strconv.Itoa(n)
	}
	return core.IDFromContent(seed).String()
}

// liftAttachments materializes attachment entities from the media
// references the handler declared in the structured payload. When the
// handler lifted nothing, references declared on the raw record are
// kept directly: attachments are independent of message type.
func liftAttachments(msg *core.Message, raw *core.RawMessage) []*core.Attachment {
	refs, ok := msg.Payload["media"].([]map[string]any)
	if !ok || len(refs) == 0 {
		return declaredAttachments(msg, raw)
	}

	attachments := make([]*core.Attachment, 0, len(refs))
	for i, ref := range refs {
		att := &core.Attachment{
			MessageID: msg.MessageID,
		}
		att.FileName, _ = ref["file_name"].(string)
		att.ContentType, _ = ref["content_type"].(string)
		att.Location, _ = ref["location"].(string)
		att.SizeBytes, _ = ref["size_bytes"].(int64)

		seed := msg.MessageID + "|" + strconv.Itoa(i) + "|" + att.Location + "|" + att.FileName
		att.AttachmentID = core.IDFromContent(seed).String()
		attachments = append(attachments, att)
	}
	return attachments
}

// declaredAttachments builds attachment entities straight from the raw
// record's declared references.
func declaredAttachments(msg *core.Message, raw *core.RawMessage) []*core.Attachment {
	if len(raw.Attachments) == 0 {
		return nil
	}

	attachments := make([]*core.Attachment, 0, len(raw.Attachments))
	for i, ref := range raw.Attachments {
		seed := msg.MessageID + "|" + strconv.Itoa(i) + "|" + ref.Location + "|" + ref.FileName
		attachments = append(attachments, &core.Attachment{
			AttachmentID: core.IDFromContent(seed).String(),
			MessageID:    msg.MessageID,
			FileName:     ref.FileName,
			ContentType:  ref.ContentType,
			SizeBytes:    ref.SizeBytes,
			Location:     ref.Location,
		})
	}
	return attachments
}

// participantListName derives a conversation display name from its
// participants when the export carries none.
func participantListName(participants []*core.Participant) string {
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		name := p.DisplayName
		if name == "" {
			name = p.UserID
		}
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "(empty conversation)"
	}
	return strings.Join(names, ", ")
}

// timestampLayouts are tried in order when parsing message timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp parses a raw message timestamp and normalizes it to
// UTC. Numeric values are treated as unix seconds, or milliseconds
// when they are too large to be seconds.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrTimestamp)
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		const millisThreshold = 1e12
		if n >= millisThreshold {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}

	return time.Time{}, ErrTimestamp
}
