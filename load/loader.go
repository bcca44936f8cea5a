// Package load persists the clean entity graph to the relational store.
//
// Each conversation loads inside its own transaction, so one failing
// conversation never rolls back the others and a failed run resumes at
// conversation granularity. All writes are upserts keyed on natural
// ids: reloading the same graph converges to the same end state.
package load

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/chatvault/core"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Loader persists CleanGraph values.
type Loader struct {
	db       *gorm.DB
	strategy Strategy
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader) error

// WithStrategy sets the insertion strategy.
// Default is Bulk with DefaultBatchSize.
func WithStrategy(s Strategy) Option {
	return func(l *Loader) error {
		if s != nil {
			l.strategy = s
		}
		return nil
	}
}

// WithPoolSize enables parallel loading of independent conversations
// across a bounded worker pool. Each worker holds its own transaction
// scope for exactly one conversation at a time; workers never share a
// connection. Default is serial loading.
func WithPoolSize(size int) Option {
	return func(l *Loader) error {
		if size < 2 {
			return nil
		}
		if l.pool != nil {
			l.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		l.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// New creates a Loader writing to db.
func New(db *gorm.DB, opts ...Option) (*Loader, error) {
	if db == nil {
		return nil, ErrDatabaseRequired
	}

	l := &Loader{
		db:       db,
		strategy: Bulk{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			l.Release()
			return nil, err
		}
	}
	return l, nil
}

// Release releases the worker pool, if any.
// The loader should not be used after calling Release.
func (l *Loader) Release() {
	if l.pool != nil {
		l.pool.Release()
	}
}

// Result summarizes a load.
type Result struct {
	ConversationsLoaded int                 `json:"conversations_loaded"`
	ParticipantsLoaded  int                 `json:"participants_loaded"`
	MessagesLoaded      int                 `json:"messages_loaded"`
	AttachmentsLoaded   int                 `json:"attachments_loaded"`
	ConversationsSkipped int                `json:"conversations_skipped"`
	Errors              []ConversationError `json:"errors,omitempty"`
}

// Options carries per-call load parameters.
type Options struct {
	// Skip holds conversation ids already committed by an earlier
	// attempt of the same run; they are not re-loaded.
	Skip map[string]bool

	// OnConversationLoaded is invoked after a conversation's
	// transaction commits. A non-nil error counts against the
	// conversation.
	OnConversationLoaded func(conversationID string) error
}

// Load persists the graph. The raw-export anchor row is written first;
// a failure there aborts the phase, since nothing referencing it could
// load. Per-conversation failures are recorded in the result and the
// load continues.
func (l *Loader) Load(ctx context.Context, graph *core.CleanGraph, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}

	if err := l.loadAnchor(ctx, graph); err != nil {
		return nil, fmt.Errorf("raw export anchor: %w", err)
	}

	result := &Result{}
	var mu sync.Mutex

	loadOne := func(conv *core.Conversation) {
		err := l.loadConversation(ctx, graph.ExportID, conv)
		if err == nil && opts.OnConversationLoaded != nil {
			err = opts.OnConversationLoaded(conv.ConversationID)
		}

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			l.logger.Error("conversation load failed", "conversation", conv.ConversationID, "err", err)
			result.Errors = append(result.Errors, ConversationError{
				ConversationID: conv.ConversationID,
				Detail:         err.Error(),
			})
			return
		}
		result.ConversationsLoaded++
		result.ParticipantsLoaded += len(conv.Participants)
		result.MessagesLoaded += len(conv.Messages)
		for _, msg := range conv.Messages {
			result.AttachmentsLoaded += len(msg.Attachments)
		}
	}

	var pending []*core.Conversation
	for _, conv := range graph.Conversations {
		if opts.Skip[conv.ConversationID] {
			result.ConversationsSkipped++
			continue
		}
		pending = append(pending, conv)
	}

	if l.pool != nil {
		var (
			wg        sync.WaitGroup
			submitErr error
		)
		for _, conv := range pending {
			wg.Add(1)
			conv := conv
			if err := l.pool.Submit(func() {
				defer wg.Done()
				loadOne(conv)
			}); err != nil {
				wg.Done()
				submitErr = err
				break
			}
		}
		// In-flight workers must finish before this call returns;
		// they write into result under mu.
		wg.Wait()
		if submitErr != nil {
			return nil, submitErr
		}
	} else {
		for _, conv := range pending {
			loadOne(conv)
		}
	}

	l.logger.Info("load complete", "strategy", l.strategy.Name(),
		"conversations", result.ConversationsLoaded,
		"messages", result.MessagesLoaded,
		"skipped", result.ConversationsSkipped,
		"failed", len(result.Errors))
	return result, nil
}

// loadAnchor upserts the raw_exports row the conversation rows
// reference.
func (l *Loader) loadAnchor(ctx context.Context, graph *core.CleanGraph) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return l.strategy.Write(tx, []RawExportRow{{
			ExportID:   graph.ExportID,
			UserID:     graph.UserID,
			ExportDate: graph.ExportDate,
			SourceFile: graph.SourceFile,
		}})
	})
}

// loadConversation writes one conversation's rows in dependency order
// inside a single transaction: conversation and participants before
// the messages that reference them, attachments after their parent
// messages.
func (l *Loader) loadConversation(ctx context.Context, exportID string, conv *core.Conversation) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := l.strategy.Write(tx, []ConversationRow{conversationRow(exportID, conv)}); err != nil {
			return fmt.Errorf("conversations: %w", err)
		}
		if err := l.strategy.Write(tx, participantRows(conv)); err != nil {
			return fmt.Errorf("participants: %w", err)
		}
		messages, attachments := messageRows(conv)
		if err := l.strategy.Write(tx, messages); err != nil {
			return fmt.Errorf("messages: %w", err)
		}
		if err := l.strategy.Write(tx, attachments); err != nil {
			return fmt.Errorf("attachments: %w", err)
		}
		return nil
	})
}

func conversationRow(exportID string, conv *core.Conversation) ConversationRow {
	return ConversationRow{
		ConversationID:   conv.ConversationID,
		ExportID:         exportID,
		DisplayName:      conv.DisplayName,
		ConversationType: conv.Type,
		FirstMessageTime: conv.FirstMessageTime,
		LastMessageTime:  conv.LastMessageTime,
		MessageCount:     conv.MessageCount,
		ParticipantCount: conv.ParticipantCount,
	}
}

func participantRows(conv *core.Conversation) []ParticipantRow {
	rows := make([]ParticipantRow, len(conv.Participants))
	for i, p := range conv.Participants {
		rows[i] = ParticipantRow{
			ConversationID: p.ConversationID,
			UserID:         p.UserID,
			DisplayName:    p.DisplayName,
			IsSelf:         p.IsSelf,
		}
	}
	return rows
}

func messageRows(conv *core.Conversation) ([]MessageRow, []AttachmentRow) {
	messages := make([]MessageRow, len(conv.Messages))
	var attachments []AttachmentRow
	for i, msg := range conv.Messages {
		messages[i] = MessageRow{
			MessageID:      msg.MessageID,
			ConversationID: msg.ConversationID,
			Timestamp:      msg.Timestamp,
			SenderID:       msg.SenderID,
			SenderName:     msg.SenderName,
			Content:        msg.Content,
			MessageType:    string(msg.Type),
			IsEdited:       msg.IsEdited,
			IsDeleted:      msg.IsDeleted,
			Payload:        payloadJSON(msg.Payload),
		}
		for _, att := range msg.Attachments {
			attachments = append(attachments, AttachmentRow{
				AttachmentID: att.AttachmentID,
				MessageID:    att.MessageID,
				FileName:     att.FileName,
				ContentType:  att.ContentType,
				SizeBytes:    att.SizeBytes,
				Location:     att.Location,
			})
		}
	}
	return messages, attachments
}

// payloadJSON renders a structured payload as a JSON column value.
// Payload maps marshal deterministically (sorted keys), so identical
// payloads produce identical column bytes.
func payloadJSON(payload map[string]any) datatypes.JSON {
	if len(payload) == 0 {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
