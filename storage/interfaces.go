package storage

import (
	"context"
	"time"

	"github.com/poiesic/chatvault/core"
)

// RawMeta is the export metadata stored alongside a raw audit copy.
type RawMeta struct {
	UserID     string    `json:"user_id"`
	ExportDate time.Time `json:"export_date"`
	SourceFile string    `json:"source_file"`
	StoredAt   time.Time `json:"stored_at"`
}

// RawStorage persists unmodified export payloads for audit.
// Implementations must be thread-safe.
type RawStorage interface {
	// Store writes a raw export payload and returns the export id the
	// loader later uses as a foreign key anchor.
	Store(ctx context.Context, payload []byte, meta RawMeta) (string, error)

	// Get retrieves a stored payload and its metadata by export id.
	// Returns ErrNotFound if no such export exists.
	Get(ctx context.Context, exportID string) ([]byte, *RawMeta, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

// CheckpointStore persists pipeline run state and serialized phase
// outputs, enabling resume without re-running completed phases.
//
// Implementations must be thread-safe; the pipeline additionally
// serializes its own writes so concurrent workers never interleave
// checkpoint updates for the same run.
type CheckpointStore interface {
	// SaveState persists the run state, overwriting any previous state
	// for the same run id. Sets UpdatedAt.
	SaveState(ctx context.Context, state *core.RunState) error

	// LoadState retrieves the run state for a run id.
	// Returns ErrNotFound if the run is unknown.
	LoadState(ctx context.Context, runID string) (*core.RunState, error)

	// SavePhaseOutput persists the serialized output of a completed phase.
	SavePhaseOutput(ctx context.Context, runID string, phase core.Phase, payload []byte) error

	// LoadPhaseOutput retrieves the serialized output of a phase.
	// Returns ErrNotFound if the phase was never checkpointed.
	LoadPhaseOutput(ctx context.Context, runID string, phase core.Phase) ([]byte, error)

	// ListPhases returns the phases with a persisted output for a run,
	// in pipeline order.
	ListPhases(ctx context.Context, runID string) ([]core.Phase, error)

	// MarkConversationLoaded records that a conversation's rows were
	// committed, so a resumed run can skip it.
	MarkConversationLoaded(ctx context.Context, runID, conversationID string) error

	// LoadedConversations returns the set of conversation ids already
	// committed for a run.
	LoadedConversations(ctx context.Context, runID string) (map[string]bool, error)

	// ListRuns returns the persisted state of every known run.
	ListRuns(ctx context.Context) ([]*core.RunState, error)

	// DeleteRun removes a run's state, phase outputs and loaded markers.
	DeleteRun(ctx context.Context, runID string) error

	// Close closes the storage backend and releases resources.
	Close() error
}
