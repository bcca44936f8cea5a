package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/chatvault/core"
	"github.com/poiesic/chatvault/storage"
)

func newTestStores(t *testing.T) (storage.CheckpointStore, storage.RawStorage) {
	t.Helper()
	checkpoints, raws, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	t.Cleanup(func() {
		checkpoints.Close()
		raws.Close()
		backend.Close()
	})
	return checkpoints, raws
}

func TestRunStateRoundtrip(t *testing.T) {
	checkpoints, _ := newTestStores(t)
	ctx := context.Background()

	state := &core.RunState{
		RunID:      "run-1",
		Phase:      core.PhaseExtracting,
		Status:     core.StatusRunning,
		SourceFile: "export.json",
		StartedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if err := checkpoints.SaveState(ctx, state); err != nil {
		t.Fatalf("Failed to save state: %v", err)
	}
	if state.UpdatedAt.IsZero() {
		t.Error("Expected SaveState to stamp UpdatedAt")
	}

	loaded, err := checkpoints.LoadState(ctx, "run-1")
	if err != nil {
		t.Fatalf("Failed to load state: %v", err)
	}
	if loaded.RunID != "run-1" || loaded.Phase != core.PhaseExtracting || loaded.Status != core.StatusRunning {
		t.Errorf("Loaded state does not match: %+v", loaded)
	}
	if loaded.SourceFile != "export.json" {
		t.Errorf("Expected source file to round-trip, got %q", loaded.SourceFile)
	}

	// Overwrite with a later phase.
	state.Phase = core.PhaseCompleted
	state.Status = core.StatusSucceeded
	if err := checkpoints.SaveState(ctx, state); err != nil {
		t.Fatalf("Failed to overwrite state: %v", err)
	}
	loaded, err = checkpoints.LoadState(ctx, "run-1")
	if err != nil {
		t.Fatalf("Failed to reload state: %v", err)
	}
	if loaded.Phase != core.PhaseCompleted {
		t.Errorf("Expected phase %q, got %q", core.PhaseCompleted, loaded.Phase)
	}
}

func TestLoadStateNotFound(t *testing.T) {
	checkpoints, _ := newTestStores(t)

	_, err := checkpoints.LoadState(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPhaseOutputRoundtrip(t *testing.T) {
	checkpoints, _ := newTestStores(t)
	ctx := context.Background()

	payload := []byte(`{"conversations":{}}`)
	if err := checkpoints.SavePhaseOutput(ctx, "run-1", core.PhaseExtracted, payload); err != nil {
		t.Fatalf("Failed to save phase output: %v", err)
	}

	got, err := checkpoints.LoadPhaseOutput(ctx, "run-1", core.PhaseExtracted)
	if err != nil {
		t.Fatalf("Failed to load phase output: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Payload mismatch: got %q", got)
	}

	if _, err := checkpoints.LoadPhaseOutput(ctx, "run-1", core.PhaseTransformed); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unsaved phase, got %v", err)
	}
}

func TestListPhasesInPipelineOrder(t *testing.T) {
	checkpoints, _ := newTestStores(t)
	ctx := context.Background()

	phases, err := checkpoints.ListPhases(ctx, "run-1")
	if err != nil {
		t.Fatalf("Failed to list phases: %v", err)
	}
	if len(phases) != 0 {
		t.Errorf("Expected no phases for fresh run, got %v", phases)
	}

	// Save out of order; listing still reports pipeline order.
	if err := checkpoints.SavePhaseOutput(ctx, "run-1", core.PhaseTransformed, []byte("t")); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	if err := checkpoints.SavePhaseOutput(ctx, "run-1", core.PhaseExtracted, []byte("e")); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	phases, err = checkpoints.ListPhases(ctx, "run-1")
	if err != nil {
		t.Fatalf("Failed to list phases: %v", err)
	}
	if len(phases) != 2 || phases[0] != core.PhaseExtracted || phases[1] != core.PhaseTransformed {
		t.Errorf("Expected [extracted transformed], got %v", phases)
	}
}

func TestLoadedConversationMarkers(t *testing.T) {
	checkpoints, _ := newTestStores(t)
	ctx := context.Background()

	loaded, err := checkpoints.LoadedConversations(ctx, "run-1")
	if err != nil {
		t.Fatalf("Failed to list markers: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Expected no markers, got %v", loaded)
	}

	for _, conv := range []string{"conv-a", "conv-b"} {
		if err := checkpoints.MarkConversationLoaded(ctx, "run-1", conv); err != nil {
			t.Fatalf("Failed to mark %s: %v", conv, err)
		}
	}
	// Markers are scoped per run.
	if err := checkpoints.MarkConversationLoaded(ctx, "run-2", "conv-z"); err != nil {
		t.Fatalf("Failed to mark: %v", err)
	}

	loaded, err = checkpoints.LoadedConversations(ctx, "run-1")
	if err != nil {
		t.Fatalf("Failed to list markers: %v", err)
	}
	if len(loaded) != 2 || !loaded["conv-a"] || !loaded["conv-b"] {
		t.Errorf("Expected conv-a and conv-b markers, got %v", loaded)
	}
	if loaded["conv-z"] {
		t.Error("Marker from another run leaked into run-1")
	}
}

func TestListRuns(t *testing.T) {
	checkpoints, _ := newTestStores(t)
	ctx := context.Background()

	for _, id := range []string{"run-1", "run-2"} {
		state := &core.RunState{RunID: id, Phase: core.PhasePending, Status: core.StatusRunning}
		if err := checkpoints.SaveState(ctx, state); err != nil {
			t.Fatalf("Failed to save %s: %v", id, err)
		}
	}

	runs, err := checkpoints.ListRuns(ctx)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	seen := map[string]bool{}
	for _, run := range runs {
		seen[run.RunID] = true
	}
	if !seen["run-1"] || !seen["run-2"] {
		t.Errorf("Expected run-1 and run-2, got %v", seen)
	}
}

func TestDeleteRun(t *testing.T) {
	checkpoints, _ := newTestStores(t)
	ctx := context.Background()

	state := &core.RunState{RunID: "run-1", Phase: core.PhaseLoading, Status: core.StatusFailed}
	if err := checkpoints.SaveState(ctx, state); err != nil {
		t.Fatalf("Failed to save state: %v", err)
	}
	if err := checkpoints.SavePhaseOutput(ctx, "run-1", core.PhaseExtracted, []byte("e")); err != nil {
		t.Fatalf("Failed to save output: %v", err)
	}
	if err := checkpoints.MarkConversationLoaded(ctx, "run-1", "conv-a"); err != nil {
		t.Fatalf("Failed to mark: %v", err)
	}

	if err := checkpoints.DeleteRun(ctx, "run-1"); err != nil {
		t.Fatalf("Failed to delete run: %v", err)
	}

	if _, err := checkpoints.LoadState(ctx, "run-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected state gone, got %v", err)
	}
	if _, err := checkpoints.LoadPhaseOutput(ctx, "run-1", core.PhaseExtracted); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected output gone, got %v", err)
	}
	loaded, err := checkpoints.LoadedConversations(ctx, "run-1")
	if err != nil {
		t.Fatalf("Failed to list markers: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Expected markers gone, got %v", loaded)
	}
}

func TestRawStoreRoundtrip(t *testing.T) {
	_, raws := newTestStores(t)
	ctx := context.Background()

	payload := []byte(`{"user_id":"u-1"}`)
	exportID, err := raws.Store(ctx, payload, storage.RawMeta{
		UserID:     "u-1",
		SourceFile: "export.json",
	})
	if err != nil {
		t.Fatalf("Failed to store payload: %v", err)
	}
	if exportID == "" {
		t.Fatal("Expected non-empty export id")
	}

	got, meta, err := raws.Get(ctx, exportID)
	if err != nil {
		t.Fatalf("Failed to get payload: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Payload mismatch: got %q", got)
	}
	if meta.UserID != "u-1" || meta.SourceFile != "export.json" {
		t.Errorf("Metadata mismatch: %+v", meta)
	}
	if meta.StoredAt.IsZero() {
		t.Error("Expected StoredAt to be stamped")
	}

	if _, _, err := raws.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStoreDistinctExportIDs(t *testing.T) {
	_, raws := newTestStores(t)
	ctx := context.Background()

	first, err := raws.Store(ctx, []byte("a"), storage.RawMeta{UserID: "u"})
	if err != nil {
		t.Fatalf("Failed to store: %v", err)
	}
	second, err := raws.Store(ctx, []byte("a"), storage.RawMeta{UserID: "u"})
	if err != nil {
		t.Fatalf("Failed to store: %v", err)
	}
	if first == second {
		t.Error("Expected distinct export ids for separate stores")
	}
}
