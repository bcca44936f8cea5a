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


// Package pipeline orchestrates the extract, transform and load phases
// of a chat-export ingestion run.
//
// Phases run strictly sequentially. The pipeline records phase state
// in a checkpoint store on every entry and exit, serializes each
// successful phase's output, and can resume a failed run from the last
// completed phase: extraction is never re-run once a transformed
// checkpoint exists, and a run that failed mid-load resumes with the
// already-committed conversations skipped. No phase retries on its
// own; retry is the caller's decision, made by re-invoking Run with
// the same run id.
package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/poiesic/chatvault/core"
	"github.com/poiesic/chatvault/extract"
	"github.com/poiesic/chatvault/load"
	"github.com/poiesic/chatvault/storage"
	"github.com/poiesic/chatvault/transform"
)

// Status is the terminal outcome of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Result summarizes a pipeline run. RunID doubles as the checkpoint id
// a failed run is resumed with.
type Result struct {
	RunID       string              `json:"run_id"`
	Status      Status              `json:"status"`
	FailedPhase core.Phase          `json:"failed_phase,omitempty"`
	Load        *load.Result        `json:"load,omitempty"`
	Warnings    []transform.Warning `json:"warnings,omitempty"`
	Errors      []string            `json:"errors,omitempty"`
}

// RunOptions carries per-run parameters.
type RunOptions struct {
	// ResumeRunID resumes an earlier run from its last completed
	// phase instead of starting fresh.
	ResumeRunID string
}

// Pipeline wires the three phases together around a checkpoint store.
type Pipeline struct {
	extractor   *extract.Extractor
	transformer *transform.Transformer
	loader      *load.Loader
	checkpoints storage.CheckpointStore
	logger      *slog.Logger

	progressWriter   io.Writer
	progressInterval int

	// mu serializes checkpoint writes: workers loading conversations
	// in parallel commit their markers one at a time.
	mu sync.Mutex
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithProgress enables progress reporting to w every interval
// conversations during the load phase.
func WithProgress(w io.Writer, interval int) Option {
	return func(p *Pipeline) error {
		p.progressWriter = w
		p.progressInterval = interval
		return nil
	}
}

// New creates a Pipeline.
func New(
	extractor *extract.Extractor,
	transformer *transform.Transformer,
	loader *load.Loader,
	checkpoints storage.CheckpointStore,
	opts ...Option,
) (*Pipeline, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if transformer == nil {
		return nil, ErrTransformerRequired
	}
	if loader == nil {
		return nil, ErrLoaderRequired
	}
	if checkpoints == nil {
		return nil, ErrCheckpointStoreRequired
	}

	p := &Pipeline{
		extractor:        extractor,
		transformer:      transformer,
		loader:           loader,
		checkpoints:      checkpoints,
		logger:           slog.Default(),
		progressWriter:   io.Discard,
		progressInterval: 1,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Run executes the pipeline against a source file. currentUserName
// identifies the exporting user in the transformed graph. With
// opts.ResumeRunID set, the run picks up after the last successfully
// completed phase of the earlier run.
//
// Phase failures are reported through the result's status, not the
// returned error; the error is reserved for unusable inputs and
// checkpoint store failures.
func (p *Pipeline) Run(ctx context.Context, sourcePath, currentUserName string, opts *RunOptions) (*Result, error) {
	if opts == nil {
		opts = &RunOptions{}
	}

	state, err := p.initRun(ctx, sourcePath, opts.ResumeRunID)
	if err != nil {
		return nil, err
	}
	result := &Result{RunID: state.RunID}

	phases, err := p.checkpoints.ListPhases(ctx, state.RunID)
	if err != nil {
		return nil, err
	}
	done := map[core.Phase]bool{}
	for _, phase := range phases {
		done[phase] = true
	}

	var raw *core.RawExport
	var graph *core.CleanGraph

	// Extract, unless a later checkpoint makes it unnecessary.
	if !done[core.PhaseExtracted] && !done[core.PhaseTransformed] {
		if err := p.enterPhase(ctx, state, core.PhaseExtracting); err != nil {
			return nil, err
		}
		raw, err = p.extractor.ExtractFile(ctx, sourcePath)
		if err != nil {
			return p.failPhase(ctx, state, result, core.PhaseExtracting, err)
		}
		payload, err := storage.MarshalRawExport(raw)
		if err != nil {
			return nil, err
		}
		if err := p.exitPhase(ctx, state, core.PhaseExtracted, payload); err != nil {
			return nil, err
		}
	}

	// Transform, reloading the extracted output when resuming.
	if !done[core.PhaseTransformed] {
		if raw == nil {
			payload, err := p.checkpoints.LoadPhaseOutput(ctx, state.RunID, core.PhaseExtracted)
			if err != nil {
				return nil, err
			}
			if raw, err = storage.UnmarshalRawExport(payload); err != nil {
				return nil, err
			}
		}

		if err := p.enterPhase(ctx, state, core.PhaseTransforming); err != nil {
			return nil, err
		}
		var warnings []transform.Warning
		graph, warnings, err = p.transformer.Transform(ctx, raw, currentUserName)
		if err != nil {
			return p.failPhase(ctx, state, result, core.PhaseTransforming, err)
		}
		result.Warnings = warnings

		payload, err := storage.MarshalCleanGraph(graph)
		if err != nil {
			return nil, err
		}
		if err := p.exitPhase(ctx, state, core.PhaseTransformed, payload); err != nil {
			return nil, err
		}
	} else {
		payload, err := p.checkpoints.LoadPhaseOutput(ctx, state.RunID, core.PhaseTransformed)
		if err != nil {
			return nil, err
		}
		if graph, err = storage.UnmarshalCleanGraph(payload); err != nil {
			return nil, err
		}
	}

	return p.runLoad(ctx, state, result, graph)
}

// runLoad executes the load phase, skipping conversations an earlier
// attempt already committed.
func (p *Pipeline) runLoad(ctx context.Context, state *core.RunState, result *Result, graph *core.CleanGraph) (*Result, error) {
	loaded, err := p.checkpoints.LoadedConversations(ctx, state.RunID)
	if err != nil {
		return nil, err
	}

	if err := p.enterPhase(ctx, state, core.PhaseLoading); err != nil {
		return nil, err
	}

	tracker := NewProgressTracker(p.progressWriter, len(graph.Conversations), p.progressInterval)
	tracker.Start()

	loadResult, err := p.loader.Load(ctx, graph, &load.Options{
		Skip: loaded,
		OnConversationLoaded: func(conversationID string) error {
			tracker.Increment(1)
			p.mu.Lock()
			defer p.mu.Unlock()
			return p.checkpoints.MarkConversationLoaded(ctx, state.RunID, conversationID)
		},
	})
	tracker.Finish()
	if err != nil {
		return p.failPhase(ctx, state, result, core.PhaseLoading, err)
	}

	result.Load = loadResult
	for _, convErr := range loadResult.Errors {
		result.Errors = append(result.Errors, convErr.Error())
	}

	// Partial load: the run is failed but its checkpoints are kept, so
	// re-invoking with the same run id retries only the remainder.
	if len(loadResult.Errors) > 0 {
		state.Phase = core.PhaseLoading
		state.Status = core.StatusFailed
		state.FailedPhase = core.PhaseLoading
		state.ErrorDetail = loadResult.Errors[0].Error()
		if err := p.saveState(ctx, state); err != nil {
			return nil, err
		}
		result.Status = StatusFailed
		result.FailedPhase = core.PhaseLoading
		return result, nil
	}

	state.Phase = core.PhaseCompleted
	state.Status = core.StatusSucceeded
	state.FailedPhase = ""
	state.ErrorDetail = ""
	if err := p.saveState(ctx, state); err != nil {
		return nil, err
	}
	result.Status = StatusCompleted
	p.logger.Info("run completed", "run_id", state.RunID,
		"conversations", loadResult.ConversationsLoaded,
		"messages", loadResult.MessagesLoaded)
	return result, nil
}

// initRun creates the run state, or reloads it when resuming.
func (p *Pipeline) initRun(ctx context.Context, sourcePath, resumeID string) (*core.RunState, error) {
	if resumeID != "" {
		state, err := p.checkpoints.LoadState(ctx, resumeID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ErrUnknownRun
			}
			return nil, err
		}
		p.logger.Info("resuming run", "run_id", resumeID, "last_phase", state.Phase, "status", state.Status)
		return state, nil
	}

	state := &core.RunState{
		RunID:      ulid.Make().String(),
		Phase:      core.PhasePending,
		Status:     core.StatusRunning,
		SourceFile: sourcePath,
		StartedAt:  time.Now().UTC(),
	}
	if err := p.saveState(ctx, state); err != nil {
		return nil, err
	}
	p.logger.Info("run started", "run_id", state.RunID, "source", sourcePath)
	return state, nil
}

// enterPhase records a phase start.
func (p *Pipeline) enterPhase(ctx context.Context, state *core.RunState, phase core.Phase) error {
	state.Phase = phase
	state.Status = core.StatusRunning
	return p.saveState(ctx, state)
}

// exitPhase records a successful phase and persists its output.
func (p *Pipeline) exitPhase(ctx context.Context, state *core.RunState, phase core.Phase, payload []byte) error {
	p.mu.Lock()
	err := p.checkpoints.SavePhaseOutput(ctx, state.RunID, phase, payload)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	state.Phase = phase
	state.Status = core.StatusSucceeded
	return p.saveState(ctx, state)
}

// failPhase records a failed phase and turns it into a failed result.
func (p *Pipeline) failPhase(ctx context.Context, state *core.RunState, result *Result, phase core.Phase, cause error) (*Result, error) {
	p.logger.Error("phase failed", "run_id", state.RunID, "phase", phase, "err", cause)
	state.Phase = phase
	state.Status = core.StatusFailed
	state.FailedPhase = phase
	state.ErrorDetail = cause.Error()
	if err := p.saveState(ctx, state); err != nil {
		return nil, err
	}

	result.Status = StatusFailed
	result.FailedPhase = phase
	result.Errors = append(result.Errors, cause.Error())
	return result, nil
}

func (p *Pipeline) saveState(ctx context.Context, state *core.RunState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.checkpoints.SaveState(ctx, state)
}
