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

import "time"

// Phase identifies a stage of the pipeline state machine.
//
// The happy path is Pending -> Extracting -> Extracted -> Transforming ->
// Transformed -> Loading -> Completed. Any in-progress phase may
// transition to a failed terminal state recorded on the RunState.
type Phase string

const (
	PhasePending      Phase = "pending"
	PhaseExtracting   Phase = "extracting"
	PhaseExtracted    Phase = "extracted"
	PhaseTransforming Phase = "transforming"
	PhaseTransformed  Phase = "transformed"
	PhaseLoading      Phase = "loading"
	PhaseCompleted    Phase = "completed"
)

// Checkpointed reports whether the phase produces a serialized output
// that is persisted to the checkpoint store.
func (p Phase) Checkpointed() bool {
	return p == PhaseExtracted || p == PhaseTransformed
}

// PhaseStatus records the running/terminal state of a phase.
type PhaseStatus string

const (
	StatusRunning   PhaseStatus = "running"
	StatusSucceeded PhaseStatus = "succeeded"
	StatusFailed    PhaseStatus = "failed"
)

// RunState is the persisted record of a pipeline run. It is created at
// run start, mutated on every phase entry and exit, and retained until
// explicitly pruned so a failed run can be resumed.
type RunState struct {
	RunID       string      `json:"run_id"`
	Phase       Phase       `json:"phase"`
	Status      PhaseStatus `json:"status"`
	FailedPhase Phase       `json:"failed_phase,omitempty"`
	ErrorDetail string      `json:"error_detail,omitempty"`
	SourceFile  string      `json:"source_file,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
