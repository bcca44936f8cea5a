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


package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/chatvault/core"
)

// Checkpoint payloads are JSON. The export itself is a JSON document
// and phase outputs must survive process restarts across versions, so
// a self-describing encoding is used rather than a binary one.

// MarshalRawExport serializes a RawExport to bytes.
func MarshalRawExport(raw *core.RawExport) ([]byte, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalRawExport deserializes a RawExport from bytes.
func UnmarshalRawExport(data []byte) (*core.RawExport, error) {
	var raw core.RawExport
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &raw, nil
}

// MarshalCleanGraph serializes a CleanGraph to bytes.
func MarshalCleanGraph(graph *core.CleanGraph) ([]byte, error) {
	data, err := json.Marshal(graph)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalCleanGraph deserializes a CleanGraph from bytes.
func UnmarshalCleanGraph(data []byte) (*core.CleanGraph, error) {
	var graph core.CleanGraph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &graph, nil
}

// MarshalRunState serializes a RunState to bytes.
func MarshalRunState(state *core.RunState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalRunState deserializes a RunState from bytes.
func UnmarshalRunState(data []byte) (*core.RunState, error) {
	var state core.RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &state, nil
}

// MarshalRawMeta serializes a RawMeta to bytes.
func MarshalRawMeta(meta *RawMeta) ([]byte, error) {
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalRawMeta deserializes a RawMeta from bytes.
func UnmarshalRawMeta(data []byte) (*RawMeta, error) {
	var meta RawMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &meta, nil
}
