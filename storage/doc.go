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


// Package storage provides the storage abstraction layer for chatvault.
//
// This package defines the interfaces that decouple the pipeline from
// its durable stores:
//
//   - RawStorage: audit copies of unmodified export payloads
//   - CheckpointStore: run state, phase outputs and loaded-conversation
//     markers for resume
//
// The relational side (conversations, participants, messages,
// attachments) is not abstracted here; the loader owns it directly
// through GORM in package load.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return these interfaces
// rather than concrete types:
//
//	store, err := badger.NewCheckpointStore(backend)
//
// so alternative backends and test doubles can be substituted without
// touching consumers.
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent
// access from multiple goroutines.
//
// # Context Support
//
// All methods accept context.Context for cancellation and timeout
// support. Pass context.Background() for operations without specific
// timeout requirements.
package storage
