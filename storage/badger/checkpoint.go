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


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/chatvault/core"
	"github.com/poiesic/chatvault/storage"
)

// checkpointedPhases lists, in pipeline order, the phases whose output
// may be persisted.
var checkpointedPhases = []core.Phase{core.PhaseExtracted, core.PhaseTransformed}

// CheckpointStore implements storage.CheckpointStore for BadgerDB.
type CheckpointStore struct {
	backend *Backend
}

var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// NewCheckpointStore creates a new CheckpointStore.
func NewCheckpointStore(backend *Backend) storage.CheckpointStore {
	return &CheckpointStore{
		backend: backend,
	}
}

// SaveState persists the run state, overwriting any previous state.
func (s *CheckpointStore) SaveState(ctx context.Context, state *core.RunState) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		state.UpdatedAt = time.Now().UTC()
		value, err := storage.MarshalRunState(state)
		if err != nil {
			return err
		}
		if err := tx.Set(makeRunStateKey(state.RunID), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadState retrieves the run state for a run id.
func (s *CheckpointStore) LoadState(ctx context.Context, runID string) (*core.RunState, error) {
	var state *core.RunState
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRunStateKey(runID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			state, unmarshalErr = storage.UnmarshalRunState(val)
			return unmarshalErr
		})
	}, false)
	return state, err
}

// SavePhaseOutput persists the serialized output of a completed phase.
func (s *CheckpointStore) SavePhaseOutput(ctx context.Context, runID string, phase core.Phase, payload []byte) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makePhaseOutputKey(runID, string(phase)), payload); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadPhaseOutput retrieves the serialized output of a phase.
func (s *CheckpointStore) LoadPhaseOutput(ctx context.Context, runID string, phase core.Phase) ([]byte, error) {
	var payload []byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makePhaseOutputKey(runID, string(phase)))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	}, false)
	return payload, err
}

// ListPhases returns the phases with a persisted output, in pipeline order.
func (s *CheckpointStore) ListPhases(ctx context.Context, runID string) ([]core.Phase, error) {
	var phases []core.Phase
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, phase := range checkpointedPhases {
			_, err := tx.Get(makePhaseOutputKey(runID, string(phase)))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			phases = append(phases, phase)
		}
		return nil
	}, false)
	return phases, err
}

// MarkConversationLoaded records that a conversation's rows were committed.
func (s *CheckpointStore) MarkConversationLoaded(ctx context.Context, runID, conversationID string) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeLoadedConvKey(runID, conversationID), []byte{1}); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadedConversations returns the set of conversation ids already committed.
func (s *CheckpointStore) LoadedConversations(ctx context.Context, runID string) (map[string]bool, error) {
	loaded := make(map[string]bool)
	prefix := makeLoadedConvPrefix(runID)
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			loaded[string(key[len(prefix):])] = true
		}
		return nil
	}, false)
	return loaded, err
}

// ListRuns returns the persisted state of every known run.
func (s *CheckpointStore) ListRuns(ctx context.Context) ([]*core.RunState, error) {
	var states []*core.RunState
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runStatePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var state *core.RunState
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				state, unmarshalErr = storage.UnmarshalRunState(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			states = append(states, state)
		}
		return nil
	}, false)
	return states, err
}

// DeleteRun removes a run's state, phase outputs and loaded markers.
func (s *CheckpointStore) DeleteRun(ctx context.Context, runID string) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeRunStateKey(runID)); err != nil {
			return err
		}
		for _, phase := range checkpointedPhases {
			if err := tx.Delete(makePhaseOutputKey(runID, string(phase))); err != nil {
				return err
			}
		}

		// Collect marker keys first; deleting while iterating
		// invalidates the iterator.
		prefix := makeLoadedConvPrefix(runID)
		var markers [][]byte
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			markers = append(markers, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range markers {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Close is a no-op; the shared backend is closed by its owner.
func (s *CheckpointStore) Close() error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}
