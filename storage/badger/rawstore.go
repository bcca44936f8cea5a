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
	"github.com/google/uuid"
	"github.com/poiesic/chatvault/storage"
)

// RawStore implements storage.RawStorage for BadgerDB. Payloads are
// stored verbatim; metadata lives under a sibling key so Get can
// return both without decoding the payload.
type RawStore struct {
	backend *Backend
}

var _ storage.RawStorage = (*RawStore)(nil)

// NewRawStore creates a new RawStore.
func NewRawStore(backend *Backend) storage.RawStorage {
	return &RawStore{
		backend: backend,
	}
}

// Store writes a raw export payload and returns its export id.
func (s *RawStore) Store(ctx context.Context, payload []byte, meta storage.RawMeta) (string, error) {
	exportID := uuid.NewString()
	meta.StoredAt = time.Now().UTC()

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeRawExportKey(exportID), payload); err != nil {
			return err
		}
		metaBytes, err := storage.MarshalRawMeta(&meta)
		if err != nil {
			return err
		}
		if err := tx.Set(makeRawMetaKey(exportID), metaBytes); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return "", err
	}
	return exportID, nil
}

// Get retrieves a stored payload and its metadata by export id.
func (s *RawStore) Get(ctx context.Context, exportID string) ([]byte, *storage.RawMeta, error) {
	var payload []byte
	var meta *storage.RawMeta

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRawExportKey(exportID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		if payload, err = item.ValueCopy(nil); err != nil {
			return err
		}

		metaItem, err := tx.Get(makeRawMetaKey(exportID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return metaItem.Value(func(val []byte) error {
			var unmarshalErr error
			meta, unmarshalErr = storage.UnmarshalRawMeta(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, nil, err
	}
	return payload, meta, nil
}

// Close is a no-op; the shared backend is closed by its owner.
func (s *RawStore) Close() error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}
