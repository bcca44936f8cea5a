package badger

import "github.com/poiesic/chatvault/storage"

// NewMemoryStores creates in-memory checkpoint and raw stores for testing.
// Returns checkpointStore, rawStore, backend, and error.
// Caller must close the backend when done.
func NewMemoryStores() (storage.CheckpointStore, storage.RawStorage, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}

	return NewCheckpointStore(backend), NewRawStore(backend), backend, nil
}
