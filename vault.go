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


package chatvault

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/poiesic/chatvault/extract"
	"github.com/poiesic/chatvault/load"
	"github.com/poiesic/chatvault/msgtype"
	"github.com/poiesic/chatvault/pipeline"
	"github.com/poiesic/chatvault/storage"
	"github.com/poiesic/chatvault/storage/badger"
	"github.com/poiesic/chatvault/transform"
)

// Vault bundles the stores an ingestion run depends on: a badger
// backend for raw-export audit copies and run checkpoints, and a
// relational database for the cleaned output.
type Vault struct {
	backend     *badger.Backend
	raws        storage.RawStorage
	checkpoints storage.CheckpointStore
	db          *gorm.DB
	registry    *msgtype.Registry
	logger      *slog.Logger
}

// VaultOption configures a Vault.
type VaultOption func(*vaultOptions)

type vaultOptions struct {
	inMemory bool
	registry *msgtype.Registry
}

// WithInMemoryCheckpoints keeps the badger stores in memory instead of
// on disk. Intended for tests.
func WithInMemoryCheckpoints() VaultOption {
	return func(o *vaultOptions) {
		o.inMemory = true
	}
}

// WithRegistry substitutes a custom message-type registry, for callers
// that register additional handlers.
func WithRegistry(registry *msgtype.Registry) VaultOption {
	return func(o *vaultOptions) {
		o.registry = registry
	}
}

// Open opens the badger stores at filePath and the relational database
// named by dsn, running schema migrations on the latter.
func Open(filePath, dsn string, opts ...VaultOption) (*Vault, error) {
	options := &vaultOptions{
		registry: msgtype.NewRegistry(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	db, err := load.OpenDatabase(dsn)
	if err != nil {
		backend.Close()
		return nil, err
	}
	if err := load.Migrate(db); err != nil {
		backend.Close()
		return nil, err
	}

	return &Vault{
		backend:     backend,
		raws:        badger.NewRawStore(backend),
		checkpoints: badger.NewCheckpointStore(backend),
		db:          db,
		registry:    options.registry,
		logger:      slog.Default(),
	}, nil
}

func (v *Vault) Close() error {
	if err := v.checkpoints.Close(); err != nil {
		v.logger.Error("error closing checkpoint store", "err", err)
		return err
	}
	if err := v.raws.Close(); err != nil {
		v.logger.Error("error closing raw export store", "err", err)
		return err
	}
	if err := v.backend.Close(); err != nil {
		v.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (v *Vault) RawStorage() storage.RawStorage {
	return v.raws
}

func (v *Vault) CheckpointStore() storage.CheckpointStore {
	return v.checkpoints
}

func (v *Vault) DB() *gorm.DB {
	return v.db
}

func (v *Vault) Registry() *msgtype.Registry {
	return v.registry
}

// NewPipeline assembles an extract/transform/load pipeline over the
// vault's stores.
func (v *Vault) NewPipeline(
	extractOpts []extract.Option,
	transformOpts []transform.Option,
	loadOpts []load.Option,
	pipelineOpts ...pipeline.Option,
) (*pipeline.Pipeline, error) {
	extractor, err := extract.New(v.raws, extractOpts...)
	if err != nil {
		return nil, err
	}
	transformer, err := transform.New(v.registry, transformOpts...)
	if err != nil {
		return nil, err
	}
	loader, err := load.New(v.db, loadOpts...)
	if err != nil {
		return nil, err
	}
	return pipeline.New(extractor, transformer, loader, v.checkpoints, pipelineOpts...)
}
