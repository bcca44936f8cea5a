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


package load

import (
	"errors"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultBatchSize is the bulk strategy's batch size when none is configured.
const DefaultBatchSize = 500

// upsertClause updates the existing row on a primary/unique key
// conflict, so reloading the same graph converges instead of
// duplicating.
var upsertClause = clause.OnConflict{UpdateAll: true}

// Strategy writes a typed slice of rows inside an open transaction.
//
// Bulk trades per-row error granularity for throughput; Individual
// inserts row-by-row and captures per-row errors, for small datasets
// or when precise diagnostics are required.
type Strategy interface {
	// Name identifies the strategy in logs and results.
	Name() string

	// Write upserts rows, which must be a slice of row structs.
	Write(tx *gorm.DB, rows any) error
}

// Bulk batches rows into multi-row statements.
type Bulk struct {
	// BatchSize is the number of rows per statement.
	// Zero means DefaultBatchSize.
	BatchSize int
}

var _ Strategy = Bulk{}

func (b Bulk) Name() string { return "bulk" }

func (b Bulk) Write(tx *gorm.DB, rows any) error {
	if reflect.ValueOf(rows).Len() == 0 {
		return nil
	}
	size := b.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	return tx.Clauses(upsertClause).CreateInBatches(rows, size).Error
}

// Individual inserts rows one at a time, collecting every row's error
// instead of stopping at the first.
type Individual struct{}

var _ Strategy = Individual{}

func (Individual) Name() string { return "individual" }

func (Individual) Write(tx *gorm.DB, rows any) error {
	v := reflect.ValueOf(rows)
	var errs []error
	for i := 0; i < v.Len(); i++ {
		row := v.Index(i).Addr().Interface()
		if err := tx.Clauses(upsertClause).Create(row).Error; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
