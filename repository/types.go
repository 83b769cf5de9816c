/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"

	"github.com/tomoncle/recordkit/database"
	"github.com/tomoncle/recordkit/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Reader groups the read operations of a Repository.
type Reader[T any] interface {
	// Exists reports whether any record matches where. A non-zero excludeID
	// removes the record with that primary key from consideration.
	Exists(ctx context.Context, where types.Where, excludeID any) (bool, error)

	// Get loads a record by primary key, restricted to columns when given.
	// It returns nil without an error when no record matches.
	Get(ctx context.Context, id any, columns ...string) (*T, error)

	// GetOne returns the first record matching where, or nil.
	GetOne(ctx context.Context, where types.Where, columns []string, joins ...types.Join) (*T, error)

	// GetByName returns the first record with the given name, or nil.
	GetByName(ctx context.Context, name string) (*T, error)

	// List returns the records selected by opts. A nil opts lists everything.
	List(ctx context.Context, opts *types.ListOptions) ([]*T, error)

	// ListWhere returns every record matching where.
	ListWhere(ctx context.Context, where types.Where, columns ...string) ([]*T, error)

	// Count returns the number of records matching where over the joined set.
	Count(ctx context.Context, where types.Where, joins ...types.Join) (int, error)

	// ActiveStatuses returns status records whose value is not 'B'.
	ActiveStatuses(ctx context.Context) ([]*T, error)

	// Page counts the matching records and loads one page of them.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// Writer groups the write operations of a Repository.
type Writer[T any] interface {
	// Create builds a new record from data, inserts it and returns it with
	// its generated key populated.
	Create(ctx context.Context, data types.Attributes) (*T, error)

	// UpdateByID assigns data to the record with the given key and persists
	// only those columns. A missing record yields sql.ErrNoRows.
	UpdateByID(ctx context.Context, id any, data types.Attributes) (*T, error)

	// UpdateWhere sets data on every record matching where and returns the
	// number of rows affected.
	UpdateWhere(ctx context.Context, where types.Where, data types.Attributes) (int64, error)

	// DeleteByID removes the record with the given key. A missing record
	// yields sql.ErrNoRows.
	DeleteByID(ctx context.Context, id any) error

	// Insert stores one or more records as they are.
	Insert(ctx context.Context, entities ...*T) error

	// Save writes every column of an existing record, matched by primary key.
	Save(ctx context.Context, entity *T) error

	// Upsert inserts records, updating columns on a conflict over
	// conflictKeys (primary key when empty).
	Upsert(ctx context.Context, columns []string, conflictKeys []string, entities ...*T) error
}

// Repository is the generic record accessor for model T.
type Repository[T any] interface {
	Reader[T]
	Writer[T]

	// WithTx returns the same accessor bound to tx.
	WithTx(tx bun.IDB) Repository[T]

	DB() bun.IDB
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}

// NameScoper lets a model narrow a select query to the records carrying a
// name when a plain equality on the name column does not fit.
type NameScoper interface {
	ScopeName(q *bun.SelectQuery, name string) *bun.SelectQuery
}

// Option configures a repository.
type Option[T any] func(*baseRepositoryImpl[T])

// WithFactory sets the constructor used for new record instances.
func WithFactory[T any](factory func() *T) Option[T] {
	return func(r *baseRepositoryImpl[T]) {
		if factory != nil {
			r.factory = factory
		}
	}
}

// WithNameColumn sets the column GetByName filters on. Defaults to "name".
func WithNameColumn[T any](column string) Option[T] {
	return func(r *baseRepositoryImpl[T]) {
		if column != "" {
			r.nameColumn = column
		}
	}
}

func WithLogger[T any](logger database.Logger) Option[T] {
	return func(r *baseRepositoryImpl[T]) {
		if logger != nil {
			r.logger = logger
		}
	}
}
