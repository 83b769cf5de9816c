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

package recordkit

import (
	"context"
	"sync"

	"github.com/tomoncle/recordkit/database"
	"github.com/tomoncle/recordkit/repository"
	"github.com/tomoncle/recordkit/types"
	"github.com/uptrace/bun"
)

type Service[T any] interface {
	// Get returns a single entity by its identifier, or nil.
	Get(ctx context.Context, id any, columns ...string) (*T, error)

	// GetOne returns the first entity matching where, or nil.
	GetOne(ctx context.Context, where types.Where, columns []string, joins ...types.Join) (*T, error)

	// GetByName returns the first entity with the given name, or nil.
	GetByName(ctx context.Context, name string) (*T, error)

	// Exists reports whether an entity other than excludeID matches where.
	Exists(ctx context.Context, where types.Where, excludeID any) (bool, error)

	// List returns entities selected by opts.
	List(ctx context.Context, opts *types.ListOptions) ([]*T, error)

	// ListWhere returns all entities matching where.
	ListWhere(ctx context.Context, where types.Where, columns ...string) ([]*T, error)

	// Count returns the number of entities matching where.
	Count(ctx context.Context, where types.Where, joins ...types.Join) (int, error)

	// ActiveStatuses returns status entities that are not blocked.
	ActiveStatuses(ctx context.Context) ([]*T, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Create builds, inserts and returns an entity from column values.
	Create(ctx context.Context, data types.Attributes) (*T, error)

	// UpdateByID modifies the given columns of an existing entity.
	UpdateByID(ctx context.Context, id any, data types.Attributes) (*T, error)

	// UpdateWhere modifies every entity matching where.
	UpdateWhere(ctx context.Context, where types.Where, data types.Attributes) (int64, error)

	// Delete removes an entity by its identifier.
	Delete(ctx context.Context, id any) error

	// Save inserts one or more new entities.
	Save(ctx context.Context, model ...*T) error

	// Update writes every column of an existing entity.
	Update(ctx context.Context, model *T) error

	// SaveOrUpdate upserts entities, updating fields on duplicate keys.
	SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error

	// WithTx returns a repository bound to tx for multi-step writes.
	WithTx(tx bun.IDB) repository.Repository[T]

	// SelectBuilder returns a Bun select query builder for the entity.
	SelectBuilder() *bun.SelectQuery

	// InsertBuilder returns a Bun insert query builder for the entity.
	InsertBuilder() *bun.InsertQuery

	// UpdateBuilder returns a Bun update query builder for the entity.
	UpdateBuilder() *bun.UpdateQuery

	// DeleteBuilder returns a Bun delete query builder for the entity.
	DeleteBuilder() *bun.DeleteQuery
}

type baseServiceImpl[T any] struct {
	opts []repository.Option[T]
	repo repository.Repository[T]
	once sync.Once
}

// NewService returns a default Service implementation using the generic
// repository backed by the global database connection. The connection is
// resolved on first use, so InitDB may run after construction.
func NewService[T any](opts ...repository.Option[T]) Service[T] {
	return newBaseServiceImpl[T](opts...)
}

func newBaseServiceImpl[T any](opts ...repository.Option[T]) *baseServiceImpl[T] {
	return &baseServiceImpl[T]{opts: opts}
}

func (s *baseServiceImpl[T]) baseRepo() repository.Repository[T] {
	s.once.Do(func() { s.repo = repository.NewRepository[T](database.GetDB(), s.opts...) })
	return s.repo
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any, columns ...string) (*T, error) {
	return s.baseRepo().Get(ctx, id, columns...)
}

func (s *baseServiceImpl[T]) GetOne(ctx context.Context, where types.Where, columns []string, joins ...types.Join) (*T, error) {
	return s.baseRepo().GetOne(ctx, where, columns, joins...)
}

func (s *baseServiceImpl[T]) GetByName(ctx context.Context, name string) (*T, error) {
	return s.baseRepo().GetByName(ctx, name)
}

func (s *baseServiceImpl[T]) Exists(ctx context.Context, where types.Where, excludeID any) (bool, error) {
	return s.baseRepo().Exists(ctx, where, excludeID)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, opts *types.ListOptions) ([]*T, error) {
	return s.baseRepo().List(ctx, opts)
}

func (s *baseServiceImpl[T]) ListWhere(ctx context.Context, where types.Where, columns ...string) ([]*T, error) {
	return s.baseRepo().ListWhere(ctx, where, columns...)
}

func (s *baseServiceImpl[T]) Count(ctx context.Context, where types.Where, joins ...types.Join) (int, error) {
	return s.baseRepo().Count(ctx, where, joins...)
}

func (s *baseServiceImpl[T]) ActiveStatuses(ctx context.Context) ([]*T, error) {
	return s.baseRepo().ActiveStatuses(ctx)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.baseRepo().Page(ctx, page)
}

func (s *baseServiceImpl[T]) Create(ctx context.Context, data types.Attributes) (*T, error) {
	return s.baseRepo().Create(ctx, data)
}

func (s *baseServiceImpl[T]) UpdateByID(ctx context.Context, id any, data types.Attributes) (*T, error) {
	return s.baseRepo().UpdateByID(ctx, id, data)
}

func (s *baseServiceImpl[T]) UpdateWhere(ctx context.Context, where types.Where, data types.Attributes) (int64, error) {
	return s.baseRepo().UpdateWhere(ctx, where, data)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id any) error {
	return s.baseRepo().DeleteByID(ctx, id)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model ...*T) error {
	return s.baseRepo().Insert(ctx, model...)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, model *T) error {
	return s.baseRepo().Save(ctx, model)
}

func (s *baseServiceImpl[T]) SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error {
	return s.baseRepo().Upsert(ctx, fields, duplicateKeys, model...)
}

func (s *baseServiceImpl[T]) WithTx(tx bun.IDB) repository.Repository[T] {
	return s.baseRepo().WithTx(tx)
}

func (s *baseServiceImpl[T]) SelectBuilder() *bun.SelectQuery {
	return s.baseRepo().NewSelect()
}

func (s *baseServiceImpl[T]) InsertBuilder() *bun.InsertQuery {
	return s.baseRepo().NewInsert()
}

func (s *baseServiceImpl[T]) UpdateBuilder() *bun.UpdateQuery {
	return s.baseRepo().NewUpdate()
}

func (s *baseServiceImpl[T]) DeleteBuilder() *bun.DeleteQuery {
	return s.baseRepo().NewDelete()
}
