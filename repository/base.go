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
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/tomoncle/recordkit/database"
	"github.com/tomoncle/recordkit/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

const defaultNameColumn = "name"

type baseRepositoryImpl[T any] struct {
	db         bun.IDB
	factory    func() *T
	nameColumn string
	logger     database.Logger
}

// NewRepository returns a generic repository for T backed by db, which may be
// a *bun.DB, a bun.Conn or a transaction.
func NewRepository[T any](db bun.IDB, opts ...Option[T]) Repository[T] {
	r := &baseRepositoryImpl[T]{
		db:         db,
		factory:    func() *T { return new(T) },
		nameColumn: defaultNameColumn,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = database.GetLogger()
	}
	return r
}

func (r *baseRepositoryImpl[T]) WithTx(tx bun.IDB) Repository[T] {
	clone := *r
	clone.db = tx
	return &clone
}

func (r *baseRepositoryImpl[T]) DB() bun.IDB { return r.db }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T]) Exists(ctx context.Context, where types.Where, excludeID any) (bool, error) {
	var err error
	query := r.db.NewSelect().Model((*T)(nil)).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			q, err = applyWhere(q, where)
			return q
		})
	if err != nil {
		return false, err
	}
	if !isZeroID(excludeID) {
		pk, err := r.primaryKey()
		if err != nil {
			return false, err
		}
		query = query.Where("?TableAlias.? != ?", bun.Ident(pk), excludeID)
	}
	return query.Exists(ctx)
}

func (r *baseRepositoryImpl[T]) Get(ctx context.Context, id any, columns ...string) (*T, error) {
	pk, err := r.primaryKey()
	if err != nil {
		return nil, err
	}
	entity := r.factory()
	query := r.db.NewSelect().Model(entity).Where("?TableAlias.? = ?", bun.Ident(pk), id)
	if len(columns) > 0 {
		query = query.Column(columns...)
	}
	return lookup(entity, query.Scan(ctx))
}

func (r *baseRepositoryImpl[T]) GetOne(ctx context.Context, where types.Where, columns []string, joins ...types.Join) (*T, error) {
	entity := r.factory()
	query, err := applyList(r.db.NewSelect().Model(entity), &types.ListOptions{
		Select: columns,
		Where:  where,
		Joins:  joins,
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	return lookup(entity, query.Scan(ctx))
}

func (r *baseRepositoryImpl[T]) GetByName(ctx context.Context, name string) (*T, error) {
	entity := r.factory()
	query := r.db.NewSelect().Model(entity)
	if scoper, ok := any(entity).(NameScoper); ok {
		query = scoper.ScopeName(query, name)
	} else {
		query = query.Where("?TableAlias.? = ?", bun.Ident(r.nameColumn), name)
	}
	return lookup(entity, query.Limit(1).Scan(ctx))
}

func (r *baseRepositoryImpl[T]) List(ctx context.Context, opts *types.ListOptions) ([]*T, error) {
	if opts == nil {
		opts = &types.ListOptions{}
	}
	entities := make([]*T, 0)
	query, err := applyList(r.db.NewSelect().Model(&entities), opts)
	if err != nil {
		return nil, err
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) ListWhere(ctx context.Context, where types.Where, columns ...string) ([]*T, error) {
	return r.List(ctx, &types.ListOptions{Select: columns, Where: where})
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, where types.Where, joins ...types.Join) (int, error) {
	query, err := applyWhere(r.db.NewSelect().Model((*T)(nil)), where)
	if err != nil {
		return 0, err
	}
	if query, err = applyJoins(query, joins); err != nil {
		return 0, err
	}
	return query.Count(ctx)
}

func (r *baseRepositoryImpl[T]) ActiveStatuses(ctx context.Context) ([]*T, error) {
	return r.ListWhere(ctx, types.Where{
		types.Eq("type", "status"),
		types.And(types.Cond("value", "<>", "B")),
	})
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	if pageRequest == nil {
		pageRequest = types.NewDefaultPageRequest(types.DefaultPage, types.DefaultPageSize)
	}
	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := r.Count(ctx, pageRequest.GetWhere(), pageRequest.GetJoins()...)
	if err != nil || total == 0 {
		return pagination, err
	}
	entities, err := r.List(ctx, pageRequest.ListOptions())
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = entities
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, data types.Attributes) (*T, error) {
	entity := r.factory()
	if _, err := r.assign(entity, data); err != nil {
		return nil, err
	}
	if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) UpdateByID(ctx context.Context, id any, data types.Attributes) (*T, error) {
	pk, err := r.primaryKey()
	if err != nil {
		return nil, err
	}
	entity, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		r.logger.Debug("Update skipped, record not found", "table", r.table().Name, "id", id)
		return nil, sql.ErrNoRows
	}
	columns, err := r.assign(entity, data)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return entity, nil
	}
	// match on the loaded key, data may carry a new one
	query := r.db.NewUpdate().Model(entity).Column(columns...).Where("? = ?", bun.Ident(pk), id)
	if _, err := query.Exec(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) UpdateWhere(ctx context.Context, where types.Where, data types.Attributes) (int64, error) {
	columns, err := r.checkColumns(data)
	if err != nil {
		return 0, err
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("update requires at least one column")
	}
	query := r.db.NewUpdate().Model((*T)(nil))
	for _, column := range columns {
		query = query.Set("? = ?", bun.Ident(column), data[column])
	}
	if len(where) == 0 {
		query = query.Where("1 = 1")
	} else if query, err = applyWhere(query, where); err != nil {
		return 0, err
	}
	result, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *baseRepositoryImpl[T]) DeleteByID(ctx context.Context, id any) error {
	entity, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if entity == nil {
		r.logger.Debug("Delete skipped, record not found", "table", r.table().Name, "id", id)
		return sql.ErrNoRows
	}
	_, err = r.db.NewDelete().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Insert(ctx context.Context, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	entities := valsToSlice(entity...)
	_, err := r.db.NewInsert().Model(&entities).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Save(ctx context.Context, entity *T) error {
	_, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, columns []string, conflictKeys []string, entity ...*T) error {
	if len(columns) == 0 {
		return fmt.Errorf("columns cannot be empty")
	}
	if len(entity) == 0 {
		return nil
	}
	entities := valsToSlice(entity...)
	features := r.db.Dialect().Features()
	switch {
	case features.Has(feature.InsertOnConflict):
		return r.upsertOnConflict(ctx, columns, conflictKeys, entities)
	case features.Has(feature.InsertOnDuplicateKey):
		return r.upsertOnDuplicateKey(ctx, columns, entities)
	default:
		return r.upsertFallback(ctx, entities)
	}
}

func (r *baseRepositoryImpl[T]) upsertOnDuplicateKey(ctx context.Context, columns []string, entities []*T) error {
	query := r.db.NewInsert().Model(&entities).On("DUPLICATE KEY UPDATE")
	for _, column := range columns {
		query = query.Set("? = VALUES(?)", bun.Ident(column), bun.Ident(column))
	}
	_, err := query.Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertOnConflict(ctx context.Context, columns []string, conflictKeys []string, entities []*T) error {
	if len(conflictKeys) == 0 {
		pk, err := r.primaryKey()
		if err != nil {
			return err
		}
		conflictKeys = []string{pk}
	}
	keys := make([]bun.Ident, len(conflictKeys))
	for i, key := range conflictKeys {
		keys[i] = bun.Ident(key)
	}
	query := r.db.NewInsert().Model(&entities).
		On("CONFLICT (?) DO UPDATE", bun.In(keys))
	for _, column := range columns {
		query = query.Set("? = EXCLUDED.?", bun.Ident(column), bun.Ident(column))
	}
	_, err := query.Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, entities []*T) error {
	for _, entity := range entities {
		if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
			if _, updateErr := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx); updateErr != nil {
				return fmt.Errorf("upsert failed: insert error: %v, update error: %w", err, updateErr)
			}
		}
	}
	return nil
}

func valsToSlice[T any](entity ...*T) []*T {
	entities := make([]*T, len(entity))
	copy(entities, entity)
	return entities
}

// lookup maps a missing row to a nil record.
func lookup[T any](entity *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func isZeroID(id any) bool {
	if id == nil {
		return true
	}
	return reflect.ValueOf(id).IsZero()
}
