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
	"fmt"
	"reflect"

	"github.com/tomoncle/recordkit/types"
	"github.com/uptrace/bun/schema"
)

func (r *baseRepositoryImpl[T]) table() *schema.Table {
	return r.db.Dialect().Tables().Get(reflect.TypeOf((*T)(nil)).Elem())
}

// primaryKey returns the single primary key column of T.
func (r *baseRepositoryImpl[T]) primaryKey() (string, error) {
	table := r.table()
	if len(table.PKs) != 1 {
		return "", fmt.Errorf("%s: expected one primary key, found %d", table.Name, len(table.PKs))
	}
	return table.PKs[0].Name, nil
}

// checkColumns rejects attribute keys that are not columns of T.
func (r *baseRepositoryImpl[T]) checkColumns(data types.Attributes) ([]string, error) {
	table := r.table()
	columns := data.Columns()
	for _, column := range columns {
		if _, ok := table.FieldMap[column]; !ok {
			return nil, fmt.Errorf("%s: unknown column %q", table.Name, column)
		}
	}
	return columns, nil
}

// assign copies data onto entity by column name and returns the columns
// that were written.
func (r *baseRepositoryImpl[T]) assign(entity *T, data types.Attributes) ([]string, error) {
	columns, err := r.checkColumns(data)
	if err != nil {
		return nil, err
	}
	table := r.table()
	strct := reflect.ValueOf(entity).Elem()
	for _, column := range columns {
		if err := setField(table.FieldMap[column], strct, data[column]); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", table.Name, column, err)
		}
	}
	return columns, nil
}

func setField(field *schema.Field, strct reflect.Value, value interface{}) error {
	dst := field.Value(strct)
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(value)
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case isNumber(src.Kind()) && isNumber(dst.Kind()),
		src.Kind() == reflect.String && dst.Kind() == reflect.String:
		dst.Set(src.Convert(dst.Type()))
	default:
		return field.ScanValue(strct, value)
	}
	return nil
}

func isNumber(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
