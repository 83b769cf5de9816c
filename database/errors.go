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

package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// SQLError classifies driver errors surfaced by the repository layer.
type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoColumnErr
	NoTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
	SyntaxErr
)

var sqlErrorNames = [...]string{
	UnknownErr:                  "unknown",
	NoRowsErr:                   "no_rows",
	NoColumnErr:                 "no_column",
	NoTableErr:                  "no_table",
	DuplicateKeyErr:             "duplicate_key",
	NotNullViolationErr:         "not_null_violation",
	ForeignKeyViolationErr:      "foreign_key_violation",
	CheckConstraintViolationErr: "check_constraint_violation",
	DataTruncatedErr:            "data_truncated",
	InvalidTypeCastErr:          "invalid_type_cast",
	SyntaxErr:                   "syntax",
}

func (e SQLError) String() string {
	if e < 0 || int(e) >= len(sqlErrorNames) {
		return sqlErrorNames[UnknownErr]
	}
	return sqlErrorNames[e]
}

var mysqlErrorNumbers = map[uint16]SQLError{
	1054: NoColumnErr,
	1146: NoTableErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
	1406: DataTruncatedErr,
	1064: SyntaxErr,
}

// postgres (lib/pq, sqlstate) and sqlite messages, checked in order.
var messageMatchers = []struct {
	kind    SQLError
	needles []string
}{
	{NoColumnErr, []string{"sqlstate 42703", "undefined column", "no such column"}},
	{NoTableErr, []string{"sqlstate 42p01", "undefined table", "no such table"}},
	{DuplicateKeyErr, []string{"sqlstate 23505", "duplicate key value", "unique constraint failed"}},
	{NotNullViolationErr, []string{"sqlstate 23502", "not-null constraint", "not null constraint failed"}},
	{ForeignKeyViolationErr, []string{"sqlstate 23503", "foreign key violation", "foreign key constraint failed"}},
	{CheckConstraintViolationErr, []string{"sqlstate 23514", "check constraint"}},
	{DataTruncatedErr, []string{"sqlstate 22001", "string data right truncation", "data truncated"}},
	{InvalidTypeCastErr, []string{"sqlstate 42804", "datatype mismatch"}},
	{SyntaxErr, []string{"sqlstate 42601", "syntax error"}},
}

// IsSqlError reports whether err came from the database and which kind it is.
// Errors are only classified, never replaced; callers keep the original value.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true, NoRowsErr
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if kind, ok := mysqlErrorNumbers[mysqlErr.Number]; ok {
			return true, kind
		}
		return true, UnknownErr
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "does not exist") {
		switch {
		case strings.Contains(s, "column"):
			return true, NoColumnErr
		case strings.Contains(s, "relation"):
			return true, NoTableErr
		}
	}
	for _, m := range messageMatchers {
		for _, needle := range m.needles {
			if strings.Contains(s, needle) {
				return true, m.kind
			}
		}
	}
	return false, UnknownErr
}

// IsNotFound reports whether err is the not-found condition of the backing
// store.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
