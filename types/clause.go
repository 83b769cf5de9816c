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

package types

import (
	"fmt"
	"reflect"
	"strings"
)

// Condition is a single comparison used inside Or and And clauses. When Raw is
// set the fragment is passed to the query builder verbatim together with Args,
// and Field, Operator and Value are ignored.
type Condition struct {
	Field    string
	Operator string // defaults to "="
	Value    interface{}
	Raw      string
	Args     []interface{}
}

// Cond builds a field comparison condition.
func Cond(field, operator string, value interface{}) Condition {
	return Condition{Field: field, Operator: operator, Value: value}
}

// Raw builds a verbatim SQL fragment condition.
func Raw(sql string, args ...interface{}) Condition {
	return Condition{Raw: sql, Args: args}
}

// IsRaw reports whether the condition is a raw fragment.
func (c Condition) IsRaw() bool { return c.Raw != "" }

// Clause is one entry of a Where list. Kind decides which payload
// fields are read.
type Clause struct {
	Kind       ClauseKind
	Field      string      // ClauseEquals, ClauseBetween
	Value      interface{} // ClauseEquals
	Low        interface{} // ClauseBetween
	High       interface{} // ClauseBetween
	Conditions []Condition // ClauseOr, ClauseAnd
}

// Validate checks that the clause carries the payload its kind needs.
func (c Clause) Validate() error {
	switch c.Kind {
	case ClauseEquals, ClauseBetween:
		if c.Field == "" {
			return fmt.Errorf("%s clause requires a field", c.Kind)
		}
	case ClauseOr, ClauseAnd:
		for i, cond := range c.Conditions {
			if cond.IsRaw() {
				if c.Kind == ClauseOr {
					return fmt.Errorf("or clause condition %d: raw fragments are only allowed in and clauses", i)
				}
				continue
			}
			if cond.Field == "" {
				return fmt.Errorf("%s clause condition %d requires a field", c.Kind, i)
			}
			op, err := NormalizeOperator(cond.Operator)
			if err != nil {
				return fmt.Errorf("%s clause condition %d: %w", c.Kind, i, err)
			}
			if (op == "IN" || op == "NOT IN") && !isList(cond.Value) {
				return fmt.Errorf("%s clause condition %d: %s requires a slice or array value", c.Kind, i, op)
			}
		}
	default:
		return fmt.Errorf("unknown clause kind: %d", int(c.Kind))
	}
	return nil
}

// Where is an ordered list of clauses. Clauses are applied in slice order.
type Where []Clause

// Eq returns a clause filtering field = value.
func Eq(field string, value interface{}) Clause {
	return Clause{Kind: ClauseEquals, Field: field, Value: value}
}

// Or returns a clause whose conditions are each OR-ed onto the query.
func Or(conds ...Condition) Clause {
	return Clause{Kind: ClauseOr, Conditions: conds}
}

// Between returns a clause filtering low <= field <= high.
func Between(field string, low, high interface{}) Clause {
	return Clause{Kind: ClauseBetween, Field: field, Low: low, High: high}
}

// And returns a clause grouping its conditions in parentheses joined by AND.
func And(conds ...Condition) Clause {
	return Clause{Kind: ClauseAnd, Conditions: conds}
}

// Equals builds a Where of equality clauses from a column/value map. Keys are
// sorted so the generated SQL is stable.
func Equals(values map[string]interface{}) Where {
	keys := sortedKeys(values)
	where := make(Where, 0, len(keys))
	for _, k := range keys {
		where = append(where, Eq(k, values[k]))
	}
	return where
}

// Validate validates every clause.
func (w Where) Validate() error {
	for i, c := range w {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("where clause %d: %w", i, err)
		}
	}
	return nil
}

// Join describes a table join. Operator defaults to "=" and Kind to an inner join.
type Join struct {
	Table    string
	Alias    string
	One      string
	Operator string
	Two      string
	Kind     JoinKind
}

// Validate checks the join has a table, both sides and a usable operator.
func (j Join) Validate() error {
	if j.Table == "" || j.One == "" || j.Two == "" {
		return fmt.Errorf("join requires table, one and two: %+v", j)
	}
	if !j.Kind.IsValid() {
		return fmt.Errorf("invalid join kind: %d", int(j.Kind))
	}
	_, err := NormalizeOperator(j.Operator)
	return err
}

// Order sorts by a column. Direction defaults to ASC.
type Order struct {
	Column    string
	Direction string
}

// Asc orders by column ascending.
func Asc(column string) Order { return Order{Column: column, Direction: "ASC"} }

// Desc orders by column descending.
func Desc(column string) Order { return Order{Column: column, Direction: "DESC"} }

// ListOptions replaces the loose clause map of a list query. Every field is
// optional; the zero value selects all rows with all model columns.
type ListOptions struct {
	Select     []string // columns; empty selects the model columns
	SelectRaw  string   // extra select expression, e.g. "COUNT(*) AS total"
	Where      Where
	Joins      []Join
	OrderBy    []Order
	GroupBy    []string
	GroupByRaw string
	Offset     int // 0 means no offset
	Limit      int // 0 means no limit
}

var operators = map[string]struct{}{
	"=": {}, "!=": {}, "<>": {}, "<": {}, "<=": {}, ">": {}, ">=": {},
	"LIKE": {}, "NOT LIKE": {}, "ILIKE": {},
	"IN": {}, "NOT IN": {},
	"IS": {}, "IS NOT": {},
}

// NormalizeOperator upper-cases and checks a comparison operator. An empty
// operator becomes "=".
func NormalizeOperator(op string) (string, error) {
	op = strings.ToUpper(strings.Join(strings.Fields(op), " "))
	if op == "" {
		return "=", nil
	}
	if _, ok := operators[op]; !ok {
		return "", fmt.Errorf("unsupported operator: %q", op)
	}
	return op, nil
}

// isList reports whether v is a slice or array other than raw bytes.
func isList(v interface{}) bool {
	if v == nil {
		return false
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Slice:
		return t.Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	}
	return false
}

// NormalizeDirection upper-cases and checks a sort direction. An empty
// direction becomes "ASC".
func NormalizeDirection(dir string) (string, error) {
	switch d := strings.ToUpper(strings.TrimSpace(dir)); d {
	case "":
		return "ASC", nil
	case "ASC", "DESC":
		return d, nil
	default:
		return "", fmt.Errorf("unsupported order direction: %q", dir)
	}
}
