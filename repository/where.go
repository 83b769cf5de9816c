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

	"github.com/tomoncle/recordkit/types"
	"github.com/uptrace/bun"
)

// whereQuery is the where surface shared by bun select, update and delete
// queries.
type whereQuery[Q any] interface {
	Where(query string, args ...interface{}) Q
	WhereOr(query string, args ...interface{}) Q
	WhereGroup(sep string, fn func(Q) Q) Q
}

// applyWhere adds every clause to q in order. Or conditions are OR-ed onto the
// query at top level; And conditions form one parenthesised group.
func applyWhere[Q whereQuery[Q]](q Q, where types.Where) (Q, error) {
	if err := where.Validate(); err != nil {
		return q, err
	}
	for _, clause := range where {
		switch clause.Kind {
		case types.ClauseEquals:
			q = equals(q, clause.Field, clause.Value)
		case types.ClauseOr:
			for _, cond := range clause.Conditions {
				query, args := comparison(cond)
				q = q.WhereOr(query, args...)
			}
		case types.ClauseBetween:
			q = q.Where("? BETWEEN ? AND ?", bun.Ident(clause.Field), clause.Low, clause.High)
		case types.ClauseAnd:
			conds := clause.Conditions
			q = q.WhereGroup(" AND ", func(g Q) Q {
				for _, cond := range conds {
					if cond.IsRaw() {
						g = g.Where(cond.Raw, cond.Args...)
						continue
					}
					query, args := comparison(cond)
					g = g.Where(query, args...)
				}
				return g
			})
		}
	}
	return q, nil
}

func equals[Q whereQuery[Q]](q Q, field string, value interface{}) Q {
	if value == nil {
		return q.Where("? IS NULL", bun.Ident(field))
	}
	return q.Where("? = ?", bun.Ident(field), value)
}

// comparison renders a validated, non-raw condition.
func comparison(cond types.Condition) (string, []interface{}) {
	op, _ := types.NormalizeOperator(cond.Operator)
	switch op {
	case "IN", "NOT IN":
		return "? ? (?)", []interface{}{bun.Ident(cond.Field), bun.Safe(op), bun.In(cond.Value)}
	case "=":
		if cond.Value == nil {
			return "? IS NULL", []interface{}{bun.Ident(cond.Field)}
		}
	case "!=", "<>":
		if cond.Value == nil {
			return "? IS NOT NULL", []interface{}{bun.Ident(cond.Field)}
		}
	}
	return "? ? ?", []interface{}{bun.Ident(cond.Field), bun.Safe(op), cond.Value}
}

func applyJoins(q *bun.SelectQuery, joins []types.Join) (*bun.SelectQuery, error) {
	for i, j := range joins {
		if err := j.Validate(); err != nil {
			return q, fmt.Errorf("join %d: %w", i, err)
		}
		op, _ := types.NormalizeOperator(j.Operator)
		if j.Alias != "" {
			q = q.Join("? ? AS ?", bun.Safe(j.Kind.Desc()), bun.Ident(j.Table), bun.Ident(j.Alias))
		} else {
			q = q.Join("? ?", bun.Safe(j.Kind.Desc()), bun.Ident(j.Table))
		}
		q = q.JoinOn("? ? ?", bun.Ident(j.One), bun.Safe(op), bun.Ident(j.Two))
	}
	return q, nil
}

func applyOrder(q *bun.SelectQuery, orders []types.Order) (*bun.SelectQuery, error) {
	for _, o := range orders {
		if o.Column == "" {
			return q, fmt.Errorf("order requires a column")
		}
		dir, err := types.NormalizeDirection(o.Direction)
		if err != nil {
			return q, err
		}
		q = q.OrderExpr("? ?", bun.Ident(o.Column), bun.Safe(dir))
	}
	return q, nil
}

// applyList builds a list query in fixed clause order: select, where, join,
// order by, group by, offset, limit.
func applyList(q *bun.SelectQuery, opts *types.ListOptions) (*bun.SelectQuery, error) {
	var err error
	if len(opts.Select) > 0 {
		q = q.Column(opts.Select...)
	}
	if opts.SelectRaw != "" {
		q = q.ColumnExpr(opts.SelectRaw)
	}
	if q, err = applyWhere(q, opts.Where); err != nil {
		return q, err
	}
	if q, err = applyJoins(q, opts.Joins); err != nil {
		return q, err
	}
	if q, err = applyOrder(q, opts.OrderBy); err != nil {
		return q, err
	}
	if len(opts.GroupBy) > 0 {
		q = q.Group(opts.GroupBy...)
	}
	if opts.GroupByRaw != "" {
		q = q.GroupExpr(opts.GroupByRaw)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	return q, nil
}
