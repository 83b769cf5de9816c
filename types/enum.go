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

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// ClauseKind tags the payload carried by a Clause.
type ClauseKind int

const (
	ClauseEquals ClauseKind = iota
	ClauseOr
	ClauseBetween
	ClauseAnd
)

var clauseKindNames = map[ClauseKind][2]string{
	ClauseEquals:  {"equals", "field equals value"},
	ClauseOr:      {"or", "disjunctive conditions"},
	ClauseBetween: {"between", "inclusive range filter"},
	ClauseAnd:     {"and", "grouped conjunctive conditions"},
}

var _ BaseEnum = ClauseKind(0)

func (k ClauseKind) IsValid() bool {
	_, ok := clauseKindNames[k]
	return ok
}

func (k ClauseKind) Number() int {
	if !k.IsValid() {
		return IllegalValue
	}
	return int(k)
}

func (k ClauseKind) Name() string {
	if v, ok := clauseKindNames[k]; ok {
		return v[0]
	}
	return IllegalName
}

func (k ClauseKind) Desc() string {
	if v, ok := clauseKindNames[k]; ok {
		return v[1]
	}
	return IllegalDesc
}

func (k ClauseKind) String() string { return k.Name() }

// JoinKind selects the SQL join type. The zero value is an inner join.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
)

var _ BaseEnum = JoinKind(0)

func (k JoinKind) IsValid() bool { return k == JoinInner || k == JoinLeft }

func (k JoinKind) Number() int {
	if !k.IsValid() {
		return IllegalValue
	}
	return int(k)
}

func (k JoinKind) Name() string {
	switch k {
	case JoinInner:
		return "inner"
	case JoinLeft:
		return "left"
	default:
		return IllegalName
	}
}

// Desc returns the SQL keyword for the join.
func (k JoinKind) Desc() string {
	switch k {
	case JoinInner:
		return "JOIN"
	case JoinLeft:
		return "LEFT JOIN"
	default:
		return IllegalDesc
	}
}

func (k JoinKind) String() string { return k.Name() }
