/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package sql

import (
	"strings"
	"unicode"
)

// Action is the kind of statement, decided by its leading keyword.
type Action string

const (
	Select Action = "select"
	Insert Action = "insert"
	Update Action = "update"
	Delete Action = "delete"
)

func (a Action) String() string {
	return string(a)
}

// ForRead reports whether the statement returns rows.
func (a Action) ForRead() bool {
	return a == Select
}

func (a Action) ForWrite() bool {
	return a == Insert || a == Update || a == Delete
}

// ActionOf returns the action of query by its leading keyword.
// Queries that do not start with INSERT, UPDATE or DELETE are reads.
func ActionOf(query string) Action {
	query = strings.TrimLeftFunc(query, func(r rune) bool {
		return unicode.IsSpace(r) || r == '('
	})
	end := strings.IndexFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end >= 0 {
		query = query[:end]
	}
	switch action := Action(strings.ToLower(query)); action {
	case Insert, Update, Delete:
		return action
	default:
		return Select
	}
}
