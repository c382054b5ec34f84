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
	"database/sql"
	"fmt"
	_ "unsafe" // for go:linkname
)

// convertAssign applies the conversion rules of sql.Rows.Scan.
//
//go:linkname convertAssign database/sql.convertAssign
func convertAssign(dest, src any) error

// MemoryRows serves a fixed result set from memory. The row mapper is
// exercised against it without a database.
type MemoryRows struct {
	columns []string
	values  [][]any
	failure error
	cursor  int
	closed  bool
}

// NewMemoryRows returns rows positioned before the first of values.
func NewMemoryRows(columns []string, values [][]any) *MemoryRows {
	return &MemoryRows{columns: columns, values: values}
}

// FailWith makes Err report err once every row was consumed, the way a
// connection dropped mid-stream surfaces from database/sql.
func (m *MemoryRows) FailWith(err error) *MemoryRows {
	m.failure = err
	return m
}

func (m *MemoryRows) Columns() ([]string, error) {
	if m.closed {
		return nil, sql.ErrConnDone
	}
	return m.columns, nil
}

func (m *MemoryRows) Next() bool {
	if m.closed || m.cursor > len(m.values) {
		return false
	}
	m.cursor++
	return m.cursor <= len(m.values)
}

func (m *MemoryRows) Scan(dest ...any) error {
	if m.closed {
		return sql.ErrConnDone
	}
	if m.cursor < 1 || m.cursor > len(m.values) {
		return sql.ErrNoRows
	}
	row := m.values[m.cursor-1]
	if len(dest) != len(row) {
		return fmt.Errorf("sql: %d columns in row, %d scan destinations", len(row), len(dest))
	}
	for i, value := range row {
		if err := convertAssign(dest[i], value); err != nil {
			return fmt.Errorf("sql: column %q: %w", m.columns[i], err)
		}
	}
	return nil
}

func (m *MemoryRows) Close() error {
	m.closed = true
	return nil
}

func (m *MemoryRows) Err() error {
	if m.cursor > len(m.values) {
		return m.failure
	}
	return nil
}

var _ Rows = (*MemoryRows)(nil)
