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

// Package sqlmock provides result sets with injectable failures for tests.
package sqlmock

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
)

// Rows is an in-memory result set.
// Values are assigned to scan destinations by reflection, a nil value sets
// the destination to its zero value.
type Rows struct {
	ColumnNames []string
	Data        [][]any

	ColumnsErr error // returned by Columns
	ScanErr    error // returned by Scan
	IterErr    error // returned by Err once the rows are exhausted
	CloseErr   error // returned by Close

	// FailAt makes Next stop before the row with this 1-based index and
	// report IterErr. Zero disables it.
	FailAt int

	index  int
	closed bool
}

// Columns returns the column names.
func (m *Rows) Columns() ([]string, error) {
	if m.ColumnsErr != nil {
		return nil, m.ColumnsErr
	}
	return m.ColumnNames, nil
}

// Next advances to the next row.
func (m *Rows) Next() bool {
	if m.closed || m.index >= len(m.Data) {
		return false
	}
	if m.FailAt > 0 && m.index+1 >= m.FailAt {
		return false
	}
	m.index++
	return true
}

// Scan copies the current row into dest.
func (m *Rows) Scan(dest ...any) error {
	if m.ScanErr != nil {
		return m.ScanErr
	}
	if m.index <= 0 || m.index > len(m.Data) {
		return errors.New("sqlmock: Scan called out of bounds")
	}
	row := m.Data[m.index-1]
	if len(dest) != len(row) {
		return fmt.Errorf("sqlmock: expected %d destinations, got %d", len(row), len(dest))
	}
	for i, d := range dest {
		if scanner, ok := d.(sql.Scanner); ok {
			if err := scanner.Scan(row[i]); err != nil {
				return fmt.Errorf("sqlmock: column %d: %w", i, err)
			}
			continue
		}
		dv := reflect.ValueOf(d)
		if dv.Kind() != reflect.Ptr || dv.IsNil() {
			return fmt.Errorf("sqlmock: destination %d is not a pointer", i)
		}
		target := dv.Elem()
		if row[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		src := reflect.ValueOf(row[i])
		switch {
		case src.Type().AssignableTo(target.Type()):
			target.Set(src)
		case src.Type().ConvertibleTo(target.Type()):
			target.Set(src.Convert(target.Type()))
		default:
			return fmt.Errorf("sqlmock: column %d: can not assign %T to %s", i, row[i], target.Type())
		}
	}
	return nil
}

// Err returns IterErr once the rows are exhausted.
func (m *Rows) Err() error {
	if m.FailAt > 0 && m.index+1 >= m.FailAt {
		return m.IterErr
	}
	if m.index >= len(m.Data) {
		return m.IterErr
	}
	return nil
}

// Close marks the rows as closed.
func (m *Rows) Close() error {
	m.closed = true
	return m.CloseErr
}

// Closed reports whether Close was called.
func (m *Rows) Closed() bool {
	return m.closed
}
