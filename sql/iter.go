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
	"iter"
	"reflect"
)

// Iterator yields mapped rows. Iteration stops after the first error.
type Iterator[T any] iter.Seq2[T, error]

// Iter maps rows lazily into T. A Row gets every column, like MapRows.
// Columns named in hidden are never mapped.
func Iter[T any](rows Rows, hidden ...string) (Iterator[T], error) {
	if rows == nil {
		return nil, ErrNilRows
	}
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var next func() (T, error)
	if reflect.TypeFor[T]() == rowType {
		next = func() (T, error) {
			row, err := mapRow(rows, hidden)
			result, _ := any(row).(T)
			return result, err
		}
	} else {
		l, err := newLayout(reflect.TypeFor[T](), columns, hidden)
		if err != nil {
			return nil, err
		}
		next = func() (T, error) {
			value, err := l.scan(rows)
			if err != nil {
				var zero T
				return zero, err
			}
			// comma-ok keeps a NULL scanned into an interface type from panicking
			result, _ := value.Interface().(T)
			return result, nil
		}
	}

	return func(yield func(T, error) bool) {
		for rows.Next() {
			value, err := next()
			if !yield(value, err) {
				return
			}
			if err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}, nil
}
