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
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mitranim/refut"
)

// Row is a single result row keyed by column name.
type Row = map[string]any

// ColumnTag is the struct tag used to name the column of a field.
// Fields without the tag are matched by their Go name.
// Matching is case-insensitive in both cases.
const ColumnTag = "column"

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

	timeType = reflect.TypeOf(time.Time{})

	rowType = reflect.TypeFor[Row]()
)

// fieldIndex maps a lower-cased column name to the field path of a struct.
type fieldIndex map[string][]int

// fieldIndexes caches fieldIndex values per struct type.
var fieldIndexes sync.Map

func isScannable(t reflect.Type) bool {
	t = refut.RtypeDeref(t)
	return t == timeType || reflect.PointerTo(t).Implements(scannerType)
}

// isScalar reports whether t is scanned from a single column instead of
// being matched field by field.
func isScalar(t reflect.Type) bool {
	return refut.RtypeDeref(t).Kind() != reflect.Struct || isScannable(t)
}

func structFieldIndex(t reflect.Type) (fieldIndex, error) {
	if cached, ok := fieldIndexes.Load(t); ok {
		return cached.(fieldIndex), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", t)
	}
	index := make(fieldIndex)
	err := refut.TraverseStructRtype(t, func(field reflect.StructField, path []int) error {
		if !refut.IsSfieldExported(field) {
			return nil
		}
		if field.Anonymous && !isScalar(field.Type) {
			return nil
		}
		tag := field.Tag.Get(ColumnTag)
		if tag == "-" {
			return nil
		}
		name := refut.TagIdent(tag)
		if name == "" {
			name = field.Name
		}
		key := strings.ToLower(name)
		// the outermost field wins, like encoding/json
		if _, exists := index[key]; !exists {
			index[key] = append([]int(nil), path...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(index) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoWritableField, t)
	}
	fieldIndexes.Store(t, index)
	return index, nil
}

// Fields returns the field paths of the struct type t keyed by lower-cased
// column name. The returned map is shared and must not be modified.
func Fields(t reflect.Type) (map[string][]int, error) {
	return structFieldIndex(refut.RtypeDeref(t))
}

// plan is the column to destination layout for one result set.
type plan struct {
	scalar bool
	paths  [][]int
}

func newPlan(t reflect.Type, columns []string, hidden []string) (*plan, error) {
	if isScalar(t) {
		if len(columns) == 0 {
			return nil, errors.New("result set has no columns")
		}
		return &plan{scalar: true, paths: make([][]int, len(columns))}, nil
	}
	index, err := structFieldIndex(t)
	if err != nil {
		return nil, err
	}
	p := &plan{paths: make([][]int, len(columns))}
	for i, column := range columns {
		if isHidden(column, hidden) {
			continue
		}
		p.paths[i] = index[strings.ToLower(column)]
	}
	return p, nil
}

// destinations returns the scan targets for target, which must be addressable.
// Columns without a destination are scanned into throwaway values.
func (p *plan) destinations(target reflect.Value) []any {
	dest := make([]any, len(p.paths))
	for i, path := range p.paths {
		switch {
		case p.scalar && i == 0:
			dest[i] = target.Addr().Interface()
		case path == nil:
			dest[i] = new(any)
		default:
			dest[i] = refut.RvalFieldByPathAlloc(target, path).Addr().Interface()
		}
	}
	return dest
}

// layout builds values of one type from the rows of one result set.
type layout struct {
	rtype     reflect.Type
	ptrStruct bool
	plan      *plan
}

func newLayout(rtype reflect.Type, columns []string, hidden []string) (*layout, error) {
	l := &layout{rtype: rtype}
	elem := rtype
	// pointers to scalars are scanned as a whole, so NULL becomes nil
	if rtype.Kind() == reflect.Ptr && !isScalar(rtype.Elem()) {
		l.ptrStruct = true
		elem = rtype.Elem()
	}
	p, err := newPlan(elem, columns, hidden)
	if err != nil {
		return nil, err
	}
	l.plan = p
	return l, nil
}

// scan reads the current row into a new value.
func (l *layout) scan(rows Rows) (reflect.Value, error) {
	if l.ptrStruct {
		ptr := reflect.New(l.rtype.Elem())
		err := rows.Scan(l.plan.destinations(ptr.Elem())...)
		return ptr, err
	}
	ptr := reflect.New(l.rtype)
	err := rows.Scan(l.plan.destinations(ptr.Elem())...)
	return ptr.Elem(), err
}

// ListOf is the reflective form of List. It reads every remaining row into
// a slice of elem and returns the slice.
func ListOf(rows Rows, elem reflect.Type, hidden ...string) (reflect.Value, error) {
	if rows == nil {
		return reflect.Value{}, ErrNilRows
	}
	columns, err := rows.Columns()
	if err != nil {
		return reflect.Value{}, err
	}
	l, err := newLayout(elem, columns, hidden)
	if err != nil {
		return reflect.Value{}, err
	}
	result := reflect.MakeSlice(reflect.SliceOf(elem), 0, 0)
	for rows.Next() {
		value, err := l.scan(rows)
		if err != nil {
			return reflect.Value{}, err
		}
		result = reflect.Append(result, value)
	}
	if err = rows.Err(); err != nil {
		return reflect.Value{}, err
	}
	return result, nil
}

func isHidden(column string, hidden []string) bool {
	for _, h := range hidden {
		if strings.EqualFold(column, h) {
			return true
		}
	}
	return false
}

// MapRows reads every remaining row into a Row.
// Columns named in hidden are dropped, byte slices are returned as strings.
// The rows are not closed.
func MapRows(rows Rows, hidden ...string) ([]Row, error) {
	if rows == nil {
		return nil, ErrNilRows
	}
	result := make([]Row, 0)
	for rows.Next() {
		row, err := mapRow(rows, hidden)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// mapRow reads the current row into a Row.
func mapRow(rows Rows, hidden []string) (Row, error) {
	row := make(Row)
	if err := sqlx.MapScan(rows, row); err != nil {
		return nil, err
	}
	for column, value := range row {
		if isHidden(column, hidden) {
			delete(row, column)
			continue
		}
		if b, ok := value.([]byte); ok {
			row[column] = string(b)
		}
	}
	return row, nil
}

// List converts Rows to a slice of the given entity type.
// If there are no rows, it returns an empty slice.
// Struct fields are matched case-insensitively against the column names,
// columns without a field and fields without a column are skipped.
// Any other type is scanned from the first column.
func List[T any](rows Rows, hidden ...string) ([]T, error) {
	iterator, err := Iter[T](rows, hidden...)
	if err != nil {
		return nil, err
	}
	result := make([]T, 0)
	for value, err := range iterator {
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}
	return result, nil
}

// One returns the only row of rows.
// It returns sql.ErrNoRows for an empty result and ErrTooManyRows when
// more than one row is available.
func One[T any](rows Rows, hidden ...string) (result T, err error) {
	items, err := List[T](rows, hidden...)
	if err != nil {
		return result, err
	}
	switch len(items) {
	case 0:
		return result, sql.ErrNoRows
	case 1:
		return items[0], nil
	default:
		return result, ErrTooManyRows
	}
}

// Scalar scans the first column of the first row into T.
func Scalar[T any](rows Rows) (result T, err error) {
	if rows == nil {
		return result, ErrNilRows
	}
	columns, err := rows.Columns()
	if err != nil {
		return result, err
	}
	if len(columns) == 0 {
		return result, errors.New("result set has no columns")
	}
	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return result, err
		}
		return result, sql.ErrNoRows
	}
	dest := make([]any, len(columns))
	dest[0] = &result
	for i := 1; i < len(dest); i++ {
		dest[i] = new(any)
	}
	if err = rows.Scan(dest...); err != nil {
		return result, err
	}
	return result, rows.Err()
}
