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

package dao

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitranim/refut"

	"github.com/go-juicedev/dao/internal/reflectlite"
	sqllib "github.com/go-juicedev/dao/sql"
)

// ParamShape is the calling convention of a call.
type ParamShape int

const (
	// ShapeNone is used where no parameters are involved.
	ShapeNone ParamShape = iota
	// ShapePositional binds ordered values to ? placeholders.
	ShapePositional
	// ShapeNamed binds the values of a map to :name placeholders.
	ShapeNamed
	// ShapeRecord binds the fields of a struct to :name placeholders.
	ShapeRecord
)

// String implements fmt.Stringer.
func (s ParamShape) String() string {
	switch s {
	case ShapePositional:
		return "positional"
	case ShapeNamed:
		return "named"
	case ShapeRecord:
		return "record"
	default:
		return "none"
	}
}

// Params is the set of arguments of one call.
// It is one of Positional, Named or Record.
type Params interface {
	// Shape returns the calling convention of the set.
	Shape() ParamShape

	// lookup returns the value bound to a named placeholder.
	lookup(name string) (any, error)

	// values returns the values bound to positional placeholders.
	values() []any
}

type positional []any

// Positional returns the values as ordered parameters.
func Positional(values ...any) Params {
	return positional(values)
}

func (p positional) Shape() ParamShape { return ShapePositional }

func (p positional) values() []any { return p }

func (p positional) lookup(name string) (any, error) {
	return nil, fmt.Errorf("%w: named placeholder :%s with positional parameters", ErrParameterBinding, name)
}

type named map[string]any

// Named returns the map as named parameters.
// Names are matched exactly first and case-insensitively after that.
func Named(values map[string]any) Params {
	return named(values)
}

func (n named) Shape() ParamShape { return ShapeNamed }

func (n named) values() []any { return nil }

func (n named) lookup(name string) (any, error) {
	if value, ok := n[name]; ok {
		return value, nil
	}
	for key, value := range n {
		if strings.EqualFold(key, name) {
			return value, nil
		}
	}
	return nil, fmt.Errorf("%w: missing named parameter %q", ErrParameterBinding, name)
}

type record struct {
	value reflect.Value
}

// Record returns the exported fields of a struct, or a pointer to one, as
// named parameters. A field is named by its column tag, or else by its Go
// name, and matched case-insensitively.
func Record(v any) Params {
	return record{value: reflectlite.Unwrap(reflect.ValueOf(v))}
}

func (r record) Shape() ParamShape { return ShapeRecord }

func (r record) values() []any { return nil }

func (r record) lookup(name string) (any, error) {
	if !r.value.IsValid() || r.value.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: record parameter must be a struct, got %s", ErrParameterBinding, r.kind())
	}
	fields, err := sqllib.Fields(r.value.Type())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParameterBinding, err)
	}
	path, ok := fields[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no field for :%s", ErrParameterBinding, r.value.Type(), name)
	}
	field, err := r.value.FieldByIndexErr(path)
	if err != nil {
		// a nil embedded pointer reads as NULL
		return nil, nil
	}
	value := field.Interface()
	if refut.IsNil(value) {
		return nil, nil
	}
	return value, nil
}

func (r record) kind() string {
	if !r.value.IsValid() {
		return "nil"
	}
	return r.value.Type().String()
}
