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
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-juicedev/dao/internal/sqltext"
)

// PlaceholderStyle is the kind of placeholders found in a query.
type PlaceholderStyle int

const (
	// NoPlaceholders means the query takes no parameters.
	NoPlaceholders PlaceholderStyle = iota
	// QuestionPlaceholders means the query uses ? placeholders.
	QuestionPlaceholders
	// NamedPlaceholders means the query uses :name placeholders.
	NamedPlaceholders
)

// String implements fmt.Stringer.
func (s PlaceholderStyle) String() string {
	switch s {
	case QuestionPlaceholders:
		return "?"
	case NamedPlaceholders:
		return ":name"
	default:
		return "none"
	}
}

// Template is the compiled form of a query.
// Named placeholders are rewritten to ? and their names kept in order.
type Template struct {
	source string
	query  string
	style  PlaceholderStyle
	names  []string
	count  int
	// marks holds the offset of every placeholder in query.
	marks []int
}

// Source returns the query the template was compiled from.
func (t *Template) Source() string { return t.source }

// Query returns the query with every placeholder written as ?.
func (t *Template) Query() string { return t.query }

// Style returns the placeholder style of the query.
func (t *Template) Style() PlaceholderStyle { return t.style }

// Names returns the names of the named placeholders in order of appearance.
func (t *Template) Names() []string { return t.names }

// Count returns the number of placeholders.
func (t *Template) Count() int { return t.count }

// Compile scans query for placeholders. Quoted strings, quoted identifiers,
// comments and PostgreSQL :: casts are skipped.
// A query may not mix ? and :name placeholders.
func Compile(query string) (*Template, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	t := &Template{source: query}
	var sb strings.Builder
	sb.Grow(len(query))
	i := 0
	for i < len(query) {
		end, err := sqltext.Skip(query, i)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStatement, err)
		}
		if end > i {
			sb.WriteString(query[i:end])
			i = end
			continue
		}
		r, w := utf8.DecodeRuneInString(query[i:])
		switch r {
		case ':':
			if strings.HasPrefix(query[i:], "::") {
				sb.WriteString("::")
				i += 2
				continue
			}
			if name, end := parseIdent(query, i+1); name != "" {
				if err := t.see(NamedPlaceholders); err != nil {
					return nil, err
				}
				t.names = append(t.names, name)
				t.marks = append(t.marks, sb.Len())
				sb.WriteByte('?')
				i = end
				continue
			}
		case '?':
			if err := t.see(QuestionPlaceholders); err != nil {
				return nil, err
			}
			t.marks = append(t.marks, sb.Len())
		}
		sb.WriteString(query[i : i+w])
		i += w
	}
	t.query = sb.String()
	return t, nil
}

func (t *Template) see(style PlaceholderStyle) error {
	if t.style != NoPlaceholders && t.style != style {
		return fmt.Errorf("%w: query mixes ? and :name placeholders", ErrParameterBinding)
	}
	t.style = style
	t.count++
	return nil
}

// Bind returns the query and its arguments for params.
// The variant of params must fit the placeholder style: Positional for ?,
// Named or Record for :name. A query without placeholders accepts nil or
// an empty Positional set. Slice arguments are expanded for IN lists.
func (t *Template) Bind(params Params) (string, []any, error) {
	if params == nil {
		params = Positional()
	}
	var args []any
	switch t.style {
	case NoPlaceholders:
		if params.Shape() != ShapePositional || len(params.values()) != 0 {
			return "", nil, fmt.Errorf("%w: query takes no parameters, got %s parameters", ErrParameterBinding, params.Shape())
		}
		return t.query, nil, nil
	case QuestionPlaceholders:
		if params.Shape() != ShapePositional {
			return "", nil, fmt.Errorf("%w: ? placeholders need positional parameters, got %s", ErrParameterBinding, params.Shape())
		}
		args = params.values()
		if len(args) != t.count {
			return "", nil, fmt.Errorf("%w: query has %d placeholders, got %d values", ErrParameterBinding, t.count, len(args))
		}
	case NamedPlaceholders:
		if params.Shape() == ShapePositional {
			return "", nil, fmt.Errorf("%w: :name placeholders need named or record parameters, got positional", ErrParameterBinding)
		}
		args = make([]any, len(t.names))
		for i, name := range t.names {
			value, err := params.lookup(name)
			if err != nil {
				return "", nil, err
			}
			args[i] = value
		}
	}
	return t.expand(args)
}

// expand writes a slice argument as a ?, ?, ... list at its own placeholder.
// Question marks inside literals and comments are never touched.
func (t *Template) expand(args []any) (string, []any, error) {
	var sb strings.Builder
	flat := make([]any, 0, len(args))
	last := 0
	for i, arg := range args {
		values, ok := inValues(arg)
		if !ok {
			flat = append(flat, arg)
			continue
		}
		if len(values) == 0 {
			return "", nil, fmt.Errorf("%w: empty slice for placeholder %d", ErrParameterBinding, i+1)
		}
		mark := t.marks[i] + 1
		sb.WriteString(t.query[last:mark])
		sb.WriteString(strings.Repeat(", ?", len(values)-1))
		last = mark
		flat = append(flat, values...)
	}
	if last == 0 {
		return t.query, args, nil
	}
	sb.WriteString(t.query[last:])
	return sb.String(), flat, nil
}

// inValues returns the elements of a slice argument. Byte slices and
// driver.Valuer values are single values.
func inValues(arg any) ([]any, bool) {
	if arg == nil {
		return nil, false
	}
	if _, ok := arg.(driver.Valuer); ok {
		return nil, false
	}
	v := reflect.ValueOf(arg)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice || v.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	values := make([]any, v.Len())
	for i := range values {
		values[i] = v.Index(i).Interface()
	}
	return values, true
}

func parseIdent(s string, i int) (string, int) {
	start := i
	for i < len(s) {
		r, w := utf8.DecodeRuneInString(s[i:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		i += w
	}
	// a name must not start with a digit, :1 style markers are left alone
	if i == start || unicode.IsDigit(rune(s[start])) {
		return "", i
	}
	return s[start:i], i
}
