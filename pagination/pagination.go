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

// Package pagination rewrites a base query into a bounded page query and
// derives the matching total count query.
//
// The rewriting never changes the filters, ordering or projection of the base
// query. It only adds an outer bound, so the base query is treated as an
// opaque payload apart from trailing semicolons and whitespace, and a
// newline closing a trailing line comment.
package pagination

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-juicedev/dao/internal/sqltext"
)

// ErrInvalidPage is returned for page requests that can not be executed,
// such as a zero page size.
var ErrInvalidPage = errors.New("invalid page")

// Request describes the window of rows a caller wants.
// Offset and Size only take effect when they are marked as set.
type Request struct {
	Offset    int64
	Size      int64
	OffsetSet bool
	SizeSet   bool
}

// Bounded reports whether both the offset and the size are set.
func (r Request) Bounded() bool {
	return r.OffsetSet && r.SizeSet
}

// Validate reports requests that can never produce a page.
func (r Request) Validate() error {
	if r.SizeSet && r.Size == 0 {
		return fmt.Errorf("%w: page size must not be zero", ErrInvalidPage)
	}
	if r.SizeSet && r.Size < 0 {
		return fmt.Errorf("%w: negative page size %d", ErrInvalidPage, r.Size)
	}
	if r.OffsetSet && r.Offset < 0 {
		return fmt.Errorf("%w: negative offset %d", ErrInvalidPage, r.Offset)
	}
	return nil
}

// trim drops the trailing statement terminator and whitespace.
// A query ending in a line comment keeps a newline, so text appended to
// it is not commented out.
func trim(query string) string {
	query = strings.TrimRightFunc(query, func(r rune) bool {
		return r == ';' || unicode.IsSpace(r)
	})
	if sqltext.EndsInLineComment(query) {
		query += "\n"
	}
	return query
}

// CountSQL wraps query as a derived table and counts its rows.
// It is independent of the dialect.
func CountSQL(query string) string {
	return "SELECT COUNT(*) FROM (" + trim(query) + ") AS count_alias"
}

// Engine rewrites queries with the dialect it was built with.
// It is stateless and safe for concurrent use.
type Engine struct {
	dialect Dialect
}

// New returns an Engine for dialect.
// A nil dialect falls back to OffsetLimit.
func New(dialect Dialect) *Engine {
	if dialect == nil {
		dialect = OffsetLimit{}
	}
	return &Engine{dialect: dialect}
}

// Dialect returns the dialect of the engine.
func (e *Engine) Dialect() Dialect {
	return e.dialect
}

// Rewrite returns the data query for req.
// When req is not bounded the query is returned unchanged.
func (e *Engine) Rewrite(query string, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if !req.Bounded() {
		return query, nil
	}
	return e.dialect.rewrite(trim(query), req.Offset, req.Size), nil
}

// CountSQL returns the total count query for query.
func (e *Engine) CountSQL(query string) string {
	return CountSQL(query)
}

// HiddenColumns returns the synthetic columns the dialect adds to the result.
// They must be removed before rows reach the caller.
func (e *Engine) HiddenColumns() []string {
	return e.dialect.hiddenColumns()
}

// Dialect is a pagination strategy. The set of dialects is closed:
// OffsetLimit, LimitOffset and RowNumber.
type Dialect interface {
	// Name returns the configuration name of the dialect.
	Name() string

	rewrite(query string, offset, size int64) string
	hiddenColumns() []string
}

// OffsetLimit appends LIMIT <offset>,<size>, as understood by MySQL,
// SQLite and H2.
type OffsetLimit struct{}

// Name implements Dialect.
func (OffsetLimit) Name() string { return "offset-limit" }

func (OffsetLimit) rewrite(query string, offset, size int64) string {
	return query + " LIMIT " + strconv.FormatInt(offset, 10) + "," + strconv.FormatInt(size, 10)
}

func (OffsetLimit) hiddenColumns() []string { return nil }

// LimitOffset appends LIMIT <size> OFFSET <offset>, as understood by
// PostgreSQL and SQLite.
type LimitOffset struct{}

// Name implements Dialect.
func (LimitOffset) Name() string { return "limit-offset" }

func (LimitOffset) rewrite(query string, offset, size int64) string {
	return query + " LIMIT " + strconv.FormatInt(size, 10) + " OFFSET " + strconv.FormatInt(offset, 10)
}

func (LimitOffset) hiddenColumns() []string { return nil }

const (
	// DefaultFakeColumn is the synthetic row number column used by RowNumber.
	DefaultFakeColumn = "rn"

	// DefaultRowNumberExpr numbers the rows of the derived table.
	DefaultRowNumberExpr = "ROW_NUMBER() OVER ()"
)

// RowNumber wraps the query in a derived table that exposes a synthetic
// row number column and filters on it. It serves stores without LIMIT.
//
//	SELECT * FROM (SELECT page_src.*, <Expr> AS <Column> FROM (<query>) page_src) page_rn
//	WHERE <Column> BETWEEN <offset+1> AND <offset+size>
type RowNumber struct {
	// Column is the fake column name, DefaultFakeColumn when empty.
	Column string
	// Expr produces the row number, DefaultRowNumberExpr when empty.
	// Oracle uses ROWNUM.
	Expr string
}

// Name implements Dialect.
func (RowNumber) Name() string { return "row-number" }

func (d RowNumber) column() string {
	if d.Column == "" {
		return DefaultFakeColumn
	}
	return d.Column
}

func (d RowNumber) expr() string {
	if d.Expr == "" {
		return DefaultRowNumberExpr
	}
	return d.Expr
}

func (d RowNumber) rewrite(query string, offset, size int64) string {
	column := d.column()
	var builder strings.Builder
	builder.Grow(len(query) + 128)
	builder.WriteString("SELECT * FROM (SELECT page_src.*, ")
	builder.WriteString(d.expr())
	builder.WriteString(" AS ")
	builder.WriteString(column)
	builder.WriteString(" FROM (")
	builder.WriteString(query)
	builder.WriteString(") page_src) page_rn WHERE ")
	builder.WriteString(column)
	builder.WriteString(" BETWEEN ")
	builder.WriteString(strconv.FormatInt(offset+1, 10))
	builder.WriteString(" AND ")
	builder.WriteString(strconv.FormatInt(offset+size, 10))
	return builder.String()
}

func (d RowNumber) hiddenColumns() []string { return []string{d.column()} }

// Parse resolves a dialect by its configuration name.
// fakeColumn only applies to the row-number dialect.
func Parse(name, fakeColumn string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "offset-limit", "mysql", "h2":
		return OffsetLimit{}, nil
	case "limit-offset", "postgres":
		return LimitOffset{}, nil
	case "row-number", "rownum":
		return RowNumber{Column: fakeColumn}, nil
	default:
		return nil, fmt.Errorf("pagination: unknown dialect %q", name)
	}
}
