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
	"context"
	"database/sql"
	"reflect"

	"github.com/go-juicedev/dao/session"
	sqllib "github.com/go-juicedev/dao/sql"
)

// Executor runs one statement and reads its result as T.
type Executor[T any] interface {
	// QueryContext executes the query and reads the rows as T.
	QueryContext(ctx context.Context, params Params) (T, error)

	// ExecContext executes a statement without returning any rows.
	ExecContext(ctx context.Context, params Params) (sql.Result, error)

	// Statement returns a copy of the statement of the executor.
	Statement() Statement
}

// reader turns the rows of a query into T.
// hidden names the columns added by the pagination rewrite.
type reader[T any] func(rows sqllib.Rows, hidden []string) (T, error)

// ensure genericExecutor implements Executor.
var _ Executor[[]Row] = (*genericExecutor[[]Row])(nil) // compile time check

// genericExecutor implements Executor on top of Engine.run.
type genericExecutor[T any] struct {
	engine *Engine
	stmt   Statement
	read   reader[T]
}

// QueryContext implements Executor.
func (g *genericExecutor[T]) QueryContext(ctx context.Context, params Params) (result T, err error) {
	err = g.engine.run(ctx, g.stmt, params, func(ctx context.Context, h *statementHandler, query string, args []any) error {
		return h.read(ctx, h.stmt, query, args, func(rows sqllib.Rows) (err error) {
			result, err = g.read(rows, nil)
			return err
		})
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// ExecContext implements Executor.
func (g *genericExecutor[T]) ExecContext(ctx context.Context, params Params) (result sql.Result, err error) {
	err = g.engine.run(ctx, g.stmt, params, func(ctx context.Context, h *statementHandler, query string, args []any) (err error) {
		result, err = h.ExecContext(ctx, h.stmt, query, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Statement implements Executor.
func (g *genericExecutor[T]) Statement() Statement {
	return g.stmt
}

func newExecutor[T any](e *Engine, stmt Statement, read reader[T]) *genericExecutor[T] {
	return &genericExecutor[T]{engine: e, stmt: stmt, read: read}
}

var rowType = reflect.TypeFor[Row]()

func readRows(rows sqllib.Rows, hidden []string) ([]Row, error) {
	return sqllib.MapRows(rows, hidden...)
}

// readList maps rows to T, a Row being read as a map.
func readList[T any](rows sqllib.Rows, hidden []string) ([]T, error) {
	if reflect.TypeFor[T]() == rowType {
		items, err := sqllib.MapRows(rows, hidden...)
		if err != nil {
			return nil, err
		}
		return any(items).([]T), nil
	}
	return sqllib.List[T](rows, hidden...)
}

// readOne returns the only row. An empty result is sql.ErrNoRows,
// more than one row is sqllib.ErrTooManyRows.
func readOne[T any](rows sqllib.Rows, hidden []string) (result T, err error) {
	items, err := readList[T](rows, hidden)
	if err != nil {
		return result, err
	}
	switch len(items) {
	case 0:
		return result, sql.ErrNoRows
	case 1:
		return items[0], nil
	default:
		return result, sqllib.ErrTooManyRows
	}
}

func readScalar[T any](rows sqllib.Rows, _ []string) (T, error) {
	return sqllib.Scalar[T](rows)
}

// run executes fn for one call of stmt.
//
// It picks the routing key, binds params to the query and acquires the
// session: the transaction bound to ctx for the key, or else a dedicated
// connection of the routed datasource, which is released before run returns.
// Every failure is returned as an *Error describing the statement.
func (e *Engine) run(ctx context.Context, stmt Statement, params Params, fn func(ctx context.Context, h *statementHandler, query string, args []any) error) error {
	if params != nil {
		stmt.Shape = params.Shape()
	}
	if stmt.Action == "" {
		stmt.Action = sqllib.ActionOf(stmt.Query)
	}
	key := stmt.Datasource
	if key == "" {
		key = e.router.Resolve(ctx)
	}
	key, err := e.router.Choose(key)
	if err != nil {
		return wrapError(err, &stmt)
	}
	stmt.Datasource = key

	template, err := Compile(stmt.Query)
	if err != nil {
		return wrapError(err, &stmt)
	}
	query, args, err := template.Bind(params)
	if err != nil {
		return wrapError(err, &stmt)
	}

	drv, err := e.router.Driver(key)
	if err != nil {
		return wrapError(err, &stmt)
	}
	sess, err := session.FromContext(ctx, key)
	if err != nil {
		db, _, err := e.router.DB(key)
		if err != nil {
			return wrapError(err, &stmt)
		}
		conn, err := db.Connx(ctx)
		if err != nil {
			return wrapError(err, &stmt)
		}
		defer func() { _ = conn.Close() }()
		sess = conn
	}

	handler := &statementHandler{
		stmt:        &stmt,
		session:     sess,
		driver:      drv,
		middlewares: e.middlewares,
	}
	return wrapError(fn(ctx, handler, query, args), &stmt)
}

// selectPage runs stmt as a paged query and fills page.
// The count query, when asked for, runs first on the same session; a failure
// of either query leaves page untouched.
func selectPage[T any](ctx context.Context, e *Engine, stmt Statement, params Params, page *Page[T]) (*Page[T], error) {
	if page == nil {
		page = new(Page[T])
	}
	req := page.Request()
	if err := req.Validate(); err != nil {
		return nil, wrapError(err, &stmt)
	}
	var (
		total  int64
		raw    []Row
		result []T
	)
	err := e.run(ctx, stmt, params, func(ctx context.Context, h *statementHandler, query string, args []any) error {
		pager := e.pager(h.stmt.Datasource, h.driver.Dialect)
		if page.AutoCount {
			countQuery := pager.CountSQL(query)
			err := h.read(ctx, h.countStatement(countQuery), countQuery, args, func(rows sqllib.Rows) (err error) {
				total, err = sqllib.Scalar[int64](rows)
				return err
			})
			if err != nil {
				return err
			}
		}
		dataQuery, err := pager.Rewrite(query, req)
		if err != nil {
			return err
		}
		hidden := pager.HiddenColumns()
		return h.read(ctx, h.stmt, dataQuery, args, func(rows sqllib.Rows) (err error) {
			if page.IsRaw() {
				raw, err = readRows(rows, hidden)
			} else {
				result, err = readList[T](rows, hidden)
			}
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	if page.AutoCount {
		page.TotalCount = total
	}
	page.RawResult, page.Result = raw, result
	return page, nil
}

// SelectRows runs query and returns its rows as maps keyed by column name.
func (e *Engine) SelectRows(ctx context.Context, query string, params Params) ([]Row, error) {
	return newExecutor(e, *rawStatement(query, params), readRows).QueryContext(ctx, params)
}

// SelectRow runs query and returns its only row.
// An empty result and a result of more than one row are mapping errors.
func (e *Engine) SelectRow(ctx context.Context, query string, params Params) (Row, error) {
	return newExecutor(e, *rawStatement(query, params), readOne[Row]).QueryContext(ctx, params)
}

// Exec runs a statement that returns no rows, like an insert, update or delete.
func (e *Engine) Exec(ctx context.Context, query string, params Params) (sql.Result, error) {
	return newExecutor(e, *rawStatement(query, params), readRows).ExecContext(ctx, params)
}

// SelectList runs query and maps every row to T.
// Struct fields are matched case-insensitively by column tag or name;
// any other T is read from the first column.
func SelectList[T any](ctx context.Context, e *Engine, query string, params Params) ([]T, error) {
	return newExecutor(e, *rawStatement(query, params), readList[T]).QueryContext(ctx, params)
}

// SelectOne runs query and maps its only row to T.
func SelectOne[T any](ctx context.Context, e *Engine, query string, params Params) (T, error) {
	return newExecutor(e, *rawStatement(query, params), readOne[T]).QueryContext(ctx, params)
}

// SelectScalar runs query and returns the first column of the first row.
func SelectScalar[T any](ctx context.Context, e *Engine, query string, params Params) (T, error) {
	return newExecutor(e, *rawStatement(query, params), readScalar[T]).QueryContext(ctx, params)
}

// SelectPage runs query for the window of page and fills it.
// See Page for what is filled.
func SelectPage[T any](ctx context.Context, e *Engine, query string, params Params, page *Page[T]) (*Page[T], error) {
	return selectPage(ctx, e, *rawStatement(query, params), params, page)
}
