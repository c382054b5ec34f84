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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-juicedev/dao/datasource"
	"github.com/go-juicedev/dao/internal/testdb"
	"github.com/go-juicedev/dao/pagination"
	sqllib "github.com/go-juicedev/dao/sql"
)

type user struct {
	ID     int64
	Name   string
	Email  *string
	DeptID int64 `column:"dept_id"`
	Score  float64
}

// newTestEngine returns an engine over three migrated databases:
// main (default), replica and report, the last paging with row numbers.
func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	router, err := datasource.NewRouter("main", map[string]datasource.Source{
		"main":    {Driver: testdb.Driver, DSN: testdb.DSN(t, "main")},
		"replica": {Driver: testdb.Driver, DSN: testdb.DSN(t, "replica")},
		"report":  {Driver: testdb.Driver, DSN: testdb.DSN(t, "report"), Dialect: pagination.RowNumber{}},
	})
	require.NoError(t, err)
	engine, err := New(router, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

// renameOn gives user 1 a name that only exists on the datasource key.
func renameOn(t *testing.T, e *Engine, key, name string) {
	t.Helper()
	err := e.router.WithDatasource(context.Background(), key, func(ctx context.Context) error {
		_, err := e.Exec(ctx, "UPDATE t_user SET name = ? WHERE id = 1", Positional(name))
		return err
	})
	require.NoError(t, err)
}

func ids[T any](items []T, id func(T) int64) []int64 {
	result := make([]int64, 0, len(items))
	for _, item := range items {
		result = append(result, id(item))
	}
	return result
}

// recordingMiddleware keeps the operation name and the driver text of every statement.
type recordingMiddleware struct {
	names   []string
	queries []string
	args    [][]any
}

func (r *recordingMiddleware) record(stmt *Statement, query string, args []any) {
	r.names = append(r.names, stmt.Name)
	r.queries = append(r.queries, query)
	r.args = append(r.args, args)
}

func (r *recordingMiddleware) QueryContext(stmt *Statement, next QueryHandler) QueryHandler {
	return func(ctx context.Context, query string, args ...any) (sqllib.Rows, error) {
		r.record(stmt, query, args)
		return next(ctx, query, args...)
	}
}

func (r *recordingMiddleware) ExecContext(stmt *Statement, next ExecHandler) ExecHandler {
	return func(ctx context.Context, query string, args ...any) (sql.Result, error) {
		r.record(stmt, query, args)
		return next(ctx, query, args...)
	}
}
