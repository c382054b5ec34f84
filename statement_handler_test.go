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
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-juicedev/dao/driver"
	sqllib "github.com/go-juicedev/dao/sql"
)

var errCaptured = errors.New("captured")

// captureSession records the statements it receives and runs none of them.
type captureSession struct {
	queries []string
}

func (s *captureSession) QueryContext(_ context.Context, query string, _ ...any) (*sql.Rows, error) {
	s.queries = append(s.queries, query)
	return nil, errCaptured
}

func (s *captureSession) QueryxContext(_ context.Context, query string, _ ...any) (*sqlx.Rows, error) {
	s.queries = append(s.queries, query)
	return nil, errCaptured
}

func (s *captureSession) QueryRowxContext(_ context.Context, query string, _ ...any) *sqlx.Row {
	s.queries = append(s.queries, query)
	return nil
}

func (s *captureSession) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	s.queries = append(s.queries, query)
	return nil, nil
}

func TestStatementHandler_Rebind(t *testing.T) {
	recorder := &recordingMiddleware{}
	sess := &captureSession{}
	stmt := &Statement{Name: "users.find"}
	h := &statementHandler{
		stmt:        stmt,
		session:     sess,
		driver:      driver.Get("pgx"),
		middlewares: MiddlewareGroup{recorder},
	}
	ctx := context.Background()

	_, err := h.ExecContext(ctx, stmt, "UPDATE t_user SET name = ? WHERE id = ?", []any{"x", 1})
	require.NoError(t, err)
	_, err = h.QueryContext(ctx, stmt, "SELECT * FROM t_user WHERE id IN (?, ?)", []any{1, 2})
	assert.ErrorIs(t, err, errCaptured)

	want := []string{
		"UPDATE t_user SET name = $1 WHERE id = $2",
		"SELECT * FROM t_user WHERE id IN ($1, $2)",
	}
	assert.Equal(t, want, recorder.queries, "middlewares see the driver text")
	assert.Equal(t, want, sess.queries)
	assert.Equal(t, [][]any{{"x", 1}, {1, 2}}, recorder.args)
}

func TestStatementHandler_CountStatement(t *testing.T) {
	stmt := &Statement{Name: "users.page", Datasource: "main", Query: "SELECT * FROM t_user"}
	h := &statementHandler{stmt: stmt}

	count := h.countStatement("SELECT COUNT(*) FROM (SELECT * FROM t_user) AS count_alias")
	assert.Equal(t, "users.page#count", count.Name)
	assert.Equal(t, "main", count.Datasource)
	assert.Equal(t, "SELECT COUNT(*) FROM (SELECT * FROM t_user) AS count_alias", count.Query)
	assert.Equal(t, "users.page", stmt.Name)
}

func TestStatementHandler_ReadFailure(t *testing.T) {
	h := &statementHandler{
		stmt:    &Statement{},
		session: &captureSession{},
		driver:  driver.Get("sqlite3"),
	}
	called := false
	err := h.read(context.Background(), h.stmt, "SELECT 1", nil, func(sqllib.Rows) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, errCaptured)
	assert.False(t, called)
}
