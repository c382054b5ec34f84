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

	"github.com/go-juicedev/dao/driver"
	"github.com/go-juicedev/dao/session"
	sqllib "github.com/go-juicedev/dao/sql"
)

// statementHandler runs the queries of one call on the session it acquired.
// Every query passes through the middlewares after its placeholders were
// rewritten for the driver.
type statementHandler struct {
	stmt        *Statement
	session     session.Session
	driver      driver.Driver
	middlewares MiddlewareGroup
}

// sessionQueryHandler is the innermost QueryHandler.
func (h *statementHandler) sessionQueryHandler(ctx context.Context, query string, args ...any) (sqllib.Rows, error) {
	rows, err := h.session.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// sessionExecHandler is the innermost ExecHandler.
func (h *statementHandler) sessionExecHandler(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return h.session.ExecContext(ctx, query, args...)
}

// QueryContext runs query as stmt.
func (h *statementHandler) QueryContext(ctx context.Context, stmt *Statement, query string, args []any) (sqllib.Rows, error) {
	handler := h.middlewares.QueryContext(stmt, h.sessionQueryHandler)
	return handler(ctx, h.driver.Rebind(query), args...)
}

// ExecContext runs query as stmt.
func (h *statementHandler) ExecContext(ctx context.Context, stmt *Statement, query string, args []any) (sql.Result, error) {
	handler := h.middlewares.ExecContext(stmt, h.sessionExecHandler)
	return handler(ctx, h.driver.Rebind(query), args...)
}

// countStatement describes the count query of a paged call.
func (h *statementHandler) countStatement(query string) *Statement {
	count := *h.stmt
	count.Name += "#count"
	count.Query = query
	return &count
}

// read runs query and hands the rows to fn. The rows are always closed.
func (h *statementHandler) read(ctx context.Context, stmt *Statement, query string, args []any, fn func(rows sqllib.Rows) error) error {
	rows, err := h.QueryContext(ctx, stmt, query, args)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	return fn(rows)
}
