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
	"time"

	"github.com/rs/zerolog"

	sqllib "github.com/go-juicedev/dao/sql"
)

// QueryHandler runs a query on the session of the call.
type QueryHandler func(ctx context.Context, query string, args ...any) (sqllib.Rows, error)

// ExecHandler runs a statement that returns no rows.
type ExecHandler func(ctx context.Context, query string, args ...any) (sql.Result, error)

// Middleware is a wrapper of QueryHandler and ExecHandler.
type Middleware interface {
	// QueryContext wraps the QueryHandler.
	QueryContext(stmt *Statement, next QueryHandler) QueryHandler
	// ExecContext wraps the ExecHandler.
	ExecContext(stmt *Statement, next ExecHandler) ExecHandler
}

// ensure MiddlewareGroup implements Middleware.
var _ Middleware = MiddlewareGroup(nil) // compile time check

// MiddlewareGroup is a group of Middleware.
// The first middleware of the group is the innermost one.
type MiddlewareGroup []Middleware

// QueryContext implements Middleware.
// Call QueryContext will call all the QueryContext of the middlewares in the group.
func (m MiddlewareGroup) QueryContext(stmt *Statement, next QueryHandler) QueryHandler {
	for _, middleware := range m {
		next = middleware.QueryContext(stmt, next)
	}
	return next
}

// ExecContext implements Middleware.
// Call ExecContext will call all the ExecContext of the middlewares in the group.
func (m MiddlewareGroup) ExecContext(stmt *Statement, next ExecHandler) ExecHandler {
	for _, middleware := range m {
		next = middleware.ExecContext(stmt, next)
	}
	return next
}

// ensure DebugMiddleware implements Middleware.
var _ Middleware = (*DebugMiddleware)(nil) // compile time check

// DebugMiddleware logs every statement with its arguments and duration.
type DebugMiddleware struct {
	// Logger receives the entries at debug level.
	Logger zerolog.Logger
	// Enabled is the default for statements that do not set Debug.
	Enabled bool
}

// QueryContext implements Middleware.
func (m *DebugMiddleware) QueryContext(stmt *Statement, next QueryHandler) QueryHandler {
	if !m.isDebugMode(stmt) {
		return next
	}
	return func(ctx context.Context, query string, args ...any) (sqllib.Rows, error) {
		start := time.Now()
		rows, err := next(ctx, query, args...)
		m.log(stmt, query, args, time.Since(start), err)
		return rows, err
	}
}

// ExecContext implements Middleware.
func (m *DebugMiddleware) ExecContext(stmt *Statement, next ExecHandler) ExecHandler {
	if !m.isDebugMode(stmt) {
		return next
	}
	return func(ctx context.Context, query string, args ...any) (sql.Result, error) {
		start := time.Now()
		result, err := next(ctx, query, args...)
		m.log(stmt, query, args, time.Since(start), err)
		return result, err
	}
}

func (m *DebugMiddleware) log(stmt *Statement, query string, args []any, spent time.Duration, err error) {
	m.Logger.Debug().
		Str("operation", stmt.Name).
		Str("datasource", stmt.Datasource).
		Str("action", stmt.Action.String()).
		Str("query", query).
		Interface("args", args).
		Dur("spent", spent).
		Err(err).
		Msg("statement executed")
}

// isDebugMode reports whether stmt is logged.
// The Debug field of the statement wins over the middleware default.
func (m *DebugMiddleware) isDebugMode(stmt *Statement) bool {
	switch stmt.Debug {
	case DebugOn:
		return true
	case DebugOff:
		return false
	default:
		return m.Enabled
	}
}

// ensure TimeoutMiddleware implements Middleware
var _ Middleware = (*TimeoutMiddleware)(nil) // compile time check

// TimeoutMiddleware bounds statements that carry a Timeout.
// For queries the deadline lasts until the rows are closed.
type TimeoutMiddleware struct{}

// QueryContext implements Middleware.
func (t TimeoutMiddleware) QueryContext(stmt *Statement, next QueryHandler) QueryHandler {
	if stmt.Timeout <= 0 {
		return next
	}
	return func(ctx context.Context, query string, args ...any) (sqllib.Rows, error) {
		ctx, cancel := context.WithTimeout(ctx, stmt.Timeout)
		rows, err := next(ctx, query, args...)
		if err != nil {
			cancel()
			return nil, err
		}
		return &cancelOnClose{Rows: rows, cancel: cancel}, nil
	}
}

// ExecContext implements Middleware.
func (t TimeoutMiddleware) ExecContext(stmt *Statement, next ExecHandler) ExecHandler {
	if stmt.Timeout <= 0 {
		return next
	}
	return func(ctx context.Context, query string, args ...any) (sql.Result, error) {
		ctx, cancel := context.WithTimeout(ctx, stmt.Timeout)
		defer cancel()
		return next(ctx, query, args...)
	}
}

// cancelOnClose releases the deadline of a query together with its rows.
type cancelOnClose struct {
	sqllib.Rows
	cancel context.CancelFunc
}

// Close implements sqllib.Rows.
func (r *cancelOnClose) Close() error {
	defer r.cancel()
	return r.Rows.Close()
}
