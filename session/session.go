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

// Package session carries the executor a statement runs on through a context.
//
// A session is bound to the datasource key it was opened for, so that a
// transaction started on one datasource never leaks into a call routed to
// another one.
package session

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNoSession is returned when no session is bound to the context for a key.
var ErrNoSession = errors.New("session: no session found in context")

// Session is the executor of statements.
// *sqlx.DB, *sqlx.Conn and *sqlx.Tx all implement it.
type Session interface {
	sqlx.QueryerContext
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var (
	_ Session = (*sqlx.DB)(nil)
	_ Session = (*sqlx.Conn)(nil)
	_ Session = (*sqlx.Tx)(nil)
)

type sessionKey struct{}

// binding is one entry of the chain of sessions bound to a context.
type binding struct {
	key     string
	session Session
	parent  *binding
}

// WithContext returns a context that carries sess for the datasource key.
// Sessions bound for other keys stay reachable.
func WithContext(ctx context.Context, key string, sess Session) context.Context {
	parent, _ := ctx.Value(sessionKey{}).(*binding)
	return context.WithValue(ctx, sessionKey{}, &binding{key: key, session: sess, parent: parent})
}

// FromContext returns the innermost session bound for key.
func FromContext(ctx context.Context, key string) (Session, error) {
	for b, _ := ctx.Value(sessionKey{}).(*binding); b != nil; b = b.parent {
		if b.key != key {
			continue
		}
		if b.session == nil {
			return nil, ErrNoSession
		}
		return b.session, nil
	}
	return nil, ErrNoSession
}
