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

package session_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-juicedev/dao/session"
)

type dummySession struct{ name string }

func (dummySession) QueryContext(context.Context, string, ...any) (*sql.Rows, error) { return nil, nil }
func (dummySession) QueryxContext(context.Context, string, ...any) (*sqlx.Rows, error) {
	return nil, nil
}
func (dummySession) QueryRowxContext(context.Context, string, ...any) *sqlx.Row { return nil }
func (dummySession) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, nil
}

func TestFromContext_NoSession(t *testing.T) {
	_, err := session.FromContext(context.Background(), "main")
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestWithContext_RoundTrip(t *testing.T) {
	want := dummySession{name: "main"}
	ctx := session.WithContext(context.Background(), "main", want)

	got, err := session.FromContext(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = session.FromContext(ctx, "replica")
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestWithContext_Nested(t *testing.T) {
	outer := dummySession{name: "outer"}
	inner := dummySession{name: "inner"}
	replica := dummySession{name: "replica"}

	ctx := session.WithContext(context.Background(), "main", outer)
	ctx = session.WithContext(ctx, "replica", replica)
	nested := session.WithContext(ctx, "main", inner)

	got, err := session.FromContext(nested, "main")
	require.NoError(t, err)
	assert.Equal(t, inner, got)

	got, err = session.FromContext(nested, "replica")
	require.NoError(t, err)
	assert.Equal(t, replica, got)

	got, err = session.FromContext(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, outer, got)
}

func TestWithContext_NilSession(t *testing.T) {
	ctx := session.WithContext(context.Background(), "main", session.Session(nil))
	_, err := session.FromContext(ctx, "main")
	assert.ErrorIs(t, err, session.ErrNoSession)
}
