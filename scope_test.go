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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-juicedev/dao/internal/testdb"
	"github.com/go-juicedev/dao/session/tx"
)

func countUsers(t *testing.T, ctx context.Context, e *Engine) int64 {
	t.Helper()
	n, err := SelectScalar[int64](ctx, e, "SELECT COUNT(*) FROM t_user", nil)
	require.NoError(t, err)
	return n
}

func TestTransaction_FromContext(t *testing.T) {
	e := newTestEngine(t)
	ctx := ContextWithEngine(context.Background(), e)
	abort := errors.New("abort")

	err := Transaction(ctx, func(ctx context.Context) error {
		assert.True(t, InTransaction(ctx, e))
		_, err := ExecContext(ctx, "DELETE FROM t_user WHERE id = ?", Positional(1))
		require.NoError(t, err)
		assert.Equal(t, int64(testdb.UserCount-1), countUsers(t, ctx, e))
		return abort
	})
	assert.ErrorIs(t, err, abort)
	assert.False(t, InTransaction(ctx, e))
	assert.Equal(t, int64(testdb.UserCount), countUsers(t, ctx, e))

	err = Transaction(ctx, func(ctx context.Context) error {
		_, err := ExecContext(ctx, "DELETE FROM t_user WHERE id = ?", Positional(1))
		return err
	}, tx.WithIsolationLevel(sql.LevelSerializable))
	require.NoError(t, err)
	assert.Equal(t, int64(testdb.UserCount-1), countUsers(t, ctx, e))
}

func TestTransaction_NoEngine(t *testing.T) {
	called := false
	err := Transaction(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrNoEngineFoundInContext)
	assert.False(t, called)
	assert.ErrorIs(t, NestedTransaction(context.Background(), func(context.Context) error { return nil }), ErrNoEngineFoundInContext)
}

func TestNestedTransaction(t *testing.T) {
	e := newTestEngine(t)
	ctx := ContextWithEngine(context.Background(), e)
	abort := errors.New("abort")

	err := NestedTransaction(ctx, func(outer context.Context) error {
		_, err := ExecContext(outer, "DELETE FROM t_user WHERE id = 1", nil)
		require.NoError(t, err)
		err = NestedTransaction(outer, func(inner context.Context) error {
			_, err := ExecContext(inner, "DELETE FROM t_user WHERE id = 2", nil)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, int64(testdb.UserCount-2), countUsers(t, outer, e))
		return abort
	})
	assert.ErrorIs(t, err, abort)
	assert.Equal(t, int64(testdb.UserCount), countUsers(t, ctx, e), "the inner call joined the outer transaction")
}

func TestTransaction_PerDatasource(t *testing.T) {
	e := newTestEngine(t)
	ctx := ContextWithEngine(context.Background(), e)

	err := e.Transaction(ctx, "replica", func(ctx context.Context) error {
		assert.True(t, InTransaction(ctx, e))
		err := e.router.WithDatasource(ctx, "main", func(ctx context.Context) error {
			assert.False(t, InTransaction(ctx, e), "the transaction belongs to replica")
			return nil
		})
		require.NoError(t, err)
		_, err = ExecContext(ctx, "DELETE FROM t_user", nil)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, int64(testdb.UserCount), countUsers(t, ctx, e))
	replica, err := datasourceCount(ctx, e, "replica")
	require.NoError(t, err)
	assert.Zero(t, replica)
}

func datasourceCount(ctx context.Context, e *Engine, key string) (n int64, err error) {
	err = e.router.WithDatasource(ctx, key, func(ctx context.Context) error {
		n, err = SelectScalar[int64](ctx, e, "SELECT COUNT(*) FROM t_user", nil)
		return err
	})
	return n, err
}
