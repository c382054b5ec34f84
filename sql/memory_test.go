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

package sql

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRows(t *testing.T) {
	rows := NewMemoryRows([]string{"id", "name"}, [][]any{
		{1, "alice"},
		{2, "bob"},
	})

	cols, err := rows.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cols)

	var id int
	var name string
	assert.ErrorIs(t, rows.Scan(&id, &name), sql.ErrNoRows)

	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&id, &name))
	assert.Equal(t, 1, id)
	assert.Equal(t, "alice", name)

	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&id, &name))
	assert.Equal(t, "bob", name)

	assert.False(t, rows.Next())
	assert.False(t, rows.Next())
	assert.ErrorIs(t, rows.Scan(&id, &name), sql.ErrNoRows)
	assert.NoError(t, rows.Err())

	require.NoError(t, rows.Close())
	assert.False(t, rows.Next())
	_, err = rows.Columns()
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestMemoryRows_ScanMismatch(t *testing.T) {
	rows := NewMemoryRows([]string{"id"}, [][]any{{"x"}})
	require.True(t, rows.Next())

	var id, extra int
	assert.Error(t, rows.Scan(&id, &extra))

	err := rows.Scan(&id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "id"`)
}

func TestMemoryRows_FailWith(t *testing.T) {
	reset := errors.New("connection reset")
	rows := NewMemoryRows([]string{"id"}, [][]any{{1}}).FailWith(reset)

	require.True(t, rows.Next())
	assert.NoError(t, rows.Err())
	assert.False(t, rows.Next())
	assert.ErrorIs(t, rows.Err(), reset)
}
