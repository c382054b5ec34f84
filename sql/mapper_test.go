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
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-juicedev/dao/internal/sqlmock"
)

type Audit struct {
	CreatedBy string `column:"created_by"`
}

type customer struct {
	Audit
	ID       int64
	Name     string `column:"customer_name"`
	Email    *string
	Note     string `column:"-"`
	internal string
}

func TestList_StructCaseInsensitive(t *testing.T) {
	email := "a@example.com"
	rows := NewMemoryRows(
		[]string{"ID", "Customer_Name", "email", "created_by", "unknown"},
		[][]any{
			{int64(1), "alice", email, "system", 42},
			{int64(2), "bob", nil, "system", 43},
		},
	)
	items, err := List[customer](rows)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, "alice", items[0].Name)
	require.NotNil(t, items[0].Email)
	assert.Equal(t, email, *items[0].Email)
	assert.Equal(t, "system", items[0].CreatedBy)
	assert.Empty(t, items[0].Note)

	assert.Equal(t, "bob", items[1].Name)
	assert.Nil(t, items[1].Email)
}

func TestList_Pointer(t *testing.T) {
	rows := NewMemoryRows([]string{"id"}, [][]any{{int64(7)}})
	items, err := List[*customer](rows)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(7), items[0].ID)
}

func TestList_Empty(t *testing.T) {
	items, err := List[customer](NewMemoryRows([]string{"id"}, nil))
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestList_Hidden(t *testing.T) {
	type row struct {
		ID int64
		RN int64
	}
	rows := NewMemoryRows([]string{"id", "RN"}, [][]any{{int64(3), int64(1)}})
	items, err := List[row](rows, "rn")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(3), items[0].ID)
	assert.Zero(t, items[0].RN)
}

func TestList_Scalar(t *testing.T) {
	rows := NewMemoryRows([]string{"name", "id"}, [][]any{{"alice", 1}, {"bob", 2}})
	names, err := List[string](rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)
}

func TestList_Time(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := NewMemoryRows([]string{"created_at"}, [][]any{{now}})
	items, err := List[time.Time](rows)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{now}, items)
}

func TestList_NoWritableField(t *testing.T) {
	type hidden struct {
		name string
	}
	_, err := List[hidden](NewMemoryRows([]string{"name"}, [][]any{{"x"}}))
	assert.ErrorIs(t, err, ErrNoWritableField)
}

func TestList_NilRows(t *testing.T) {
	_, err := List[customer](nil)
	assert.ErrorIs(t, err, ErrNilRows)
}

func TestOne(t *testing.T) {
	item, err := One[customer](NewMemoryRows([]string{"id"}, [][]any{{int64(1)}}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.ID)

	_, err = One[customer](NewMemoryRows([]string{"id"}, nil))
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = One[customer](NewMemoryRows([]string{"id"}, [][]any{{int64(1)}, {int64(2)}}))
	assert.ErrorIs(t, err, ErrTooManyRows)
}

func TestScalar(t *testing.T) {
	count, err := Scalar[int64](NewMemoryRows([]string{"count"}, [][]any{{int64(12)}}))
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)

	_, err = Scalar[int64](NewMemoryRows([]string{"count"}, nil))
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMapRows(t *testing.T) {
	rows := NewMemoryRows(
		[]string{"id", "name", "rn"},
		[][]any{
			{int64(1), []byte("alice"), int64(1)},
			{int64(2), nil, int64(2)},
		},
	)
	result, err := MapRows(rows, "RN")
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{"id": int64(1), "name": "alice"},
		{"id": int64(2), "name": nil},
	}, result)
}

func TestMapRows_Empty(t *testing.T) {
	result, err := MapRows(NewMemoryRows([]string{"id"}, nil))
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestIter_StopsOnBreak(t *testing.T) {
	rows := NewMemoryRows([]string{"id"}, [][]any{{int64(1)}, {int64(2)}, {int64(3)}})
	iterator, err := Iter[int64](rows)
	require.NoError(t, err)

	var seen []int64
	for value, err := range iterator {
		require.NoError(t, err)
		seen = append(seen, value)
		if value == 2 {
			break
		}
	}
	assert.Equal(t, []int64{1, 2}, seen)
}

func TestIter_Row(t *testing.T) {
	rows := NewMemoryRows([]string{"id", "name", "rn"}, [][]any{
		{int64(1), []byte("alice"), int64(1)},
		{int64(2), "bob", int64(2)},
	})
	iterator, err := Iter[Row](rows, "RN")
	require.NoError(t, err)

	var seen []Row
	for row, err := range iterator {
		require.NoError(t, err)
		seen = append(seen, row)
	}
	assert.Equal(t, []Row{
		{"id": int64(1), "name": "alice"},
		{"id": int64(2), "name": "bob"},
	}, seen)
}

func TestIter_RowFailure(t *testing.T) {
	boom := errors.New("boom")
	rows := &sqlmock.Rows{ColumnNames: []string{"id"}, Data: [][]any{{int64(1)}}, ScanErr: boom}
	iterator, err := Iter[Row](rows)
	require.NoError(t, err)

	for _, err := range iterator {
		assert.ErrorIs(t, err, boom)
	}
}

func TestList_PointerScalarNull(t *testing.T) {
	rows := NewMemoryRows([]string{"email"}, [][]any{{"a@example.com"}, {nil}})
	emails, err := List[*string](rows)
	require.NoError(t, err)
	require.Len(t, emails, 2)
	require.NotNil(t, emails[0])
	assert.Equal(t, "a@example.com", *emails[0])
	assert.Nil(t, emails[1])
}

func TestList_Any(t *testing.T) {
	rows := NewMemoryRows([]string{"v"}, [][]any{{int64(1)}, {nil}})
	values, err := List[any](rows)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), nil}, values)
}

func TestListOf(t *testing.T) {
	rows := NewMemoryRows([]string{"id", "customer_name"}, [][]any{{int64(1), "alice"}})
	value, err := ListOf(rows, reflect.TypeFor[*customer]())
	require.NoError(t, err)
	items, ok := value.Interface().([]*customer)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "alice", items[0].Name)

	value, err = ListOf(NewMemoryRows([]string{"n"}, [][]any{{int64(4)}}), reflect.TypeFor[int64]())
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, value.Interface())
}

func TestFields(t *testing.T) {
	fields, err := Fields(reflect.TypeFor[*customer]())
	require.NoError(t, err)
	assert.Contains(t, fields, "customer_name")
	assert.Contains(t, fields, "created_by")
	assert.NotContains(t, fields, "note")
	assert.NotContains(t, fields, "internal")

	_, err = Fields(reflect.TypeFor[int]())
	assert.Error(t, err)
}

func TestList_Failures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		rows *sqlmock.Rows
	}{
		{
			name: "columns",
			rows: &sqlmock.Rows{ColumnsErr: boom},
		},
		{
			name: "scan",
			rows: &sqlmock.Rows{ColumnNames: []string{"id"}, Data: [][]any{{int64(1)}}, ScanErr: boom},
		},
		{
			name: "iteration",
			rows: &sqlmock.Rows{ColumnNames: []string{"id"}, Data: [][]any{{int64(1)}, {int64(2)}}, FailAt: 2, IterErr: boom},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := List[customer](tt.rows)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestMapRows_IterationFailure(t *testing.T) {
	boom := errors.New("boom")
	rows := &sqlmock.Rows{ColumnNames: []string{"id"}, Data: [][]any{{int64(1)}, {int64(2)}}, FailAt: 2, IterErr: boom}
	_, err := MapRows(rows)
	assert.ErrorIs(t, err, boom)
}

func TestScalar_ScanFailure(t *testing.T) {
	boom := errors.New("boom")
	rows := &sqlmock.Rows{ColumnNames: []string{"n"}, Data: [][]any{{int64(1)}}, ScanErr: boom}
	_, err := Scalar[int64](rows)
	assert.ErrorIs(t, err, boom)
}
