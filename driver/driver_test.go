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

package driver

import (
	"context"
	sqldriver "database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"github.com/go-juicedev/dao/pagination"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name     string
		bindType int
		dialect  pagination.Dialect
	}{
		{name: "sqlite3", bindType: sqlx.QUESTION, dialect: pagination.OffsetLimit{}},
		{name: "mysql", bindType: sqlx.QUESTION, dialect: pagination.OffsetLimit{}},
		{name: "pgx", bindType: sqlx.DOLLAR, dialect: pagination.LimitOffset{}},
		{name: "postgres", bindType: sqlx.DOLLAR, dialect: pagination.LimitOffset{}},
		{name: " Postgres ", bindType: sqlx.DOLLAR, dialect: pagination.LimitOffset{}},
		{name: "godror", bindType: sqlx.NAMED, dialect: pagination.RowNumber{Expr: "ROWNUM"}},
		{name: "sqlserver", bindType: sqlx.AT, dialect: pagination.RowNumber{Expr: "ROW_NUMBER() OVER (ORDER BY (SELECT NULL))"}},
		{name: "unknown", bindType: sqlx.UNKNOWN, dialect: pagination.OffsetLimit{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := Get(tt.name)
			assert.Equal(t, tt.bindType, drv.BindType)
			assert.Equal(t, tt.dialect, drv.Dialect)
		})
	}
	assert.Equal(t, "unknown", Get("unknown").String())
}

func TestDriver_Rebind(t *testing.T) {
	const query = "SELECT * FROM t_user WHERE id = ? AND dept_id IN (?, ?)"
	assert.Equal(t, query, Get("sqlite3").Rebind(query))
	assert.Equal(t, query, Get("unknown").Rebind(query))
	assert.Equal(t, "SELECT * FROM t_user WHERE id = $1 AND dept_id IN ($2, $3)", Get("pgx").Rebind(query))
	assert.Equal(t, "SELECT * FROM t_user WHERE id = @p1 AND dept_id IN (@p2, @p3)", Get("sqlserver").Rebind(query))
	assert.Equal(t, "SELECT * FROM t_user WHERE id = :arg1 AND dept_id IN (:arg2, :arg3)", Get("godror").Rebind(query))
}

func TestDriver_RebindKeepsLiterals(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "string literal",
			query: "SELECT * FROM t WHERE name <> '?' AND id = ?",
			want:  "SELECT * FROM t WHERE name <> '?' AND id = $1",
		},
		{
			name:  "quoted identifier",
			query: `SELECT "why?" FROM t WHERE id = ?`,
			want:  `SELECT "why?" FROM t WHERE id = $1`,
		},
		{
			name:  "comments",
			query: "SELECT ? /* or ? */ -- and ?\nFROM t WHERE id = ?",
			want:  "SELECT $1 /* or ? */ -- and ?\nFROM t WHERE id = $2",
		},
		{
			name:  "escaped quote",
			query: "SELECT 'it''s ?' , ?",
			want:  "SELECT 'it''s ?' , $1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Get("pgx").Rebind(tt.query))
		})
	}
}

func TestRegister(t *testing.T) {
	Register(Driver{Name: "test-driver", BindType: sqlx.DOLLAR, Dialect: pagination.RowNumber{}})
	assert.Equal(t, pagination.RowNumber{}, Get("test-driver").Dialect)
	assert.Contains(t, Drivers(), "test-driver")
	assert.IsIncreasing(t, Drivers())

	assert.Panics(t, func() { Register(Driver{Name: "test-driver"}) })
	assert.Panics(t, func() { Register(Driver{}) })
}

func TestIsConnectivity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
		{name: "bad conn", err: fmt.Errorf("query: %w", sqldriver.ErrBadConn), want: true},
		{name: "cancelled", err: context.Canceled, want: false},
		{name: "deadline", err: fmt.Errorf("dial: %w", context.DeadlineExceeded), want: false},
		{name: "net", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, want: true},
		{name: "pgx connection failure", err: &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, want: true},
		{name: "pgx bad password", err: &pgconn.PgError{Code: pgerrcode.InvalidPassword}, want: true},
		{name: "pgx syntax", err: &pgconn.PgError{Code: pgerrcode.SyntaxError}, want: false},
		{name: "pq connection", err: &pq.Error{Code: "08006"}, want: true},
		{name: "pq authorization", err: &pq.Error{Code: "28000"}, want: true},
		{name: "pq unique", err: &pq.Error{Code: pq.ErrorCode(pgerrcode.UniqueViolation)}, want: false},
		{name: "sqlite cannot open", err: sqlite3.Error{Code: sqlite3.ErrCantOpen}, want: true},
		{name: "sqlite not a database", err: fmt.Errorf("open: %w", sqlite3.Error{Code: sqlite3.ErrNotADB}), want: true},
		{name: "sqlite constraint", err: sqlite3.Error{Code: sqlite3.ErrConstraint}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnectivity(tt.err))
		})
	}
}
