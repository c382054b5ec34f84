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
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// IsConnectivity reports whether err means the store could not be reached
// or refused the credentials, as opposed to a failure of the statement itself.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	// a cancelled caller is not a store failure
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, sqldriver.ErrBadConn) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return connectivityCode(pgErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return connectivityCode(string(pqErr.Code))
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrAuth:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// connectivityCode reports SQLSTATE class 08 (connection exception) and
// class 28 (invalid authorization specification).
func connectivityCode(code string) bool {
	return pgerrcode.IsConnectionException(code) || pgerrcode.IsInvalidAuthorizationSpecification(code)
}
