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

// Package tx runs handlers inside a database transaction.
package tx

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrCommitOnSpecific is the error that commit on specific transaction.
	// A handler returns it to commit the work done so far and still report the error.
	ErrCommitOnSpecific = errors.New("tx: commit on specific transaction")

	// ErrTransactionNotBegun is returned when a transaction is used before it began.
	ErrTransactionNotBegun = errors.New("tx: transaction not begun")
)

// HandlerFunc is a function to execute a handler function within a database transaction.
type HandlerFunc func(ctx context.Context, tx *sqlx.Tx) error

// Beginner starts transactions. *sqlx.DB and *sqlx.Conn implement it.
type Beginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// Atomic executes the given handler function within a database transaction
// using the background context.
func Atomic(db Beginner, h HandlerFunc, opts ...Option) error {
	return AtomicContext(context.Background(), db, h, opts...)
}

// AtomicContext executes the given handler function within a database transaction.
// The transaction is rolled back when the handler fails or panics,
// rollback errors are joined with the handler error.
func AtomicContext(ctx context.Context, db Beginner, h HandlerFunc, opts ...Option) (err error) {
	if db == nil {
		return ErrTransactionNotBegun
	}

	tx, err := db.BeginTxx(ctx, buildOptions(opts))
	if err != nil {
		return err
	}

	defer func() {
		// make sure to roll back the transaction if there is an error
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			// if the error is not sql.ErrTxDone, it means the transaction is not already rolled back
			if !errors.Is(rollbackErr, sql.ErrTxDone) {
				err = errors.Join(err, rollbackErr)
			}
		}
	}()

	if err = h(ctx, tx); err != nil {
		if !errors.Is(err, ErrCommitOnSpecific) {
			return err
		}
	}

	return errors.Join(err, tx.Commit())
}
