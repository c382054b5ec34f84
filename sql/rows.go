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

import "database/sql"

// Rows is the cursor the mapper reads from. *sql.Rows and *sqlx.Rows
// satisfy it, and so does MemoryRows.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	// Err reports the error that ended iteration, if any.
	Err() error
	Columns() ([]string, error)
}

var _ Rows = (*sql.Rows)(nil)
