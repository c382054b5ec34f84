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

// Package testdb provides migrated SQLite databases for tests.
//
// Every database holds the t_dept and t_user tables with a small fixed data set:
// seven users with ids 1 to 7, five of them in department 1.
package testdb

import (
	"embed"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Driver is the driver name the databases are opened with.
const Driver = "sqlite3"

// UserCount is the number of seeded users.
const UserCount = 7

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

// DSN creates a migrated database file below t.TempDir and returns its DSN.
func DSN(t testing.TB, name string) string {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), name+".db") + "?_foreign_keys=on"
	db, err := sqlx.Open(Driver, dsn)
	if err != nil {
		t.Fatalf("testdb: open %s: %v", name, err)
	}
	defer func() { _ = db.Close() }()
	if err = migrate(db); err != nil {
		t.Fatalf("testdb: migrate %s: %v", name, err)
	}
	return dsn
}

// Open returns a migrated database that is closed when the test ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open(Driver, DSN(t, "main"))
	if err != nil {
		t.Fatalf("testdb: open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func migrate(db *sqlx.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(Driver); err != nil {
		return err
	}
	return goose.Up(db.DB, "migrations")
}
