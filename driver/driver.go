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

// Package driver describes how the engine talks to a database/sql driver:
// the bind variable style of its placeholders, the pagination dialect it
// understands and how its errors are classified.
package driver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/go-juicedev/dao/internal/sqltext"
	"github.com/go-juicedev/dao/pagination"
)

// Driver is the engine's view of a database/sql driver.
type Driver struct {
	// Name is the name the driver was registered with in database/sql.
	Name string

	// BindType is the sqlx bind variable type of the driver.
	BindType int

	// Dialect is the default pagination dialect of the driver.
	Dialect pagination.Dialect
}

// Rebind rewrites the ? placeholders of query into the bind variables of
// the driver. Question marks in quoted text and comments are kept.
func (d Driver) Rebind(query string) string {
	var prefix string
	switch d.BindType {
	case sqlx.DOLLAR:
		prefix = "$"
	case sqlx.NAMED:
		prefix = ":arg"
	case sqlx.AT:
		prefix = "@p"
	default:
		return query
	}
	marks := sqltext.Placeholders(query)
	if len(marks) == 0 {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + len(marks)*(len(prefix)+2))
	last := 0
	for n, mark := range marks {
		sb.WriteString(query[last:mark])
		sb.WriteString(prefix)
		sb.WriteString(strconv.Itoa(n + 1))
		last = mark + 1
	}
	sb.WriteString(query[last:])
	return sb.String()
}

// String implements fmt.Stringer.
func (d Driver) String() string {
	return d.Name
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Driver{}
)

// Register makes a driver description available by its name.
// It panics if the name is empty or registered twice.
func Register(drv Driver) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if drv.Name == "" {
		panic("driver: Register with empty name")
	}
	if _, dup := registry[drv.Name]; dup {
		panic(fmt.Sprintf("driver: Register called twice for driver %s", drv.Name))
	}
	registry[drv.Name] = drv
}

// Get returns the description of the named driver.
// Unknown drivers are described by sqlx.BindType and an OffsetLimit dialect.
func Get(name string) Driver {
	registryMu.RLock()
	drv, ok := registry[name]
	if !ok {
		drv, ok = registry[normalize(name)]
	}
	registryMu.RUnlock()
	if ok {
		return drv
	}
	return Driver{Name: name, BindType: sqlx.BindType(name), Dialect: pagination.OffsetLimit{}}
}

// Drivers returns the sorted names of the registered drivers.
func Drivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	for _, name := range []string{"mysql", "sqlite3", "h2", "nrmysql", "nrsqlite3"} {
		Register(Driver{Name: name, BindType: sqlx.BindType(name), Dialect: pagination.OffsetLimit{}})
	}
	for _, name := range []string{"postgres", "pgx", "pq-timeouts", "cloudsqlpostgres", "nrpostgres", "cockroach"} {
		Register(Driver{Name: name, BindType: sqlx.BindType(name), Dialect: pagination.LimitOffset{}})
	}
	for _, name := range []string{"oracle", "godror", "oci8", "ora", "goracle"} {
		Register(Driver{
			Name:     name,
			BindType: sqlx.BindType(name),
			Dialect:  pagination.RowNumber{Expr: "ROWNUM"},
		})
	}
	// SQL Server requires an ORDER BY inside OVER.
	for _, name := range []string{"sqlserver", "azuresql"} {
		Register(Driver{
			Name:     name,
			BindType: sqlx.BindType(name),
			Dialect:  pagination.RowNumber{Expr: "ROW_NUMBER() OVER (ORDER BY (SELECT NULL))"},
		})
	}
}

// normalize lowers the driver name for lookups that tolerate case.
func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
