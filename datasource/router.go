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

// Package datasource routes calls to one of several configured databases.
//
// The mapping from routing key to source is fixed when the Router is built.
// Connections are opened lazily, once per key, and pooled by database/sql.
// The active key of a call lives in its context.Context, so concurrent calls
// never share it and nested routing unwinds like a stack.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/go-juicedev/dao/driver"
	"github.com/go-juicedev/dao/pagination"
)

const (
	// RandomDataSource selects a random datasource from all available sources
	RandomDataSource = "?"
	// RandomSecondaryDataSource selects a random datasource excluding the primary source
	RandomSecondaryDataSource = "?!"
)

var (
	// ErrUnknownDatasource is returned for routing keys that are not configured.
	ErrUnknownDatasource = errors.New("unknown datasource")

	// ErrRouterClosed is returned when attempting to use a closed router
	ErrRouterClosed = errors.New("datasource: router is closed")
)

// Source encapsulates all configuration parameters needed for establishing
// and maintaining a database connection. It includes connection pool settings
// and lifecycle management parameters.
type Source struct {
	Driver          string
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Dialect overrides the default pagination dialect of the driver.
	Dialect pagination.Dialect
}

// conn represents an active database connection along with its associated driver.
// It uses sync.Once to ensure thread-safe initialization.
type conn struct {
	db   *sqlx.DB
	drv  driver.Driver
	err  error
	once sync.Once
}

// Router resolves routing keys to database handles.
type Router struct {
	conns      sync.Map          // key -> *conn
	sources    map[string]Source // read-only after NewRouter
	names      []string          // sorted list of registered sources
	defaultKey string
	closed     atomic.Bool
	logger     zerolog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger the router reports connection events to.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// NewRouter builds a router over sources. defaultKey must be one of them.
func NewRouter(defaultKey string, sources map[string]Source, opts ...Option) (*Router, error) {
	if len(sources) == 0 {
		return nil, errors.New("datasource: no sources configured")
	}
	r := &Router{
		sources:    make(map[string]Source, len(sources)),
		defaultKey: defaultKey,
		logger:     zerolog.Nop(),
	}
	for key, source := range sources {
		if key == "" || key == RandomDataSource || key == RandomSecondaryDataSource {
			return nil, fmt.Errorf("datasource: invalid key %q", key)
		}
		if source.Driver == "" {
			return nil, fmt.Errorf("datasource: %s: driver is required", key)
		}
		r.sources[key] = source
		r.names = append(r.names, key)
	}
	sort.Strings(r.names)
	if _, ok := r.sources[defaultKey]; !ok {
		return nil, fmt.Errorf("%w: default %q", ErrUnknownDatasource, defaultKey)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Default returns the default routing key.
func (r *Router) Default() string {
	return r.defaultKey
}

// Registered returns the sorted keys of all sources.
func (r *Router) Registered() []string {
	return slices.Clone(r.names)
}

// Has reports whether key names a configured source.
// The random selectors are always known.
func (r *Router) Has(key string) bool {
	if key == RandomDataSource || key == RandomSecondaryDataSource {
		return true
	}
	_, ok := r.sources[key]
	return ok
}

// Source returns the configuration of key.
func (r *Router) Source(key string) (Source, error) {
	source, ok := r.sources[key]
	if !ok {
		return Source{}, fmt.Errorf("%w: %s", ErrUnknownDatasource, key)
	}
	return source, nil
}

// Driver returns the driver description of key.
func (r *Router) Driver(key string) (driver.Driver, error) {
	source, err := r.Source(key)
	if err != nil {
		return driver.Driver{}, err
	}
	drv := driver.Get(source.Driver)
	if source.Dialect != nil {
		drv.Dialect = source.Dialect
	}
	return drv, nil
}

// Choose resolves the random selectors and validates key.
//
//	"?"  - random from all sources
//	"?!" - random from all sources but the default one
func (r *Router) Choose(key string) (string, error) {
	switch key {
	case RandomDataSource:
		return r.names[rand.IntN(len(r.names))], nil
	case RandomSecondaryDataSource:
		if len(r.names) == 1 {
			return r.defaultKey, nil
		}
		secondary := slices.DeleteFunc(slices.Clone(r.names), func(name string) bool {
			return name == r.defaultKey
		})
		return secondary[rand.IntN(len(secondary))], nil
	}
	if _, ok := r.sources[key]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDatasource, key)
	}
	return key, nil
}

// DB returns the database handle of key, opening it on first use.
// This method is thread-safe and ensures only one handle is created per source.
func (r *Router) DB(key string) (*sqlx.DB, driver.Driver, error) {
	if r.closed.Load() {
		return nil, driver.Driver{}, ErrRouterClosed
	}
	if c, ok := r.conns.Load(key); ok {
		c := c.(*conn)
		c.once.Do(func() {})
		return c.db, c.drv, c.err
	}
	source, err := r.Source(key)
	if err != nil {
		return nil, driver.Driver{}, err
	}
	return r.connect(key, source)
}

// connect establishes a new database handle using the provided source configuration.
// A failed attempt is forgotten so that the next call tries again.
func (r *Router) connect(key string, source Source) (*sqlx.DB, driver.Driver, error) {
	actual, _ := r.conns.LoadOrStore(key, &conn{})
	c := actual.(*conn)

	c.once.Do(func() {
		drv, err := r.Driver(key)
		if err != nil {
			c.err = err
			return
		}
		db, err := sqlx.Open(source.Driver, source.DSN)
		if err != nil {
			c.err = fmt.Errorf("datasource: open %s: %w", key, err)
			return
		}
		db.SetMaxOpenConns(source.MaxOpenConns)
		if source.MaxIdleConns > 0 {
			db.SetMaxIdleConns(source.MaxIdleConns)
		}
		db.SetConnMaxLifetime(source.ConnMaxLifetime)
		db.SetConnMaxIdleTime(source.ConnMaxIdleTime)
		c.db, c.drv = db, drv
		r.logger.Debug().
			Str("datasource", key).
			Str("driver", source.Driver).
			Str("dialect", drv.Dialect.Name()).
			Msg("datasource opened")
	})
	if c.err != nil {
		r.conns.CompareAndDelete(key, c)
	}
	return c.db, c.drv, c.err
}

// Close gracefully shuts down all opened database handles.
// It is idempotent and thread-safe.
func (r *Router) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	r.conns.Range(func(key, value any) bool {
		c := value.(*conn)
		c.once.Do(func() {})
		if c.db != nil {
			if err := c.db.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close %v: %w", key, err))
			}
		}
		return true
	})
	return errors.Join(errs...)
}

type activeKey struct{}

// Current returns the routing key active in ctx.
func Current(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(activeKey{}).(string)
	return key, ok
}

// Resolve returns the key active in ctx or the default key.
func (r *Router) Resolve(ctx context.Context) string {
	if key, ok := Current(ctx); ok {
		return key
	}
	return r.defaultKey
}

// Enter returns a context in which key is the active routing key.
// The random selectors are resolved once, on entry.
func (r *Router) Enter(ctx context.Context, key string) (context.Context, error) {
	chosen, err := r.Choose(key)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, activeKey{}, chosen), nil
}

// WithDatasource runs body with key as the active routing key.
// body receives a derived context, ctx itself is never changed, so the outer
// key is back in effect whenever body returns, fails or panics.
// An unknown key fails before body runs.
func (r *Router) WithDatasource(ctx context.Context, key string, body func(ctx context.Context) error) error {
	inner, err := r.Enter(ctx, key)
	if err != nil {
		return err
	}
	return body(inner)
}

// Within is the value returning form of Router.WithDatasource.
func Within[T any](ctx context.Context, r *Router, key string, body func(ctx context.Context) (T, error)) (result T, err error) {
	err = r.WithDatasource(ctx, key, func(ctx context.Context) error {
		result, err = body(ctx)
		return err
	})
	return result, err
}
