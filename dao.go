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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/go-juicedev/dao/config"
	"github.com/go-juicedev/dao/datasource"
	"github.com/go-juicedev/dao/internal/logger"
	"github.com/go-juicedev/dao/pagination"
	"github.com/go-juicedev/dao/session"
	"github.com/go-juicedev/dao/session/tx"
)

// Engine is the core of dao. It routes calls to datasources, binds their
// parameters, pages their results and runs them through the middlewares.
type Engine struct {
	// router maps routing keys to database handles
	router *datasource.Router

	// templates holds the SQL text referenced by template keys
	templates *Templates

	// middlewares is the middlewares of the engine
	// It is used to intercept the execution of the statements
	// like logging, timeouts, etc.
	middlewares MiddlewareGroup

	logger zerolog.Logger

	// pagers caches one pagination engine per routing key
	pagers sync.Map

	// managed holds the instances registered with Manage
	managed sync.Map
}

// Option configures an Engine.
type Option func(e *Engine)

// WithLogger sets the logger of the engine.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithTemplates sets the template registry.
func WithTemplates(templates *Templates) Option {
	return func(e *Engine) { e.templates = templates }
}

// WithMiddleware adds middlewares after the default ones.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(e *Engine) { e.middlewares = append(e.middlewares, middlewares...) }
}

// WithDebug logs every statement that does not turn logging off itself.
func WithDebug(debug bool) Option {
	return func(e *Engine) {
		for _, m := range e.middlewares {
			if dm, ok := m.(*DebugMiddleware); ok {
				dm.Enabled = debug
			}
		}
	}
}

// New returns an engine on top of router.
// The engine owns the router from now on and closes it in Close.
func New(router *datasource.Router, opts ...Option) (*Engine, error) {
	if router == nil {
		return nil, errors.New("dao: nil router")
	}
	engine := &Engine{
		router: router,
		logger: zerolog.Nop(),
	}
	debug := &DebugMiddleware{}
	// add the default middlewares
	engine.middlewares = MiddlewareGroup{TimeoutMiddleware{}, debug}
	for _, opt := range opts {
		opt(engine)
	}
	debug.Logger = engine.logger
	if engine.templates == nil {
		engine.templates = NewTemplates(nil)
	}
	return engine, nil
}

// Open builds an engine from cfg.
func Open(cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, err
	}
	sources := make(map[string]datasource.Source, len(cfg.Datasources))
	for key, ds := range cfg.Datasources {
		source := datasource.Source{
			Driver:          ds.Driver,
			DSN:             ds.DSN,
			MaxOpenConns:    ds.MaxOpenConns,
			MaxIdleConns:    ds.MaxIdleConns,
			ConnMaxLifetime: time.Duration(ds.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(ds.ConnMaxIdleTime) * time.Second,
		}
		if ds.Dialect != "" {
			if source.Dialect, err = pagination.Parse(ds.Dialect, ds.FakeColumn); err != nil {
				return nil, fmt.Errorf("datasource %s: %w", key, err)
			}
		}
		sources[key] = source
	}
	router, err := datasource.NewRouter(cfg.Default, sources, datasource.WithLogger(log))
	if err != nil {
		return nil, err
	}
	opts = append([]Option{
		WithLogger(log),
		WithTemplates(NewTemplates(cfg.TemplateMap())),
		WithDebug(cfg.Debug),
	}, opts...)
	return New(router, opts...)
}

// Router returns the datasource router of the engine.
func (e *Engine) Router() *datasource.Router {
	return e.router
}

// Templates returns the template registry of the engine.
func (e *Engine) Templates() *Templates {
	return e.templates
}

// Logger returns the logger of the engine.
func (e *Engine) Logger() zerolog.Logger {
	return e.logger
}

// Use adds a middleware to the engine.
// It must not be called concurrently with running statements.
func (e *Engine) Use(middleware Middleware) {
	e.middlewares = append(e.middlewares, middleware)
}

// Close gracefully shuts down all managed database connections.
func (e *Engine) Close() error {
	return e.router.Close()
}

// pager returns the pagination engine of key.
func (e *Engine) pager(key string, dialect pagination.Dialect) *pagination.Engine {
	if cached, ok := e.pagers.Load(key); ok {
		return cached.(*pagination.Engine)
	}
	actual, _ := e.pagers.LoadOrStore(key, pagination.New(dialect))
	return actual.(*pagination.Engine)
}

// Transaction runs fn in a transaction of the datasource key, or of the
// datasource active in ctx when key is empty. Calls made with the context
// passed to fn are routed to key and run in the transaction.
// The transaction is committed when fn returns nil and rolled back otherwise.
func (e *Engine) Transaction(ctx context.Context, key string, fn func(ctx context.Context) error, opts ...tx.Option) error {
	stmt := &Statement{Name: "transaction", Datasource: key}
	if key == "" {
		key = e.router.Resolve(ctx)
	}
	key, err := e.router.Choose(key)
	if err != nil {
		return wrapError(err, stmt)
	}
	stmt.Datasource = key
	db, _, err := e.router.DB(key)
	if err != nil {
		return wrapError(err, stmt)
	}
	inner, err := e.router.Enter(ctx, key)
	if err != nil {
		return wrapError(err, stmt)
	}
	var bodyErr error
	err = tx.AtomicContext(inner, db, func(ctx context.Context, txn *sqlx.Tx) error {
		bodyErr = fn(session.WithContext(ctx, key, txn))
		return bodyErr
	}, opts...)
	if bodyErr != nil {
		// the failure of fn, joined with the rollback error if any
		return err
	}
	return wrapError(err, stmt)
}
