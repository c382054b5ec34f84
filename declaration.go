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
	"database/sql"
	"fmt"
	"time"

	sqllib "github.com/go-juicedev/dao/sql"
)

// SQL is SQL text passed at call time to operations declared with RuntimeSQL.
type SQL string

// ResultShape is what an operation returns.
type ResultShape int

const (
	// ReturnsAny leaves the shape to the facade the operation is used with.
	ReturnsAny ResultShape = iota
	// ReturnsRows returns every row as a Row.
	ReturnsRows
	// ReturnsList returns every row mapped to a type.
	ReturnsList
	// ReturnsOne returns the only row.
	ReturnsOne
	// ReturnsScalar returns the first column of the first row.
	ReturnsScalar
	// ReturnsPage fills a Page.
	ReturnsPage
	// ReturnsExec returns the sql.Result of a statement.
	ReturnsExec
)

var resultShapeNames = [...]string{"any", "rows", "list", "one", "scalar", "page", "exec"}

// String implements fmt.Stringer.
func (r ResultShape) String() string {
	if r < 0 || int(r) >= len(resultShapeNames) {
		return fmt.Sprintf("ResultShape(%d)", int(r))
	}
	return resultShapeNames[r]
}

// Declaration describes a query operation.
type Declaration struct {
	// Name identifies the operation in logs and errors.
	Name string

	// SQL is the literal SQL text.
	SQL string

	// TemplateKey names SQL text held by the template registry.
	// It is used when SQL is empty and looked up on every call.
	TemplateKey string

	// RuntimeSQL lets callers pass the SQL text with each call.
	// A non-empty SQL argument wins over SQL and TemplateKey.
	RuntimeSQL bool

	// Datasource is the routing key of the operation.
	// Empty means the key active in the context of the call, or the default.
	Datasource string

	// Shape restricts the parameters of a call. ShapeNone accepts any.
	Shape ParamShape

	// Returns is checked against the facade the operation is used with.
	Returns ResultShape

	// Timeout bounds each statement of a call when positive.
	Timeout time.Duration

	// Debug overrides the engine debug setting.
	Debug DebugMode
}

// Operation is a compiled Declaration.
// It is safe for concurrent use.
type Operation struct {
	engine *Engine
	decl   Declaration
}

// Compile checks decl and returns the operation implementing it.
// Declarations that can never obtain SQL text, reference a missing template
// or an unknown datasource fail here instead of on the first call.
func (e *Engine) Compile(decl Declaration) (*Operation, error) {
	if decl.Name == "" {
		decl.Name = decl.TemplateKey
	}
	if decl.Name == "" {
		decl.Name = "operation"
	}
	fail := func(kind error, format string, args ...any) error {
		return &Error{
			Kind:       kind,
			Operation:  decl.Name,
			Datasource: decl.Datasource,
			Err:        fmt.Errorf(format, args...),
		}
	}
	switch {
	case decl.SQL == "" && decl.TemplateKey == "" && !decl.RuntimeSQL:
		return nil, fail(ErrUnboundTemplate, "no SQL, template key or runtime SQL declared")
	case decl.SQL == "" && decl.TemplateKey != "":
		if _, ok := e.templates.Lookup(decl.TemplateKey); !ok {
			return nil, fail(ErrUnboundTemplate, "template %q is not registered", decl.TemplateKey)
		}
	}
	if decl.Datasource != "" && !e.router.Has(decl.Datasource) {
		return nil, fail(ErrUnknownDatasource, "datasource %q is not configured", decl.Datasource)
	}
	if decl.Timeout < 0 {
		return nil, fail(ErrInvalidDeclaration, "negative timeout %s", decl.Timeout)
	}
	switch decl.Debug {
	case DebugDefault, DebugOn, DebugOff:
	default:
		return nil, fail(ErrInvalidDeclaration, "debug mode %q", string(decl.Debug))
	}
	return &Operation{engine: e, decl: decl}, nil
}

// MustCompile is like Compile but panics on error.
func (e *Engine) MustCompile(decl Declaration) *Operation {
	op, err := e.Compile(decl)
	if err != nil {
		panic(err)
	}
	return op
}

// Declaration returns the declaration of the operation.
func (op *Operation) Declaration() Declaration {
	return op.decl
}

// Name returns the name of the operation.
func (op *Operation) Name() string {
	return op.decl.Name
}

// statement resolves the statement of one call.
func (op *Operation) statement(runtime []SQL) (Statement, error) {
	stmt := Statement{
		Name:       op.decl.Name,
		Datasource: op.decl.Datasource,
		Timeout:    op.decl.Timeout,
		Debug:      op.decl.Debug,
	}
	switch {
	case len(runtime) > 1:
		return stmt, &Error{Kind: ErrInvalidDeclaration, Operation: stmt.Name, Err: fmt.Errorf("%d runtime SQL arguments", len(runtime))}
	case len(runtime) == 1 && runtime[0] != "":
		if !op.decl.RuntimeSQL {
			return stmt, &Error{Kind: ErrInvalidDeclaration, Operation: stmt.Name, Err: fmt.Errorf("runtime SQL passed to an operation without RuntimeSQL")}
		}
		stmt.Query = string(runtime[0])
	case op.decl.SQL != "":
		stmt.Query = op.decl.SQL
	case op.decl.TemplateKey != "":
		query, ok := op.engine.templates.Lookup(op.decl.TemplateKey)
		if !ok {
			return stmt, &Error{Kind: ErrUnboundTemplate, Operation: stmt.Name, Err: fmt.Errorf("template %q is not registered", op.decl.TemplateKey)}
		}
		stmt.Query = query
	default:
		return stmt, &Error{Kind: ErrUnboundTemplate, Operation: stmt.Name, Err: fmt.Errorf("no runtime SQL passed")}
	}
	stmt.Action = sqllib.ActionOf(stmt.Query)
	return stmt, nil
}

// check rejects parameters of a shape other than the declared one.
func (op *Operation) check(stmt *Statement, params Params) error {
	if op.decl.Shape == ShapeNone || params == nil {
		return nil
	}
	if shape := params.Shape(); shape != op.decl.Shape {
		return wrapError(fmt.Errorf("%w: declared %s parameters, got %s", ErrParameterBinding, op.decl.Shape, shape), stmt)
	}
	return nil
}

// returns rejects facades that do not match the declared result shape.
func (op *Operation) returns(shape ResultShape) {
	if op.decl.Returns != ReturnsAny && op.decl.Returns != shape {
		panic(fmt.Sprintf("dao: operation %s returns %s, used as %s", op.decl.Name, op.decl.Returns, shape))
	}
}

// call runs body for one invocation: the statement is resolved, the
// parameters checked and body runs with the declared datasource active.
func (op *Operation) call(ctx context.Context, params Params, runtime []SQL, body func(ctx context.Context, stmt Statement) error) error {
	stmt, err := op.statement(runtime)
	if err != nil {
		return err
	}
	if err = op.check(&stmt, params); err != nil {
		return err
	}
	if op.decl.Datasource == "" {
		return body(ctx, stmt)
	}
	err = op.engine.router.WithDatasource(ctx, op.decl.Datasource, func(ctx context.Context) error {
		// the random selectors were resolved on entry
		stmt.Datasource = op.engine.router.Resolve(ctx)
		return body(ctx, stmt)
	})
	return wrapError(err, &stmt)
}

func query[T any](op *Operation, read reader[T]) func(ctx context.Context, params Params, runtime ...SQL) (T, error) {
	return func(ctx context.Context, params Params, runtime ...SQL) (result T, err error) {
		err = op.call(ctx, params, runtime, func(ctx context.Context, stmt Statement) (err error) {
			result, err = newExecutor(op.engine, stmt, read).QueryContext(ctx, params)
			return err
		})
		if err != nil {
			var zero T
			return zero, err
		}
		return result, nil
	}
}

// Rows returns the implementation of op returning every row as a Row.
func Rows(op *Operation) func(ctx context.Context, params Params, runtime ...SQL) ([]Row, error) {
	op.returns(ReturnsRows)
	return query(op, readRows)
}

// List returns the implementation of op mapping every row to T.
func List[T any](op *Operation) func(ctx context.Context, params Params, runtime ...SQL) ([]T, error) {
	op.returns(ReturnsList)
	return query(op, readList[T])
}

// One returns the implementation of op mapping its only row to T.
func One[T any](op *Operation) func(ctx context.Context, params Params, runtime ...SQL) (T, error) {
	op.returns(ReturnsOne)
	return query(op, readOne[T])
}

// Scalar returns the implementation of op reading the first column of the first row.
func Scalar[T any](op *Operation) func(ctx context.Context, params Params, runtime ...SQL) (T, error) {
	op.returns(ReturnsScalar)
	return query(op, readScalar[T])
}

// Paged returns the implementation of op filling a page.
// A nil page reads every row.
func Paged[T any](op *Operation) func(ctx context.Context, page *Page[T], params Params, runtime ...SQL) (*Page[T], error) {
	op.returns(ReturnsPage)
	return func(ctx context.Context, page *Page[T], params Params, runtime ...SQL) (result *Page[T], err error) {
		err = op.call(ctx, params, runtime, func(ctx context.Context, stmt Statement) (err error) {
			result, err = selectPage(ctx, op.engine, stmt, params, page)
			return err
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}

// Execution returns the implementation of op running a statement that returns no rows.
func Execution(op *Operation) func(ctx context.Context, params Params, runtime ...SQL) (sql.Result, error) {
	op.returns(ReturnsExec)
	return func(ctx context.Context, params Params, runtime ...SQL) (result sql.Result, err error) {
		err = op.call(ctx, params, runtime, func(ctx context.Context, stmt Statement) (err error) {
			result, err = newExecutor(op.engine, stmt, readRows).ExecContext(ctx, params)
			return err
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}
