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
	"database/sql"
	"errors"
	"strings"

	"github.com/go-juicedev/dao/datasource"
	"github.com/go-juicedev/dao/driver"
	"github.com/go-juicedev/dao/pagination"
	sqllib "github.com/go-juicedev/dao/sql"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrConnectivity means the store could not be reached or refused the credentials.
	ErrConnectivity = errors.New("connectivity error")

	// ErrStatement means the store rejected the statement.
	ErrStatement = errors.New("statement error")

	// ErrMapping means the result could not be produced in the requested shape.
	ErrMapping = errors.New("mapping error")

	// ErrParameterBinding means the arguments do not fit the placeholders of the query.
	ErrParameterBinding = errors.New("parameter binding error")

	// ErrUnboundTemplate means a declaration has no way to obtain its SQL.
	ErrUnboundTemplate = errors.New("unbound template")

	// ErrUnknownDatasource means a routing key is not configured.
	ErrUnknownDatasource = datasource.ErrUnknownDatasource

	// ErrInvalidPage means a page request can not be executed.
	ErrInvalidPage = pagination.ErrInvalidPage
)

var (
	// ErrEmptyQuery is an error that is returned when the query is empty.
	ErrEmptyQuery = errors.New("empty query")

	// ErrInvalidDeclaration is returned for declarations whose signature can not be implemented.
	ErrInvalidDeclaration = errors.New("invalid declaration")

	// ErrUnmanagedInstance is returned by Invoke for instances that were never passed to Manage.
	ErrUnmanagedInstance = errors.New("unmanaged instance")

	// ErrUnresolvedMethod is returned by Invoke when a method reference can not be
	// mapped to a method of the managed instance.
	ErrUnresolvedMethod = errors.New("unresolved method")
)

// Error is the failure of one operation. It carries what is needed to
// diagnose the failure without running the operation again.
type Error struct {
	// Kind is one of the error kinds above.
	Kind error
	// Operation is the declared name of the operation.
	Operation string
	// Datasource is the routing key the operation ran against.
	Datasource string
	// Query is the SQL text, as far as it was resolved.
	Query string
	// Shape is the parameter shape of the call.
	Shape ParamShape
	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("dao: ")
	if e.Kind != nil {
		sb.WriteString(e.Kind.Error())
	} else {
		sb.WriteString("error")
	}
	if e.Operation != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Operation)
	}
	if e.Datasource != "" {
		sb.WriteString(" on ")
		sb.WriteString(e.Datasource)
	}
	if e.Shape != ShapeNone {
		sb.WriteString(" with ")
		sb.WriteString(e.Shape.String())
		sb.WriteString(" parameters")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	if e.Query != "" {
		sb.WriteString(" [")
		sb.WriteString(e.Query)
		sb.WriteString("]")
	}
	return sb.String()
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// kindOf classifies a failure that came out of the store or the row mapper.
func kindOf(err error) error {
	switch {
	case errors.Is(err, ErrParameterBinding):
		return ErrParameterBinding
	case errors.Is(err, ErrUnknownDatasource):
		return ErrUnknownDatasource
	case errors.Is(err, ErrInvalidPage):
		return ErrInvalidPage
	case errors.Is(err, sqllib.ErrNoWritableField),
		errors.Is(err, sqllib.ErrTooManyRows),
		errors.Is(err, sql.ErrNoRows):
		return ErrMapping
	case driver.IsConnectivity(err):
		return ErrConnectivity
	default:
		return ErrStatement
	}
}

// wrapError returns err as an *Error describing stmt.
// Errors that already are an *Error are returned unchanged.
func wrapError(err error, stmt *Statement) error {
	if err == nil {
		return nil
	}
	var daoErr *Error
	if errors.As(err, &daoErr) {
		return err
	}
	return &Error{
		Kind:       kindOf(err),
		Operation:  stmt.Name,
		Datasource: stmt.Datasource,
		Query:      stmt.Query,
		Shape:      stmt.Shape,
		Err:        err,
	}
}
