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
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/go-juicedev/dao/internal/reflectlite"
	sqllib "github.com/go-juicedev/dao/sql"
)

// Struct tags read by Bind.
const (
	tagSQL        = "sql"
	tagSQLKey     = "sqlkey"
	tagDatasource = "datasource"
	tagTimeout    = "timeout" // milliseconds
	tagDebug      = "debug"
	tagName       = "name"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
	sqlType     = reflect.TypeFor[SQL]()
	resultType  = reflect.TypeFor[sql.Result]()
	rowsType    = reflect.TypeFor[[]Row]()
	bytesType   = reflect.TypeFor[[]byte]()
	timeType    = reflect.TypeFor[time.Time]()
	valuerType  = reflect.TypeFor[driver.Valuer]()
	scannerType = reflect.TypeFor[sql.Scanner]()
)

// Bind implements the func fields of the struct v points to.
//
// Every exported func field tagged with sql or sqlkey, or taking a SQL
// argument, is replaced by an implementation running the declared query:
//
//	type UserMapper struct {
//		ByDept func(ctx context.Context, dept int64) ([]User, error) `sql:"select * from t_user where dept_id = ?"`
//		Page   func(ctx context.Context, page *dao.Page[User], filter Filter) (*dao.Page[User], error) `sqlkey:"user.page" datasource:"replica"`
//		Count  func(ctx context.Context) (int64, error) `sql:"select count(*) from t_user" timeout:"500"`
//	}
//
// The first argument is the context.Context of the call. It may be followed
// by a *Page[T] and by a SQL argument, in this order. The remaining
// arguments are the parameters: a single map with string keys is bound by
// name, a single struct or struct pointer is bound by field, anything else
// is bound by position and a variadic tail is expanded.
//
// The last result is an error. It may be preceded by a sql.Result, a []Row,
// a Row, a *Page[T], a slice, a struct or a scalar.
//
// Every declaration is checked here, so a mapper that binds does not fail
// later for a missing template or an unknown datasource.
func (e *Engine) Bind(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return &Error{Kind: ErrInvalidDeclaration, Err: fmt.Errorf("bind needs a non-nil struct pointer, got %T", v)}
	}
	rv = rv.Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() || field.Type.Kind() != reflect.Func {
			continue
		}
		impl, err := e.implement(rt, field)
		if err != nil {
			return err
		}
		if impl.IsValid() {
			rv.Field(i).Set(impl)
		}
	}
	return nil
}

// Implement returns a T with its func fields implemented by Bind.
func Implement[T any](e *Engine) (*T, error) {
	v := new(T)
	if err := e.Bind(v); err != nil {
		return nil, err
	}
	return v, nil
}

// returnKind is how the first result of a declared func is produced.
type returnKind int

const (
	returnNothing returnKind = iota
	returnExec
	returnRows
	returnRow
	returnPage
	returnList
	returnOne
	returnScalar
)

// signature is the analysed type of a declared func.
type signature struct {
	ftype    reflect.Type
	pageAt   int // -1 without page argument
	sqlAt    int // -1 without SQL argument
	argsFrom int
	shape    ParamShape
	kind     returnKind
	out      reflect.Type
}

func (e *Engine) implement(owner reflect.Type, field reflect.StructField) (reflect.Value, error) {
	name := field.Tag.Get(tagName)
	if name == "" {
		name = owner.Name() + "." + field.Name
	}
	invalid := func(format string, args ...any) error {
		return &Error{Kind: ErrInvalidDeclaration, Operation: name, Err: fmt.Errorf(format, args...)}
	}

	text, key := field.Tag.Get(tagSQL), field.Tag.Get(tagSQLKey)
	if text == "" && key == "" && !takesSQL(field.Type) {
		// not a declared operation
		return reflect.Value{}, nil
	}
	sig, err := analyse(field.Type)
	if err != nil {
		return reflect.Value{}, invalid("%w", err)
	}
	decl := Declaration{
		Name:        name,
		SQL:         text,
		TemplateKey: key,
		RuntimeSQL:  sig.sqlAt >= 0,
		Datasource:  field.Tag.Get(tagDatasource),
		Shape:       sig.shape,
		Debug:       DebugMode(field.Tag.Get(tagDebug)),
	}
	if timeout := field.Tag.Get(tagTimeout); timeout != "" {
		ms, err := strconv.ParseInt(timeout, 10, 64)
		if err != nil {
			return reflect.Value{}, invalid("timeout tag %q: %w", timeout, err)
		}
		decl.Timeout = time.Duration(ms) * time.Millisecond
	}
	op, err := e.Compile(decl)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.MakeFunc(field.Type, func(in []reflect.Value) []reflect.Value {
		out, err := sig.invoke(op, in)
		return sig.results(out, err)
	}), nil
}

func takesSQL(t reflect.Type) bool {
	for i := 0; i < t.NumIn(); i++ {
		if t.In(i) == sqlType {
			return true
		}
	}
	return false
}

// analyse checks the func type t and records how to call it.
func analyse(t reflect.Type) (*signature, error) {
	sig := &signature{ftype: t, pageAt: -1, sqlAt: -1}
	if t.NumIn() == 0 || t.In(0) != contextType {
		return nil, errors.New("the first argument must be a context.Context")
	}
	at := 1
	if at < t.NumIn() && t.In(at).Implements(pageRunnerType) {
		sig.pageAt = at
		at++
	}
	if at < t.NumIn() && t.In(at) == sqlType {
		sig.sqlAt = at
		at++
	}
	sig.argsFrom = at
	sig.shape = paramShapeOf(t, at)

	switch t.NumOut() {
	case 1:
		if t.Out(0) != errorType {
			return nil, errors.New("the last result must be an error")
		}
		sig.kind = returnNothing
	case 2:
		if t.Out(1) != errorType {
			return nil, errors.New("the last result must be an error")
		}
		sig.out = t.Out(0)
		sig.kind = returnKindOf(sig.out)
	default:
		return nil, errors.New("a declared func returns a value and an error, or an error")
	}

	if sig.kind == returnPage {
		if sig.pageAt >= 0 && t.In(sig.pageAt) != sig.out {
			return nil, fmt.Errorf("page argument %s does not match the result %s", t.In(sig.pageAt), sig.out)
		}
	} else if sig.pageAt >= 0 {
		return nil, fmt.Errorf("page argument %s needs a page result", t.In(sig.pageAt))
	}
	return sig, nil
}

func returnKindOf(t reflect.Type) returnKind {
	switch {
	case t == resultType:
		return returnExec
	case t == rowsType:
		return returnRows
	case t == rowType:
		return returnRow
	case t.Implements(pageRunnerType):
		return returnPage
	case t == bytesType:
		return returnScalar
	case t.Kind() == reflect.Slice:
		return returnList
	case isRecordType(t):
		return returnOne
	default:
		return returnScalar
	}
}

// isRecordType reports whether t is bound field by field.
func isRecordType(t reflect.Type) bool {
	t = reflectlite.IndirectType(t)
	if t.Kind() != reflect.Struct || t == timeType {
		return false
	}
	return !t.Implements(valuerType) && !reflect.PointerTo(t).Implements(valuerType) &&
		!reflect.PointerTo(t).Implements(scannerType)
}

// paramShapeOf infers the parameter shape from the arguments of t from at on.
func paramShapeOf(t reflect.Type, at int) ParamShape {
	if t.NumIn()-at == 1 && !t.IsVariadic() {
		arg := t.In(at)
		if arg.Kind() == reflect.Map && arg.Key().Kind() == reflect.String {
			return ShapeNamed
		}
		if isRecordType(arg) {
			return ShapeRecord
		}
	}
	return ShapePositional
}

// params builds the parameters of one call.
func (s *signature) params(in []reflect.Value) Params {
	args := in[s.argsFrom:]
	switch s.shape {
	case ShapeNamed:
		values := make(map[string]any, args[0].Len())
		iter := args[0].MapRange()
		for iter.Next() {
			values[iter.Key().String()] = iter.Value().Interface()
		}
		return Named(values)
	case ShapeRecord:
		return Record(args[0].Interface())
	}
	values := make([]any, 0, len(args))
	for i, arg := range args {
		if s.ftype.IsVariadic() && i == len(args)-1 {
			for j := 0; j < arg.Len(); j++ {
				values = append(values, arg.Index(j).Interface())
			}
			continue
		}
		values = append(values, arg.Interface())
	}
	return Positional(values...)
}

// invoke runs op for the arguments of one call.
func (s *signature) invoke(op *Operation, in []reflect.Value) (reflect.Value, error) {
	ctx, _ := in[0].Interface().(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}
	var runtime []SQL
	if s.sqlAt >= 0 {
		runtime = []SQL{SQL(in[s.sqlAt].String())}
	}
	params := s.params(in)

	var out reflect.Value
	err := op.call(ctx, params, runtime, func(ctx context.Context, stmt Statement) error {
		switch s.kind {
		case returnNothing, returnExec:
			result, err := newExecutor(op.engine, stmt, readRows).ExecContext(ctx, params)
			if err != nil {
				return err
			}
			out = reflect.ValueOf(&result).Elem()
			return nil
		case returnPage:
			page := reflect.New(s.out.Elem())
			if s.pageAt >= 0 && !in[s.pageAt].IsNil() {
				page = in[s.pageAt]
			}
			if err := page.Interface().(pageRunner).runPage(ctx, op.engine, stmt, params); err != nil {
				return err
			}
			out = page
			return nil
		default:
			value, err := newExecutor(op.engine, stmt, s.reader()).QueryContext(ctx, params)
			if err != nil {
				return err
			}
			out = value
			return nil
		}
	})
	return out, err
}

// reader returns the reader producing the first result.
func (s *signature) reader() reader[reflect.Value] {
	switch s.kind {
	case returnRows:
		return func(rows sqllib.Rows, hidden []string) (reflect.Value, error) {
			items, err := readRows(rows, hidden)
			return reflect.ValueOf(items), err
		}
	case returnRow:
		return func(rows sqllib.Rows, hidden []string) (reflect.Value, error) {
			item, err := readOne[Row](rows, hidden)
			return reflect.ValueOf(item), err
		}
	case returnList:
		return func(rows sqllib.Rows, hidden []string) (reflect.Value, error) {
			return sqllib.ListOf(rows, s.out.Elem(), hidden...)
		}
	case returnOne:
		return func(rows sqllib.Rows, hidden []string) (reflect.Value, error) {
			items, err := sqllib.ListOf(rows, s.out, hidden...)
			if err != nil {
				return reflect.Value{}, err
			}
			switch items.Len() {
			case 0:
				return reflect.Value{}, sql.ErrNoRows
			case 1:
				return items.Index(0), nil
			default:
				return reflect.Value{}, sqllib.ErrTooManyRows
			}
		}
	default:
		return func(rows sqllib.Rows, hidden []string) (reflect.Value, error) {
			items, err := sqllib.ListOf(rows, s.out, hidden...)
			if err != nil {
				return reflect.Value{}, err
			}
			if items.Len() == 0 {
				return reflect.Value{}, sql.ErrNoRows
			}
			return items.Index(0), nil
		}
	}
}

// results converts the outcome of a call to the results of the func.
func (s *signature) results(out reflect.Value, err error) []reflect.Value {
	errValue := reflect.Zero(errorType)
	if err != nil {
		errValue = reflect.ValueOf(&err).Elem()
	}
	if s.kind == returnNothing {
		return []reflect.Value{errValue}
	}
	value := reflect.Zero(s.out)
	if err == nil && out.IsValid() {
		if out.Type() != s.out && out.Type().ConvertibleTo(s.out) {
			out = out.Convert(s.out)
		}
		value = out
	}
	return []reflect.Value{value, errValue}
}
