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
	"fmt"
	"maps"
	"reflect"

	"github.com/go-juicedev/dao/datasource"
)

// managed is an instance registered with Manage.
type managed struct {
	routes map[string]string
}

// Manage registers instance with the routing key of each of its methods.
// routes maps method names to datasource keys. Methods without a route
// run on the datasource active in the context of the call.
//
// Routing only applies to calls made through Invoke and InvokeMethod.
// Calling a method on the instance directly, including from another method
// of the same instance, runs it on the datasource of the caller.
func Manage(e *Engine, instance any, routes map[string]string) error {
	if instance == nil {
		return fmt.Errorf("%w: nil instance", ErrInvalidDeclaration)
	}
	rt := reflect.TypeOf(instance)
	if !rt.Comparable() {
		return fmt.Errorf("%w: %s can not be managed, use a pointer", ErrInvalidDeclaration, rt)
	}
	for method, key := range routes {
		if _, ok := rt.MethodByName(method); !ok {
			return fmt.Errorf("%w: %s has no method %s", ErrInvalidDeclaration, rt, method)
		}
		if !e.router.Has(key) {
			return &Error{
				Kind:       ErrUnknownDatasource,
				Operation:  rt.String() + "." + method,
				Datasource: key,
				Err:        fmt.Errorf("datasource %q is not configured", key),
			}
		}
	}
	e.managed.Store(instance, &managed{routes: maps.Clone(routes)})
	return nil
}

// Invoke calls method on instance with the datasource routed for it by Manage.
//
//	users, err := dao.Invoke(ctx, engine, svc, (*UserService).ListActive)
//
// method must be a method expression of the type of instance.
func Invoke[T any, R any](ctx context.Context, e *Engine, instance T, method func(T, context.Context) (R, error)) (R, error) {
	var zero R
	if method == nil {
		return zero, fmt.Errorf("%w: nil method", ErrUnresolvedMethod)
	}
	name := methodName(reflect.ValueOf(method).Pointer())
	return InvokeMethod(ctx, e, instance, name, method)
}

// InvokeMethod calls fn with the datasource routed for the method called name.
// It covers closures that call the method with more arguments:
//
//	err := dao.InvokeMethod(ctx, engine, svc, "Rename", func(svc *UserService, ctx context.Context) (struct{}, error) {
//		return struct{}{}, svc.Rename(ctx, id, name)
//	})
func InvokeMethod[T any, R any](ctx context.Context, e *Engine, instance T, name string, fn func(T, context.Context) (R, error)) (R, error) {
	var zero R
	rt := reflect.TypeOf(any(instance))
	if rt == nil || !rt.Comparable() {
		return zero, fmt.Errorf("%w: %T", ErrUnmanagedInstance, instance)
	}
	value, ok := e.managed.Load(any(instance))
	if !ok {
		return zero, fmt.Errorf("%w: %T", ErrUnmanagedInstance, instance)
	}
	if _, ok := rt.MethodByName(name); !ok || name == "" {
		return zero, fmt.Errorf("%w: %T has no method %q", ErrUnresolvedMethod, instance, name)
	}
	key, routed := value.(*managed).routes[name]
	if !routed {
		return fn(instance, ctx)
	}
	return datasource.Within(ctx, e.router, key, func(ctx context.Context) (R, error) {
		return fn(instance, ctx)
	})
}
