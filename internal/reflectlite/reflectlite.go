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

// Package reflectlite holds the reflection helpers shared by parameter
// binding and the dispatch proxy.
package reflectlite

import "reflect"

// IndirectType returns the underlying type if t is a pointer type.
// Otherwise, it returns t directly.
// For example, if t is **int, it returns int.
func IndirectType(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// Unwrap continuously dereferences pointers and interfaces until a
// non-pointer, non-interface value is reached. A nil pointer or interface
// is returned as is.
func Unwrap(value reflect.Value) reflect.Value {
	for value.IsValid() {
		switch value.Kind() {
		case reflect.Ptr, reflect.Interface:
			if value.IsNil() {
				return value
			}
			value = value.Elem()
		default:
			return value
		}
	}
	return value
}
