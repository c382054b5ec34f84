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

package reflectlite

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndirectType(t *testing.T) {
	assert.Nil(t, IndirectType(nil))
	assert.Equal(t, reflect.TypeFor[int](), IndirectType(reflect.TypeFor[int]()))
	assert.Equal(t, reflect.TypeFor[int](), IndirectType(reflect.TypeFor[**int]()))
	assert.Equal(t, reflect.TypeFor[[]int](), IndirectType(reflect.TypeFor[*[]int]()))
}

func TestUnwrap(t *testing.T) {
	type record struct{ ID int }

	value := record{ID: 1}
	ptr := &value
	got := Unwrap(reflect.ValueOf(&ptr))
	assert.Equal(t, reflect.Struct, got.Kind())
	assert.Equal(t, 1, got.Interface().(record).ID)

	var boxed any = &value
	assert.Equal(t, reflect.Struct, Unwrap(reflect.ValueOf(&boxed)).Kind())

	var nilPtr *record
	got = Unwrap(reflect.ValueOf(nilPtr))
	assert.Equal(t, reflect.Ptr, got.Kind())
	assert.True(t, got.IsNil())

	assert.False(t, Unwrap(reflect.Value{}).IsValid())
	assert.Equal(t, 3, Unwrap(reflect.ValueOf(3)).Interface())
}
