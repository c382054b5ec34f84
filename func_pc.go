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
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// replacer defines the replacer of function name
var replacer = strings.NewReplacer("/", ".", `\`, ".", "*", "", "(", "", ")", "", "[...]", "")

// runtimeFuncName returns the function name of runtime
func runtimeFuncName(addr uintptr) string {
	fn := runtime.FuncForPC(addr)
	if fn == nil {
		return ""
	}
	name := replacer.Replace(fn.Name())
	return strings.TrimSuffix(name, "-fm")
}

// _cachedRuntimeFuncName initializes a cached version of runtimeFuncName.
// Setting DAO_NO_PC_FUNC_CACHE to true disables the cache.
func _cachedRuntimeFuncName() func(addr uintptr) string {
	const pcFuncCacheEnvName = "DAO_NO_PC_FUNC_CACHE"

	if cacheDisabled, _ := strconv.ParseBool(os.Getenv(pcFuncCacheEnvName)); cacheDisabled {
		return runtimeFuncName
	}

	var cache sync.Map
	return func(addr uintptr) string {
		// Load and Store are not atomic together, a name may be computed twice.
		if name, ok := cache.Load(addr); ok {
			return name.(string)
		}
		name := runtimeFuncName(addr)
		cache.Store(addr, name)
		return name
	}
}

// cachedRuntimeFuncName is a cached version of runtimeFuncName
// It stores function names in memory to avoid repeated processing
var cachedRuntimeFuncName = _cachedRuntimeFuncName()

// methodName returns the last segment of the runtime name of addr,
// which is the method name for method expressions and method values.
func methodName(addr uintptr) string {
	name := cachedRuntimeFuncName(addr)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
