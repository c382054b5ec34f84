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

package sql

import "errors"

// Mapper errors. The engine classifies all of them as mapping failures.
var (
	ErrNilRows         = errors.New("sql: nil rows")
	ErrNoWritableField = errors.New("sql: destination has no writable fields")
	ErrTooManyRows     = errors.New("sql: expected one row, got multiple")
)
