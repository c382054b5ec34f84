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

	sqllib "github.com/go-juicedev/dao/sql"
)

// Iterator is a type alias for sql.Iterator.
type Iterator[T any] = sqllib.Iterator[T]

// Each runs query and calls fn for every row mapped to T, without holding
// the whole result in memory. The connection is held until Each returns.
// An error returned by fn stops the iteration and is returned as is.
func Each[T any](ctx context.Context, e *Engine, query string, params Params, fn func(T) error) error {
	var stop error
	err := e.run(ctx, *rawStatement(query, params), params, func(ctx context.Context, h *statementHandler, query string, args []any) error {
		return h.read(ctx, h.stmt, query, args, func(rows sqllib.Rows) error {
			iterator, err := sqllib.Iter[T](rows)
			if err != nil {
				return err
			}
			for value, err := range iterator {
				if err != nil {
					return err
				}
				if stop = fn(value); stop != nil {
					return nil
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	return stop
}
