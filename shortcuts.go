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
)

// This file provides shortcuts running ad hoc queries on the engine carried by a context.

// QueryContext runs query and maps its only row to T.
// (ctx must carry an Engine, see ContextWithEngine)
func QueryContext[T any](ctx context.Context, query string, params Params) (result T, err error) {
	e, err := EngineFromContext(ctx)
	if err != nil {
		return result, err
	}
	return SelectOne[T](ctx, e, query, params)
}

// QueryListContext runs query and maps every row to T.
// (ctx must carry an Engine, see ContextWithEngine)
func QueryListContext[T any](ctx context.Context, query string, params Params) ([]T, error) {
	e, err := EngineFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return SelectList[T](ctx, e, query, params)
}

// QueryPageContext runs query for the window of page.
// (ctx must carry an Engine, see ContextWithEngine)
func QueryPageContext[T any](ctx context.Context, query string, params Params, page *Page[T]) (*Page[T], error) {
	e, err := EngineFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return SelectPage(ctx, e, query, params, page)
}

// ExecContext runs a statement that does not return rows.
// (ctx must carry an Engine, see ContextWithEngine)
func ExecContext(ctx context.Context, query string, params Params) (sql.Result, error) {
	e, err := EngineFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return e.Exec(ctx, query, params)
}
