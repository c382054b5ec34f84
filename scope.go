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

	"github.com/go-juicedev/dao/session"
	"github.com/go-juicedev/dao/session/tx"
)

// Transaction executes handler in a transaction of the datasource active in ctx.
// The ctx must carry an engine, see ContextWithEngine.
// For example:
//
//	ctx := dao.ContextWithEngine(context.Background(), engine)
//	if err := dao.Transaction(ctx, func(ctx context.Context) error {
//		// ... do something
//		return nil
//	}); err != nil {
//		// handle error
//	}
func Transaction(ctx context.Context, handler func(ctx context.Context) error, opts ...tx.Option) error {
	e, err := EngineFromContext(ctx)
	if err != nil {
		return err
	}
	return e.Transaction(ctx, "", handler, opts...)
}

// NestedTransaction runs handler in the transaction already open for the
// datasource active in ctx, or in a new one.
func NestedTransaction(ctx context.Context, handler func(ctx context.Context) error, opts ...tx.Option) error {
	e, err := EngineFromContext(ctx)
	if err != nil {
		return err
	}
	if InTransaction(ctx, e) {
		return handler(ctx)
	}
	return e.Transaction(ctx, "", handler, opts...)
}

// InTransaction reports whether calls made with ctx run in a transaction.
func InTransaction(ctx context.Context, e *Engine) bool {
	_, err := session.FromContext(ctx, e.router.Resolve(ctx))
	return err == nil
}
