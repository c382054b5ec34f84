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
	"errors"
)

// ErrNoEngineFoundInContext is returned when no engine is carried by a context.
var ErrNoEngineFoundInContext = errors.New("dao: no engine found in context")

type engineKey struct{}

// ContextWithEngine returns a new context with the given Engine.
func ContextWithEngine(ctx context.Context, e *Engine) context.Context {
	return context.WithValue(ctx, engineKey{}, e)
}

// EngineFromContext returns the Engine carried by ctx.
func EngineFromContext(ctx context.Context) (*Engine, error) {
	e, ok := ctx.Value(engineKey{}).(*Engine)
	if !ok || e == nil {
		return nil, ErrNoEngineFoundInContext
	}
	return e, nil
}
