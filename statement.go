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
	"time"

	sqllib "github.com/go-juicedev/dao/sql"
)

// DebugMode switches statement logging for one declaration.
// The values mirror the debug struct tag.
type DebugMode string

const (
	// DebugDefault follows the engine setting.
	DebugDefault DebugMode = ""
	// DebugOn always logs the statement.
	DebugOn DebugMode = "true"
	// DebugOff never logs the statement.
	DebugOff DebugMode = "false"
)

// Statement describes one execution as seen by middlewares.
type Statement struct {
	// Name is the operation name.
	Name string
	// Datasource is the routing key the statement runs against.
	Datasource string
	// Query is the SQL text as resolved for this call.
	Query string
	// Shape is the parameter shape of the call.
	Shape ParamShape
	// Action tells reads from writes.
	Action sqllib.Action
	// Timeout bounds the execution when positive.
	Timeout time.Duration
	// Debug overrides the engine debug setting.
	Debug DebugMode
}

// rawStatement describes ad hoc calls made through the Engine methods.
func rawStatement(query string, params Params) *Statement {
	stmt := &Statement{
		Name:   "raw",
		Query:  query,
		Action: sqllib.ActionOf(query),
	}
	if params != nil {
		stmt.Shape = params.Shape()
	}
	return stmt
}
