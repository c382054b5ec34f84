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

package tx

import "database/sql"

// Option adjusts the options a transaction begins with.
type Option func(options *sql.TxOptions)

// WithIsolationLevel sets the isolation level for the transaction.
func WithIsolationLevel(level sql.IsolationLevel) Option {
	return func(options *sql.TxOptions) {
		options.Isolation = level
	}
}

// WithReadOnly marks the transaction read-only.
func WithReadOnly(readOnly bool) Option {
	return func(options *sql.TxOptions) {
		options.ReadOnly = readOnly
	}
}

// buildOptions returns nil when no option is given so the driver default applies.
func buildOptions(opts []Option) *sql.TxOptions {
	if len(opts) == 0 {
		return nil
	}
	options := new(sql.TxOptions)
	for _, apply := range opts {
		if apply != nil {
			apply(options)
		}
	}
	return options
}
