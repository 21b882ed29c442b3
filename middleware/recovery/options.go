// Copyright 2025 The Strata Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package recovery provides middleware that converts handler panics into
// chain errors.
package recovery

import "github.com/strata-http/strata"

// WithLogStack controls whether the goroutine stack accompanies the panic
// log line.
// Default: true
func WithLogStack(logStack bool) Option {
	return func(cfg *config) {
		cfg.logStack = logStack
	}
}

// WithHandler replaces the default panic-to-error conversion. The handler
// receives the recovered value and returns the error the chain settles
// with.
//
// Example:
//
//	recovery.New(recovery.WithHandler(func(c *strata.Context, rec any) error {
//	    return c.Throw(http.StatusServiceUnavailable, "temporarily unavailable")
//	}))
func WithHandler(handler func(c *strata.Context, recovered any) error) Option {
	return func(cfg *config) {
		cfg.handler = handler
	}
}
