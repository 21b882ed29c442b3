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

// Package timeout provides middleware that applies a deadline to the
// request context.
package timeout

import "time"

// WithTimeout sets the per-request deadline.
// Default: 30s
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// WithSkipPaths exempts exact paths from the deadline, for endpoints that
// legitimately outlive it such as streaming responses.
func WithSkipPaths(paths ...string) Option {
	return func(cfg *config) {
		if cfg.skipPaths == nil {
			cfg.skipPaths = make(map[string]struct{}, len(paths))
		}
		for _, p := range paths {
			cfg.skipPaths[p] = struct{}{}
		}
	}
}
