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

// Package accesslog provides structured request logging middleware built
// on log/slog.
package accesslog

import (
	"log/slog"
	"time"
)

// WithLogger logs to the given logger instead of the request-scoped one.
//
// Example:
//
//	accesslog.New(accesslog.WithLogger(slog.Default()))
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithSkipPaths excludes exact paths from logging. Typical candidates are
// health and metrics endpoints that would otherwise dominate the log.
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

// WithSlowThreshold escalates requests slower than the threshold to warn
// level. Zero disables the escalation.
// Default: 3s
func WithSlowThreshold(d time.Duration) Option {
	return func(cfg *config) {
		cfg.slowThreshold = d
	}
}
