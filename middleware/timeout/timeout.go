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

package timeout

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/strata-http/strata"
)

// Option defines functional options for timeout middleware configuration.
type Option func(*config)

// config holds the configuration for the timeout middleware.
type config struct {
	// timeout is the per-request deadline
	timeout time.Duration

	// skipPaths are exact paths exempt from the deadline (streaming
	// endpoints, long polls)
	skipPaths map[string]struct{}
}

// defaultConfig returns the default configuration for timeout middleware.
func defaultConfig() *config {
	return &config{
		timeout: 30 * time.Second,
	}
}

// New returns a middleware that bounds downstream work with a deadline on
// the request context. Handlers that honor the context see it expire; a
// chain that returns context.DeadlineExceeded is translated into 408
// Request Timeout.
//
// The deadline cannot interrupt a handler that ignores its context. It
// bounds cooperative work, not runaway goroutines.
//
// Basic usage:
//
//	app.Use(timeout.New(timeout.WithTimeout(5 * time.Second)))
func New(opts ...Option) strata.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *strata.Context, next strata.Next) error {
		if _, skip := cfg.skipPaths[c.Request.Path()]; skip {
			return next()
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.timeout)
		defer cancel()
		c.Request.WithContext(ctx)

		err := next()
		if errors.Is(err, context.DeadlineExceeded) {
			return strata.NewHTTPError(http.StatusRequestTimeout, "request timed out")
		}
		return err
	}
}
