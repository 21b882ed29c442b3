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

package accesslog

import (
	"context"
	"log/slog"
	"time"

	"github.com/strata-http/strata"
	"github.com/strata-http/strata/middleware"
)

// Option defines functional options for accesslog middleware configuration.
type Option func(*config)

// config holds the configuration for the accesslog middleware.
type config struct {
	// logger overrides the context logger when set
	logger *slog.Logger

	// skipPaths are exact paths excluded from logging (health checks,
	// metrics endpoints)
	skipPaths map[string]struct{}

	// slowThreshold escalates requests slower than this to warn level
	slowThreshold time.Duration
}

// defaultConfig returns the default configuration for accesslog middleware.
func defaultConfig() *config {
	return &config{
		slowThreshold: 3 * time.Second,
	}
}

// New returns a middleware that logs one structured line per request after
// the chain has unwound, carrying method, path, status, duration, and
// client IP. Errors escalate to error level, slow requests to warn.
//
// Basic usage:
//
//	app.Use(accesslog.New())
//
// Excluding health checks:
//
//	app.Use(accesslog.New(
//	    accesslog.WithSkipPaths("/healthz", "/readyz"),
//	))
func New(opts ...Option) strata.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *strata.Context, next strata.Next) error {
		path := c.Request.Path()
		ip := c.Request.IP()
		c.Request.WithContext(context.WithValue(c.Request.Context(), middleware.ClientIPKey, ip))

		if _, skip := cfg.skipPaths[path]; skip {
			return next()
		}

		start := time.Now()
		err := next()
		elapsed := time.Since(start)

		logger := cfg.logger
		if logger == nil {
			logger = c.Logger()
		}

		attrs := []any{
			"method", c.Request.Method(),
			"path", path,
			"status", c.Response.Status(),
			"duration", elapsed,
			"ip", ip,
		}

		switch {
		case err != nil:
			logger.Error("request", append(attrs, "error", err)...)
		case cfg.slowThreshold > 0 && elapsed >= cfg.slowThreshold:
			logger.Warn("slow request", attrs...)
		default:
			logger.Info("request", attrs...)
		}

		return err
	}
}

// ClientIP returns the client IP recorded on the request context, or ""
// when the middleware has not run for this request.
func ClientIP(c *strata.Context) string {
	if ip, ok := c.Request.Context().Value(middleware.ClientIPKey).(string); ok {
		return ip
	}
	return ""
}
