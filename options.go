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

package strata

import (
	"fmt"
	"log/slog"
	"time"
)

// ErrorHandler renders a chain error into the buffered response. It runs
// at the application boundary, after the middleware chain has settled with
// an error, and before the response is written to the wire.
type ErrorHandler func(c *Context, err error)

// config holds application configuration assembled from Options.
type config struct {
	logger       *slog.Logger
	state        map[string]any
	errorHandler ErrorHandler
	h2c          bool
	server       serverConfig
}

// serverConfig holds HTTP server hardening knobs.
type serverConfig struct {
	readTimeout       time.Duration
	readHeaderTimeout time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	shutdownTimeout   time.Duration
	maxHeaderBytes    int
}

// defaultConfig returns the application defaults: no-op logging, default
// error rendering, and conservative server timeouts.
func defaultConfig() *config {
	return &config{
		logger: noopLogger,
		server: serverConfig{
			readTimeout:       15 * time.Second,
			readHeaderTimeout: 5 * time.Second,
			writeTimeout:      30 * time.Second,
			idleTimeout:       120 * time.Second,
			shutdownTimeout:   10 * time.Second,
			maxHeaderBytes:    1 << 20,
		},
	}
}

// validate checks configuration consistency.
func (c *config) validate() error {
	if c.server.shutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %v", c.server.shutdownTimeout)
	}
	if c.server.maxHeaderBytes <= 0 {
		return fmt.Errorf("max header bytes must be positive, got %d", c.server.maxHeaderBytes)
	}
	return nil
}

// Option defines functional options for application construction.
type Option func(*config)

// WithLogger sets the application's base logger. Each request derives its
// context logger from it.
//
// Example:
//
//	app := strata.MustNew(strata.WithLogger(slog.Default()))
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithState seeds every request's state bag with a default key/value.
// Requests receive a shallow copy, so handlers can overwrite entries
// without affecting each other.
func WithState(key string, value any) Option {
	return func(cfg *config) {
		if cfg.state == nil {
			cfg.state = make(map[string]any)
		}
		cfg.state[key] = value
	}
}

// WithErrorHandler replaces the default error renderer. The handler runs
// for every error that escapes the middleware chain, including recovered
// panics.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(cfg *config) { cfg.errorHandler = handler }
}

// WithH2C enables cleartext HTTP/2 on Serve, for deployments behind a
// load balancer that terminates TLS.
func WithH2C() Option {
	return func(cfg *config) { cfg.h2c = true }
}

// WithServerTimeouts overrides the HTTP server timeouts used by Serve and
// ServeTLS. Zero values keep the corresponding default.
func WithServerTimeouts(read, write, idle time.Duration) Option {
	return func(cfg *config) {
		if read > 0 {
			cfg.server.readTimeout = read
		}
		if write > 0 {
			cfg.server.writeTimeout = write
		}
		if idle > 0 {
			cfg.server.idleTimeout = idle
		}
	}
}

// WithShutdownTimeout overrides how long graceful shutdown may take before
// in-flight requests are dropped.
func WithShutdownTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.server.shutdownTimeout = d
		}
	}
}
