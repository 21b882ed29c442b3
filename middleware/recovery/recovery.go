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

package recovery

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/strata-http/strata"
)

// Option defines functional options for recovery middleware configuration.
type Option func(*config)

// config holds the configuration for the recovery middleware.
type config struct {
	// logStack controls whether the goroutine stack is logged
	logStack bool

	// handler converts the recovered value into the chain error
	handler func(c *strata.Context, recovered any) error
}

// defaultConfig returns the default configuration for recovery middleware.
func defaultConfig() *config {
	return &config{
		logStack: true,
	}
}

// New returns a middleware that converts downstream panics into chain
// errors, so one broken handler fails one request instead of the process.
// The recovered value is logged with the goroutine stack and, when a trace
// span is active, recorded on the span.
//
// Install it early so it wraps as much of the chain as possible:
//
//	app.Use(recovery.New())
//	app.Use(r.Routes(), r.AllowedMethods())
func New(opts ...Option) strata.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *strata.Context, next strata.Next) (err error) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			attrs := []any{
				"method", c.Request.Method(),
				"path", c.Request.Path(),
				"panic", rec,
			}
			if cfg.logStack {
				attrs = append(attrs, "stack", string(debug.Stack()))
			}
			c.Logger().Error("panic recovered", attrs...)

			if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
				span.SetStatus(codes.Error, fmt.Sprintf("panic: %v", rec))
				span.SetAttributes(attribute.Bool("http.panic", true))
			}

			if cfg.handler != nil {
				err = cfg.handler(c, rec)
				return
			}
			err = strata.WrapHTTPError(http.StatusInternalServerError, fmt.Errorf("panic: %v", rec))
		}()

		return next()
	}
}
