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

package tracing

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/strata-http/strata"
)

// instrumentationName identifies this package in emitted spans.
const instrumentationName = "github.com/strata-http/strata/middleware/tracing"

// Option defines functional options for tracing middleware configuration.
type Option func(*config)

// config holds the configuration for the tracing middleware.
type config struct {
	provider   trace.TracerProvider
	propagator propagation.TextMapPropagator
	serverName string
}

// defaultConfig returns the default configuration, using the global
// OpenTelemetry provider and propagator.
func defaultConfig() *config {
	return &config{
		provider:   otel.GetTracerProvider(),
		propagator: otel.GetTextMapPropagator(),
	}
}

// New returns a middleware that opens one server span per request. The
// inbound trace context is extracted from the request headers, so spans
// join a distributed trace when the caller propagates one. After the chain
// unwinds, the span carries the matched route template (not the concrete
// path, keeping cardinality bounded), the response status, and any chain
// error.
//
// Basic usage:
//
//	app.Use(tracing.New())
//
// With an explicit provider:
//
//	app.Use(tracing.New(tracing.WithTracerProvider(tp)))
func New(opts ...Option) strata.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	tracer := cfg.provider.Tracer(instrumentationName)

	return func(c *strata.Context, next strata.Next) error {
		ctx := cfg.propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header()))

		ctx, span := tracer.Start(ctx, c.Request.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method()),
				attribute.String("url.path", c.Request.Path()),
				attribute.String("server.address", c.Request.Host()),
			),
		)
		defer span.End()
		c.Request.WithContext(ctx)

		err := next()

		status := c.Response.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if route := c.RouterPath(); route != "" {
			span.SetAttributes(attribute.String("http.route", route))
			span.SetName(fmt.Sprintf("%s %s", c.Request.Method(), route))
		}
		if serverName := cfg.serverName; serverName != "" {
			span.SetAttributes(attribute.String("service.name", serverName))
		}

		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case status >= http.StatusInternalServerError:
			span.SetStatus(codes.Error, http.StatusText(status))
		default:
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
