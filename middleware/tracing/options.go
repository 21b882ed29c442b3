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

// Package tracing provides OpenTelemetry server-span middleware.
package tracing

import (
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// WithTracerProvider uses the given provider instead of the global one.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *config) {
		if provider != nil {
			cfg.provider = provider
		}
	}
}

// WithPropagator uses the given propagator instead of the global one.
func WithPropagator(propagator propagation.TextMapPropagator) Option {
	return func(cfg *config) {
		if propagator != nil {
			cfg.propagator = propagator
		}
	}
}

// WithServerName tags every span with a service name attribute.
func WithServerName(name string) Option {
	return func(cfg *config) {
		cfg.serverName = name
	}
}
