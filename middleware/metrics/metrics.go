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

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/strata-http/strata"
)

// Option defines functional options for metrics middleware configuration.
type Option func(*config)

// config holds the configuration for the metrics middleware.
type config struct {
	registerer prometheus.Registerer
	namespace  string
	buckets    []float64
}

// defaultConfig returns the default configuration, registering collectors
// on the default Prometheus registry.
func defaultConfig() *config {
	return &config{
		registerer: prometheus.DefaultRegisterer,
		namespace:  "http",
		buckets:    prometheus.DefBuckets,
	}
}

// New returns a middleware that records per-request Prometheus metrics: a
// request counter and a latency histogram labeled by method, route
// template, and status, plus an in-flight gauge. Labels use the matched
// route template rather than the concrete path so cardinality stays
// bounded; unrouted requests are labeled "unmatched".
//
// Basic usage:
//
//	app.Use(metrics.New())
//
// With a private registry (typical in tests):
//
//	reg := prometheus.NewRegistry()
//	app.Use(metrics.New(metrics.WithRegistry(reg)))
func New(opts ...Option) strata.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	factory := promauto.With(cfg.registerer)
	requests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.namespace,
		Name:      "requests_total",
		Help:      "Total number of handled HTTP requests.",
	}, []string{"method", "route", "status"})
	duration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.namespace,
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   cfg.buckets,
	}, []string{"method", "route", "status"})
	inflight := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.namespace,
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being handled.",
	})

	return func(c *strata.Context, next strata.Next) error {
		inflight.Inc()
		start := time.Now()

		err := next()

		inflight.Dec()
		route := c.RouterPath()
		if route == "" {
			route = "unmatched"
		}
		labels := prometheus.Labels{
			"method": c.Request.Method(),
			"route":  route,
			"status": strconv.Itoa(c.Response.Status()),
		}
		requests.With(labels).Inc()
		duration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}
