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

package requestid

import (
	"context"

	"github.com/google/uuid"

	"github.com/strata-http/strata"
	"github.com/strata-http/strata/middleware"
)

// Option defines functional options for requestid middleware configuration.
type Option func(*config)

// config holds the configuration for the requestid middleware.
type config struct {
	// headerName is the name of the header to use for the request ID
	headerName string

	// generator is the function used to generate new request IDs
	generator func() string

	// allowClientID allows using request IDs provided by clients
	allowClientID bool
}

// defaultConfig returns the default configuration for requestid middleware.
func defaultConfig() *config {
	return &config{
		headerName:    "X-Request-ID",
		generator:     generateUUID,
		allowClientID: true,
	}
}

// generateUUID generates a time-ordered UUID v7 string, falling back to a
// random v4 when the monotonic source fails.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// New returns a middleware that attaches a unique request ID to each
// request for log correlation. The ID is reflected in the response header,
// stored on the request context, and added to the context logger.
//
// Basic usage:
//
//	app.Use(requestid.New())
//
// Custom header name:
//
//	app.Use(requestid.New(
//	    requestid.WithHeader("X-Correlation-ID"),
//	))
func New(opts ...Option) strata.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *strata.Context, next strata.Next) error {
		var requestID string
		if cfg.allowClientID {
			requestID = c.Request.Header().Get(cfg.headerName)
		}
		if requestID == "" {
			requestID = cfg.generator()
		}

		c.Response.SetHeader(cfg.headerName, requestID)
		c.Request.WithContext(context.WithValue(c.Request.Context(), middleware.RequestIDKey, requestID))
		c.SetLogger(c.Logger().With("request_id", requestID))

		return next()
	}
}

// Get retrieves the request ID from the context. Returns an empty string
// if no request ID has been set.
func Get(c *strata.Context) string {
	if requestID, ok := c.Request.Context().Value(middleware.RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
