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

// Package strata provides an onion-model HTTP middleware engine and a
// pattern-matching router for Go.
//
// Middleware wrap each other like layers of an onion: each one runs code
// before and after the rest of the chain by calling next(), and the
// response is buffered until the whole chain has unwound. Errors flow back
// as ordinary Go return values and are rendered at the application
// boundary.
//
// # Key Features
//
//   - Onion middleware composition with at-most-once next() enforcement
//   - Expressive route templates (:name parameters, custom patterns,
//     optional and repeating segments) compiled to a single regexp
//   - Registration order is priority; no specificity reordering
//   - Method negotiation: Allow headers, 405 and 501 responses, automatic
//     HEAD for GET routes
//   - Named routes with reverse URL building
//   - Nested routers with additive parameter extraction
//   - Buffered responses: outer middleware observe inner results
//   - structured logging via log/slog, graceful shutdown, optional h2c
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "net/http"
//
//	    "github.com/strata-http/strata"
//	)
//
//	func main() {
//	    r := strata.NewRouter()
//	    r.GET("/books/:id", func(c *strata.Context, next strata.Next) error {
//	        return c.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
//	    })
//
//	    app := strata.MustNew()
//	    app.Use(r.Routes(), r.AllowedMethods())
//	    app.Serve(context.Background(), ":8080")
//	}
//
// # Constructor Pattern
//
//   - New() returns (*App, error) because configuration can be invalid;
//     MustNew panics instead, for main-function wiring.
//   - NewRouter() returns *Router directly: router construction is pure
//     data-structure setup and cannot fail. Route registration can fail
//     (invalid templates), so Register returns an error while the verb
//     helpers (GET, POST, ...) panic, treating a bad template as a
//     programming error caught at startup.
//   - All configuration options use the "With" prefix.
//
// # Middleware
//
// A middleware receives the request context and the continuation:
//
//	func logging(c *strata.Context, next strata.Next) error {
//	    start := time.Now()
//	    if err := next(); err != nil {
//	        return err
//	    }
//	    c.Logger().Info("handled",
//	        "path", c.Request.Path(),
//	        "status", c.Response.Status(),
//	        "duration", time.Since(start),
//	    )
//	    return nil
//	}
//
// Returning early without calling next() short-circuits the chain.
// Calling next() twice settles the chain with an error. Ready-made
// middleware live in the middleware subpackages: requestid, accesslog,
// recovery, timeout, tracing, and metrics.
package strata
