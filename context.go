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
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"net/http"

	"gopkg.in/yaml.v3"
)

// Context bundles the inbound request view, the outbound response builder,
// and free-form per-request state. One Context exists per request, created
// fresh at the application boundary and never reused or shared across
// concurrent requests.
//
// ⚠️ THREAD SAFETY: Context is NOT thread-safe. It is owned by the single
// goroutine handling its request. For async work, copy the data you need
// before starting a goroutine, and never retain a Context after the chain
// has settled.
//
// The router populates the routing fields (Params, Captures, Matched,
// RouteName) when one of its layers matches; they are zero-valued for
// requests that never pass through a router.
type Context struct {
	// Request is the read view over the inbound request.
	Request *Request

	// Response is the buffered outbound response builder.
	Response *Response

	app    *App
	state  map[string]any
	logger *slog.Logger

	// Routing extensions, owned by the router middleware.
	params     map[string]string
	captures   []string
	matched    []*Layer
	router     *Router
	routeName  string
	routerPath string
}

// NewContext creates a Context outside the normal application flow,
// primarily for tests and for embedding the engine in custom servers.
func NewContext(w http.ResponseWriter, req *http.Request) *Context {
	_ = w // the wire is only touched at finalize time
	return &Context{
		Request:  newRequest(req),
		Response: newResponse(),
		logger:   noopLogger,
	}
}

// App returns the owning application, or nil for detached contexts.
func (c *Context) App() *App {
	return c.app
}

// Logger returns the request-scoped logger. It never returns nil; without
// configured logging it returns a no-op logger.
func (c *Context) Logger() *slog.Logger {
	if c.logger == nil {
		return noopLogger
	}
	return c.logger
}

// SetLogger replaces the request-scoped logger, typically to attach
// request-correlated attributes:
//
//	c.SetLogger(c.Logger().With("request_id", id))
func (c *Context) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// Set stores a value in the per-request state bag.
func (c *Context) Set(key string, value any) {
	if c.state == nil {
		c.state = make(map[string]any)
	}
	c.state[key] = value
}

// Get retrieves a value from the per-request state bag.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.state[key]
	return v, ok
}

// MustGet retrieves a state value and panics when the key is absent.
func (c *Context) MustGet(key string) any {
	if v, ok := c.state[key]; ok {
		return v
	}
	panic(fmt.Sprintf("strata: %v: %q", ErrStateKeyMissing, key))
}

// Param returns the value of a named (or positional) path parameter
// extracted by the router. Missing parameters yield "".
func (c *Context) Param(name string) string {
	return c.params[name]
}

// Params returns the full parameter mapping. Nested routers merge their
// contributions into the same map; the result must not be mutated by
// handlers.
func (c *Context) Params() map[string]string {
	return c.params
}

// Captures returns the raw matched substrings of the most specific matched
// layer, prior to percent-decoding.
func (c *Context) Captures() []string {
	return c.captures
}

// Matched returns the layers whose path matched this request, across every
// router the request has passed through, in match order. Allowed-methods
// negotiation reads this to compute the Allow header.
func (c *Context) Matched() []*Layer {
	return c.matched
}

// Router returns the router that most recently matched this request.
func (c *Context) Router() *Router {
	return c.router
}

// RouteName returns the name of the matched route, when the route was
// registered with one.
func (c *Context) RouteName() string {
	return c.routeName
}

// RouterPath returns the path template of the most specific matched layer.
func (c *Context) RouterPath() string {
	return c.routerPath
}

// Throw returns an HTTPError carrying the given status. Use it to bail out
// of a handler with a well-defined client-visible failure:
//
//	if book == nil {
//	    return c.Throw(http.StatusNotFound, "no such book")
//	}
func (c *Context) Throw(status int, message string) error {
	return NewHTTPError(status, message)
}

// writable guards the response helpers: once a middleware has taken over
// the connection the buffered response no longer reaches the wire, so any
// further write attempt is a programming error surfaced as
// ErrResponseTakenOver.
func (c *Context) writable() error {
	if c.Response.TakenOver() {
		return ErrResponseTakenOver
	}
	return nil
}

// JSON buffers a JSON response with the given status code. Encoding
// happens before anything is assigned, so an encoding failure leaves the
// response untouched.
func (c *Context) JSON(code int, obj any) error {
	if err := c.writable(); err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.Grow(256)
	if err := json.NewEncoder(&buf).Encode(obj); err != nil {
		return fmt.Errorf("JSON encoding failed for type %T: %w", obj, err)
	}
	c.Response.SetStatus(code)
	c.Response.SetHeader("Content-Type", "application/json; charset=utf-8")
	c.Response.SetBody(buf.Bytes())
	return nil
}

// YAML buffers a YAML response with the given status code.
func (c *Context) YAML(code int, obj any) error {
	if err := c.writable(); err != nil {
		return err
	}
	out, err := yaml.Marshal(obj)
	if err != nil {
		return fmt.Errorf("YAML encoding failed for type %T: %w", obj, err)
	}
	c.Response.SetStatus(code)
	c.Response.SetHeader("Content-Type", "application/yaml; charset=utf-8")
	c.Response.SetBody(out)
	return nil
}

// String buffers a plain-text response with the given status code.
func (c *Context) String(code int, format string, args ...any) error {
	if err := c.writable(); err != nil {
		return err
	}
	c.Response.SetStatus(code)
	c.Response.SetHeader("Content-Type", "text/plain; charset=utf-8")
	if len(args) > 0 {
		c.Response.SetBodyString(fmt.Sprintf(format, args...))
	} else {
		c.Response.SetBodyString(format)
	}
	return nil
}

// NoContent sets a bodiless response status such as 204.
func (c *Context) NoContent(code int) error {
	if err := c.writable(); err != nil {
		return err
	}
	c.Response.SetStatus(code)
	c.Response.ClearBody()
	return nil
}

// Redirect buffers a redirect response to the given location.
func (c *Context) Redirect(code int, location string) error {
	if err := c.writable(); err != nil {
		return err
	}
	c.Response.SetStatus(code)
	c.Response.SetHeader("Location", location)
	c.Response.SetBodyString(http.StatusText(code) + ". Redirecting to " + location)
	c.Response.SetHeader("Content-Type", "text/plain; charset=utf-8")
	return nil
}

// cloneState seeds a fresh per-request state bag from application defaults.
func cloneState(defaults map[string]any) map[string]any {
	if len(defaults) == 0 {
		return nil
	}
	return maps.Clone(defaults)
}

// addMatched appends path-matching layers, additively across nested
// routers, so an outer allowed-methods computation sees them all.
func (c *Context) addMatched(layers []*Layer) {
	c.matched = append(c.matched, layers...)
}
