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
	"iter"
	"net/http"
	"slices"
	"strings"
)

// routerConfig holds router-wide defaults applied to every registered layer.
type routerConfig struct {
	prefix    string
	methods   []string
	sensitive bool
	strict    bool
}

// RouterOption defines functional options for router construction.
type RouterOption func(*routerConfig)

// WithPrefix prepends a path prefix to every route registered on the router.
func WithPrefix(prefix string) RouterOption {
	return func(cfg *routerConfig) { cfg.prefix = strings.TrimSuffix(prefix, "/") }
}

// WithMethods overrides the set of HTTP methods the router implements.
// Requests using a method outside this set negotiate to 501 Not Implemented.
func WithMethods(methods ...string) RouterOption {
	return func(cfg *routerConfig) {
		cfg.methods = make([]string, 0, len(methods))
		for _, m := range methods {
			cfg.methods = append(cfg.methods, strings.ToUpper(m))
		}
	}
}

// WithCaseSensitive makes route matching case sensitive.
func WithCaseSensitive(sensitive bool) RouterOption {
	return func(cfg *routerConfig) { cfg.sensitive = sensitive }
}

// WithStrictSlash makes a trailing slash significant: "/users" and
// "/users/" become distinct paths.
func WithStrictSlash(strict bool) RouterOption {
	return func(cfg *routerConfig) { cfg.strict = strict }
}

// defaultRouterConfig returns the router defaults.
func defaultRouterConfig() *routerConfig {
	return &routerConfig{
		methods: []string{
			http.MethodHead,
			http.MethodOptions,
			http.MethodGet,
			http.MethodPut,
			http.MethodPatch,
			http.MethodPost,
			http.MethodDelete,
		},
	}
}

// Router matches request paths against an ordered list of layers and
// dispatches the matching middleware. Layers are tried in registration
// order; there is no specificity reordering, so registering "/users/new"
// before "/users/:id" is how an application expresses precedence.
//
// A Router is not a server: Routes() exposes it as a single middleware so
// routers nest inside applications and inside each other.
//
// Register all routes before serving traffic; Router is not synchronized
// for concurrent mutation.
type Router struct {
	cfg    routerConfig
	layers []*Layer
	params []paramEntry
}

// NewRouter creates an empty router.
//
// Example:
//
//	r := strata.NewRouter(strata.WithPrefix("/api"))
//	r.GET("/books/:id", showBook)
//	app.Use(r.Routes(), r.AllowedMethods())
func NewRouter(opts ...RouterOption) *Router {
	cfg := defaultRouterConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Router{cfg: *cfg}
}

// Prefix returns the router's path prefix.
func (r *Router) Prefix() string {
	return r.cfg.prefix
}

// SetPrefix re-prefixes the router: the prefix is prepended to every
// already-registered layer and to all future registrations.
func (r *Router) SetPrefix(prefix string) error {
	prefix = strings.TrimSuffix(prefix, "/")
	r.cfg.prefix = prefix
	for _, layer := range r.layers {
		if err := layer.SetPrefix(prefix); err != nil {
			return err
		}
	}
	return nil
}

// Register compiles a route template and appends the resulting layer.
// Method names are case-insensitive; an empty method set creates a
// middleware layer that matches every method without counting as a route.
func (r *Router) Register(path string, methods []string, stack []Middleware, opts ...LayerOption) (*Layer, error) {
	cfg := layerConfig{
		end:       true,
		sensitive: r.cfg.sensitive,
		strict:    r.cfg.strict,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	layer, err := newLayer(path, methods, stack, cfg)
	if err != nil {
		return nil, fmt.Errorf("register route %q: %w", path, err)
	}
	if r.cfg.prefix != "" {
		if err := layer.SetPrefix(r.cfg.prefix); err != nil {
			return nil, fmt.Errorf("apply prefix to route %q: %w", path, err)
		}
	}
	for _, p := range r.params {
		layer.addParam(p.name, p.fn)
	}

	r.layers = append(r.layers, layer)
	return layer, nil
}

// RegisterPaths registers the same method set and middleware under several
// templates, one layer per template.
func (r *Router) RegisterPaths(paths []string, methods []string, stack []Middleware, opts ...LayerOption) ([]*Layer, error) {
	layers := make([]*Layer, 0, len(paths))
	for _, path := range paths {
		layer, err := r.Register(path, methods, stack, opts...)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

// handle registers a single-method route, panicking on an invalid
// template. Template validity is a programming error, caught at startup.
func (r *Router) handle(method, path string, stack []Middleware, opts ...LayerOption) *Layer {
	layer, err := r.Register(path, []string{method}, stack, opts...)
	if err != nil {
		panic(fmt.Sprintf("strata: %v", err))
	}
	return layer
}

// GET registers a GET route. The layer also answers HEAD.
func (r *Router) GET(path string, mw ...Middleware) *Layer {
	return r.handle(http.MethodGet, path, mw)
}

// POST registers a POST route.
func (r *Router) POST(path string, mw ...Middleware) *Layer {
	return r.handle(http.MethodPost, path, mw)
}

// PUT registers a PUT route.
func (r *Router) PUT(path string, mw ...Middleware) *Layer {
	return r.handle(http.MethodPut, path, mw)
}

// PATCH registers a PATCH route.
func (r *Router) PATCH(path string, mw ...Middleware) *Layer {
	return r.handle(http.MethodPatch, path, mw)
}

// DELETE registers a DELETE route.
func (r *Router) DELETE(path string, mw ...Middleware) *Layer {
	return r.handle(http.MethodDelete, path, mw)
}

// HEAD registers a HEAD route.
func (r *Router) HEAD(path string, mw ...Middleware) *Layer {
	return r.handle(http.MethodHead, path, mw)
}

// OPTIONS registers an OPTIONS route.
func (r *Router) OPTIONS(path string, mw ...Middleware) *Layer {
	return r.handle(http.MethodOptions, path, mw)
}

// All registers a route answering every method the router implements.
func (r *Router) All(path string, mw ...Middleware) *Layer {
	layer, err := r.Register(path, r.cfg.methods, mw)
	if err != nil {
		panic(fmt.Sprintf("strata: %v", err))
	}
	return layer
}

// Use attaches middleware that runs for every request reaching the router,
// regardless of method, before any matching route.
func (r *Router) Use(mw ...Middleware) *Router {
	return r.UsePath("(.*)", mw...)
}

// UsePath attaches middleware scoped to a path prefix. The path matches
// non-exactly, so "/users" also covers "/users/42/posts". Captures in the
// path are ignored: scoped middleware see parameters only through the
// route layer that ultimately matches.
func (r *Router) UsePath(path string, mw ...Middleware) *Router {
	_, err := r.Register(path, nil, mw, WithMatchEnd(false), WithIgnoreCaptures(true))
	if err != nil {
		panic(fmt.Sprintf("strata: %v", err))
	}
	return r
}

// Param registers middleware that runs whenever a matched route captures
// the named parameter, before the route's own middleware. Layers order
// parameter middleware by capture position, so a "/:user/:post" route runs
// the user loader before the post loader regardless of registration order.
func (r *Router) Param(name string, fn ParamMiddleware) *Router {
	r.params = append(r.params, paramEntry{name: name, fn: fn})
	for _, layer := range r.layers {
		layer.addParam(name, fn)
	}
	return r
}

// Mount flattens another router's layers into this one under a path
// prefix. The mounted layers are cloned, so the sub-router stays usable
// on its own.
func (r *Router) Mount(prefix string, sub *Router) error {
	prefix = strings.TrimSuffix(prefix, "/")
	for _, layer := range sub.layers {
		clone := layer.clone()
		if prefix != "" {
			if err := clone.SetPrefix(prefix); err != nil {
				return fmt.Errorf("mount %q: %w", prefix, err)
			}
		}
		if r.cfg.prefix != "" {
			if err := clone.SetPrefix(r.cfg.prefix); err != nil {
				return fmt.Errorf("mount %q: %w", prefix, err)
			}
		}
		for _, p := range r.params {
			clone.addParam(p.name, p.fn)
		}
		r.layers = append(r.layers, clone)
	}
	return nil
}

// RouterMatch is the result of matching a path and method against a
// router's layers.
type RouterMatch struct {
	// Path holds every layer whose template matched the pathname,
	// regardless of method. Method negotiation derives Allow from these.
	Path []*Layer

	// PathAndMethod holds the layers that will actually dispatch: path
	// matched and the method is in the layer's set (or the set is empty).
	PathAndMethod []*Layer

	// Route reports whether any dispatching layer is a real route, i.e.
	// has a non-empty method set. Middleware-only matches leave it false.
	Route bool
}

// Match runs the pathname and method through the layer list in
// registration order.
func (r *Router) Match(path, method string) *RouterMatch {
	m := &RouterMatch{}
	for _, layer := range r.layers {
		if !layer.Match(path) {
			continue
		}
		m.Path = append(m.Path, layer)
		if len(layer.methods) == 0 {
			m.PathAndMethod = append(m.PathAndMethod, layer)
			continue
		}
		if slices.Contains(layer.methods, method) {
			m.PathAndMethod = append(m.PathAndMethod, layer)
			m.Route = true
		}
	}
	return m
}

// Routes returns the router as a single middleware. When no layer matches
// path and method it passes through to next() unchanged; producing a 404
// is the application's job, not the router's.
//
// Matched layers accumulate on the context across nested routers, so an
// outer AllowedMethods sees the inner router's matches too.
func (r *Router) Routes() Middleware {
	return func(c *Context, next Next) error {
		path := c.Request.Path()
		matched := r.Match(path, c.Request.Method())

		c.addMatched(matched.Path)
		if !matched.Route {
			return next()
		}

		c.router = r
		chain := make([]Middleware, 0, len(matched.PathAndMethod)*2)
		for _, layer := range matched.PathAndMethod {
			chain = append(chain, bindLayer(r, layer, path))
			chain = append(chain, layer.paramMiddleware()...)
			chain = append(chain, layer.stack...)
		}
		return Compose(chain)(c, next)
	}
}

// bindLayer produces the middleware step that publishes a matched layer's
// captures and parameters on the context before its stack runs.
func bindLayer(r *Router, layer *Layer, path string) Middleware {
	return func(c *Context, next Next) error {
		c.captures = layer.Captures(path)
		c.params = layer.Params(c.captures, c.params)
		c.router = r
		c.routerPath = layer.path
		if layer.name != "" {
			c.routeName = layer.name
		}
		return next()
	}
}

// allowedMethodsConfig controls AllowedMethods behavior.
type allowedMethodsConfig struct {
	throw            bool
	notImplemented   func() error
	methodNotAllowed func() error
}

// AllowedMethodsOption defines functional options for AllowedMethods.
type AllowedMethodsOption func(*allowedMethodsConfig)

// WithThrow makes AllowedMethods return the negotiation failure as an
// error instead of writing the response directly, letting an upstream
// error handler render it.
func WithThrow() AllowedMethodsOption {
	return func(cfg *allowedMethodsConfig) { cfg.throw = true }
}

// WithNotImplemented supplies the error returned for unimplemented
// methods when throwing.
func WithNotImplemented(fn func() error) AllowedMethodsOption {
	return func(cfg *allowedMethodsConfig) {
		cfg.throw = true
		cfg.notImplemented = fn
	}
}

// WithMethodNotAllowed supplies the error returned for known-but-unallowed
// methods when throwing.
func WithMethodNotAllowed(fn func() error) AllowedMethodsOption {
	return func(cfg *allowedMethodsConfig) {
		cfg.throw = true
		cfg.methodNotAllowed = fn
	}
}

// AllowedMethods returns middleware that negotiates method-level failures
// after the rest of the chain has run. It only acts when downstream left
// the response unset (the 404 default): a method outside the router's
// implemented set yields 501, an OPTIONS request yields 200 with the
// Allow header, and an implemented method not offered by any matched
// layer yields 405 with Allow.
//
// Attach it alongside Routes():
//
//	app.Use(r.Routes(), r.AllowedMethods())
func (r *Router) AllowedMethods(opts ...AllowedMethodsOption) Middleware {
	cfg := &allowedMethodsConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	implemented := r.cfg.methods

	return func(c *Context, next Next) error {
		if err := next(); err != nil {
			return err
		}
		if c.Response.StatusSet() && c.Response.Status() != http.StatusNotFound {
			return nil
		}

		// Ordered union of the method sets of every path-matched layer.
		var allowed []string
		for _, layer := range c.Matched() {
			for _, m := range layer.methods {
				if !slices.Contains(allowed, m) {
					allowed = append(allowed, m)
				}
			}
		}

		method := c.Request.Method()
		if !slices.Contains(implemented, method) {
			if cfg.throw {
				if cfg.notImplemented != nil {
					return cfg.notImplemented()
				}
				return NewHTTPError(http.StatusNotImplemented, "")
			}
			c.Response.SetStatus(http.StatusNotImplemented)
			c.Response.SetHeader("Allow", strings.Join(allowed, ", "))
			return nil
		}

		if len(allowed) == 0 {
			return nil
		}

		if method == http.MethodOptions {
			c.Response.SetStatus(http.StatusOK)
			c.Response.SetHeader("Allow", strings.Join(allowed, ", "))
			c.Response.SetBody([]byte{})
			return nil
		}

		if !slices.Contains(allowed, method) {
			if cfg.throw {
				if cfg.methodNotAllowed != nil {
					return cfg.methodNotAllowed()
				}
				return NewHTTPError(http.StatusMethodNotAllowed, "")
			}
			c.Response.SetStatus(http.StatusMethodNotAllowed)
			c.Response.SetHeader("Allow", strings.Join(allowed, ", "))
		}
		return nil
	}
}

// RouteInfo is the introspection view of a registered route.
type RouteInfo struct {
	// Name is the route name, "" for anonymous routes.
	Name string

	// Path is the full path template, prefix included.
	Path string

	// Methods is the route's method set.
	Methods []string

	// Middleware is the number of middleware in the route's stack.
	Middleware int
}

// Entries iterates the router's routes in registration order, yielding
// each route's path template and its introspection record. Middleware
// layers (empty method set) are skipped.
func (r *Router) Entries() iter.Seq2[string, RouteInfo] {
	return func(yield func(string, RouteInfo) bool) {
		for _, layer := range r.layers {
			if len(layer.methods) == 0 {
				continue
			}
			info := RouteInfo{
				Name:       layer.name,
				Path:       layer.path,
				Methods:    layer.Methods(),
				Middleware: len(layer.stack),
			}
			if !yield(layer.path, info) {
				return
			}
		}
	}
}

// Keys iterates the path templates of the router's routes in registration
// order.
func (r *Router) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for path := range r.Entries() {
			if !yield(path) {
				return
			}
		}
	}
}

// Values iterates the introspection records of the router's routes in
// registration order.
func (r *Router) Values() iter.Seq[RouteInfo] {
	return func(yield func(RouteInfo) bool) {
		for _, info := range r.Entries() {
			if !yield(info) {
				return
			}
		}
	}
}

// Route looks up a registered layer by name.
func (r *Router) Route(name string) (*Layer, bool) {
	for _, layer := range r.layers {
		if layer.name != "" && layer.name == name {
			return layer, true
		}
	}
	return nil, false
}

// URL builds a concrete pathname for a named route.
//
//	r.GET("/books/:id", show, strata.WithRouteName("book"))
//	url, _ := r.URL("book", map[string]string{"id": "42"})  // "/books/42"
func (r *Router) URL(name string, params map[string]string) (string, error) {
	layer, ok := r.Route(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrRouteNotFound, name)
	}
	return layer.URL(params)
}
