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
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/strata-http/strata/pathmatch"
)

// layerConfig holds per-layer matching configuration.
type layerConfig struct {
	name           string
	end            bool
	sensitive      bool
	strict         bool
	ignoreCaptures bool
}

// LayerOption defines functional options for route registration.
type LayerOption func(*layerConfig)

// WithRouteName names the layer so it can be addressed by Router.URL and
// identified in introspection output.
func WithRouteName(name string) LayerOption {
	return func(cfg *layerConfig) { cfg.name = name }
}

// WithMatchEnd controls end anchoring of the layer's matcher. Routes match
// the whole pathname by default; pathless middleware layers disable this
// to match any path under their prefix.
func WithMatchEnd(end bool) LayerOption {
	return func(cfg *layerConfig) { cfg.end = end }
}

// WithIgnoreCaptures makes the layer skip capture extraction, so it
// contributes no parameters even when its template has tokens.
func WithIgnoreCaptures(ignore bool) LayerOption {
	return func(cfg *layerConfig) { cfg.ignoreCaptures = ignore }
}

// Layer is one registered route: a compiled path matcher bound to an HTTP
// method set and a middleware list. Layers are created at registration
// time and are immutable afterwards, except for the one-time prefix
// rewrite applied when a router is mounted.
type Layer struct {
	name    string
	path    string
	methods []string
	stack   []Middleware
	matcher *pathmatch.Matcher
	cfg     layerConfig

	// paramStack holds per-parameter middleware contributed by
	// Router.Param, ordered at dispatch time by capture position.
	paramStack []paramEntry
}

// paramEntry associates a parameter name with its middleware.
type paramEntry struct {
	name string
	fn   ParamMiddleware
}

// ParamMiddleware runs once per request for a specific path parameter,
// before the layer's own middleware. It typically loads the entity the
// parameter names and stores it in the context state.
type ParamMiddleware func(c *Context, value string, next Next) error

// newLayer compiles a route template into a Layer. A method set including
// GET transparently answers HEAD: HEAD is prepended to the set.
func newLayer(path string, methods []string, stack []Middleware, cfg layerConfig) (*Layer, error) {
	normalized := make([]string, 0, len(methods)+1)
	for _, m := range methods {
		normalized = append(normalized, strings.ToUpper(m))
	}
	if slices.Contains(normalized, http.MethodGet) && !slices.Contains(normalized, http.MethodHead) {
		normalized = append([]string{http.MethodHead}, normalized...)
	}

	l := &Layer{
		name:    cfg.name,
		path:    path,
		methods: normalized,
		stack:   stack,
		cfg:     cfg,
	}
	if err := l.compile(); err != nil {
		return nil, err
	}
	return l, nil
}

// compile (re)builds the matcher from the current path and configuration.
func (l *Layer) compile() error {
	matcher, err := pathmatch.Compile(l.path, l.matcherOptions()...)
	if err != nil {
		return err
	}
	l.matcher = matcher
	return nil
}

func (l *Layer) matcherOptions() []pathmatch.Option {
	return []pathmatch.Option{
		pathmatch.WithSensitive(l.cfg.sensitive),
		pathmatch.WithStrict(l.cfg.strict),
		pathmatch.WithEnd(l.cfg.end),
	}
}

// Name returns the route name, or "" for anonymous layers.
func (l *Layer) Name() string {
	return l.name
}

// Named names the layer, fluently, at the registration site:
//
//	r.GET("/books/:id", show).Named("book")
func (l *Layer) Named(name string) *Layer {
	l.name = name
	return l
}

// Path returns the current path template, including any applied prefix.
func (l *Layer) Path() string {
	return l.path
}

// Methods returns a copy of the layer's method set.
func (l *Layer) Methods() []string {
	return slices.Clone(l.methods)
}

// Match tests a pathname against the compiled matcher.
func (l *Layer) Match(path string) bool {
	return l.matcher.MatchString(path)
}

// Captures returns the ordered raw capture substrings for a matching
// pathname, or nil when the layer ignores captures or does not match.
func (l *Layer) Captures(path string) []string {
	if l.cfg.ignoreCaptures {
		return nil
	}
	m := l.matcher.Match(path)
	if m == nil {
		return nil
	}
	return m.Captures
}

// Params zips capture values against the layer's parameter descriptors by
// position and merges them into existing parameters, supporting nested
// routers that contribute parameters at multiple mount levels.
//
// Non-empty captures are percent-decoded; a value that fails to decode is
// kept in its raw encoded form rather than failing the request, since a
// malformed escape in a path segment is client data, not a routing error.
func (l *Layer) Params(captures []string, existing map[string]string) map[string]string {
	params := existing
	if params == nil {
		params = make(map[string]string, len(captures))
	}
	for i, key := range l.matcher.Keys() {
		if i >= len(captures) || captures[i] == "" {
			continue
		}
		params[key.Name] = safeDecode(captures[i])
	}
	return params
}

// ParamNames returns the ordered parameter descriptors of the layer.
func (l *Layer) ParamNames() []pathmatch.Key {
	return l.matcher.Keys()
}

// SetPrefix prepends a mount prefix to the layer's path and recompiles the
// matcher. Layers with an empty path are left untouched, so catch-all
// middleware layers are not prefixed away.
func (l *Layer) SetPrefix(prefix string) error {
	if l.path == "" {
		return nil
	}
	if l.path == "/" && !l.cfg.strict {
		l.path = prefix
	} else {
		l.path = prefix + l.path
	}
	return l.compile()
}

// URL builds a concrete pathname from the layer's template and parameter
// values. Required parameters must all be present.
func (l *Layer) URL(params map[string]string) (string, error) {
	return buildPath(l.path, params)
}

// addParam registers per-parameter middleware on the layer. It is a no-op
// for parameters the layer's template does not capture.
func (l *Layer) addParam(name string, fn ParamMiddleware) {
	for _, key := range l.matcher.Keys() {
		if key.Name == name {
			l.paramStack = append(l.paramStack, paramEntry{name: name, fn: fn})
			return
		}
	}
}

// paramMiddleware returns the layer's parameter middleware ordered by
// capture position, normalized into the plain middleware shape.
func (l *Layer) paramMiddleware() []Middleware {
	if len(l.paramStack) == 0 {
		return nil
	}
	keys := l.matcher.Keys()
	position := func(name string) int {
		for i, key := range keys {
			if key.Name == name {
				return i
			}
		}
		return len(keys)
	}
	entries := slices.Clone(l.paramStack)
	slices.SortStableFunc(entries, func(a, b paramEntry) int {
		return position(a.name) - position(b.name)
	})

	mws := make([]Middleware, 0, len(entries))
	for _, e := range entries {
		mws = append(mws, func(c *Context, next Next) error {
			return e.fn(c, c.Param(e.name), next)
		})
	}
	return mws
}

// clone copies the layer so a mount can re-prefix it without touching the
// original.
func (l *Layer) clone() *Layer {
	nl := *l
	nl.methods = slices.Clone(l.methods)
	nl.stack = slices.Clone(l.stack)
	nl.paramStack = slices.Clone(l.paramStack)
	return &nl
}

// safeDecode percent-decodes a captured value, falling back to the raw
// encoded string when the escape sequence is malformed.
func safeDecode(value string) string {
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return value
	}
	return decoded
}

// buildPath renders a template with parameter values, the reverse of
// matching. Optional tokens without a value are omitted along with their
// prefix delimiter; required tokens without a value fail with
// ErrMissingRouteParameter.
func buildPath(template string, params map[string]string) (string, error) {
	builder, err := pathmatch.NewBuilder(template)
	if err != nil {
		return "", err
	}
	path, err := builder.Build(params)
	if errors.Is(err, pathmatch.ErrMissingParameter) {
		return "", fmt.Errorf("%w: %v", ErrMissingRouteParameter, err)
	}
	return path, err
}
