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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// perform runs one request through an app built from the given router.
func perform(t *testing.T, r *Router, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	app := MustNew()
	app.Use(r.Routes(), r.AllowedMethods())
	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRouter_BasicDispatch(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.GET("/book/:id", func(c *Context, next Next) error {
		return c.String(http.StatusOK, "book %s", c.Param("id"))
	})

	w := perform(t, r, http.MethodGet, "/book/1234")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "book 1234", w.Body.String())
}

func TestRouter_ParamsAndCaptures(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	var params map[string]string
	var captures []string
	var routerPath string
	r.GET("/book/:id", func(c *Context, next Next) error {
		params = c.Params()
		captures = c.Captures()
		routerPath = c.RouterPath()
		return c.NoContent(http.StatusNoContent)
	})

	w := perform(t, r, http.MethodGet, "/book/1234")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, map[string]string{"id": "1234"}, params)
	assert.Equal(t, []string{"1234"}, captures)
	assert.Equal(t, "/book/:id", routerPath)
}

func TestRouter_PassThroughOnNoMatch(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.GET("/book/:id", func(c *Context, next Next) error {
		return c.String(http.StatusOK, "never")
	})

	// Wrong method: the router passes through and the default 404 stands
	// until AllowedMethods negotiates.
	w := perform(t, r, http.MethodPost, "/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RegistrationOrderIsPriority(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.GET("/users/new", func(c *Context, next Next) error {
		return c.String(http.StatusOK, "static")
	})
	r.GET("/users/:id", func(c *Context, next Next) error {
		return c.String(http.StatusOK, "param %s", c.Param("id"))
	})

	w := perform(t, r, http.MethodGet, "/users/new")
	assert.Equal(t, "static", w.Body.String(), "earlier registration wins, no specificity sort")

	w = perform(t, r, http.MethodGet, "/users/42")
	assert.Equal(t, "param 42", w.Body.String())
}

func TestRouter_GetAnswersHead(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.GET("/ping", func(c *Context, next Next) error {
		return c.String(http.StatusOK, "pong")
	})

	w := perform(t, r, http.MethodHead, "/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String(), "HEAD suppresses the body")
	assert.Equal(t, "4", w.Header().Get("Content-Length"))
}

func TestRouter_UseRunsBeforeRoutes(t *testing.T) {
	t.Parallel()

	var trail []string
	r := NewRouter()
	r.Use(func(c *Context, next Next) error {
		trail = append(trail, "use")
		return next()
	})
	r.GET("/x", func(c *Context, next Next) error {
		trail = append(trail, "route")
		return c.NoContent(http.StatusNoContent)
	})

	perform(t, r, http.MethodGet, "/x")
	assert.Equal(t, []string{"use", "route"}, trail)
}

func TestRouter_UseAloneDoesNotCountAsRoute(t *testing.T) {
	t.Parallel()

	called := false
	r := NewRouter()
	r.Use(func(c *Context, next Next) error {
		called = true
		return next()
	})

	w := perform(t, r, http.MethodGet, "/anything")
	assert.False(t, called, "middleware-only matches pass through without dispatching")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_UsePathScoping(t *testing.T) {
	t.Parallel()

	var scoped bool
	r := NewRouter()
	r.UsePath("/admin", func(c *Context, next Next) error {
		scoped = true
		return next()
	})
	r.GET("/admin/users", func(c *Context, next Next) error { return c.NoContent(http.StatusNoContent) })
	r.GET("/public", func(c *Context, next Next) error { return c.NoContent(http.StatusNoContent) })

	perform(t, r, http.MethodGet, "/public")
	assert.False(t, scoped, "scoped middleware must not run outside its prefix")

	perform(t, r, http.MethodGet, "/admin/users")
	assert.True(t, scoped)
}

func TestRouter_Match(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.GET("/book/:id", func(c *Context, next Next) error { return nil })
	r.Use(func(c *Context, next Next) error { return next() })

	m := r.Match("/book/7", http.MethodGet)
	assert.Len(t, m.Path, 2, "route and catch-all middleware both path-match")
	assert.Len(t, m.PathAndMethod, 2)
	assert.True(t, m.Route)

	m = r.Match("/book/7", http.MethodDelete)
	assert.Len(t, m.Path, 2)
	assert.Len(t, m.PathAndMethod, 1, "only the middleware layer survives the method filter")
	assert.False(t, m.Route, "middleware-only dispatch is not a route")

	m = r.Match("/nope", http.MethodGet)
	assert.Len(t, m.Path, 1, "catch-all still path-matches")
	assert.False(t, m.Route)
}

func TestRouter_AllowedMethods405(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.GET("/users", func(c *Context, next Next) error { return c.NoContent(http.StatusNoContent) })
	r.POST("/users", func(c *Context, next Next) error { return c.NoContent(http.StatusNoContent) })

	w := perform(t, r, http.MethodDelete, "/users")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "HEAD, GET, POST", w.Header().Get("Allow"))
}

func TestRouter_AllowedMethodsOptions(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.GET("/users", func(c *Context, next Next) error { return c.NoContent(http.StatusNoContent) })

	w := perform(t, r, http.MethodOptions, "/users")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HEAD, GET", w.Header().Get("Allow"))
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "0", w.Header().Get("Content-Length"))
}

func TestRouter_AllowedMethods501(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.GET("/users", func(c *Context, next Next) error { return c.NoContent(http.StatusNoContent) })

	w := perform(t, r, "PURGE", "/users")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestRouter_AllowedMethodsRespectsHandledResponse(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.All("/teapot", func(c *Context, next Next) error {
		return c.String(http.StatusTeapot, "short and stout")
	})

	w := perform(t, r, http.MethodDelete, "/teapot")
	assert.Equal(t, http.StatusTeapot, w.Code, "a handled response is never renegotiated")
	assert.Empty(t, w.Header().Get("Allow"))
}

func TestRouter_AllowedMethodsThrow(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.GET("/users", func(c *Context, next Next) error { return c.NoContent(http.StatusNoContent) })

	app := MustNew()
	app.Use(r.Routes(), r.AllowedMethods(WithThrow()))
	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/users", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, http.StatusText(http.StatusMethodNotAllowed), w.Body.String())
}

func TestRouter_WithMethodsRestrictsImplemented(t *testing.T) {
	t.Parallel()

	r := NewRouter(WithMethods("GET"))
	r.GET("/only", func(c *Context, next Next) error { return c.NoContent(http.StatusNoContent) })

	w := perform(t, r, http.MethodPost, "/only")
	assert.Equal(t, http.StatusNotImplemented, w.Code,
		"methods outside the configured set negotiate to 501")
}

func TestRouter_Prefix(t *testing.T) {
	t.Parallel()

	r := NewRouter(WithPrefix("/api"))
	r.GET("/users", func(c *Context, next Next) error { return c.NoContent(http.StatusNoContent) })

	w := perform(t, r, http.MethodGet, "/api/users")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = perform(t, r, http.MethodGet, "/users")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Mount(t *testing.T) {
	t.Parallel()

	child := NewRouter()
	child.GET("/posts/:pid", func(c *Context, next Next) error {
		return c.String(http.StatusOK, "user %s post %s", c.Param("uid"), c.Param("pid"))
	})

	parent := NewRouter()
	require.NoError(t, parent.Mount("/users/:uid", child))

	w := perform(t, parent, http.MethodGet, "/users/7/posts/9")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user 7 post 9", w.Body.String())

	// The child stays independently routable.
	w = perform(t, child, http.MethodGet, "/posts/9")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_NestedRoutesAccumulateMatched(t *testing.T) {
	t.Parallel()

	inner := NewRouter()
	inner.POST("/shared", func(c *Context, next Next) error { return c.NoContent(http.StatusNoContent) })

	outer := NewRouter()
	outer.GET("/shared", func(c *Context, next Next) error { return c.NoContent(http.StatusNoContent) })

	app := MustNew()
	app.Use(outer.Routes(), inner.Routes(), outer.AllowedMethods())
	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/shared", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "HEAD, GET, POST", w.Header().Get("Allow"),
		"Allow unions layers across every traversed router")
}

func TestRouter_ParamMiddleware(t *testing.T) {
	t.Parallel()

	var trail []string
	r := NewRouter()
	r.GET("/:user/:post", func(c *Context, next Next) error {
		trail = append(trail, "handler")
		return c.NoContent(http.StatusNoContent)
	})
	// Registered out of capture order; dispatch order follows the template.
	r.Param("post", func(c *Context, value string, next Next) error {
		trail = append(trail, "post="+value)
		return next()
	})
	r.Param("user", func(c *Context, value string, next Next) error {
		trail = append(trail, "user="+value)
		return next()
	})

	perform(t, r, http.MethodGet, "/alice/7")
	assert.Equal(t, []string{"user=alice", "post=7", "handler"}, trail)
}

func TestRouter_ParamMiddlewareShortCircuit(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	handled := false
	r.GET("/:id", func(c *Context, next Next) error {
		handled = true
		return c.NoContent(http.StatusNoContent)
	})
	r.Param("id", func(c *Context, value string, next Next) error {
		if value == "0" {
			return c.Throw(http.StatusNotFound, "no such id")
		}
		return next()
	})

	w := perform(t, r, http.MethodGet, "/0")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, handled)

	w = perform(t, r, http.MethodGet, "/1")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, handled)
}

func TestRouter_NamedRoutesAndURL(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.GET("/books/:id", func(c *Context, next Next) error { return c.NoContent(http.StatusNoContent) }).
		Named("book")

	layer, ok := r.Route("book")
	require.True(t, ok)
	assert.Equal(t, "/books/:id", layer.Path())

	url, err := r.URL("book", map[string]string{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, "/books/42", url)

	_, err = r.URL("missing", nil)
	require.ErrorIs(t, err, ErrRouteNotFound)
}

func TestRouter_RouteNameOnContext(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	var name string
	r.GET("/books/:id", func(c *Context, next Next) error {
		name = c.RouteName()
		return c.NoContent(http.StatusNoContent)
	}).Named("book")

	perform(t, r, http.MethodGet, "/books/42")
	assert.Equal(t, "book", name)
}

func TestRouter_RegisterPaths(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	handler := func(c *Context, next Next) error { return c.NoContent(http.StatusNoContent) }
	layers, err := r.RegisterPaths(
		[]string{"/one", "/two"},
		[]string{http.MethodGet},
		[]Middleware{handler},
	)
	require.NoError(t, err)
	require.Len(t, layers, 2)

	assert.Equal(t, http.StatusNoContent, perform(t, r, http.MethodGet, "/one").Code)
	assert.Equal(t, http.StatusNoContent, perform(t, r, http.MethodGet, "/two").Code)
}

func TestRouter_Iterators(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	noop := func(c *Context, next Next) error { return c.NoContent(http.StatusNoContent) }
	r.GET("/a", noop).Named("a")
	r.POST("/b", noop)
	r.Use(func(c *Context, next Next) error { return next() })

	var paths []string
	for path := range r.Keys() {
		paths = append(paths, path)
	}
	assert.Equal(t, []string{"/a", "/b"}, paths, "iteration follows registration order, skipping middleware layers")

	var infos []RouteInfo
	for info := range r.Values() {
		infos = append(infos, info)
	}
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, []string{http.MethodHead, http.MethodGet}, infos[0].Methods)
	assert.Equal(t, []string{http.MethodPost}, infos[1].Methods)

	count := 0
	for path, info := range r.Entries() {
		assert.Equal(t, path, info.Path)
		count++
	}
	assert.Equal(t, 2, count)
}

func TestRouter_InvalidTemplatePanics(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	assert.Panics(t, func() {
		r.GET(`/:id([`, func(c *Context, next Next) error { return nil })
	})
}

func TestRouter_EncodedPathSegmentsStayOpaque(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	var id string
	r.GET("/book/:id", func(c *Context, next Next) error {
		id = c.Param("id")
		return c.NoContent(http.StatusNoContent)
	})

	// %2F inside a segment must not split it during matching.
	perform(t, r, http.MethodGet, "/book/a%2Fb")
	assert.Equal(t, "a/b", id, "matching is raw, extraction decodes")
}
