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

package accesslog

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/strata-http/strata"
)

// syncBuffer makes the log sink safe for the handler goroutines tests spawn.
type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func logApp(mw strata.Middleware, handler strata.Middleware) (*strata.App, *syncBuffer) {
	buf := &syncBuffer{}
	app := strata.MustNew(strata.WithLogger(slog.New(slog.NewTextHandler(buf, nil))))
	app.Use(mw, handler)
	return app, buf
}

func TestAccessLog_LogsRequestLine(t *testing.T) {
	t.Parallel()

	app, buf := logApp(New(), func(c *strata.Context, next strata.Next) error {
		return c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books/1", nil))

	out := buf.String()
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "path=/books/1")
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "level=INFO")
}

func TestAccessLog_RecordsClientIP(t *testing.T) {
	t.Parallel()

	var seen string
	app, _ := logApp(New(), func(c *strata.Context, next strata.Next) error {
		seen = ClientIP(c)
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/books/1", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)

	assert.Equal(t, "203.0.113.9", seen, "downstream handlers read the resolved IP from the request context")
}

func TestAccessLog_ErrorEscalates(t *testing.T) {
	t.Parallel()

	app, buf := logApp(New(), func(c *strata.Context, next strata.Next) error {
		return errors.New("boom")
	})

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "error=boom")
}

func TestAccessLog_SkipPaths(t *testing.T) {
	t.Parallel()

	app, buf := logApp(
		New(WithSkipPaths("/healthz")),
		func(c *strata.Context, next strata.Next) error {
			return c.NoContent(http.StatusNoContent)
		},
	)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String(), "excluded paths must not log")

	w = httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Contains(t, buf.String(), "path=/other")
}

func TestAccessLog_SlowThreshold(t *testing.T) {
	t.Parallel()

	// A zero-duration threshold classifies every request as slow.
	app, buf := logApp(
		New(WithSlowThreshold(1)),
		func(c *strata.Context, next strata.Next) error {
			return c.NoContent(http.StatusNoContent)
		},
	)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "slow request")
}
