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
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, method, target string) *Context {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	return NewContext(httptest.NewRecorder(), req)
}

func TestCompose_OnionOrder(t *testing.T) {
	t.Parallel()

	var order []string
	step := func(name string) Middleware {
		return func(c *Context, next Next) error {
			order = append(order, "enter "+name)
			if err := next(); err != nil {
				return err
			}
			order = append(order, "exit "+name)
			return nil
		}
	}

	chain := Compose([]Middleware{step("a"), step("b"), step("c")})
	err := chain(testContext(t, http.MethodGet, "/"), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"enter a", "enter b", "enter c",
		"exit c", "exit b", "exit a",
	}, order)
}

func TestCompose_EmptyChain(t *testing.T) {
	t.Parallel()

	chain := Compose(nil)
	require.NoError(t, chain(testContext(t, http.MethodGet, "/"), nil))
}

func TestCompose_FinalContinuation(t *testing.T) {
	t.Parallel()

	called := false
	chain := Compose([]Middleware{
		func(c *Context, next Next) error { return next() },
	})
	err := chain(testContext(t, http.MethodGet, "/"), func() error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called, "final continuation should run after the chain")
}

func TestCompose_ShortCircuit(t *testing.T) {
	t.Parallel()

	reached := false
	chain := Compose([]Middleware{
		func(c *Context, next Next) error {
			// Deliberately does not call next().
			return nil
		},
		func(c *Context, next Next) error {
			reached = true
			return next()
		},
	})

	require.NoError(t, chain(testContext(t, http.MethodGet, "/"), nil))
	assert.False(t, reached, "downstream middleware must not run after a short-circuit")
}

func TestCompose_NextCalledTwice(t *testing.T) {
	t.Parallel()

	chain := Compose([]Middleware{
		func(c *Context, next Next) error {
			if err := next(); err != nil {
				return err
			}
			return next()
		},
	})

	err := chain(testContext(t, http.MethodGet, "/"), nil)
	require.ErrorIs(t, err, ErrNextCalledTwice)
}

func TestCompose_NextCalledTwiceDeepInChain(t *testing.T) {
	t.Parallel()

	passthrough := func(c *Context, next Next) error { return next() }
	chain := Compose([]Middleware{
		passthrough,
		func(c *Context, next Next) error {
			_ = next()
			return next()
		},
		passthrough,
	})

	err := chain(testContext(t, http.MethodGet, "/"), nil)
	require.ErrorIs(t, err, ErrNextCalledTwice)
}

func TestCompose_ErrorPropagation(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var afterNext bool
	chain := Compose([]Middleware{
		func(c *Context, next Next) error {
			err := next()
			afterNext = true
			return err
		},
		func(c *Context, next Next) error {
			return boom
		},
	})

	err := chain(testContext(t, http.MethodGet, "/"), nil)
	require.ErrorIs(t, err, boom)
	assert.True(t, afterNext, "upstream middleware observes the downstream error on the way out")
}

func TestCompose_ChainIsolation(t *testing.T) {
	t.Parallel()

	// Mutating the source slice after composition must not change dispatch.
	called := ""
	stack := []Middleware{
		func(c *Context, next Next) error {
			called = "original"
			return next()
		},
	}
	chain := Compose(stack)
	stack[0] = func(c *Context, next Next) error {
		called = "mutated"
		return next()
	}

	require.NoError(t, chain(testContext(t, http.MethodGet, "/"), nil))
	assert.Equal(t, "original", called)
}

func TestCompose_ConcurrentInvocations(t *testing.T) {
	t.Parallel()

	chain := Compose([]Middleware{
		func(c *Context, next Next) error { return next() },
		func(c *Context, next Next) error { return next() },
	})

	var wg sync.WaitGroup
	errs := make([]error, 50)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			errs[i] = chain(NewContext(httptest.NewRecorder(), req), nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
}

type tagHandler struct {
	tag   string
	trail *[]string
}

func (h tagHandler) HandleRequest(c *Context, next Next) error {
	*h.trail = append(*h.trail, h.tag)
	return next()
}

func TestComposeHandlers_ObjectMiddleware(t *testing.T) {
	t.Parallel()

	var trail []string
	chain := ComposeHandlers([]Handler{
		tagHandler{tag: "first", trail: &trail},
		Middleware(func(c *Context, next Next) error {
			trail = append(trail, "second")
			return next()
		}),
	})

	require.NoError(t, chain(testContext(t, http.MethodGet, "/"), nil))
	assert.Equal(t, []string{"first", "second"}, trail)
}

func TestWrapHandler_PassesThroughFunctionShape(t *testing.T) {
	t.Parallel()

	m := Middleware(func(c *Context, next Next) error { return nil })
	wrapped := WrapHandler(m)
	require.NotNil(t, wrapped)
	require.NoError(t, wrapped(testContext(t, http.MethodGet, "/"), nil))
}
