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

// Next continues the middleware chain. A middleware may call it at most
// once; a second call fails the whole chain with ErrNextCalledTwice.
type Next func() error

// Middleware is a handler participating in the onion-ordered chain. It
// receives the current request Context and a continuation that runs the
// remainder of the chain.
//
// Code before next() runs on the way in, code after next() runs on the way
// out, after every downstream middleware has finished:
//
//	func timing(c *strata.Context, next strata.Next) error {
//	    start := time.Now()
//	    if err := next(); err != nil {
//	        return err
//	    }
//	    c.Logger().Info("handled", "duration", time.Since(start))
//	    return nil
//	}
//
// Returning without calling next() short-circuits the chain: downstream
// middleware never runs.
type Middleware func(c *Context, next Next) error

// Handler is the object form of middleware. Middleware itself implements
// Handler, so APIs accepting Handler take both shapes.
type Handler interface {
	HandleRequest(c *Context, next Next) error
}

// HandleRequest implements Handler.
func (m Middleware) HandleRequest(c *Context, next Next) error {
	return m(c, next)
}

// WrapHandler normalizes a Handler into the function shape. The conversion
// happens once, before composition, keeping dynamic dispatch out of the
// per-request path.
func WrapHandler(h Handler) Middleware {
	if m, ok := h.(Middleware); ok {
		return m
	}
	return h.HandleRequest
}

// ComposeHandlers is Compose for the object middleware shape.
func ComposeHandlers(stack []Handler) Middleware {
	normalized := make([]Middleware, len(stack))
	for i, h := range stack {
		normalized[i] = WrapHandler(h)
	}
	return Compose(normalized)
}

// Compose turns an ordered middleware list into a single middleware that
// executes the list in nested order: the middleware at position k runs its
// pre-next() code before position k+1 starts, and resumes only after the
// entire downstream chain has finished.
//
// The returned middleware accepts an optional final continuation. When the
// list is exhausted, that continuation runs; a nil continuation ends the
// chain quietly. Each invocation allocates its own dispatch cursor, so one
// composed chain may serve concurrent requests.
//
// An error returned by any middleware, or by the final continuation,
// becomes the error of the whole composed call.
func Compose(stack []Middleware) Middleware {
	// Copy so later mutation of the caller's slice cannot skew dispatch.
	chain := make([]Middleware, len(stack))
	copy(chain, stack)

	return func(c *Context, next Next) error {
		lastIndex := -1

		var dispatch func(i int) error
		dispatch = func(i int) error {
			if i <= lastIndex {
				return ErrNextCalledTwice
			}
			lastIndex = i

			var fn Middleware
			switch {
			case i < len(chain):
				fn = chain[i]
			case i == len(chain) && next != nil:
				fn = func(c *Context, _ Next) error { return next() }
			}
			if fn == nil {
				return nil
			}
			return fn(c, func() error { return dispatch(i + 1) })
		}

		return dispatch(0)
	}
}
