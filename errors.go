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
)

var (
	// ErrNextCalledTwice indicates that a middleware invoked its
	// continuation more than once.
	ErrNextCalledTwice = errors.New("next() called multiple times")

	// ErrResponseTakenOver indicates a write was attempted after a
	// middleware took ownership of the connection.
	ErrResponseTakenOver = errors.New("response taken over by middleware")

	// ErrStateKeyMissing indicates that a required state key is absent.
	ErrStateKeyMissing = errors.New("state key missing")

	// ErrRouteNotFound indicates that the named route is not registered.
	ErrRouteNotFound = errors.New("route not found")

	// ErrMissingRouteParameter indicates that a required parameter for
	// reverse URL building is missing.
	ErrMissingRouteParameter = errors.New("missing required parameter")
)

// HTTPError is an error carrying an HTTP status code. The application
// boundary translates it into a response with that status.
//
// Messages of client errors (status < 500) are exposed to the client;
// server errors respond with the generic status text and keep the message
// in the logs.
type HTTPError struct {
	// Status is the HTTP status code to respond with.
	Status int

	// Message is the human-readable error text. Empty means the standard
	// status text.
	Message string

	// Err is the wrapped cause, if any.
	Err error
}

// NewHTTPError creates an HTTPError with the given status and message.
// An empty message defaults to the standard status text.
func NewHTTPError(status int, message string) *HTTPError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &HTTPError{Status: status, Message: message}
}

// WrapHTTPError attaches a status code to an existing error.
func WrapHTTPError(status int, err error) *HTTPError {
	return &HTTPError{Status: status, Message: err.Error(), Err: err}
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Unwrap returns the wrapped cause.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Expose reports whether the message may be sent to the client.
func (e *HTTPError) Expose() bool {
	return e.Status < http.StatusInternalServerError
}

// statusOf extracts the HTTP status for an arbitrary chain error.
// Non-HTTP errors map to 500.
func statusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) && he.Status >= http.StatusContinue {
		return he.Status
	}
	return http.StatusInternalServerError
}
