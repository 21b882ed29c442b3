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
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Request is the read view over the inbound HTTP request that middleware
// consume. It exposes the raw, still-encoded pathname for route matching;
// percent-decoding happens per captured parameter at extraction time.
type Request struct {
	req *http.Request
}

// newRequest wraps an inbound request.
func newRequest(req *http.Request) *Request {
	return &Request{req: req}
}

// Method returns the uppercase HTTP method.
func (r *Request) Method() string {
	return strings.ToUpper(r.req.Method)
}

// Path returns the raw, percent-encoded pathname. Route matchers operate
// on this value so that encoded segments stay opaque during matching.
func (r *Request) Path() string {
	return r.req.URL.EscapedPath()
}

// URL returns the parsed request URL.
func (r *Request) URL() *url.URL {
	return r.req.URL
}

// Header returns the request header collection.
func (r *Request) Header() http.Header {
	return r.req.Header
}

// Host returns the request host.
func (r *Request) Host() string {
	return r.req.Host
}

// Query returns the parsed query parameters.
func (r *Request) Query() url.Values {
	return r.req.URL.Query()
}

// UserAgent returns the User-Agent header value.
func (r *Request) UserAgent() string {
	return r.req.UserAgent()
}

// IP returns the client IP. The X-Forwarded-For header, when present,
// takes precedence over the transport peer address; deployments that do
// not sit behind a trusted proxy should rely on middleware to strip it.
func (r *Request) IP() string {
	if fwd := r.req.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.req.RemoteAddr)
	if err != nil {
		return r.req.RemoteAddr
	}
	return host
}

// Body returns the request body stream.
func (r *Request) Body() io.ReadCloser {
	return r.req.Body
}

// Context returns the request-scoped context.Context, which carries
// cancellation and deadline signals from the server.
func (r *Request) Context() context.Context {
	return r.req.Context()
}

// WithContext replaces the request-scoped context. Middleware use this to
// thread values and deadlines to downstream handlers.
func (r *Request) WithContext(ctx context.Context) {
	r.req = r.req.WithContext(ctx)
}

// Raw returns the underlying *http.Request for interoperability with
// net/http based code.
func (r *Request) Raw() *http.Request {
	return r.req
}
