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
	"io"
	"net/http"
	"strconv"
)

// Response is the buffered outbound response builder. Middleware set the
// status, headers, and body here; nothing touches the wire until the
// application boundary finalizes the response after the chain unwinds.
// Outer middleware therefore observe the effects of inner middleware
// (an ETag middleware can read the body its downstream produced).
//
// The status defaults to 404 Not Found until something sets it or a body
// is assigned; method-negotiation middleware rely on that default to tell
// "nothing handled this request" apart from a deliberate response.
type Response struct {
	status     int
	statusSet  bool
	header     http.Header
	body       []byte
	bodyStream io.Reader
	takenOver  bool
}

// newResponse creates an empty response builder.
func newResponse() *Response {
	return &Response{header: make(http.Header)}
}

// Status returns the response status, or 404 when none has been set.
func (r *Response) Status() int {
	if !r.statusSet {
		return http.StatusNotFound
	}
	return r.status
}

// StatusSet reports whether a status has been explicitly assigned,
// directly or by setting a body.
func (r *Response) StatusSet() bool {
	return r.statusSet
}

// SetStatus assigns the response status code.
func (r *Response) SetStatus(code int) {
	r.status = code
	r.statusSet = true
}

// Header returns the outbound header collection.
func (r *Response) Header() http.Header {
	return r.header
}

// SetHeader sets an outbound header, replacing existing values.
func (r *Response) SetHeader(key, value string) {
	r.header.Set(key, value)
}

// Body returns the buffered body bytes, or nil when the body is a stream
// or empty.
func (r *Response) Body() []byte {
	return r.body
}

// SetBody assigns the body payload. Assigning a body implies 200 OK unless
// a status was already set.
func (r *Response) SetBody(body []byte) {
	r.body = body
	r.bodyStream = nil
	if !r.statusSet {
		r.SetStatus(http.StatusOK)
	}
}

// SetBodyString assigns a string body.
func (r *Response) SetBodyString(body string) {
	r.SetBody([]byte(body))
}

// SetBodyStream assigns a streaming body. The stream is drained exactly
// once at finalize time; if it implements io.Closer it is closed.
func (r *Response) SetBodyStream(stream io.Reader) {
	r.body = nil
	r.bodyStream = stream
	if !r.statusSet {
		r.SetStatus(http.StatusOK)
	}
}

// ClearBody removes any assigned body without touching the status.
func (r *Response) ClearBody() {
	r.body = nil
	r.bodyStream = nil
}

// Takeover marks the response as owned by the caller: the application will
// not write anything to the wire. Upgrade-style middleware (WebSocket,
// server-sent events over a hijacked connection) use this.
func (r *Response) Takeover() {
	r.takenOver = true
}

// TakenOver reports whether a middleware owns the wire.
func (r *Response) TakenOver() bool {
	return r.takenOver
}

// bodiless reports whether the status forbids a message body.
func bodiless(status int) bool {
	switch status {
	case http.StatusNoContent, http.StatusResetContent, http.StatusNotModified:
		return true
	}
	return status >= 100 && status < 200
}

// finalize writes the buffered response to the wire. head suppresses the
// body for HEAD requests while keeping status and headers intact.
func (r *Response) finalize(w http.ResponseWriter, head bool) error {
	if r.takenOver {
		return nil
	}

	status := r.Status()
	body := r.body
	stream := r.bodyStream

	// Nothing was produced: respond with the status text so clients get a
	// minimal diagnostic body (the default 404 included).
	if body == nil && stream == nil && !bodiless(status) {
		body = []byte(http.StatusText(status))
		if r.header.Get("Content-Type") == "" {
			r.header.Set("Content-Type", "text/plain; charset=utf-8")
		}
	}

	if bodiless(status) {
		body = nil
		stream = nil
		r.header.Del("Content-Type")
		r.header.Del("Content-Length")
		r.header.Del("Transfer-Encoding")
	}

	for key, values := range r.header {
		w.Header()[key] = values
	}
	if body != nil && w.Header().Get("Content-Length") == "" {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	}

	w.WriteHeader(status)

	if head {
		if closer, ok := stream.(io.Closer); ok {
			closer.Close()
		}
		return nil
	}

	if body != nil {
		if _, err := w.Write(body); err != nil {
			return fmt.Errorf("write response body: %w", err)
		}
		return nil
	}
	if stream != nil {
		defer func() {
			if closer, ok := stream.(io.Closer); ok {
				closer.Close()
			}
		}()
		if _, err := io.Copy(w, stream); err != nil {
			return fmt.Errorf("copy response stream: %w", err)
		}
	}

	return nil
}
