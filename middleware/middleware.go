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

// Package middleware provides shared types for the middleware subpackages.
package middleware

// ContextKey is the type used for context.Context values set by the
// middleware packages. A dedicated type prevents collisions with keys
// from other packages.
type ContextKey string

const (
	// RequestIDKey carries the request correlation ID.
	RequestIDKey ContextKey = "request_id"

	// ClientIPKey carries the resolved client IP address.
	ClientIPKey ContextKey = "client_ip"
)
