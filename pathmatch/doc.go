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

// Package pathmatch compiles path templates into matchers.
//
// A template is scanned left to right into literal runs and parameter
// tokens. Parameter tokens take the form ":name", optionally followed by a
// custom pattern in parentheses, or a bare "(pattern)" for a positional
// capture. Tokens accept a trailing modifier: "+" (one or more), "*" (zero
// or more), or "?" (optional). A backslash escapes the next character.
//
// When the character immediately before a token is one of the configured
// delimiters (default "./"), it becomes the token's prefix and is excluded
// from the preceding literal, so "/:id" treats "/" as a separator that the
// parameter itself does not capture.
//
// # Compilation
//
//	m, err := pathmatch.Compile("/users/:id")
//	if err != nil {
//	    // invalid template
//	}
//	match := m.Match("/users/42")
//	// match.Matched == "/users/42", match.Captures == []string{"42"}
//
// Matching operates on raw, still-encoded pathnames; captured values are
// opaque byte sequences. Percent-decoding of captures is the caller's
// concern and happens after matching.
//
// # Options
//
// Compilation is configured with functional options:
//
//   - WithSensitive: case-sensitive matching (default false)
//   - WithStrict: no tolerance for a trailing delimiter (default false)
//   - WithStart / WithEnd: anchor the match at the start/end (default true)
//   - WithDelimiter: the default segment delimiter (default "/")
//   - WithDelimiters: prefix delimiter set (default "./")
//   - WithEndsWith: extra terminator strings for non-ending matches
//
// The matcher is built on Go's regexp package. RE2 has no lookahead, so
// the boundary conditions implied by WithEnd(false) and WithEndsWith are
// enforced with consuming boundary groups whose text is trimmed from the
// reported match; the observable option semantics are preserved exactly.
package pathmatch
