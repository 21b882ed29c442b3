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

package pathmatch

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMissingParameter indicates that reverse path building had no value for
// a required parameter.
var ErrMissingParameter = errors.New("missing value for required parameter")

// tokenPattern scans a template into escaped characters, named parameters
// with an optional custom pattern, bare positional groups, and modifiers.
//
// Capture groups: 1 escaped char, 2 parameter name, 3 custom pattern,
// 4 positional group pattern, 5 modifier.
var tokenPattern = regexp.MustCompile(
	`(\\.)|(?::(\w+)(?:\(((?:\\.|[^\\()])+)\))?|\(((?:\\.|[^\\()])+)\))([+*?])?`)

// escapeLiteral escapes regexp metacharacters in literal template text.
var escapeLiteral = regexp.MustCompile(`([.+*?=^!:${}()[\]|/\\])`)

// escapeCustom escapes characters that would change the meaning of a
// user-supplied capture pattern when embedded into the larger expression.
var escapeCustom = regexp.MustCompile(`([=!:$/()])`)

// Key describes one parameter captured by a compiled template, in capture
// order. Positional (unnamed) captures are named by their decimal index.
type Key struct {
	// Name is the parameter name, or a decimal index for positional captures.
	Name string

	// Prefix is the delimiter character that preceded the token, if any.
	Prefix string

	// Delimiter is the character that separates repeated values.
	Delimiter string

	// Optional reports whether the parameter may be absent ("?" or "*").
	Optional bool

	// Repeat reports whether the parameter may match repeatedly ("+" or "*").
	Repeat bool

	// Partial reports whether the token sits mid-segment, with literal text
	// following it before the next delimiter.
	Partial bool

	// Pattern is the regexp fragment the parameter value must match.
	Pattern string
}

// token is one element of a parsed template: either a literal run or a key.
type token struct {
	literal string
	key     *Key
}

// groupKind classifies a capture group in the compiled expression.
type groupKind int8

const (
	// groupKey captures a parameter value.
	groupKey groupKind = iota

	// groupBoundary consumes a terminator that the portable semantics treat
	// as a zero-width boundary; its text is trimmed from the full match.
	groupBoundary
)

// options holds compilation settings. The zero value is not useful;
// defaults come from defaultOptions.
type options struct {
	sensitive  bool
	strict     bool
	start      bool
	end        bool
	delimiter  string
	delimiters string
	endsWith   []string
}

func defaultOptions() *options {
	return &options{
		start:      true,
		end:        true,
		delimiter:  "/",
		delimiters: "./",
	}
}

// Option defines functional options for template compilation.
type Option func(*options)

// WithSensitive enables case-sensitive matching. Matching is
// case-insensitive by default.
func WithSensitive(sensitive bool) Option {
	return func(o *options) { o.sensitive = sensitive }
}

// WithStrict disables the tolerance for a single trailing delimiter at the
// matched boundary. Non-strict matching (the default) accepts "/users" and
// "/users/" for the template "/users".
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithStart controls anchoring at the beginning of the candidate string.
// Enabled by default.
func WithStart(start bool) Option {
	return func(o *options) { o.start = start }
}

// WithEnd controls anchoring at the end of the candidate string. When
// disabled, the template matches a path prefix: the match must end at a
// delimiter, a terminator from WithEndsWith, or the end of the string.
// Enabled by default.
func WithEnd(end bool) Option {
	return func(o *options) { o.end = end }
}

// WithDelimiter sets the default segment delimiter (default "/").
func WithDelimiter(delimiter string) Option {
	return func(o *options) { o.delimiter = delimiter }
}

// WithDelimiters sets the characters that become a token's prefix when they
// immediately precede it (default "./").
func WithDelimiters(delimiters string) Option {
	return func(o *options) { o.delimiters = delimiters }
}

// WithEndsWith adds terminator strings that may end a match, such as "?"
// for a query string boundary.
func WithEndsWith(endsWith ...string) Option {
	return func(o *options) { o.endsWith = append(o.endsWith, endsWith...) }
}

// Matcher is a compiled path template. It is immutable and safe for
// concurrent use.
type Matcher struct {
	re     *regexp.Regexp
	keys   []Key
	groups []groupKind
}

// Match holds the result of applying a Matcher to a pathname.
type Match struct {
	// Matched is the portion of the input consumed by the template.
	Matched string

	// Captures are the raw captured substrings, one per Key, in capture
	// order. A capture that did not participate in the match is "".
	Captures []string
}

// Compile compiles a single path template into a Matcher.
// Compilation is deterministic: the same template and options always yield
// a matcher with identical behavior.
func Compile(path string, opts ...Option) (*Matcher, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return compileTemplates([]string{path}, o)
}

// MustCompile is like Compile but panics on an invalid template.
// It simplifies variable initialization for templates known to be valid.
func MustCompile(path string, opts ...Option) *Matcher {
	m, err := Compile(path, opts...)
	if err != nil {
		panic(fmt.Sprintf("pathmatch.MustCompile(%q): %v", path, err))
	}
	return m
}

// CompileList compiles a set of templates into one Matcher that matches the
// disjunction of its members. Keys of all members are concatenated in
// template order.
func CompileList(paths []string, opts ...Option) (*Matcher, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return compileTemplates(paths, o)
}

// FromRegexp wraps a pre-built regular expression in a Matcher.
// One positional Key is synthesized per capture group; named groups keep
// their names. No boundary handling is applied.
func FromRegexp(re *regexp.Regexp) *Matcher {
	names := re.SubexpNames()
	keys := make([]Key, 0, re.NumSubexp())
	groups := make([]groupKind, 0, re.NumSubexp())
	for i := 1; i <= re.NumSubexp(); i++ {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		if name == "" {
			name = strconv.Itoa(i - 1)
		}
		keys = append(keys, Key{Name: name})
		groups = append(groups, groupKey)
	}
	return &Matcher{re: re, keys: keys, groups: groups}
}

// Keys returns the ordered parameter descriptors of the compiled template.
// The returned slice must not be modified.
func (m *Matcher) Keys() []Key {
	return m.keys
}

// Regexp exposes the underlying compiled expression, mainly for debugging.
func (m *Matcher) Regexp() *regexp.Regexp {
	return m.re
}

// MatchString reports whether the pathname matches the template.
func (m *Matcher) MatchString(path string) bool {
	return m.Match(path) != nil
}

// Match applies the template to a pathname. It returns nil when the
// pathname does not match; otherwise the full matched prefix and the raw
// capture values, positionally aligned with Keys.
func (m *Matcher) Match(path string) *Match {
	idx := m.re.FindStringSubmatchIndex(path)
	if idx == nil {
		return nil
	}

	captures := make([]string, 0, len(m.keys))
	trim := 0
	for gi, kind := range m.groups {
		s, e := idx[2*(gi+1)], idx[2*(gi+1)+1]
		switch kind {
		case groupBoundary:
			if s >= 0 {
				trim += e - s
			}
		case groupKey:
			if s < 0 {
				captures = append(captures, "")
			} else {
				captures = append(captures, path[s:e])
			}
		}
	}

	return &Match{
		Matched:  path[idx[0] : idx[1]-trim],
		Captures: captures,
	}
}

// Builder renders concrete pathnames from a template, the reverse of
// matching. It is immutable and safe for concurrent use.
type Builder struct {
	tokens   []token
	patterns []*regexp.Regexp
}

// NewBuilder parses a template for reverse path building. The same grammar
// and options apply as for Compile.
func NewBuilder(path string, opts ...Option) (*Builder, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.delimiter == "" {
		o.delimiter = "/"
	}
	if o.delimiters == "" {
		o.delimiters = "./"
	}

	b := &Builder{tokens: parse(path, o)}
	for _, tk := range b.tokens {
		if tk.key == nil {
			continue
		}
		source := "^(?:" + tk.key.Pattern + ")$"
		if !o.sensitive {
			source = "(?i)" + source
		}
		re, err := regexp.Compile(source)
		if err != nil {
			return nil, fmt.Errorf("invalid path template %q: %w", path, err)
		}
		b.patterns = append(b.patterns, re)
	}
	return b, nil
}

// Keys returns the ordered parameter descriptors of the parsed template.
// The returned slice must not be modified.
func (b *Builder) Keys() []Key {
	keys := make([]Key, 0, len(b.patterns))
	for _, tk := range b.tokens {
		if tk.key != nil {
			keys = append(keys, *tk.key)
		}
	}
	return keys
}

// Build renders the template with the given parameter values. Values are
// validated against their token's pattern; an optional token without a
// value is omitted along with its prefix delimiter, and a required token
// without a value fails with ErrMissingParameter.
func (b *Builder) Build(params map[string]string) (string, error) {
	var out strings.Builder
	ki := 0
	for _, tk := range b.tokens {
		if tk.key == nil {
			out.WriteString(tk.literal)
			continue
		}

		key := tk.key
		re := b.patterns[ki]
		ki++

		value, ok := params[key.Name]
		if !ok {
			if key.Optional {
				continue
			}
			return "", fmt.Errorf("%w: %q", ErrMissingParameter, key.Name)
		}

		if key.Repeat {
			for _, part := range strings.Split(value, key.Delimiter) {
				if !re.MatchString(part) {
					return "", fmt.Errorf("parameter %q segment %q does not satisfy %q",
						key.Name, part, key.Pattern)
				}
			}
		} else if !re.MatchString(value) {
			return "", fmt.Errorf("parameter %q value %q does not satisfy %q",
				key.Name, value, key.Pattern)
		}

		out.WriteString(key.Prefix)
		out.WriteString(value)
	}
	return out.String(), nil
}

// compileTemplates lowers one or more templates to a single regexp.
func compileTemplates(paths []string, o *options) (*Matcher, error) {
	if o.delimiter == "" {
		o.delimiter = "/"
	}
	if o.delimiters == "" {
		o.delimiters = "./"
	}

	m := &Matcher{}
	parts := make([]string, 0, len(paths))
	for _, path := range paths {
		parts = append(parts, tokensToPattern(parse(path, o), m, o))
	}

	var source string
	if len(parts) == 1 {
		source = parts[0]
	} else {
		source = "(?:" + strings.Join(parts, "|") + ")"
	}
	if !o.sensitive {
		source = "(?i)" + source
	}

	re, err := regexp.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("invalid path template %q: %w", strings.Join(paths, "|"), err)
	}
	m.re = re

	return m, nil
}

// parse scans one template into literal and parameter tokens.
func parse(str string, o *options) []token {
	var tokens []token
	var path string
	keyIndex := 0
	index := 0
	pathEscaped := false

	for _, idx := range tokenPattern.FindAllStringSubmatchIndex(str, -1) {
		group := func(n int) string {
			if idx[2*n] < 0 {
				return ""
			}
			return str[idx[2*n]:idx[2*n+1]]
		}

		path += str[index:idx[0]]
		index = idx[1]

		// Escaped characters pass through as literals.
		if escaped := group(1); escaped != "" {
			path += escaped[1:]
			pathEscaped = true
			continue
		}

		prev := ""
		next := ""
		if index < len(str) {
			next = str[index : index+1]
		}

		// A delimiter immediately before the token becomes its prefix.
		if !pathEscaped && len(path) > 0 {
			k := len(path) - 1
			if strings.ContainsAny(path[k:], o.delimiters) {
				prev = path[k:]
				path = path[:k]
			}
		}

		if path != "" {
			tokens = append(tokens, token{literal: path})
			path = ""
			pathEscaped = false
		}

		name := group(2)
		pattern := group(3)
		if pattern == "" {
			pattern = group(4)
		}
		modifier := group(5)

		delimiter := prev
		if delimiter == "" {
			delimiter = o.delimiter
		}
		if pattern != "" {
			pattern = escapeCustom.ReplaceAllString(pattern, `\$1`)
		} else {
			// Default capture: one or more characters excluding the token's
			// delimiter, non-greedy.
			pattern = "[^" + escapeLiteral.ReplaceAllString(delimiter, `\$1`) + "]+?"
		}

		if name == "" {
			name = strconv.Itoa(keyIndex)
			keyIndex++
		}

		tokens = append(tokens, token{key: &Key{
			Name:      name,
			Prefix:    prev,
			Delimiter: delimiter,
			Optional:  modifier == "?" || modifier == "*",
			Repeat:    modifier == "+" || modifier == "*",
			Partial:   prev != "" && next != "" && next != prev,
			Pattern:   pattern,
		}})
	}

	if path != "" || index < len(str) {
		tokens = append(tokens, token{literal: path + str[index:]})
	}

	return tokens
}

// tokensToPattern lowers tokens to a regexp source fragment, appending the
// template's keys and capture-group kinds to the matcher under construction.
func tokensToPattern(tokens []token, m *Matcher, o *options) string {
	delimiter := escapeLiteral.ReplaceAllString(o.delimiter, `\$1`)

	// Terminators in consuming form; "$" is always a valid terminator.
	endsWith := make([]string, 0, len(o.endsWith)+1)
	for _, e := range o.endsWith {
		endsWith = append(endsWith, escapeLiteral.ReplaceAllString(e, `\$1`))
	}
	endsWith = append(endsWith, "$")
	terminator := strings.Join(endsWith, "|")

	var route strings.Builder
	if o.start {
		route.WriteString("^")
	}

	isEndDelimited := len(tokens) == 0
	for i, tk := range tokens {
		if tk.key == nil {
			route.WriteString(escapeLiteral.ReplaceAllString(tk.literal, `\$1`))
			last := tk.literal[len(tk.literal)-1:]
			isEndDelimited = i == len(tokens)-1 && strings.ContainsAny(last, o.delimiters)
			continue
		}

		key := tk.key
		capture := key.Pattern
		if key.Repeat {
			capture = "(?:" + key.Pattern + ")(?:" +
				escapeLiteral.ReplaceAllString(key.Delimiter, `\$1`) +
				"(?:" + key.Pattern + "))*"
		}

		m.keys = append(m.keys, *key)
		m.groups = append(m.groups, groupKey)

		prefix := escapeLiteral.ReplaceAllString(key.Prefix, `\$1`)
		switch {
		case key.Optional && key.Partial:
			route.WriteString(prefix + "(" + capture + ")?")
		case key.Optional:
			route.WriteString("(?:" + prefix + "(" + capture + "))?")
		default:
			route.WriteString(prefix + "(" + capture + ")")
		}
		isEndDelimited = false
	}

	if o.end {
		if !o.strict {
			route.WriteString("(?:" + delimiter + ")?")
		}
		if terminator == "$" {
			route.WriteString("$")
		} else {
			route.WriteString("(" + terminator + ")")
			m.groups = append(m.groups, groupBoundary)
		}
		return route.String()
	}

	if !o.strict {
		route.WriteString("(?:" + delimiter + "(" + terminator + "))?")
		m.groups = append(m.groups, groupBoundary)
	}
	if !isEndDelimited {
		route.WriteString("(" + delimiter + "|" + terminator + ")")
		m.groups = append(m.groups, groupBoundary)
	}

	return route.String()
}
