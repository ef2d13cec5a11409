// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analysis

import (
	"regexp"
	"strings"
)

// Pattern is a compiled glob-style pattern supporting `*`, `?` and `[...]`.
//
// Description:
//
//	Patterns match reference names (ignore patterns like `Illuminate\*`)
//	and file paths (exclude patterns). Matching is case-sensitive and
//	anchored to the full string.
//
//	Globs are compiled to regexps rather than matched with path.Match:
//	path.Match treats backslash as an escape character, which corrupts
//	PHP fully-qualified names such as `App\Models\*`.
//
// Thread Safety: Immutable after compilation; safe for concurrent use.
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// CompilePattern compiles a glob into a Pattern.
//
// Malformed character classes degrade to a literal match of the raw
// pattern text; pattern compilation never fails at analysis time.
func CompilePattern(glob string) Pattern {
	re, err := regexp.Compile(globToRegexp(glob))
	if err != nil {
		re = regexp.MustCompile("^" + regexp.QuoteMeta(glob) + "$")
	}
	return Pattern{raw: glob, re: re}
}

// String returns the original glob text.
func (p Pattern) String() string {
	return p.raw
}

// Match reports whether the name matches the full pattern.
func (p Pattern) Match(name string) bool {
	if p.re == nil {
		return false
	}
	return p.re.MatchString(name)
}

// MatchPath reports whether a file path matches the pattern under the
// exclude semantics: plain substring containment, or a glob match against
// the full path or any single path segment.
func (p Pattern) MatchPath(path string) bool {
	if p.raw != "" && strings.Contains(path, p.raw) {
		return true
	}
	if p.Match(path) {
		return true
	}
	for _, segment := range strings.Split(path, "/") {
		if p.Match(segment) {
			return true
		}
	}
	return false
}

// PatternList is an ordered set of compiled patterns.
type PatternList []Pattern

// CompilePatterns compiles each glob in order.
func CompilePatterns(globs []string) PatternList {
	if len(globs) == 0 {
		return nil
	}
	list := make(PatternList, 0, len(globs))
	for _, g := range globs {
		list = append(list, CompilePattern(g))
	}
	return list
}

// MatchAny reports whether any pattern matches the name.
func (l PatternList) MatchAny(name string) bool {
	for _, p := range l {
		if p.Match(name) {
			return true
		}
	}
	return false
}

// MatchAnyPath reports whether any pattern matches the path under
// exclude semantics.
func (l PatternList) MatchAnyPath(path string) bool {
	for _, p := range l {
		if p.MatchPath(path) {
			return true
		}
	}
	return false
}

// globToRegexp translates a glob into an anchored regexp source string.
// `*` matches any run of characters, `?` a single character, and `[...]`
// passes through as a character class (with a leading `!` converted to `^`).
func globToRegexp(glob string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				b.WriteString(regexp.QuoteMeta(string(c)))
				continue
			}
			class := glob[i+1 : i+1+end]
			b.WriteString("[")
			if strings.HasPrefix(class, "!") {
				b.WriteString("^")
				class = class[1:]
			}
			// Escape regexp-significant characters that are not
			// meaningful inside a glob class.
			class = strings.ReplaceAll(class, `\`, `\\`)
			b.WriteString(class)
			b.WriteString("]")
			i += end + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return b.String()
}
