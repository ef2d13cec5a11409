// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"bytes"
	"regexp"
	"sort"
	"strings"

	"github.com/AleutianAI/refscan/services/analysis"
)

// Blade templates interleave HTML, directives, and PHP echo blocks, so they
// are scanned with per-helper call matchers rather than parsed. A quoted
// first argument is static; any other first argument is dynamic.

// bladeHelper locates one helper's call sites; the first argument is then
// read off with a quote- and bracket-aware scan, so nested calls like
// route(getName()) keep their full text.
type bladeHelper struct {
	call *regexp.Regexp
}

// newBladeHelper builds the matcher for one helper name. The name part is
// a regexp fragment so directives like `@lang` work alongside plain calls.
func newBladeHelper(name string) bladeHelper {
	return bladeHelper{call: regexp.MustCompile(name + `\(`)}
}

var (
	bladeRouteHelpers = []bladeHelper{
		newBladeHelper(`\broute`),
		newBladeHelper(`\bto_route`),
	}
	bladeTransHelpers = []bladeHelper{
		newBladeHelper(`\b__`),
		newBladeHelper(`\btrans_choice`),
		newBladeHelper(`\btrans`),
		newBladeHelper(`@lang`),
	}
)

// scanBladeRoutes extracts route references from Blade template content.
func scanBladeRoutes(content []byte) []analysis.Reference {
	return scanBlade(content, bladeRouteHelpers)
}

// scanBladeTranslations extracts translation references from Blade content.
func scanBladeTranslations(content []byte) []analysis.Reference {
	return scanBlade(content, bladeTransHelpers)
}

func scanBlade(content []byte, helpers []bladeHelper) []analysis.Reference {
	type hit struct {
		offset int
		ref    analysis.Reference
	}
	var hits []hit
	seen := make(map[int]bool) // call-site offsets already claimed

	for _, h := range helpers {
		for _, m := range h.call.FindAllIndex(content, -1) {
			if seen[m[0]] {
				continue
			}
			expr, ok := bladeFirstArgument(content, m[1])
			if !ok {
				continue
			}
			seen[m[0]] = true
			line := lineAt(content, m[0])
			if value, literal := bladeLiteral(expr); literal {
				hits = append(hits, hit{m[0], analysis.StaticRef(value, line)})
			} else {
				hits = append(hits, hit{m[0], analysis.DynamicRef(string(expr), line)})
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].offset < hits[j].offset })
	refs := make([]analysis.Reference, 0, len(hits))
	for _, h := range hits {
		refs = append(refs, h.ref)
	}
	return refs
}

// bladeFirstArgument reads the first argument expression starting just
// after the opening paren, tracking string quoting and bracket depth so a
// nested call's closing paren does not end the argument early. Unclosed
// calls yield no argument.
func bladeFirstArgument(content []byte, start int) ([]byte, bool) {
	depth := 0
	var quote byte
	for i := start; i < len(content); i++ {
		c := content[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				arg := bytes.TrimSpace(content[start:i])
				return arg, len(arg) > 0
			}
			depth--
		case ',':
			if depth == 0 {
				arg := bytes.TrimSpace(content[start:i])
				return arg, len(arg) > 0
			}
		}
	}
	return nil, false
}

// bladeLiteral reports whether the expression is a single quoted string
// with nothing appended, and returns its unquoted value. Double-quoted
// strings that interpolate variables are computed, not literal.
func bladeLiteral(expr []byte) (string, bool) {
	if len(expr) < 2 {
		return "", false
	}
	q := expr[0]
	if q != '\'' && q != '"' {
		return "", false
	}
	for i := 1; i < len(expr); i++ {
		switch expr[i] {
		case '\\':
			i++
		case q:
			if i != len(expr)-1 {
				// Trailing content: concatenation or similar.
				return "", false
			}
			inner := string(expr[1 : len(expr)-1])
			if q == '"' && strings.ContainsAny(inner, "${") {
				return "", false
			}
			inner = strings.ReplaceAll(inner, `\'`, `'`)
			inner = strings.ReplaceAll(inner, `\"`, `"`)
			return inner, true
		}
	}
	return "", false
}

// lineAt returns the 1-based line number of a byte offset.
func lineAt(content []byte, offset int) int {
	return bytes.Count(content[:offset], []byte{'\n'}) + 1
}
