// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package phpast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// StringValue attempts compile-time evaluation of a PHP expression to a
// string literal.
//
// Description:
//
//	A single-quoted or double-quoted literal evaluates to its unquoted
//	text. A double-quoted string evaluates only when it contains no
//	interpolation. Everything else (variables, concatenation, ternaries,
//	nested calls) is dynamic: ok is false and callers fall back to the raw
//	expression source for diagnostic display.
//
// Outputs:
//
//	value - The literal string content, without quotes.
//	ok - True only for a fully literal expression.
func StringValue(node *sitter.Node, content []byte) (value string, ok bool) {
	if node == nil {
		return "", false
	}
	switch node.Type() {
	case NodeString:
		return unquote(Text(node, content)), true
	case NodeEncapsed:
		// "users.index" parses as encapsed; any interpolation child makes
		// it dynamic.
		var b strings.Builder
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			switch child.Type() {
			case "string_content":
				b.WriteString(Text(child, content))
			case "escape_sequence":
				b.WriteString(unescape(Text(child, content)))
			default:
				return "", false
			}
		}
		return b.String(), true
	default:
		return "", false
	}
}

// unquote strips one layer of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			inner := s[1 : len(s)-1]
			inner = strings.ReplaceAll(inner, `\'`, `'`)
			inner = strings.ReplaceAll(inner, `\"`, `"`)
			return inner
		}
	}
	return s
}

// unescape resolves the escape sequences that can appear in identifiers.
// Anything exotic passes through unchanged; reference names never contain
// control characters in practice.
func unescape(s string) string {
	switch s {
	case `\\`:
		return `\`
	case `\'`:
		return `'`
	case `\"`:
		return `"`
	default:
		if strings.HasPrefix(s, `\`) && len(s) == 2 {
			return s[1:]
		}
		return s
	}
}
