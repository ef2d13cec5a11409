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

// Tree-sitter PHP node types the extractors dispatch on.
const (
	NodeFunctionCall = "function_call_expression"
	NodeMemberCall   = "member_call_expression"
	NodeScopedCall   = "scoped_call_expression"
	NodeString       = "string"
	NodeEncapsed     = "encapsed_string"
	NodeBinary       = "binary_expression"
	NodeArray        = "array_creation_expression"
)

// CallName returns the called name for the three PHP call forms:
//
//	route(...)            -> "route"           (function_call_expression)
//	$redirect->route(...) -> "route"           (member_call_expression)
//	Route::has(...)       -> "has"             (scoped_call_expression)
//
// Returns "" for any other node type.
func CallName(node *sitter.Node, content []byte) string {
	switch node.Type() {
	case NodeFunctionCall:
		return Text(node.ChildByFieldName("function"), content)
	case NodeMemberCall, NodeScopedCall:
		return Text(node.ChildByFieldName("name"), content)
	default:
		return ""
	}
}

// CallScope returns the class name on the left of a static call
// (`Route` in `Route::has(...)`), or "" for other node types.
func CallScope(node *sitter.Node, content []byte) string {
	if node.Type() != NodeScopedCall {
		return ""
	}
	// Leading backslashes (`\Route::has`) are noise for dispatch.
	return strings.TrimPrefix(Text(node.ChildByFieldName("scope"), content), `\`)
}

// CallReceiver returns the receiver expression node of a member call
// (`redirect()` in `redirect()->route(...)`), or nil.
func CallReceiver(node *sitter.Node) *sitter.Node {
	if node.Type() != NodeMemberCall {
		return nil
	}
	return node.ChildByFieldName("object")
}

// CallArgument returns the expression node of the idx-th argument, skipping
// the punctuation children of the arguments list. Returns nil when the call
// has fewer arguments.
func CallArgument(node *sitter.Node, idx int) *sitter.Node {
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	seen := 0
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() != "argument" {
			continue
		}
		if seen == idx {
			if arg.NamedChildCount() > 0 {
				return arg.NamedChild(0)
			}
			return nil
		}
		seen++
	}
	return nil
}

// CallArgumentCount returns the number of arguments in a call.
func CallArgumentCount(node *sitter.Node) int {
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return 0
	}
	count := 0
	for i := 0; i < int(args.NamedChildCount()); i++ {
		if args.NamedChild(i).Type() == "argument" {
			count++
		}
	}
	return count
}
