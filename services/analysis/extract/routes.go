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
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/refscan/services/analysis"
	"github.com/AleutianAI/refscan/services/analysis/phpast"
)

// RouteExtractor extracts named-route lookups from PHP sources and Blade
// templates.
//
// Description:
//
//	Recognized call shapes:
//
//	  route('name')              to_route('name')
//	  redirect()->route('name')  Redirect::route('name')
//	  URL::route('name')         Route::has('name')
//
//	The first argument decides staticness: a literal yields a static
//	reference; anything computed yields a dynamic reference carrying the
//	expression's source text. Blade templates are scanned textually.
//
// Thread Safety: RouteExtractor is stateless and safe for concurrent use.
type RouteExtractor struct{}

// NewRouteExtractor creates a route reference extractor.
func NewRouteExtractor() *RouteExtractor {
	return &RouteExtractor{}
}

// Kind returns the routes analysis kind.
func (e *RouteExtractor) Kind() string {
	return analysis.KindRoutes
}

// Extract returns all route references in the target, in source order.
func (e *RouteExtractor) Extract(ctx context.Context, target *analysis.AnalysisTarget) ([]analysis.Reference, error) {
	content, err := target.Content()
	if err != nil {
		return nil, err
	}
	if isBladeTemplate(target.Path) {
		return scanBladeRoutes(content), nil
	}
	source, err := phpast.Parse(ctx, content, target.Path)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	var refs []analysis.Reference
	phpast.Walk(source.Root(), func(node *sitter.Node) bool {
		if isRouteLookup(node, content) {
			if ref, ok := argumentRef(node, 0, content); ok {
				refs = append(refs, ref)
			}
		}
		return true
	})
	return refs, nil
}

// isRouteLookup reports whether a node is one of the recognized route
// lookup call shapes.
func isRouteLookup(node *sitter.Node, content []byte) bool {
	switch node.Type() {
	case phpast.NodeFunctionCall:
		name := phpast.CallName(node, content)
		return name == "route" || name == "to_route"

	case phpast.NodeMemberCall:
		if phpast.CallName(node, content) != "route" {
			return false
		}
		// Only the redirector helper: `redirect(...)->route(...)`.
		receiver := phpast.CallReceiver(node)
		return receiver != nil &&
			receiver.Type() == phpast.NodeFunctionCall &&
			phpast.CallName(receiver, content) == "redirect"

	case phpast.NodeScopedCall:
		scope := phpast.CallScope(node, content)
		name := phpast.CallName(node, content)
		switch scope {
		case "Route":
			return name == "has"
		case "Redirect", "URL":
			return name == "route"
		}
	}
	return false
}

// argumentRef converts a call argument into a reference: static for
// literals, dynamic (with raw source text) for computed expressions.
// ok is false when the argument is absent.
func argumentRef(node *sitter.Node, idx int, content []byte) (analysis.Reference, bool) {
	arg := phpast.CallArgument(node, idx)
	if arg == nil {
		return analysis.Reference{}, false
	}
	if value, ok := phpast.StringValue(arg, content); ok {
		return analysis.StaticRef(value, phpast.Line(arg)), true
	}
	return analysis.DynamicRef(phpast.Text(arg, content), phpast.Line(arg)), true
}
