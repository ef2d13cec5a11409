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

// TranslationExtractor extracts translation key lookups from PHP sources
// and Blade templates.
//
// Recognized call shapes:
//
//	__('key')        trans('key')      trans_choice('key', $n)
//	Lang::get('key') Lang::has('key')  Lang::choice('key', $n)
//
// and, in Blade templates, the same helpers plus the @lang directive.
// A bare `__()` with no arguments returns the translator instance and
// produces no reference.
//
// Thread Safety: TranslationExtractor is stateless and safe for concurrent use.
type TranslationExtractor struct{}

// NewTranslationExtractor creates a translation key extractor.
func NewTranslationExtractor() *TranslationExtractor {
	return &TranslationExtractor{}
}

// Kind returns the translations analysis kind.
func (e *TranslationExtractor) Kind() string {
	return analysis.KindTranslations
}

// Extract returns all translation key references in the target, in source order.
func (e *TranslationExtractor) Extract(ctx context.Context, target *analysis.AnalysisTarget) ([]analysis.Reference, error) {
	content, err := target.Content()
	if err != nil {
		return nil, err
	}
	if isBladeTemplate(target.Path) {
		return scanBladeTranslations(content), nil
	}
	source, err := phpast.Parse(ctx, content, target.Path)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	var refs []analysis.Reference
	phpast.Walk(source.Root(), func(node *sitter.Node) bool {
		if isTranslationLookup(node, content) {
			if ref, ok := argumentRef(node, 0, content); ok {
				refs = append(refs, ref)
			}
		}
		return true
	})
	return refs, nil
}

func isTranslationLookup(node *sitter.Node, content []byte) bool {
	switch node.Type() {
	case phpast.NodeFunctionCall:
		switch phpast.CallName(node, content) {
		case "__", "trans", "trans_choice":
			return phpast.CallArgumentCount(node) > 0
		}

	case phpast.NodeScopedCall:
		if phpast.CallScope(node, content) != "Lang" {
			return false
		}
		switch phpast.CallName(node, content) {
		case "get", "has", "choice":
			return true
		}
	}
	return false
}
