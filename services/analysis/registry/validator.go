// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package registry builds the known-name registries (declared classes,
// named routes, translation keys) and validates extracted references
// against them.
//
// Registries are expensive to build and cheap to query, so each is built
// once per run on the main goroutine and treated as read-only afterwards.
package registry

import (
	"context"

	"github.com/AleutianAI/refscan/services/analysis"
	"github.com/AleutianAI/refscan/services/analysis/extract"
)

// Registry answers membership queries for one kind of symbolic name.
type Registry interface {
	// Build populates the registry. Implementations memoize; repeated
	// calls are cheap. Degraded inputs (missing directories) produce an
	// empty registry rather than an error.
	Build(ctx context.Context) error

	// Has reports whether the name is known. Must only be called after
	// Build; safe for concurrent readers.
	Has(name string) bool

	// Size returns the number of known names.
	Size() int

	// Invalidate marks the registry stale so the next Build rebuilds it
	// from disk. Watch mode calls this between runs.
	Invalidate()
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithIgnorePatterns sets patterns whose matching references are excluded
// from the missing list. Ignored references remain in References.
func WithIgnorePatterns(globs []string) ValidatorOption {
	return func(v *Validator) {
		v.ignore = analysis.CompilePatterns(globs)
	}
}

// WithIncludePatterns sets an allow-list: when non-empty, only references
// matching at least one pattern are validated at all. Applied before
// ignore patterns.
func WithIncludePatterns(globs []string) ValidatorOption {
	return func(v *Validator) {
		v.include = analysis.CompilePatterns(globs)
	}
}

// WithDynamicWarnings enables reporting dynamic references as warnings.
func WithDynamicWarnings(enabled bool) ValidatorOption {
	return func(v *Validator) {
		v.reportDynamic = enabled
	}
}

// Validator pairs an extractor with a registry to produce per-file results.
//
// Description:
//
//	For every extracted reference: dynamic references are never validated
//	(optionally surfaced as warnings); static references outside the
//	include allow-list are skipped; static references absent from the
//	registry land in Missing unless an ignore pattern claims them. The
//	full extraction always lands in References untouched.
//
// Thread Safety:
//
//	Safe for concurrent use after Prime has returned: Analyze only reads
//	the registry and the compiled patterns.
type Validator struct {
	extractor     extract.Extractor
	registry      Registry
	ignore        analysis.PatternList
	include       analysis.PatternList
	reportDynamic bool
}

// NewValidator creates a validator for the extractor/registry pair.
func NewValidator(extractor extract.Extractor, reg Registry, opts ...ValidatorOption) *Validator {
	v := &Validator{extractor: extractor, registry: reg}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Kind returns the underlying extractor's analysis kind.
func (v *Validator) Kind() string {
	return v.extractor.Kind()
}

// Prime builds the registry.
func (v *Validator) Prime(ctx context.Context) error {
	return v.registry.Build(ctx)
}

// Invalidate marks the registry stale; the next Prime rebuilds it.
func (v *Validator) Invalidate() {
	v.registry.Invalidate()
}

// Analyze extracts and validates one target.
func (v *Validator) Analyze(ctx context.Context, target *analysis.AnalysisTarget) analysis.AnalysisResult {
	refs, err := v.extractor.Extract(ctx, target)
	if err != nil {
		return analysis.ErrorResult(target, v.Kind(), err)
	}

	result := analysis.AnalysisResult{
		Target:     target,
		Kind:       v.Kind(),
		References: refs,
	}
	for _, ref := range refs {
		if ref.Dynamic {
			if v.reportDynamic {
				result.Warnings = append(result.Warnings, ref)
			}
			continue
		}
		if len(v.include) > 0 && !v.include.MatchAny(ref.Value) {
			continue
		}
		if v.registry.Has(ref.Value) {
			continue
		}
		if v.ignore.MatchAny(ref.Value) {
			continue
		}
		result.Missing = append(result.Missing, ref)
	}
	return result
}
