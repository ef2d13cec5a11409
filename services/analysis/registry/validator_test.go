// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/refscan/services/analysis"
	"github.com/AleutianAI/refscan/services/analysis/extract"
)

// staticRegistry is a fixed name set for validator tests.
type staticRegistry map[string]bool

func (r staticRegistry) Build(context.Context) error { return nil }
func (r staticRegistry) Has(name string) bool        { return r[name] }
func (r staticRegistry) Size() int                   { return len(r) }
func (r staticRegistry) Invalidate()                 {}

func analyzeSource(t *testing.T, v *Validator, path, src string) analysis.AnalysisResult {
	t.Helper()
	target := analysis.NewAnalysisTargetFromContent(path, []byte(src))
	require.NoError(t, v.Prime(context.Background()))
	return v.Analyze(context.Background(), target)
}

func missingValues(result analysis.AnalysisResult) []string {
	values := make([]string, 0, len(result.Missing))
	for _, m := range result.Missing {
		values = append(values, m.Value)
	}
	return values
}

func TestValidatorFlagsMissingRouteKeepsKnown(t *testing.T) {
	reg := staticRegistry{"users.index": true}
	v := NewValidator(extract.NewRouteExtractor(), reg)

	result := analyzeSource(t, v, "controller.php", `<?php
route('users.index');
route('users.archive');
`)

	assert.Len(t, result.References, 2, "both references extracted")
	assert.Equal(t, []string{"users.archive"}, missingValues(result))
	assert.False(t, result.Success())
	assert.False(t, result.Errored())
}

func TestValidatorIgnorePatternsExcludeFromMissingOnly(t *testing.T) {
	v := NewValidator(extract.NewRouteExtractor(), staticRegistry{},
		WithIgnorePatterns([]string{"debug.*"}))

	result := analyzeSource(t, v, "x.php", `<?php
route('debug.toolbar');
route('real.missing');
`)

	assert.Equal(t, []string{"real.missing"}, missingValues(result))
	assert.Len(t, result.References, 2, "ignored references stay in References")
}

func TestValidatorIncludePatternsAreAnAllowList(t *testing.T) {
	// Only api.* names are validated; everything else is skipped even
	// though the registry is empty.
	v := NewValidator(extract.NewRouteExtractor(), staticRegistry{},
		WithIncludePatterns([]string{"api.*"}))

	result := analyzeSource(t, v, "x.php", `<?php
route('api.users');
route('web.home');
`)

	assert.Equal(t, []string{"api.users"}, missingValues(result))
}

func TestValidatorIncludeAppliesBeforeIgnore(t *testing.T) {
	v := NewValidator(extract.NewRouteExtractor(), staticRegistry{},
		WithIncludePatterns([]string{"api.*"}),
		WithIgnorePatterns([]string{"api.internal.*"}))

	result := analyzeSource(t, v, "x.php", `<?php
route('api.users');
route('api.internal.debug');
route('web.home');
`)

	assert.Equal(t, []string{"api.users"}, missingValues(result))
}

func TestValidatorDynamicNeverMissing(t *testing.T) {
	v := NewValidator(extract.NewRouteExtractor(), staticRegistry{})

	result := analyzeSource(t, v, "x.php", `<?php route('posts.' . $action);`)

	assert.Empty(t, result.Missing, "dynamic references are unverifiable")
	assert.Empty(t, result.Warnings, "warnings disabled by default")
	assert.True(t, result.Success())
}

func TestValidatorDynamicWarningsEnabled(t *testing.T) {
	v := NewValidator(extract.NewRouteExtractor(), staticRegistry{},
		WithDynamicWarnings(true))

	result := analyzeSource(t, v, "x.php", `<?php route('posts.' . $action);`)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, `'posts.' . $action`, result.Warnings[0].Value)
	assert.Empty(t, result.Missing)
	assert.True(t, result.Success(), "warnings alone never fail a file")
}

func TestValidatorExtractionErrorBecomesErrorResult(t *testing.T) {
	v := NewValidator(extract.NewRouteExtractor(), staticRegistry{})
	target := analysis.NewAnalysisTarget("/nonexistent/gone.php")

	result := v.Analyze(context.Background(), target)

	assert.True(t, result.Errored())
	assert.True(t, result.Success(), "extraction errors are not reference failures")
}

func TestValidatorEmptyRegistryFlagsEverything(t *testing.T) {
	// A degraded (empty) registry validates everything as missing rather
	// than erroring; the degradation itself is covered in the translation
	// registry tests.
	v := NewValidator(extract.NewTranslationExtractor(), staticRegistry{})

	result := analyzeSource(t, v, "x.php", `<?php __('auth.failed');`)

	assert.Equal(t, []string{"auth.failed"}, missingValues(result))
}
