// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package extract turns parsed PHP (and Blade template) sources into lists
// of symbolic references: imported class names, named-route lookups, and
// translation keys.
//
// Extraction is a pure source-to-references step. Extractors never consult
// a registry and never decide whether a reference resolves; that separation
// keeps them independently testable and trivially parallelizable.
package extract

import (
	"context"
	"strings"

	"github.com/AleutianAI/refscan/services/analysis"
)

// Extractor extracts references of one kind from a single target.
type Extractor interface {
	// Kind returns the analysis kind this extractor serves.
	Kind() string

	// Extract returns every reference found in the target, in source
	// order. Unparseable or unreadable content yields an error; the
	// caller records it on the result and moves on.
	Extract(ctx context.Context, target *analysis.AnalysisTarget) ([]analysis.Reference, error)
}

// isBladeTemplate reports whether a path names a Blade template, which is
// scanned textually rather than parsed as PHP.
func isBladeTemplate(path string) bool {
	return strings.HasSuffix(path, ".blade.php")
}
