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

// Analysis kinds. Each kind has its own extractor and registry validator.
const (
	KindClasses      = "classes"
	KindRoutes       = "routes"
	KindTranslations = "translations"
)

// Reference is a symbolic name extracted from a file: a fully-qualified
// class name, a dot-delimited route name, or a dot-delimited translation key.
//
// References are value types. Identical references within one file are
// retained rather than deduplicated — duplicate counts feed statistics.
type Reference struct {
	// Value is the literal name for static references. For dynamic
	// references it holds the best-effort source text of the expression
	// (e.g. `'posts.' . $action`) for diagnostic display.
	Value string

	// Line is the 1-based source line the reference was found on.
	Line int

	// Dynamic marks references built from a non-literal expression
	// (variable, concatenation, ternary, nested call). Dynamic references
	// are unverifiable and never tested against a registry.
	Dynamic bool
}

// StaticRef constructs a static reference.
func StaticRef(value string, line int) Reference {
	return Reference{Value: value, Line: line}
}

// DynamicRef constructs a dynamic reference carrying display text.
func DynamicRef(display string, line int) Reference {
	return Reference{Value: display, Line: line, Dynamic: true}
}
