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

// AnalysisResult is the outcome of analyzing one target.
//
// Description:
//
//	Created exactly once per file by the pipeline step that runs the
//	extractor and registry validator, immutable thereafter. When Error is
//	non-empty, extraction itself failed and References/Missing/Warnings
//	are not meaningful.
type AnalysisResult struct {
	// Target identifies the analyzed file.
	Target *AnalysisTarget

	// Kind is the analysis kind that produced this result.
	Kind string

	// References is the full list of extracted references, including
	// ignored and dynamic ones.
	References []Reference

	// Missing is the subset of static references that failed to resolve
	// against the registry and matched no ignore pattern.
	Missing []Reference

	// Warnings holds dynamic references when dynamic reporting is enabled.
	// Warnings never cause failure by themselves.
	Warnings []Reference

	// Error is set when extraction threw (e.g. unreadable or oversized
	// file). Mutually exclusive with Missing being meaningful.
	Error string
}

// Success reports whether the file resolved cleanly: no missing references.
//
// A result with Error set is not a reference failure; extraction errors are
// a distinct signal queried via Errored.
func (r AnalysisResult) Success() bool {
	return len(r.Missing) == 0
}

// Errored reports whether extraction itself failed for this target.
func (r AnalysisResult) Errored() bool {
	return r.Error != ""
}

// ErrorResult builds an error-tagged result for a target.
func ErrorResult(target *AnalysisTarget, kind string, err error) AnalysisResult {
	return AnalysisResult{Target: target, Kind: kind, Error: err.Error()}
}

// HasFailures reports whether any result has missing references.
//
// Pure, no side effects. Extraction errors do not count as failures here;
// callers that want strict behavior combine this with HasErrors.
func HasFailures(results []AnalysisResult) bool {
	for _, r := range results {
		if !r.Success() {
			return true
		}
	}
	return false
}

// HasErrors reports whether any result carries an extraction error.
func HasErrors(results []AnalysisResult) bool {
	for _, r := range results {
		if r.Errored() {
			return true
		}
	}
	return false
}
