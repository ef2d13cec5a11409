// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analysis contains the core resolution engine: path validation,
// file discovery, work distribution, and the analyzer orchestration that
// turns a set of paths into per-file reference analysis results.
package analysis

import (
	"fmt"
	"os"
	"sync"
)

// AnalysisTarget is a single file slated for analysis.
//
// Description:
//
//	The target's identity is its path. Raw content is loaded lazily on the
//	first Content call and cached for the lifetime of the target. Targets
//	are immutable once constructed.
//
// Thread Safety:
//
//	AnalysisTarget is safe for concurrent use. Concurrent Content calls
//	load the file at most once.
type AnalysisTarget struct {
	// Path is the absolute (or caller-relative) path to the file.
	Path string

	once    sync.Once
	content []byte
	loadErr error
}

// NewAnalysisTarget creates a target for the given path without touching disk.
func NewAnalysisTarget(path string) *AnalysisTarget {
	return &AnalysisTarget{Path: path}
}

// NewAnalysisTargetFromContent creates a target with pre-loaded content.
//
// Used by tests and by watch mode, where the changed file's bytes are
// already in hand and a disk round-trip would race with the editor.
func NewAnalysisTargetFromContent(path string, content []byte) *AnalysisTarget {
	t := &AnalysisTarget{Path: path}
	t.once.Do(func() {
		t.content = content
	})
	return t
}

// Content returns the raw file bytes, reading from disk on first use.
//
// Outputs:
//
//	[]byte - The file content. Callers must not mutate it.
//	error - Non-nil if the read failed. The error is cached; retries
//	        return the same result.
func (t *AnalysisTarget) Content() ([]byte, error) {
	t.once.Do(func() {
		data, err := os.ReadFile(t.Path)
		if err != nil {
			t.loadErr = fmt.Errorf("read %s: %w", t.Path, err)
			return
		}
		t.content = data
	})
	return t.content, t.loadErr
}
