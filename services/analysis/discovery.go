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

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileDiscovererOption configures a FileDiscoverer.
type FileDiscovererOption func(*FileDiscoverer)

// WithExtensions sets the file extensions eligible for analysis
// (e.g. ".php", or ".php" and ".blade.php" for route/translation kinds).
// Extensions are matched as path suffixes, so multi-dot extensions work.
func WithExtensions(exts ...string) FileDiscovererOption {
	return func(d *FileDiscoverer) {
		if len(exts) > 0 {
			d.extensions = exts
		}
	}
}

// WithSkipExtensions sets suffixes rejected even when a broader extension
// matches: ".blade.php" templates pass a ".php" rule by suffix, so kinds
// that cannot parse templates skip them here.
func WithSkipExtensions(exts ...string) FileDiscovererOption {
	return func(d *FileDiscoverer) {
		d.skipExtensions = exts
	}
}

// WithExcludePatterns sets path exclude patterns (substring or glob).
func WithExcludePatterns(patterns []string) FileDiscovererOption {
	return func(d *FileDiscoverer) {
		d.excludes = CompilePatterns(patterns)
	}
}

// FileDiscoverer recursively expands validated paths into a concrete,
// deterministic target list.
//
// Description:
//
//	Files are included directly (subject to eligibility); directories are
//	walked recursively. Eligibility requires a matching extension and no
//	exclude-pattern hit against the full path. The final list is sorted
//	by path: filesystem enumeration order is not stable across platforms,
//	and downstream grouping and progress numbering assume a stable order.
//
// Thread Safety: FileDiscoverer is safe for concurrent use.
type FileDiscoverer struct {
	extensions     []string
	skipExtensions []string
	excludes       PatternList
}

// NewFileDiscoverer creates a discoverer. The default accepts ".php" files
// with no excludes.
func NewFileDiscoverer(opts ...FileDiscovererOption) *FileDiscoverer {
	d := &FileDiscoverer{
		extensions: []string{".php"},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover expands paths into analysis targets, sorted by path.
//
// Unreadable subtrees are skipped with a warning rather than aborting the
// run; discovery always completes over whatever is readable.
func (d *FileDiscoverer) Discover(paths []string) []*AnalysisTarget {
	var targets []*AnalysisTarget
	seen := make(map[string]bool)

	add := func(path string) {
		if seen[path] || !d.ShouldAnalyze(path) {
			return
		}
		seen[path] = true
		targets = append(targets, NewAnalysisTarget(path))
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			slog.Warn("skipping unreadable path",
				slog.String("path", p),
				slog.String("error", err.Error()))
			continue
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		walkErr := filepath.WalkDir(p, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				slog.Warn("skipping unreadable entry",
					slog.String("path", path),
					slog.String("error", err.Error()))
				if entry != nil && entry.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if entry.IsDir() {
				return nil
			}
			add(path)
			return nil
		})
		if walkErr != nil {
			slog.Warn("directory walk failed",
				slog.String("path", p),
				slog.String("error", walkErr.Error()))
		}
	}

	sort.Slice(targets, func(i, j int) bool {
		return targets[i].Path < targets[j].Path
	})
	return targets
}

// ShouldAnalyze reports file eligibility: extension match and no exclude hit.
// It is a pure function of the path string and the configured patterns,
// evaluated once per discovered file.
func (d *FileDiscoverer) ShouldAnalyze(path string) bool {
	for _, ext := range d.skipExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	matched := false
	for _, ext := range d.extensions {
		if strings.HasSuffix(path, ext) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	return !d.excludes.MatchAnyPath(filepath.ToSlash(path))
}
