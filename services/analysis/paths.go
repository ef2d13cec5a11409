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
	"log/slog"
	"os"
)

// PathNormalizer optionally rewrites each input path before the existence
// check (e.g. resolving against an application base path). The default
// performs no normalization.
type PathNormalizer func(path string) string

// PathValidatorOption configures a PathValidator.
type PathValidatorOption func(*PathValidator)

// WithPathNormalizer sets the normalizer applied to every input path.
func WithPathNormalizer(fn PathNormalizer) PathValidatorOption {
	return func(v *PathValidator) {
		if fn != nil {
			v.normalize = fn
		}
	}
}

// WithStatFunc substitutes the filesystem existence check. Tests use this
// to validate ordering behavior without touching disk.
func WithStatFunc(fn func(string) (os.FileInfo, error)) PathValidatorOption {
	return func(v *PathValidator) {
		if fn != nil {
			v.stat = fn
		}
	}
}

// PathValidator filters user-supplied paths down to those that exist.
//
// Thread Safety: PathValidator is safe for concurrent use.
type PathValidator struct {
	normalize PathNormalizer
	stat      func(string) (os.FileInfo, error)
}

// NewPathValidator creates a validator with the given options.
func NewPathValidator(opts ...PathValidatorOption) *PathValidator {
	v := &PathValidator{
		normalize: func(p string) string { return p },
		stat:      os.Stat,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Resolve returns the subset of paths that exist on disk, preserving input
// order. Paths may be files or directories, relative or absolute. Resolve
// never fails; an empty result simply yields zero work downstream.
func (v *PathValidator) Resolve(paths []string) []string {
	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		normalized := v.normalize(p)
		if _, err := v.stat(normalized); err != nil {
			slog.Debug("dropping nonexistent path",
				slog.String("path", p),
				slog.String("error", err.Error()))
			continue
		}
		resolved = append(resolved, normalized)
	}
	return resolved
}
