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
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/refscan/services/analysis/phpast"
)

// ClassExistsFunc answers whether a fully-qualified class name exists
// outside the scanned sources (e.g. PHP built-ins, extension classes).
type ClassExistsFunc func(fqn string) bool

// ClassRegistryOption configures a ClassRegistry.
type ClassRegistryOption func(*ClassRegistry)

// WithDeclarationPaths sets directories scanned for class, interface,
// trait and enum declarations.
func WithDeclarationPaths(paths ...string) ClassRegistryOption {
	return func(r *ClassRegistry) {
		r.paths = paths
	}
}

// WithClassmap sets the path to a composer autoload_classmap.php whose
// keys are added to the registry.
func WithClassmap(path string) ClassRegistryOption {
	return func(r *ClassRegistry) {
		r.classmap = path
	}
}

// WithClassExistsFunc sets the fallback existence check consulted for
// names not found in scanned sources or the classmap.
func WithClassExistsFunc(fn ClassExistsFunc) ClassRegistryOption {
	return func(r *ClassRegistry) {
		if fn != nil {
			r.exists = fn
		}
	}
}

// ClassRegistry is the set of known fully-qualified class names.
//
// Description:
//
//	Names come from three sources: declarations found by scanning the
//	configured paths, the composer classmap, and an injected fallback
//	existence check. Build memoizes behind a guard; Invalidate drops the
//	memoized set so the next Build rescans (watch mode re-runs).
//
// Thread Safety: Safe for concurrent readers after Build.
type ClassRegistry struct {
	paths    []string
	classmap string
	exists   ClassExistsFunc

	mu    sync.RWMutex
	built bool
	names map[string]bool
}

// NewClassRegistry creates a class registry. With no options every lookup
// falls through to the fallback check, which defaults to rejecting.
func NewClassRegistry(opts ...ClassRegistryOption) *ClassRegistry {
	r := &ClassRegistry{
		exists: func(string) bool { return false },
		names:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build scans the declaration paths and classmap.
func (r *ClassRegistry) Build(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.built {
		return nil
	}
	r.names = make(map[string]bool)
	for _, root := range r.paths {
		if err := r.scanTree(ctx, root); err != nil {
			return err
		}
	}
	if r.classmap != "" {
		r.loadClassmap(ctx)
	}
	r.built = true
	slog.Debug("class registry built", slog.Int("names", len(r.names)))
	return nil
}

// Invalidate drops the memoized name set; the next Build rescans.
func (r *ClassRegistry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.built = false
}

// Has reports whether the name is a known class.
func (r *ClassRegistry) Has(name string) bool {
	r.mu.RLock()
	known := r.names[name]
	r.mu.RUnlock()
	if known {
		return true
	}
	return r.exists(name)
}

// Size returns the number of scanned names; fallback hits are not counted.
func (r *ClassRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// scanTree walks one root collecting declarations from every PHP file.
func (r *ClassRegistry) scanTree(ctx context.Context, root string) error {
	if _, err := os.Stat(root); err != nil {
		slog.Warn("class declaration path missing, skipping",
			slog.String("path", root),
			slog.String("error", err.Error()))
		return nil
	}
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable entry during class scan",
				slog.String("path", path),
				slog.String("error", err.Error()))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if entry.IsDir() || !strings.HasSuffix(path, ".php") ||
			strings.HasSuffix(path, ".blade.php") {
			return nil
		}
		r.scanFile(ctx, path)
		return nil
	})
}

// scanFile records every type declaration in one file. Unparseable files
// are skipped; a corrupt vendor file must not sink the registry.
func (r *ClassRegistry) scanFile(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("skipping unreadable file during class scan",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	source, err := phpast.Parse(ctx, content, path)
	if err != nil {
		slog.Debug("skipping unparseable file during class scan",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	defer source.Close()

	namespace := ""
	phpast.Walk(source.Root(), func(node *sitter.Node) bool {
		switch node.Type() {
		case "namespace_definition":
			if name := node.ChildByFieldName("name"); name != nil {
				namespace = phpast.Text(name, content)
			}
			return true
		case "class_declaration", "interface_declaration",
			"trait_declaration", "enum_declaration":
			if name := node.ChildByFieldName("name"); name != nil {
				fqn := phpast.Text(name, content)
				if namespace != "" {
					fqn = namespace + `\` + fqn
				}
				r.names[fqn] = true
			}
			// Nested declarations (anonymous classes) are not addressable
			// by name.
			return false
		}
		return true
	})
}

// loadClassmap adds the keys of a composer autoload_classmap.php. The file
// is a single `return array('FQN' => path, ...)` statement.
func (r *ClassRegistry) loadClassmap(ctx context.Context) {
	content, err := os.ReadFile(r.classmap)
	if err != nil {
		slog.Warn("composer classmap unreadable, skipping",
			slog.String("path", r.classmap),
			slog.String("error", err.Error()))
		return
	}
	source, err := phpast.Parse(ctx, content, r.classmap)
	if err != nil {
		slog.Warn("composer classmap unparseable, skipping",
			slog.String("path", r.classmap),
			slog.String("error", err.Error()))
		return
	}
	defer source.Close()

	before := len(r.names)
	phpast.Walk(source.Root(), func(node *sitter.Node) bool {
		if node.Type() != "array_element_initializer" {
			return true
		}
		// Key is the first named child of a key => value pair.
		if node.NamedChildCount() < 2 {
			return false
		}
		if fqn, ok := phpast.StringValue(node.NamedChild(0), content); ok && fqn != "" {
			// Classmap keys escape backslashes; StringValue already
			// unquoted, collapse doubled separators.
			r.names[strings.ReplaceAll(fqn, `\\`, `\`)] = true
		}
		return false
	})
	slog.Debug("composer classmap loaded",
		slog.String("path", r.classmap),
		slog.Int("names", len(r.names)-before))
}
