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
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/refscan/services/analysis/phpast"
)

// TranslationRegistryOption configures a TranslationRegistry.
type TranslationRegistryOption func(*TranslationRegistry)

// WithLocales restricts loading to the given locales. Empty means every
// locale found under the language path.
func WithLocales(locales ...string) TranslationRegistryOption {
	return func(r *TranslationRegistry) {
		r.locales = locales
	}
}

// WithVendorPath sets the directory holding package translations, keyed as
// `package::file.key`.
func WithVendorPath(path string) TranslationRegistryOption {
	return func(r *TranslationRegistry) {
		r.vendorPath = path
	}
}

// TranslationRegistry is the set of known translation keys across locales.
//
// Description:
//
//	Loads the standard Laravel layout: `lang/{locale}/{file}.php` files
//	returning nested arrays (flattened to `file.key.sub`), flat
//	`lang/{locale}.json` files, and `vendor/{package}/{locale}/{file}.php`
//	namespaced as `package::file.key`.
//
//	A key is considered present when ANY loaded locale defines it; a key
//	is only missing when no locale has it. An absent language directory
//	degrades to an empty registry with a warning, never an error.
//
// Thread Safety: Safe for concurrent readers after Build.
type TranslationRegistry struct {
	langPath   string
	vendorPath string
	locales    []string

	mu    sync.RWMutex
	built bool
	keys  map[string]bool
}

// NewTranslationRegistry creates a registry over the given language path.
func NewTranslationRegistry(langPath string, opts ...TranslationRegistryOption) *TranslationRegistry {
	r := &TranslationRegistry{
		langPath: langPath,
		keys:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build loads every locale's catalogs. Memoized until Invalidate.
func (r *TranslationRegistry) Build(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.built {
		return nil
	}
	r.keys = make(map[string]bool)
	locales := r.locales
	if len(locales) == 0 {
		locales = r.detectLocales()
	}
	for _, locale := range locales {
		r.loadLocaleDir(ctx, filepath.Join(r.langPath, locale), "")
		r.loadJSONCatalog(filepath.Join(r.langPath, locale+".json"))
	}
	if r.vendorPath != "" {
		r.loadVendor(ctx, locales)
	}
	r.built = true
	slog.Debug("translation registry built",
		slog.Int("keys", len(r.keys)),
		slog.Int("locales", len(locales)))
	return nil
}

// Invalidate drops the memoized key set; the next Build reloads the
// catalogs from disk.
func (r *TranslationRegistry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.built = false
}

// Has reports whether the key exists in at least one locale.
func (r *TranslationRegistry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keys[key]
}

// Size returns the number of distinct known keys.
func (r *TranslationRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

// detectLocales lists locale subdirectories and {locale}.json files under
// the language path.
func (r *TranslationRegistry) detectLocales() []string {
	entries, err := os.ReadDir(r.langPath)
	if err != nil {
		slog.Warn("language directory missing, translation registry is empty",
			slog.String("path", r.langPath),
			slog.String("error", err.Error()))
		return nil
	}
	seen := make(map[string]bool)
	var locales []string
	add := func(locale string) {
		if locale != "" && locale != "vendor" && !seen[locale] {
			seen[locale] = true
			locales = append(locales, locale)
		}
	}
	for _, entry := range entries {
		if entry.IsDir() {
			add(entry.Name())
		} else if strings.HasSuffix(entry.Name(), ".json") {
			add(strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	return locales
}

// loadLocaleDir loads every PHP catalog under one locale directory.
// Keys are `{relative-file-path-dotted}.{nested.keys}`, prefixed with
// `namespace::` for vendor catalogs.
func (r *TranslationRegistry) loadLocaleDir(ctx context.Context, dir, namespace string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			// Nested catalog directories dot into the key group.
			r.loadLocaleDirNested(ctx, full, namespace, entry.Name())
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".php") {
			continue
		}
		group := strings.TrimSuffix(entry.Name(), ".php")
		if namespace != "" {
			group = namespace + "::" + group
		}
		r.loadPHPCatalog(ctx, full, group)
	}
}

func (r *TranslationRegistry) loadLocaleDirNested(ctx context.Context, dir, namespace, parent string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			r.loadLocaleDirNested(ctx, full, namespace, parent+"."+entry.Name())
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".php") {
			continue
		}
		group := parent + "." + strings.TrimSuffix(entry.Name(), ".php")
		if namespace != "" {
			group = namespace + "::" + group
		}
		r.loadPHPCatalog(ctx, full, group)
	}
}

// loadPHPCatalog flattens the returned array of one catalog file under the
// given group prefix.
func (r *TranslationRegistry) loadPHPCatalog(ctx context.Context, path, group string) {
	content, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("translation catalog unreadable, skipping",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	source, err := phpast.Parse(ctx, content, path)
	if err != nil {
		slog.Warn("translation catalog unparseable, skipping",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	defer source.Close()

	array := returnedArray(source.Root())
	if array == nil {
		return
	}
	r.flatten(array, content, group)
}

// returnedArray finds the array literal of the file's top return statement.
func returnedArray(root *sitter.Node) *sitter.Node {
	var array *sitter.Node
	phpast.Walk(root, func(n *sitter.Node) bool {
		if array != nil {
			return false
		}
		if n.Type() == "return_statement" {
			for i := 0; i < int(n.NamedChildCount()); i++ {
				if child := n.NamedChild(i); child.Type() == phpast.NodeArray {
					array = child
					break
				}
			}
			return false
		}
		return true
	})
	return array
}

// flatten records `prefix.key` for every string key, recursing into nested
// arrays with a dotted prefix.
func (r *TranslationRegistry) flatten(array *sitter.Node, content []byte, prefix string) {
	for i := 0; i < int(array.NamedChildCount()); i++ {
		element := array.NamedChild(i)
		if element.Type() != "array_element_initializer" || element.NamedChildCount() < 2 {
			continue
		}
		key, ok := phpast.StringValue(element.NamedChild(0), content)
		if !ok || key == "" {
			continue
		}
		full := prefix + "." + key
		value := element.NamedChild(1)
		if value.Type() == phpast.NodeArray {
			r.keys[full] = true
			r.flatten(value, content, full)
			continue
		}
		r.keys[full] = true
	}
}

// loadJSONCatalog loads one flat {locale}.json file; its top-level keys
// are complete translation keys.
func (r *TranslationRegistry) loadJSONCatalog(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var catalog map[string]any
	if err := json.Unmarshal(content, &catalog); err != nil {
		slog.Warn("JSON translation catalog malformed, skipping",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	for key := range catalog {
		r.keys[key] = true
	}
}

// loadVendor loads `vendor/{package}/{locale}` catalogs for each locale.
func (r *TranslationRegistry) loadVendor(ctx context.Context, locales []string) {
	packages, err := os.ReadDir(r.vendorPath)
	if err != nil {
		slog.Warn("vendor translation path missing, skipping",
			slog.String("path", r.vendorPath),
			slog.String("error", err.Error()))
		return
	}
	for _, pkg := range packages {
		if !pkg.IsDir() {
			continue
		}
		for _, locale := range locales {
			dir := filepath.Join(r.vendorPath, pkg.Name(), locale)
			r.loadLocaleDir(ctx, dir, pkg.Name())
		}
	}
}
