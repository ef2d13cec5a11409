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
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/refscan/services/analysis/phpast"
)

// routeVerbs are the Route facade methods that register an endpoint a
// ->name(...) call can attach to.
var routeVerbs = map[string]bool{
	"get": true, "post": true, "put": true, "patch": true,
	"delete": true, "options": true, "any": true, "match": true,
	"fallback": true, "view": true, "redirect": true,
}

// RouteRegistryOption configures a RouteRegistry.
type RouteRegistryOption func(*RouteRegistry)

// WithRouteTTL enables cache reuse: a registry built within the TTL is
// returned as-is on the next Build. Zero disables expiry (cache forever).
func WithRouteTTL(ttl time.Duration) RouteRegistryOption {
	return func(r *RouteRegistry) {
		r.ttl = ttl
	}
}

// WithClock substitutes the time source used for TTL checks.
func WithClock(now func() time.Time) RouteRegistryOption {
	return func(r *RouteRegistry) {
		if now != nil {
			r.now = now
		}
	}
}

// RouteRegistry is the set of route names registered by an application's
// route files.
//
// Description:
//
//	Route files are parsed and walked for ->name('...') calls attached to
//	registration chains (Route::get(...)->name(...)). Group name prefixes
//	compose in declaration order, through both idioms:
//
//	  Route::group(['as' => 'admin.'], function () { ... });
//	  Route::name('admin.')->group(function () { ... });
//
//	Builds are cached with a TTL: watch mode rebuilds at most once per
//	window instead of per file event.
//
// Thread Safety: Safe for concurrent readers between Builds; Build itself
// is serialized by an internal mutex.
type RouteRegistry struct {
	files []string
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	names   map[string]bool
	builtAt time.Time
}

// NewRouteRegistry creates a registry over the given route files or
// directories of route files.
func NewRouteRegistry(files []string, opts ...RouteRegistryOption) *RouteRegistry {
	r := &RouteRegistry{
		files: files,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build parses the route files unless a fresh cached build exists.
func (r *RouteRegistry) Build(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names != nil && (r.ttl == 0 || r.now().Sub(r.builtAt) < r.ttl) {
		return nil
	}

	names := make(map[string]bool)
	for _, path := range r.files {
		if err := collectRouteFiles(path, func(file string) {
			r.collectFile(ctx, file, names)
		}); err != nil {
			slog.Warn("route path unreadable, skipping",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}
	r.names = names
	r.builtAt = r.now()
	slog.Debug("route registry built", slog.Int("names", len(names)))
	return nil
}

// Invalidate drops the cached build regardless of TTL.
func (r *RouteRegistry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = nil
}

// Has reports whether the route name is registered.
func (r *RouteRegistry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.names[name]
}

// Size returns the number of registered route names.
func (r *RouteRegistry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}

// collectRouteFiles yields path itself when it is a file, or every .php
// file beneath it when it is a directory.
func collectRouteFiles(path string, visit func(string)) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		visit(path)
		return nil
	}
	return filepath.WalkDir(path, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() && strings.HasSuffix(p, ".php") {
			visit(p)
		}
		return nil
	})
}

// collectFile parses one route file and registers every named route.
func (r *RouteRegistry) collectFile(ctx context.Context, path string, names map[string]bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("route file unreadable, skipping",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	source, err := phpast.Parse(ctx, content, path)
	if err != nil {
		slog.Warn("route file unparseable, skipping",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	defer source.Close()

	collectRoutes(source.Root(), content, "", func(name string) {
		names[name] = true
	})
}

// collectRoutes walks a subtree registering route names under the
// accumulated group prefix.
func collectRoutes(node *sitter.Node, content []byte, prefix string, register func(string)) {
	phpast.Walk(node, func(n *sitter.Node) bool {
		if isGroupCall(n, content) {
			groupPrefix, body := groupParts(n, content)
			if body != nil {
				collectRoutes(body, content, prefix+groupPrefix, register)
			}
			// The group's own chain was consumed; don't also treat its
			// ->name('prefix.') as a registration.
			return false
		}
		if name, ok := registrationName(n, content); ok {
			register(prefix + name)
			return false
		}
		return true
	})
}

// isGroupCall matches both group idioms: Route::group(...) and a chained
// ...->group(...).
func isGroupCall(n *sitter.Node, content []byte) bool {
	switch n.Type() {
	case phpast.NodeScopedCall:
		return phpast.CallScope(n, content) == "Route" &&
			phpast.CallName(n, content) == "group"
	case phpast.NodeMemberCall:
		return phpast.CallName(n, content) == "group" && chainScope(n, content) == "Route"
	}
	return false
}

// groupParts extracts a group call's name prefix and body.
//
// The prefix comes from an 'as' key in an attribute array argument or from
// a name('...') call in the fluent chain; the body is the closure argument.
func groupParts(n *sitter.Node, content []byte) (string, *sitter.Node) {
	prefix := ""

	// Fluent chain: Route::name('admin.')->prefix('admin')->group(...).
	for link := n; link != nil && link.Type() == phpast.NodeMemberCall; link = phpast.CallReceiver(link) {
		receiver := phpast.CallReceiver(link)
		if receiver == nil {
			break
		}
		if callNameOf(receiver, content) == "name" {
			if value, ok := phpast.StringValue(phpast.CallArgument(receiver, 0), content); ok {
				prefix = value + prefix
			}
		}
	}

	var body *sitter.Node
	for i := 0; i < phpast.CallArgumentCount(n); i++ {
		arg := phpast.CallArgument(n, i)
		if arg == nil {
			continue
		}
		switch arg.Type() {
		case "anonymous_function_creation_expression", "anonymous_function", "arrow_function":
			body = arg
		case phpast.NodeArray:
			if as, ok := arrayStringValue(arg, content, "as"); ok {
				prefix = as + prefix
			}
		}
	}
	return prefix, body
}

// callNameOf returns the called name for any call form, or "".
func callNameOf(n *sitter.Node, content []byte) string {
	switch n.Type() {
	case phpast.NodeFunctionCall, phpast.NodeMemberCall, phpast.NodeScopedCall:
		return phpast.CallName(n, content)
	}
	return ""
}

// registrationName matches `...->name('users.index')` where the fluent
// chain roots in a Route verb, and returns the literal name.
func registrationName(n *sitter.Node, content []byte) (string, bool) {
	if n.Type() != phpast.NodeMemberCall || phpast.CallName(n, content) != "name" {
		return "", false
	}
	if !chainHasVerb(n, content) {
		return "", false
	}
	value, ok := phpast.StringValue(phpast.CallArgument(n, 0), content)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// chainHasVerb reports whether the receiver chain contains a Route verb
// call (`Route::get(...)` or a chained `->match(...)`).
func chainHasVerb(n *sitter.Node, content []byte) bool {
	for link := phpast.CallReceiver(n); link != nil; {
		switch link.Type() {
		case phpast.NodeScopedCall:
			return phpast.CallScope(link, content) == "Route" &&
				routeVerbs[phpast.CallName(link, content)]
		case phpast.NodeMemberCall:
			if routeVerbs[phpast.CallName(link, content)] {
				return true
			}
			link = phpast.CallReceiver(link)
		default:
			return false
		}
	}
	return false
}

// chainScope walks a fluent chain to its root and returns the scope of the
// rooting static call ("Route" for Route::name('x')->...->group(...)).
func chainScope(n *sitter.Node, content []byte) string {
	link := n
	for link != nil && link.Type() == phpast.NodeMemberCall {
		link = phpast.CallReceiver(link)
	}
	if link != nil && link.Type() == phpast.NodeScopedCall {
		return phpast.CallScope(link, content)
	}
	return ""
}

// arrayStringValue returns the string value for a string key in an array
// literal, e.g. the 'as' entry of a group attribute array.
func arrayStringValue(array *sitter.Node, content []byte, key string) (string, bool) {
	for i := 0; i < int(array.NamedChildCount()); i++ {
		element := array.NamedChild(i)
		if element.Type() != "array_element_initializer" || element.NamedChildCount() < 2 {
			continue
		}
		k, ok := phpast.StringValue(element.NamedChild(0), content)
		if !ok || k != key {
			continue
		}
		return phpast.StringValue(element.NamedChild(1), content)
	}
	return "", false
}
