// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/refscan/services/analysis"
	"github.com/AleutianAI/refscan/services/analysis/phpast"
)

// scalarTypes are PHP type-position keywords that never name a class.
var scalarTypes = map[string]bool{
	"int": true, "integer": true, "float": true, "double": true,
	"string": true, "bool": true, "boolean": true, "array": true,
	"object": true, "mixed": true, "void": true, "never": true,
	"null": true, "callable": true, "iterable": true, "resource": true,
	"self": true, "static": true, "parent": true, "true": true,
	"false": true, "this": true, "scalar": true,
}

// docblockTypeRe captures the type expression of docblock annotations that
// carry one (@param, @return, @var, @throws, @property and friends).
var docblockTypeRe = regexp.MustCompile(
	`@(?:param|return|var|throws|property(?:-read|-write)?|method)\s+(\$?[\w\\|\[\]<>,?\s]+)`)

// ClassExtractor extracts every class name a PHP file depends on.
//
// Description:
//
//	Collected sites: use imports (including group use), new expressions,
//	static call and class-constant scopes, instanceof checks, signature
//	and property type hints, and docblock annotations. Names are resolved
//	to fully-qualified form using the file's own use-alias table and
//	namespace, so extraction needs no project-wide state.
//
//	Class references are always static. Reflection and string-based
//	loading (`new $class`) are invisible to this extractor.
//
// Thread Safety: ClassExtractor is stateless and safe for concurrent use.
type ClassExtractor struct{}

// NewClassExtractor creates a class reference extractor.
func NewClassExtractor() *ClassExtractor {
	return &ClassExtractor{}
}

// Kind returns the classes analysis kind.
func (e *ClassExtractor) Kind() string {
	return analysis.KindClasses
}

// Extract returns all class references in the target, in source order.
func (e *ClassExtractor) Extract(ctx context.Context, target *analysis.AnalysisTarget) ([]analysis.Reference, error) {
	content, err := target.Content()
	if err != nil {
		return nil, err
	}
	source, err := phpast.Parse(ctx, content, target.Path)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	walker := &classWalker{content: content, aliases: make(map[string]string)}
	phpast.Walk(source.Root(), walker.visit)
	return walker.refs, nil
}

// classWalker accumulates references while tracking the file's namespace
// and use-alias table. Aliases are registered before later nodes resolve
// against them because Walk is depth-first in source order.
type classWalker struct {
	content   []byte
	namespace string
	aliases   map[string]string
	refs      []analysis.Reference
}

func (w *classWalker) visit(node *sitter.Node) bool {
	switch node.Type() {
	case "namespace_definition":
		if name := node.ChildByFieldName("name"); name != nil {
			w.namespace = phpast.Text(name, w.content)
		}
		return true

	case "namespace_use_declaration":
		w.collectUse(node)
		return false

	case "object_creation_expression":
		w.addName(w.firstClassName(node))
		return true

	case "base_clause", "class_interface_clause", "use_declaration":
		// extends/implements lists and in-class trait uses.
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if child := node.NamedChild(i); isClassNameNode(child) {
				w.addName(child)
			}
		}
		return false

	case phpast.NodeScopedCall, "class_constant_access_expression",
		"scoped_property_access_expression":
		// Left side of `Foo::...`.
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if isClassNameNode(child) {
				w.addName(child)
			}
			break
		}
		return true

	case phpast.NodeBinary:
		if op := node.ChildByFieldName("operator"); op != nil &&
			phpast.Text(op, w.content) == "instanceof" {
			if right := node.ChildByFieldName("right"); right != nil && isClassNameNode(right) {
				w.addName(right)
			}
		}
		return true

	case "named_type":
		w.addName(w.firstClassName(node))
		return false

	case "comment":
		w.collectDocblock(node)
		return false
	}
	return true
}

// firstClassName returns the first name or qualified_name child, or nil.
func (w *classWalker) firstClassName(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); isClassNameNode(child) {
			return child
		}
	}
	return nil
}

func isClassNameNode(node *sitter.Node) bool {
	return node.Type() == "name" || node.Type() == "qualified_name"
}

// collectUse handles both flat and grouped use declarations and registers
// each imported name in the alias table.
func (w *classWalker) collectUse(node *sitter.Node) {
	text := phpast.Text(node, w.content)
	// Function and constant imports are not class references.
	if strings.HasPrefix(text, "use function") || strings.HasPrefix(text, "use const") {
		return
	}

	var prefix string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "namespace_name", "qualified_name", "name":
			// `use App\Services\{...}` prefix, only meaningful when a
			// group follows.
			prefix = strings.TrimPrefix(phpast.Text(child, w.content), `\`)
		case "namespace_use_clause":
			w.registerUseClause(child, "")
		case "namespace_use_group":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				clause := child.NamedChild(j)
				if clause.Type() == "namespace_use_clause" || clause.Type() == "namespace_use_group_clause" {
					w.registerUseClause(clause, prefix)
				}
			}
		}
	}
}

// registerUseClause records one imported class: the reference itself plus
// the local alias it introduces.
func (w *classWalker) registerUseClause(clause *sitter.Node, prefix string) {
	var fqn, alias string
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		switch child.Type() {
		case "qualified_name", "name", "namespace_name":
			if fqn == "" {
				fqn = strings.TrimPrefix(phpast.Text(child, w.content), `\`)
			}
		case "namespace_aliasing_clause":
			if child.NamedChildCount() > 0 {
				alias = phpast.Text(child.NamedChild(0), w.content)
			}
		}
	}
	if fqn == "" {
		return
	}
	if prefix != "" {
		fqn = prefix + `\` + fqn
	}
	if alias == "" {
		if idx := strings.LastIndex(fqn, `\`); idx >= 0 {
			alias = fqn[idx+1:]
		} else {
			alias = fqn
		}
	}
	w.aliases[alias] = fqn
	w.refs = append(w.refs, analysis.StaticRef(fqn, phpast.Line(clause)))
}

// addName resolves a name node to fully-qualified form and records it.
func (w *classWalker) addName(node *sitter.Node) {
	if node == nil {
		return
	}
	name := phpast.Text(node, w.content)
	resolved, ok := w.resolve(name)
	if !ok {
		return
	}
	w.refs = append(w.refs, analysis.StaticRef(resolved, phpast.Line(node)))
}

// resolve maps a source-level name to a fully-qualified class name using
// PHP's resolution rules: leading backslash is absolute, a leading segment
// matching a use alias expands, anything else is namespace-relative.
func (w *classWalker) resolve(name string) (string, bool) {
	if name == "" || scalarTypes[strings.ToLower(name)] {
		return "", false
	}
	if strings.HasPrefix(name, `\`) {
		return name[1:], true
	}
	head, rest, hasRest := strings.Cut(name, `\`)
	if target, ok := w.aliases[head]; ok {
		if hasRest {
			return target + `\` + rest, true
		}
		return target, true
	}
	if w.namespace != "" {
		return w.namespace + `\` + name, true
	}
	return name, true
}

// collectDocblock extracts class names from annotation type expressions.
func (w *classWalker) collectDocblock(node *sitter.Node) {
	text := phpast.Text(node, w.content)
	if !strings.Contains(text, "@") {
		return
	}
	baseLine := phpast.Line(node)
	for _, m := range docblockTypeRe.FindAllStringSubmatchIndex(text, -1) {
		expr := text[m[2]:m[3]]
		line := baseLine + strings.Count(text[:m[2]], "\n")
		for _, typeName := range splitDocblockTypes(expr) {
			if resolved, ok := w.resolve(typeName); ok {
				w.refs = append(w.refs, analysis.StaticRef(resolved, line))
			}
		}
	}
}

// splitDocblockTypes breaks a docblock type expression (`?Foo|Bar[]`,
// `Collection<int, User>`) into candidate class names.
func splitDocblockTypes(expr string) []string {
	expr = strings.TrimSpace(expr)
	// Drop the variable name in `@param Type $name` captures.
	if idx := strings.IndexAny(expr, " \t$"); idx >= 0 {
		expr = expr[:idx]
	}
	expr = strings.ReplaceAll(expr, "<", "|")
	expr = strings.ReplaceAll(expr, ">", "|")
	expr = strings.ReplaceAll(expr, ",", "|")

	var types []string
	for _, part := range strings.Split(expr, "|") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "?")
		part = strings.TrimSuffix(part, "[]")
		if part == "" {
			continue
		}
		types = append(types, part)
	}
	return types
}
