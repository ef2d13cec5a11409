// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package phpast wraps tree-sitter PHP parsing behind a small, validated
// surface: size and encoding checks, per-call parser instances, and node
// helpers shared by the reference extractors.
package phpast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// DefaultMaxFileSize bounds the content accepted by Parse. Generated PHP
// files (cached config, compiled views) can reach tens of megabytes and are
// never worth analyzing.
const DefaultMaxFileSize = 10 * 1024 * 1024

// WarnFileSize is the size above which Parse logs a slow-file warning.
const WarnFileSize = 1 * 1024 * 1024

var (
	// ErrFileTooLarge is returned when content exceeds DefaultMaxFileSize.
	ErrFileTooLarge = errors.New("file exceeds maximum size")

	// ErrInvalidContent is returned for content that is not valid UTF-8.
	ErrInvalidContent = errors.New("content is not valid UTF-8")
)

// Source is a parsed PHP file: the syntax tree plus the bytes it indexes.
//
// Close releases the tree-sitter tree. Callers must Close every Source;
// node offsets are only valid against the paired Content.
type Source struct {
	Path    string
	Content []byte
	Tree    *sitter.Tree
}

// Root returns the tree's root node.
func (s *Source) Root() *sitter.Node {
	return s.Tree.RootNode()
}

// Close releases the underlying tree.
func (s *Source) Close() {
	if s.Tree != nil {
		s.Tree.Close()
	}
}

// Parse parses PHP content into a Source.
//
// Description:
//
//	Validates size and encoding before parsing. A fresh parser is created
//	per call: tree-sitter parsers are not safe for concurrent use, and
//	per-call construction is cheap relative to parsing. Trees containing
//	syntax errors are returned anyway; extraction works on whatever parsed,
//	matching how editors handle in-progress files.
//
// Inputs:
//
//	ctx - Cancellation context. Checked before parsing begins.
//	content - Raw file bytes.
//	path - File path, used in errors and logs only.
//
// Outputs:
//
//	*Source - The parsed source. Callers must call Close.
//	error - ErrFileTooLarge, ErrInvalidContent, context or parser errors.
func Parse(ctx context.Context, content []byte, path string) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled: %w", err)
	}
	if len(content) > DefaultMaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)",
			ErrFileTooLarge, path, len(content), DefaultMaxFileSize)
	}
	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("path", path),
			slog.Int("bytes", len(content)))
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContent, path)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(php.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if tree.RootNode().HasError() {
		slog.Debug("source contains syntax errors, extracting from partial tree",
			slog.String("path", path))
	}
	return &Source{Path: path, Content: content, Tree: tree}, nil
}

// Text returns the source text covered by a node.
func Text(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return node.Content(content)
}

// Line returns the 1-based line a node starts on.
func Line(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.StartPoint().Row) + 1
}

// Walk visits every named node in depth-first order. Returning false from
// visit prunes the node's subtree.
func Walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		Walk(node.NamedChild(i), visit)
	}
}
