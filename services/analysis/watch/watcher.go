// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch re-triggers analysis on filesystem changes, debouncing the
// event bursts editors and build tools produce.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet window after the last event before the
// change callback fires.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc receives the batch of changed paths after a quiet window.
type ChangeFunc func(paths []string)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExtensions sets the file extensions that trigger the callback
// (default ".php", which also covers ".blade.php").
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		if len(exts) > 0 {
			w.extensions = exts
		}
	}
}

// Watcher watches directory trees and fires a callback with batched
// changes.
//
// Description:
//
//	Directories are watched recursively; directories created while
//	watching are added on the fly. Write, create, remove and rename
//	events on matching files accumulate until no event arrives for the
//	debounce window, then the callback fires once with the sorted,
//	de-duplicated batch.
type Watcher struct {
	fsw        *fsnotify.Watcher
	debounce   time.Duration
	extensions []string
	onChange   ChangeFunc
}

// New creates a watcher delivering change batches to onChange.
func New(onChange ChangeFunc, opts ...Option) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange must not be nil")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fsw:        fsw,
		debounce:   DefaultDebounce,
		extensions: []string{".php"},
		onChange:   onChange,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Add watches a file, or a directory tree recursively.
func (w *Watcher) Add(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unwatchable path",
				slog.String("path", path),
				slog.String("error", err.Error()))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() || path == root {
			if werr := w.fsw.Add(path); werr != nil {
				slog.Warn("watch add failed",
					slog.String("path", path),
					slog.String("error", werr.Error()))
			}
		}
		return nil
	})
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run delivers debounced change batches until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]string, 0, len(pending))
		for p := range pending {
			batch = append(batch, p)
		}
		sort.Strings(batch)
		pending = make(map[string]bool)
		w.onChange(batch)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, pending)
			if len(pending) > 0 {
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(w.debounce)
				}
				fire = timer.C
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", slog.String("error", err.Error()))

		case <-fire:
			fire = nil
			flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, pending map[string]bool) {
	// New directories join the watch so files created inside them are seen.
	if event.Op.Has(fsnotify.Create) {
		if isDir(event.Name) {
			if err := w.fsw.Add(event.Name); err != nil {
				slog.Warn("watch add failed",
					slog.String("path", event.Name),
					slog.String("error", err.Error()))
			}
			return
		}
	}
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}
	if !w.matches(event.Name) {
		return
	}
	pending[event.Name] = true
	slog.Debug("file changed",
		slog.String("path", event.Name),
		slog.String("op", event.Op.String()))
}

func (w *Watcher) matches(path string) bool {
	for _, ext := range w.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
