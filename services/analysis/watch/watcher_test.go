// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherRequiresCallback(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil callback")
	}
}

func TestWatcherBatchesChanges(t *testing.T) {
	root := t.TempDir()
	require := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}

	batches := make(chan []string, 1)
	w, err := New(func(paths []string) {
		select {
		case batches <- paths:
		default:
		}
	}, WithDebounce(50*time.Millisecond))
	require(err)
	defer w.Close()
	require(w.Add(root))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	// Two PHP writes and one irrelevant file inside the debounce window.
	require(os.WriteFile(filepath.Join(root, "a.php"), []byte("<?php\n"), 0o644))
	require(os.WriteFile(filepath.Join(root, "b.php"), []byte("<?php\n"), 0o644))
	require(os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	select {
	case batch := <-batches:
		if len(batch) != 2 {
			t.Fatalf("batch = %v, want the two .php files", batch)
		}
		if filepath.Base(batch[0]) != "a.php" || filepath.Base(batch[1]) != "b.php" {
			t.Errorf("batch = %v, want sorted a.php, b.php", batch)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for change batch")
	}
}

func TestWatcherExtensionFilter(t *testing.T) {
	w, err := New(func([]string) {}, WithExtensions(".php", ".blade.php"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	for path, want := range map[string]bool{
		"views/home.blade.php": true,
		"app/User.php":         true,
		"style.css":            false,
	} {
		if got := w.matches(path); got != want {
			t.Errorf("matches(%q) = %v, want %v", path, got, want)
		}
	}
}
