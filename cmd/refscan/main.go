// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command refscan finds broken symbolic references in PHP and Laravel
// source trees: missing class imports, undefined route names, and absent
// translation keys.
//
// Usage:
//
//	refscan classes [paths...]
//	refscan routes [paths...]
//	refscan langs [paths...]
//	refscan all [paths...]
//	refscan watch [paths...]
//
// Paths default to the configured scan roots. The exit code is 1 when any
// file has missing references (and, with --strict-errors, when any file
// failed to parse), 0 otherwise.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

// setupLogging routes slog to stderr so findings on stdout stay clean.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
