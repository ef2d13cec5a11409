// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report renders analysis results for humans: a per-file finding
// stream plus a final summary.
package report

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/refscan/services/analysis"
)

var (
	styleFile    = lipgloss.NewStyle().Bold(true)
	styleMissing = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleDim     = lipgloss.NewStyle().Faint(true)
)

// ConsoleOption configures a ConsoleReporter.
type ConsoleOption func(*ConsoleReporter)

// WithWriter redirects output (default os.Stdout).
func WithWriter(w io.Writer) ConsoleOption {
	return func(r *ConsoleReporter) {
		r.out = w
	}
}

// WithColor forces color on or off instead of detecting a terminal.
func WithColor(enabled bool) ConsoleOption {
	return func(r *ConsoleReporter) {
		r.color = enabled
	}
}

// WithVerbose also prints clean files, not just findings.
func WithVerbose(enabled bool) ConsoleOption {
	return func(r *ConsoleReporter) {
		r.verbose = enabled
	}
}

// ConsoleReporter streams findings to a writer as files complete, then
// prints a summary.
//
// Thread Safety:
//
//	Progress is called from analysis workers concurrently; output is
//	serialized with a mutex and counters are atomic.
type ConsoleReporter struct {
	out     io.Writer
	color   bool
	verbose bool

	mu       sync.Mutex
	total    atomic.Int64
	done     atomic.Int64
	failed   atomic.Int64
	errored  atomic.Int64
	warnings atomic.Int64
}

// NewConsoleReporter creates a reporter writing to stdout, with color when
// stdout is a terminal.
func NewConsoleReporter(opts ...ConsoleOption) *ConsoleReporter {
	r := &ConsoleReporter{
		out:   os.Stdout,
		color: isatty.IsTerminal(os.Stdout.Fd()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start records the total file count.
func (r *ConsoleReporter) Start(total int) {
	r.total.Store(int64(total))
	r.done.Store(0)
	r.failed.Store(0)
	r.errored.Store(0)
	r.warnings.Store(0)
}

// Progress prints a file's findings as soon as it completes.
func (r *ConsoleReporter) Progress(result analysis.AnalysisResult) {
	r.done.Add(1)
	if result.Errored() {
		r.errored.Add(1)
	}
	if !result.Success() {
		r.failed.Add(1)
	}
	r.warnings.Add(int64(len(result.Warnings)))

	if result.Success() && !result.Errored() && len(result.Warnings) == 0 && !r.verbose {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, r.render(styleFile, result.Target.Path))
	switch {
	case result.Errored():
		fmt.Fprintf(r.out, "  %s %s\n", r.render(styleError, "error:"), result.Error)
	case result.Success() && len(result.Warnings) == 0:
		fmt.Fprintf(r.out, "  %s\n", r.render(styleOK, "ok"))
	}
	for _, m := range result.Missing {
		fmt.Fprintf(r.out, "  %s %s %s\n",
			r.render(styleMissing, "missing:"),
			m.Value,
			r.render(styleDim, fmt.Sprintf("(line %d)", m.Line)))
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(r.out, "  %s %s %s\n",
			r.render(styleWarning, "dynamic:"),
			w.Value,
			r.render(styleDim, fmt.Sprintf("(line %d)", w.Line)))
	}
}

// Finish prints the run summary.
func (r *ConsoleReporter) Finish(results []analysis.AnalysisResult) {
	missing := 0
	for _, res := range results {
		missing += len(res.Missing)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "\n%d files checked", len(results))
	if failed := r.failed.Load(); failed > 0 {
		fmt.Fprintf(r.out, ", %s",
			r.render(styleMissing, fmt.Sprintf("%d with missing references (%d total)", failed, missing)))
	} else {
		fmt.Fprintf(r.out, ", %s", r.render(styleOK, "no missing references"))
	}
	if warnings := r.warnings.Load(); warnings > 0 {
		fmt.Fprintf(r.out, ", %s",
			r.render(styleWarning, fmt.Sprintf("%d dynamic", warnings)))
	}
	if errored := r.errored.Load(); errored > 0 {
		fmt.Fprintf(r.out, ", %s",
			r.render(styleError, fmt.Sprintf("%d errors", errored)))
	}
	fmt.Fprintln(r.out)
}

func (r *ConsoleReporter) render(style lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return style.Render(text)
}
