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
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// stubValidator records Prime/Analyze/Invalidate calls and delegates to a
// configurable analyze function.
type stubValidator struct {
	kind        string
	primed      atomic.Int32
	analyzed    atomic.Int32
	invalidated atomic.Int32
	analyze     func(target *AnalysisTarget) AnalysisResult
}

func (v *stubValidator) Kind() string { return v.kind }

func (v *stubValidator) Invalidate() { v.invalidated.Add(1) }

func (v *stubValidator) Prime(context.Context) error {
	v.primed.Add(1)
	return nil
}

func (v *stubValidator) Analyze(_ context.Context, target *AnalysisTarget) AnalysisResult {
	v.analyzed.Add(1)
	if v.analyze != nil {
		return v.analyze(target)
	}
	return AnalysisResult{Target: target, Kind: v.kind}
}

// countingReporter verifies the Start/Progress/Finish contract.
type countingReporter struct {
	started  atomic.Int32
	progress atomic.Int32
	finished atomic.Int32
}

func (r *countingReporter) Start(int)               { r.started.Add(1) }
func (r *countingReporter) Progress(AnalysisResult) { r.progress.Add(1) }
func (r *countingReporter) Finish([]AnalysisResult) { r.finished.Add(1) }

func analyzerFixture(t *testing.T, n int) string {
	t.Helper()
	root := t.TempDir()
	for i := 0; i < n; i++ {
		path := filepath.Join(root, string(rune('a'+i))+".php")
		if err := os.WriteFile(path, []byte("<?php // "+path+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestAnalyzerRejectsNilValidator(t *testing.T) {
	if _, err := NewAnalyzer(nil); err == nil {
		t.Error("expected error for nil validator")
	}
}

func TestAnalyzerRunPrimesOnceAndReports(t *testing.T) {
	root := analyzerFixture(t, 3)
	validator := &stubValidator{kind: KindClasses}
	reporter := &countingReporter{}

	a, err := NewAnalyzer(validator, WithReporter(reporter))
	if err != nil {
		t.Fatal(err)
	}
	results, err := a.Run(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if got := validator.primed.Load(); got != 1 {
		t.Errorf("Prime called %d times, want 1", got)
	}
	if reporter.started.Load() != 1 || reporter.finished.Load() != 1 {
		t.Error("Start and Finish must each be called exactly once")
	}
	if got := reporter.progress.Load(); got != 3 {
		t.Errorf("Progress called %d times, want 3", got)
	}
}

func TestAnalyzerResultsSortedByPath(t *testing.T) {
	root := analyzerFixture(t, 4)
	a, err := NewAnalyzer(&stubValidator{kind: KindRoutes})
	if err != nil {
		t.Fatal(err)
	}
	results, err := a.Run(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Target.Path >= results[i].Target.Path {
			t.Errorf("results out of order at %d: %s >= %s",
				i, results[i-1].Target.Path, results[i].Target.Path)
		}
	}
}

func TestAnalyzerIsolatesPanickingStep(t *testing.T) {
	root := analyzerFixture(t, 3)
	validator := &stubValidator{
		kind: KindClasses,
		analyze: func(target *AnalysisTarget) AnalysisResult {
			if filepath.Base(target.Path) == "b.php" {
				panic("extractor blew up")
			}
			return AnalysisResult{Target: target, Kind: KindClasses}
		},
	}
	a, err := NewAnalyzer(validator)
	if err != nil {
		t.Fatal(err)
	}
	results, err := a.Run(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 3 {
		t.Fatalf("panicking file must not abort the batch, got %d results", len(results))
	}
	errored := 0
	for _, r := range results {
		if r.Errored() {
			errored++
		}
	}
	if errored != 1 {
		t.Errorf("expected exactly one errored result, got %d", errored)
	}
	if HasFailures(results) {
		t.Error("an extraction error alone must not count as a failure")
	}
}

func TestAnalyzerRunIsIdempotent(t *testing.T) {
	root := analyzerFixture(t, 2)
	validator := &stubValidator{kind: KindTranslations}
	a, err := NewAnalyzer(validator)
	if err != nil {
		t.Fatal(err)
	}

	first, err := a.Run(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Run(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("repeat run size changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Target.Path != second[i].Target.Path {
			t.Errorf("repeat run diverged at %d: %s vs %s",
				i, first[i].Target.Path, second[i].Target.Path)
		}
	}
}

func TestAnalyzerResultCacheSkipsReanalysis(t *testing.T) {
	root := analyzerFixture(t, 2)
	validator := &stubValidator{kind: KindClasses}
	a, err := NewAnalyzer(validator, WithResultCache(DefaultCacheSize))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := a.Run(context.Background(), []string{root}); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Run(context.Background(), []string{root}); err != nil {
		t.Fatal(err)
	}
	if got := validator.analyzed.Load(); got != 2 {
		t.Errorf("unchanged files re-analyzed: %d Analyze calls, want 2", got)
	}

	// Edit one file; only that file is re-analyzed.
	edited := filepath.Join(root, "a.php")
	if err := os.WriteFile(edited, []byte("<?php // changed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Run(context.Background(), []string{root}); err != nil {
		t.Fatal(err)
	}
	if got := validator.analyzed.Load(); got != 3 {
		t.Errorf("expected one re-analysis after edit, got %d total Analyze calls", got)
	}
}

// A reference fixed by a registry-side change (a route registered in a
// different file) must stop being reported even though the referencing
// file's content never changed; Invalidate between runs is what flushes
// the stale cached result.
func TestAnalyzerInvalidateDropsStaleResults(t *testing.T) {
	root := analyzerFixture(t, 1)
	var resolved atomic.Bool
	validator := &stubValidator{
		kind: KindRoutes,
		analyze: func(target *AnalysisTarget) AnalysisResult {
			result := AnalysisResult{Target: target, Kind: KindRoutes}
			if !resolved.Load() {
				result.Missing = []Reference{StaticRef("users.index", 1)}
			}
			return result
		},
	}
	a, err := NewAnalyzer(validator, WithResultCache(DefaultCacheSize))
	if err != nil {
		t.Fatal(err)
	}

	first, err := a.Run(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}
	if !HasFailures(first) {
		t.Fatal("fixture reference must start out missing")
	}

	// The registry now resolves the name; the referencing file is unchanged.
	resolved.Store(true)
	a.Invalidate()

	second, err := a.Run(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}
	if HasFailures(second) {
		t.Errorf("fixed reference still reported missing: %v", second[0].Missing)
	}
	if got := validator.invalidated.Load(); got != 1 {
		t.Errorf("validator Invalidate forwarded %d times, want 1", got)
	}
}

func TestAnalyzerCanceledContext(t *testing.T) {
	root := analyzerFixture(t, 1)
	a, err := NewAnalyzer(&stubValidator{kind: KindClasses})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Run(ctx, []string{root}); err == nil {
		t.Error("expected error for pre-canceled context")
	}
}

func TestAnalyzerConcurrentDistribution(t *testing.T) {
	root := analyzerFixture(t, 9)
	validator := &stubValidator{kind: KindRoutes}
	d, err := NewConcurrentDistributor(4)
	if err != nil {
		t.Fatal(err)
	}
	a, err := NewAnalyzer(validator, WithDistributor(d))
	if err != nil {
		t.Fatal(err)
	}
	results, err := a.Run(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 9 {
		t.Fatalf("got %d results, want 9", len(results))
	}
	if got := validator.analyzed.Load(); got != 9 {
		t.Errorf("Analyze called %d times, want 9", got)
	}
}
