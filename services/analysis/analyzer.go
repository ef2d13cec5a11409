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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
)

// Validator is the registry-backed validator for one analysis kind.
//
// Description:
//
//	Analyze runs extraction and then tests every static reference for
//	registry membership. Prime builds the underlying registry eagerly;
//	the Analyzer calls it once on the calling goroutine before fanning
//	out, eliminating any lazy-construction race between workers. Prime
//	must be idempotent.
type Validator interface {
	// Kind returns the analysis kind ("classes", "routes", "translations").
	Kind() string

	// Prime builds the registry. Degraded conditions (absent catalog
	// directory) yield an empty registry, not an error; errors are
	// reserved for genuinely unexpected failures and never abort a run.
	Prime(ctx context.Context) error

	// Analyze produces the result for one target. It never panics its
	// way out of a run; extraction failures are captured in the result.
	Analyze(ctx context.Context, target *AnalysisTarget) AnalysisResult
}

// Reporter receives lifecycle notifications from a run.
//
// Start is called once with the discovered file count, Progress once per
// completed file, and Finish once with the final batch. Under concurrent
// execution Progress calls interleave arbitrarily across workers, so
// implementations must keep their counters atomic or otherwise synchronized.
type Reporter interface {
	Start(total int)
	Progress(result AnalysisResult)
	Finish(results []AnalysisResult)
}

// nopReporter discards all notifications.
type nopReporter struct{}

func (nopReporter) Start(int)               {}
func (nopReporter) Progress(AnalysisResult) {}
func (nopReporter) Finish([]AnalysisResult) {}

// DefaultCacheSize is the default capacity of the per-analyzer result
// cache used by watch mode re-runs.
const DefaultCacheSize = 4096

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithDistributor sets the work distribution strategy.
func WithDistributor(d Distributor) AnalyzerOption {
	return func(a *Analyzer) {
		if d != nil {
			a.distributor = d
		}
	}
}

// WithReporter sets the reporter sink.
func WithReporter(r Reporter) AnalyzerOption {
	return func(a *Analyzer) {
		if r != nil {
			a.reporter = r
		}
	}
}

// WithDiscoverer sets the file discoverer.
func WithDiscoverer(d *FileDiscoverer) AnalyzerOption {
	return func(a *Analyzer) {
		if d != nil {
			a.discoverer = d
		}
	}
}

// WithPathValidator sets the path validator.
func WithPathValidator(v *PathValidator) AnalyzerOption {
	return func(a *Analyzer) {
		if v != nil {
			a.paths = v
		}
	}
}

// WithResultCache enables the content-addressed result cache with the
// given capacity. Capacity <= 0 disables caching.
func WithResultCache(capacity int) AnalyzerOption {
	return func(a *Analyzer) {
		a.cacheSize = capacity
	}
}

// Analyzer is the top-level run orchestrator.
//
// Description:
//
//	Run sequences: resolve paths → discover files → prime registry →
//	reporter start → distribute a wrapped step that reports progress and
//	converts extraction panics into error-tagged results → reporter
//	finish. A single file's failure never aborts analysis of the rest.
//
// Thread Safety:
//
//	Analyzer is safe for concurrent use; each Run operates on its own
//	state apart from the shared (read-only after Prime) registry and the
//	result cache, which is lock-protected by the LRU implementation.
type Analyzer struct {
	validator   Validator
	paths       *PathValidator
	discoverer  *FileDiscoverer
	distributor Distributor
	reporter    Reporter
	cacheSize   int
	cache       *lru.Cache[string, AnalysisResult]
}

// NewAnalyzer creates an analyzer for the given validator.
//
// Defaults: sequential distribution, no-op reporter, ".php" discovery,
// caching disabled.
func NewAnalyzer(validator Validator, opts ...AnalyzerOption) (*Analyzer, error) {
	if validator == nil {
		return nil, fmt.Errorf("validator must not be nil")
	}
	a := &Analyzer{
		validator:   validator,
		paths:       NewPathValidator(),
		discoverer:  NewFileDiscoverer(),
		distributor: NewSequentialDistributor(),
		reporter:    nopReporter{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cacheSize > 0 {
		cache, err := lru.New[string, AnalysisResult](a.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("result cache: %w", err)
		}
		a.cache = cache
	}
	return a, nil
}

// Invalidator is implemented by validators whose registry can be marked
// stale and rebuilt on the next Prime.
type Invalidator interface {
	Invalidate()
}

// Invalidate drops every cached result and marks the validator's registry
// stale. Watch mode calls this on each change batch: cached results encode
// registry state, so a class declared or a route registered elsewhere must
// flush results for files whose content never changed.
func (a *Analyzer) Invalidate() {
	if a.cache != nil {
		a.cache.Purge()
	}
	if inv, ok := a.validator.(Invalidator); ok {
		inv.Invalidate()
	}
}

// Run analyzes every eligible file under the given paths.
//
// Outputs:
//
//	[]AnalysisResult - One result per discovered file, ordered by path.
//	error - Non-nil only for context cancellation before dispatch; the
//	        batch itself always runs to completion once started.
func (a *Analyzer) Run(ctx context.Context, paths []string) ([]AnalysisResult, error) {
	ctx, span := startRunSpan(ctx, a.validator.Kind(), len(paths))
	defer span.End()

	runID := uuid.NewString()
	start := time.Now()
	logger := slog.With(
		slog.String("run_id", runID),
		slog.String("kind", a.validator.Kind()))

	resolved := a.paths.Resolve(paths)
	files := a.discoverer.Discover(resolved)
	span.SetAttributes(attribute.Int("files", len(files)))
	logger.Info("analysis run starting",
		slog.Int("paths", len(paths)),
		slog.Int("resolved", len(resolved)),
		slog.Int("files", len(files)))

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run canceled before dispatch: %w", err)
	}

	// Build the registry on this goroutine before any worker starts, so
	// workers only ever read it.
	if err := a.validator.Prime(ctx); err != nil {
		logger.Warn("registry prime failed, continuing with empty registry",
			slog.String("error", err.Error()))
	}

	a.reporter.Start(len(files))
	results := a.distributor.Process(ctx, files, a.step)
	a.reporter.Finish(results)

	logger.Info("analysis run finished",
		slog.Int("files", len(results)),
		slog.Bool("failures", HasFailures(results)),
		slog.Bool("errors", HasErrors(results)),
		slog.Duration("duration", time.Since(start)))
	return results, nil
}

// step runs the validator for one target with panic capture, result
// caching, metrics, and progress reporting.
func (a *Analyzer) step(ctx context.Context, target *AnalysisTarget) AnalysisResult {
	start := time.Now()

	if cached, ok := a.lookupCached(target); ok {
		a.reporter.Progress(cached)
		return cached
	}

	result := a.analyzeSafely(ctx, target)
	a.storeCached(target, result)

	recordFileMetrics(result, time.Since(start))
	a.reporter.Progress(result)
	return result
}

// analyzeSafely converts panics from a misbehaving extractor into an
// error-tagged result so one file cannot take down the batch.
func (a *Analyzer) analyzeSafely(ctx context.Context, target *AnalysisTarget) (result AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("analysis step panicked",
				slog.String("file", target.Path),
				slog.Any("panic", r))
			result = ErrorResult(target, a.validator.Kind(), fmt.Errorf("analysis panicked: %v", r))
		}
	}()
	return a.validator.Analyze(ctx, target)
}

func (a *Analyzer) lookupCached(target *AnalysisTarget) (AnalysisResult, bool) {
	if a.cache == nil {
		return AnalysisResult{}, false
	}
	key, ok := cacheKey(target)
	if !ok {
		return AnalysisResult{}, false
	}
	return a.cache.Get(key)
}

func (a *Analyzer) storeCached(target *AnalysisTarget, result AnalysisResult) {
	if a.cache == nil || result.Errored() {
		return
	}
	if key, ok := cacheKey(target); ok {
		a.cache.Add(key, result)
	}
}

// cacheKey is path plus content hash, so an edited file never serves a
// stale result even when watch events are coalesced.
func cacheKey(target *AnalysisTarget) (string, bool) {
	content, err := target.Content()
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(content)
	return target.Path + ":" + hex.EncodeToString(sum[:]), true
}
