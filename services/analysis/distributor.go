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
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidWorkerCount is returned when a ConcurrentDistributor is
// constructed with fewer than one worker.
var ErrInvalidWorkerCount = errors.New("worker count must be >= 1")

// StepFunc applies the extractor+validator pipeline to one target.
// Steps must be self-contained: they share no mutable state beyond the
// pre-built registry.
type StepFunc func(ctx context.Context, target *AnalysisTarget) AnalysisResult

// Distributor applies a step to every discovered file and collects one
// result per file. Sequential and Concurrent implementations must produce
// result sets equal as multisets for a pure step function.
type Distributor interface {
	Process(ctx context.Context, files []*AnalysisTarget, step StepFunc) []AnalysisResult
}

// SequentialDistributor applies the step to each file in input order.
// Result order equals input order; fully deterministic. Used for debugging
// and reproducible test runs.
type SequentialDistributor struct{}

// NewSequentialDistributor creates a sequential distributor.
func NewSequentialDistributor() *SequentialDistributor {
	return &SequentialDistributor{}
}

// Process runs the step over files one at a time.
func (d *SequentialDistributor) Process(ctx context.Context, files []*AnalysisTarget, step StepFunc) []AnalysisResult {
	results := make([]AnalysisResult, 0, len(files))
	for _, f := range files {
		results = append(results, step(ctx, f))
	}
	return results
}

// ConcurrentDistributor partitions the file list into contiguous chunks of
// ceil(total/workers) and processes chunks on a worker pool.
//
// Description:
//
//	Chunking bounds coordination overhead: each worker owns one contiguous
//	slice and writes results into pre-assigned positions, so no locking is
//	needed and the returned slice is positionally aligned with the input.
//	Within a chunk, files are processed in order.
//
// Thread Safety: ConcurrentDistributor is safe for concurrent use.
type ConcurrentDistributor struct {
	workers int
}

// NewConcurrentDistributor creates a distributor with the given worker
// count. Worker count < 1 is a configuration error raised here, at
// construction, never at call time. The core enforces no upper bound;
// callers pick sane defaults such as the detected CPU count.
func NewConcurrentDistributor(workers int) (*ConcurrentDistributor, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkerCount, workers)
	}
	return &ConcurrentDistributor{workers: workers}, nil
}

// Workers returns the configured worker count.
func (d *ConcurrentDistributor) Workers() int {
	return d.workers
}

// Process fans the file list out across the worker pool and collects one
// result per file. Results are written by index, so the output order equals
// the input order even though chunks complete in arbitrary order.
func (d *ConcurrentDistributor) Process(ctx context.Context, files []*AnalysisTarget, step StepFunc) []AnalysisResult {
	if len(files) == 0 {
		return nil
	}

	chunkSize := (len(files) + d.workers - 1) / d.workers
	results := make([]AnalysisResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(files); start += chunkSize {
		end := start + chunkSize
		if end > len(files) {
			end = len(files)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				results[i] = step(gctx, files[i])
			}
			return nil
		})
	}
	// Steps never return errors; failures are carried inside results.
	_ = g.Wait()
	return results
}
