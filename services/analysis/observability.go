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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// analysisTracerName is the shared OTel tracer name for the analysis engine.
const analysisTracerName = "refscan.analysis"

var tracer = otel.Tracer(analysisTracerName)

// Package-level Prometheus metrics for the analysis pipeline.
// Auto-registered via promauto so no explicit registry wiring is needed.
var (
	// filesAnalyzedTotal counts analyzed files.
	//
	// Labels:
	//   - kind: "classes", "routes", "translations"
	//   - status: "ok", "missing", "error"
	filesAnalyzedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "refscan",
			Subsystem: "analysis",
			Name:      "files_total",
			Help:      "Total number of files analyzed.",
		},
		[]string{"kind", "status"},
	)

	// referencesTotal counts extracted references.
	//
	// Labels:
	//   - kind: analysis kind
	//   - extraction: "static" or "dynamic"
	referencesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "refscan",
			Subsystem: "analysis",
			Name:      "references_total",
			Help:      "Total number of references extracted.",
		},
		[]string{"kind", "extraction"},
	)

	// missingTotal counts unresolved references.
	missingTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "refscan",
			Subsystem: "analysis",
			Name:      "missing_references_total",
			Help:      "Total number of references that failed to resolve.",
		},
		[]string{"kind"},
	)

	// fileDuration measures per-file analysis duration.
	fileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "refscan",
			Subsystem: "analysis",
			Name:      "file_duration_seconds",
			Help:      "Duration of per-file analysis in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"kind"},
	)
)

// startRunSpan starts the span covering a whole analysis run.
func startRunSpan(ctx context.Context, kind string, pathCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Analyzer.Run",
		trace.WithAttributes(
			attribute.String("kind", kind),
			attribute.Int("paths", pathCount),
		),
	)
}

// recordFileMetrics records counters and duration for one analyzed file.
func recordFileMetrics(result AnalysisResult, elapsed time.Duration) {
	status := "ok"
	switch {
	case result.Errored():
		status = "error"
	case !result.Success():
		status = "missing"
	}
	filesAnalyzedTotal.WithLabelValues(result.Kind, status).Inc()
	fileDuration.WithLabelValues(result.Kind).Observe(elapsed.Seconds())

	static, dynamic := 0, 0
	for _, ref := range result.References {
		if ref.Dynamic {
			dynamic++
		} else {
			static++
		}
	}
	if static > 0 {
		referencesTotal.WithLabelValues(result.Kind, "static").Add(float64(static))
	}
	if dynamic > 0 {
		referencesTotal.WithLabelValues(result.Kind, "dynamic").Add(float64(dynamic))
	}
	if len(result.Missing) > 0 {
		missingTotal.WithLabelValues(result.Kind).Add(float64(len(result.Missing)))
	}
}
