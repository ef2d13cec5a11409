// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/AleutianAI/refscan/services/analysis"
	"github.com/AleutianAI/refscan/services/analysis/config"
	"github.com/AleutianAI/refscan/services/analysis/extract"
	"github.com/AleutianAI/refscan/services/analysis/registry"
	"github.com/AleutianAI/refscan/services/analysis/report"
)

// cpuCount is swappable in tests.
var cpuCount = runtime.NumCPU

// buildAnalyzer wires one kind's extractor, registry and validator into an
// analyzer using the effective configuration.
func buildAnalyzer(cfg *config.Config, kind string) (*analysis.Analyzer, error) {
	var validator analysis.Validator
	extensions := []string{".php"}
	var skipExtensions []string

	switch kind {
	case analysis.KindClasses:
		reg := registry.NewClassRegistry(
			registry.WithDeclarationPaths(cfg.Classes.Paths...),
			registry.WithClassmap(cfg.Classes.Classmap))
		validator = registry.NewValidator(extract.NewClassExtractor(), reg,
			registry.WithIgnorePatterns(cfg.Classes.Ignore),
			registry.WithDynamicWarnings(cfg.ReportDynamic))
		// Blade templates are not valid PHP; the class extractor only
		// handles real sources.
		skipExtensions = []string{".blade.php"}

	case analysis.KindRoutes:
		reg := registry.NewRouteRegistry(cfg.Routes.Paths,
			registry.WithRouteTTL(time.Duration(cfg.Routes.CacheTTL)*time.Second))
		validator = registry.NewValidator(extract.NewRouteExtractor(), reg,
			registry.WithIncludePatterns(cfg.Routes.IncludePatterns),
			registry.WithIgnorePatterns(cfg.Routes.IgnorePatterns),
			registry.WithDynamicWarnings(cfg.ReportDynamic))
		extensions = append(extensions, ".blade.php")

	case analysis.KindTranslations:
		reg := registry.NewTranslationRegistry(cfg.Translations.Path,
			registry.WithLocales(cfg.Translations.Locales...),
			registry.WithVendorPath(cfg.Translations.VendorPath))
		validator = registry.NewValidator(extract.NewTranslationExtractor(), reg,
			registry.WithIgnorePatterns(cfg.Translations.Ignore),
			registry.WithDynamicWarnings(cfg.ReportDynamic))
		extensions = append(extensions, ".blade.php")

	default:
		return nil, fmt.Errorf("unknown analysis kind %q", kind)
	}

	distributor, err := buildDistributor(cfg.Workers)
	if err != nil {
		return nil, err
	}
	reporter := report.NewConsoleReporter(
		report.WithColor(!flagNoColor),
		report.WithVerbose(flagVerbose))

	return analysis.NewAnalyzer(validator,
		analysis.WithDiscoverer(analysis.NewFileDiscoverer(
			analysis.WithExtensions(extensions...),
			analysis.WithSkipExtensions(skipExtensions...),
			analysis.WithExcludePatterns(cfg.Exclude))),
		analysis.WithDistributor(distributor),
		analysis.WithReporter(reporter),
		analysis.WithResultCache(analysis.DefaultCacheSize))
}

// buildDistributor maps the configured worker count to a distribution
// strategy: --sequential forces in-order processing, 0 auto-detects.
func buildDistributor(workers int) (analysis.Distributor, error) {
	if flagSequential {
		return analysis.NewSequentialDistributor(), nil
	}
	if workers == 0 {
		workers = cpuCount()
	}
	return analysis.NewConcurrentDistributor(workers)
}

// runKinds analyzes the paths with one analyzer per kind and returns the
// combined results.
func runKinds(ctx context.Context, cfg *config.Config, kinds []string, paths []string) ([]analysis.AnalysisResult, error) {
	var combined []analysis.AnalysisResult
	for _, kind := range kinds {
		analyzer, err := buildAnalyzer(cfg, kind)
		if err != nil {
			return nil, err
		}
		results, err := analyzer.Run(ctx, paths)
		if err != nil {
			return nil, err
		}
		combined = append(combined, results...)
	}
	return combined, nil
}

// exitError converts results into the command's terminal error: exit code
// 1 when any file has missing references, or, under --strict-errors, when
// any file failed extraction.
func exitError(results []analysis.AnalysisResult) error {
	failed := analysis.HasFailures(results)
	if flagStrictErrors && analysis.HasErrors(results) {
		failed = true
	}
	if failed {
		return errFindings
	}
	return nil
}

// errFindings signals exit code 1 without an extra message; the reporter
// already printed the findings.
var errFindings = &exitCodeError{code: 1}

type exitCodeError struct{ code int }

func (e *exitCodeError) Error() string {
	return "missing references found"
}
