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
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/refscan/services/analysis"
	"github.com/AleutianAI/refscan/services/analysis/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Re-run all checks when watched files change",
	Long: `watch runs the class, route and translation checks, then watches the
scan paths and re-runs on changes. A change anywhere can add or remove a
registered name, so each batch rebuilds the registries and flushes the
result caches before re-running. Interrupt with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		paths := scanPaths(cfg, args)
		kinds := []string{analysis.KindClasses, analysis.KindRoutes, analysis.KindTranslations}

		analyzers := make([]*analysis.Analyzer, 0, len(kinds))
		for _, kind := range kinds {
			a, err := buildAnalyzer(cfg, kind)
			if err != nil {
				return err
			}
			analyzers = append(analyzers, a)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runAll := func() {
			for _, a := range analyzers {
				if _, err := a.Run(ctx, paths); err != nil {
					slog.Warn("analysis run failed", slog.String("error", err.Error()))
				}
			}
		}
		runAll()

		watcher, err := watch.New(func(changed []string) {
			slog.Info("changes detected", slog.Int("files", len(changed)))
			// An edit to a route file or catalog changes what every other
			// file resolves against, so cached results are stale even for
			// files whose content is untouched.
			for _, a := range analyzers {
				a.Invalidate()
			}
			runAll()
		})
		if err != nil {
			return err
		}
		defer watcher.Close()

		for _, p := range paths {
			if err := watcher.Add(p); err != nil {
				slog.Warn("watch path failed",
					slog.String("path", p),
					slog.String("error", err.Error()))
			}
		}

		fmt.Println("watching for changes, press Ctrl-C to stop")
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
