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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/refscan/services/analysis"
)

// newScanCommand builds one scan subcommand covering the given kinds.
func newScanCommand(use, short string, kinds []string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [paths...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			results, err := runKinds(cmd.Context(), cfg, kinds, scanPaths(cfg, args))
			if err != nil {
				return err
			}
			return exitError(results)
		},
	}
}

func init() {
	rootCmd.AddCommand(
		newScanCommand("classes",
			"Check class imports and type references against declared classes",
			[]string{analysis.KindClasses}),
		newScanCommand("routes",
			"Check route() lookups against registered route names",
			[]string{analysis.KindRoutes}),
		newScanCommand("langs",
			"Check translation key lookups against the language catalogs",
			[]string{analysis.KindTranslations}),
		newScanCommand("all",
			"Run the class, route and translation checks together",
			[]string{analysis.KindClasses, analysis.KindRoutes, analysis.KindTranslations}),
	)

	rootCmd.PersistentFlags().BoolVar(&flagSequential, "sequential", false,
		"process files one at a time in deterministic order")
}
