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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/refscan/services/analysis/config"
)

// Persistent flag values shared by every subcommand.
var (
	flagConfig        string
	flagWorkers       int
	flagExclude       []string
	flagIgnore        []string
	flagReportDynamic bool
	flagStrictErrors  bool
	flagNoColor       bool
	flagVerbose       bool
	flagSequential    bool
)

// defaultConfigFile is looked for in the working directory when --config
// is not given.
const defaultConfigFile = "refscan.yaml"

var rootCmd = &cobra.Command{
	Use:   "refscan",
	Short: "Find broken symbolic references in PHP/Laravel projects",
	Long: `refscan statically analyzes PHP and Laravel source trees for symbolic
references that do not resolve: imported classes that are not declared
anywhere, route() calls naming routes no route file registers, and
translation keys absent from every locale.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		setupLogging(flagVerbose)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "config file (default ./"+defaultConfigFile+" when present)")
	pf.IntVarP(&flagWorkers, "workers", "w", -1, "worker count; 0 uses the CPU count (default from config)")
	pf.StringSliceVar(&flagExclude, "exclude", nil, "additional path patterns excluded from discovery")
	pf.StringSliceVar(&flagIgnore, "ignore", nil, "additional name patterns excluded from the missing list")
	pf.BoolVar(&flagReportDynamic, "report-dynamic", false, "report dynamic (computed) references as warnings")
	pf.BoolVar(&flagStrictErrors, "strict-errors", false, "treat file parse errors as failures for the exit code")
	pf.BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging and per-file ok lines")
}

// loadConfig resolves the effective configuration: file (explicit or
// discovered), then flag overrides.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	switch {
	case flagConfig != "":
		cfg, err = config.Load(flagConfig)
	default:
		if _, statErr := os.Stat(defaultConfigFile); statErr == nil {
			cfg, err = config.Load(defaultConfigFile)
		} else {
			cfg, err = config.Default()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if flagWorkers >= 0 {
		cfg = cfg.WithWorkers(flagWorkers)
	}
	if flagReportDynamic {
		cfg = cfg.WithReportDynamic(true)
	}
	if len(flagExclude) > 0 {
		cfg = cfg.WithExclude(append(cfg.Exclude, flagExclude...))
	}
	if len(flagIgnore) > 0 {
		out := cfg.Clone()
		out.Classes.Ignore = append(out.Classes.Ignore, flagIgnore...)
		out.Routes.IgnorePatterns = append(out.Routes.IgnorePatterns, flagIgnore...)
		out.Translations.Ignore = append(out.Translations.Ignore, flagIgnore...)
		cfg = out
	}
	return cfg, nil
}

// scanPaths picks the paths to analyze: positional arguments win over the
// configured defaults.
func scanPaths(cfg *config.Config, args []string) []string {
	if len(args) > 0 {
		return args
	}
	return cfg.Paths
}
