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
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/refscan/services/analysis/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the analysis configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default " + defaultConfigFile + " to the working directory",
	RunE: func(*cobra.Command, []string) error {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", defaultConfigFile)
		}
		if err := os.WriteFile(defaultConfigFile, config.DefaultYAML(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", defaultConfigFile, err)
		}
		fmt.Println("wrote", defaultConfigFile)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration after file and flag overrides",
	RunE: func(*cobra.Command, []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("render config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the refscan version",
	Run: func(*cobra.Command, []string) {
		fmt.Printf("refscan %s\n", buildVersion)
	},
}

// buildVersion is stamped via -ldflags at release time.
var buildVersion = "dev"

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd, versionCmd)
}
