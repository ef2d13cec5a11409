// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates analysis configuration from YAML,
// with compiled-in defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed refscan.yaml
var defaultYAML []byte

var validate = validator.New()

// Config is the full analysis configuration.
//
// Config values are treated as immutable once loaded; the With* methods
// return modified deep copies so a shared config can never change under a
// running analysis.
type Config struct {
	// Paths are the roots scanned for references.
	Paths []string `yaml:"paths" validate:"min=1"`

	// Workers is the analysis worker count; 0 selects the CPU count.
	Workers int `yaml:"workers" validate:"gte=0"`

	// Exclude patterns remove paths from discovery.
	Exclude []string `yaml:"exclude"`

	// ReportDynamic surfaces dynamic references as warnings.
	ReportDynamic bool `yaml:"report_dynamic"`

	Classes      ClassesConfig      `yaml:"classes"`
	Routes       RoutesConfig       `yaml:"routes"`
	Translations TranslationsConfig `yaml:"translations"`
}

// ClassesConfig configures the class registry and validation.
type ClassesConfig struct {
	// Paths are scanned for type declarations.
	Paths []string `yaml:"paths"`

	// Classmap is an optional composer autoload_classmap.php.
	Classmap string `yaml:"classmap"`

	// Ignore patterns exclude matching names from the missing list.
	Ignore []string `yaml:"ignore"`
}

// RoutesConfig configures the route registry and validation.
type RoutesConfig struct {
	// Paths are route definition files or directories.
	Paths []string `yaml:"paths"`

	// CacheTTL is the registry reuse window in seconds; 0 caches for the
	// life of the process.
	CacheTTL int `yaml:"cache_ttl" validate:"gte=0"`

	// IncludePatterns, when non-empty, allow-list the names validated.
	IncludePatterns []string `yaml:"include_patterns"`

	// IgnorePatterns exclude matching names from the missing list.
	IgnorePatterns []string `yaml:"ignore_patterns"`
}

// TranslationsConfig configures the translation registry and validation.
type TranslationsConfig struct {
	// Path is the language catalog directory.
	Path string `yaml:"path"`

	// Locales restricts loading; empty loads every locale found.
	Locales []string `yaml:"locales"`

	// VendorPath holds package catalogs keyed as package::file.key.
	VendorPath string `yaml:"vendor_path"`

	// Ignore patterns exclude matching keys from the missing list.
	Ignore []string `yaml:"ignore"`
}

// Default returns the compiled-in configuration.
func Default() (*Config, error) {
	return parse(defaultYAML, "embedded default")
}

// Load reads a YAML config file, layered over the defaults: absent keys
// keep their default values.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultYAML returns the embedded default config text, used by
// `config init` to seed a project file.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultYAML))
	copy(out, defaultYAML)
	return out
}

func parse(data []byte, origin string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s config: %w", origin, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s config: %w", origin, err)
	}
	return &cfg, nil
}

// Validate checks structural constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Paths = cloneSlice(c.Paths)
	out.Exclude = cloneSlice(c.Exclude)
	out.Classes.Paths = cloneSlice(c.Classes.Paths)
	out.Classes.Ignore = cloneSlice(c.Classes.Ignore)
	out.Routes.Paths = cloneSlice(c.Routes.Paths)
	out.Routes.IncludePatterns = cloneSlice(c.Routes.IncludePatterns)
	out.Routes.IgnorePatterns = cloneSlice(c.Routes.IgnorePatterns)
	out.Translations.Locales = cloneSlice(c.Translations.Locales)
	out.Translations.Ignore = cloneSlice(c.Translations.Ignore)
	return &out
}

// WithPaths returns a copy with the scan paths replaced.
func (c *Config) WithPaths(paths []string) *Config {
	out := c.Clone()
	out.Paths = cloneSlice(paths)
	return out
}

// WithWorkers returns a copy with the worker count replaced.
func (c *Config) WithWorkers(workers int) *Config {
	out := c.Clone()
	out.Workers = workers
	return out
}

// WithReportDynamic returns a copy with dynamic reporting toggled.
func (c *Config) WithReportDynamic(enabled bool) *Config {
	out := c.Clone()
	out.ReportDynamic = enabled
	return out
}

// WithExclude returns a copy with the exclude patterns replaced.
func (c *Config) WithExclude(patterns []string) *Config {
	out := c.Clone()
	out.Exclude = cloneSlice(patterns)
	return out
}

func cloneSlice(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
