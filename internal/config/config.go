// Package config provides project configuration loading and management for siteNERD.
// Configuration lives at _sitenerd/project.yaml inside each project directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all siteNERD project configuration.
type Config struct {
	// Project identity
	Project ProjectConfig `yaml:"project"`

	// Import pipeline settings
	Import ImportConfig `yaml:"import"`

	// Site generation settings
	Generate GenerateConfig `yaml:"generate"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ProjectConfig identifies the project.
type ProjectConfig struct {
	Name string `yaml:"name"`
	// SiteType is one of: business, store, portfolio, blog
	SiteType string `yaml:"site_type"`
	// PlatformTarget is one of: htmljs, dashboard, handoff
	PlatformTarget string `yaml:"platform_target"`
}

// ImportConfig configures the spreadsheet import pipeline.
type ImportConfig struct {
	// ImageExtensions lists recognized image file extensions, probe order.
	ImageExtensions []string `yaml:"image_extensions"`
	// MaxExtraImages is the highest numbered extra image probed per slug.
	MaxExtraImages int `yaml:"max_extra_images"`
	// SnapshotRetention is how many snapshots to keep (0 = keep all).
	SnapshotRetention int `yaml:"snapshot_retention"`
}

// GenerateConfig configures site generation.
type GenerateConfig struct {
	// OutputDir is the output root, relative to the project directory.
	OutputDir string `yaml:"output_dir"`
	// CleanBeforeGenerate removes previous output before regenerating.
	CleanBeforeGenerate bool `yaml:"clean_before_generate"`
}

// LoggingConfig configures the JSONL activity/telemetry streams.
type LoggingConfig struct {
	// Enabled controls whether activity and telemetry logs are written.
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns the default configuration for a new project.
func DefaultConfig(name string) *Config {
	return &Config{
		Project: ProjectConfig{
			Name:           name,
			SiteType:       "business",
			PlatformTarget: "htmljs",
		},
		Import: ImportConfig{
			ImageExtensions:   []string{".jpg", ".jpeg", ".png", ".webp", ".gif"},
			MaxExtraImages:    9,
			SnapshotRetention: 0,
		},
		Generate: GenerateConfig{
			OutputDir:           "output",
			CleanBeforeGenerate: false,
		},
		Logging: LoggingConfig{
			Enabled: true,
		},
	}
}

// Load reads configuration from the given path, applying defaults for any
// missing sections and SITENERD_* environment overrides on top.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	return cfg, nil
}

// Save writes the configuration to the given path, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets environment variables override file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SITENERD_PLATFORM_TARGET"); v != "" {
		c.Project.PlatformTarget = v
	}
	if v := os.Getenv("SITENERD_OUTPUT_DIR"); v != "" {
		c.Generate.OutputDir = v
	}
	if v := os.Getenv("SITENERD_SNAPSHOT_RETENTION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Import.SnapshotRetention = n
		}
	}
	if v := os.Getenv("SITENERD_LOGGING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.Enabled = b
		}
	}
}

// normalize backfills zero values that would break the import pipeline.
func (c *Config) normalize() {
	if len(c.Import.ImageExtensions) == 0 {
		c.Import.ImageExtensions = DefaultConfig("").Import.ImageExtensions
	}
	if c.Import.MaxExtraImages <= 0 {
		c.Import.MaxExtraImages = 9
	}
	if c.Generate.OutputDir == "" {
		c.Generate.OutputDir = "output"
	}
}
