package config

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sdejongh/webpnorris/pkg/codec"
	"github.com/sdejongh/webpnorris/pkg/models"
)

// Collision policies for sources sharing one companion path
const (
	CollisionWarn = "warn"
	CollisionFail = "fail"
)

// Config represents the application configuration
type Config struct {
	Root    string        `yaml:"root"`
	Convert ConvertConfig `yaml:"convert"`
	Verify  VerifyConfig  `yaml:"verify"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Exclude []string      `yaml:"exclude"`
}

// ConvertConfig holds conversion settings
type ConvertConfig struct {
	Quality    int    `yaml:"quality"`
	Backend    string `yaml:"backend"`    // "native" or "cwebp"
	CWebPPath  string `yaml:"cwebp_path"` // empty = look up in PATH
	AutoOrient bool   `yaml:"auto_orient"`
	Collisions string `yaml:"collisions"` // "warn" or "fail"
	Workers    int    `yaml:"workers"`
}

// VerifyConfig holds verification settings
type VerifyConfig struct {
	// PlaceholderThreshold is the size in bytes below which a missing
	// original is flagged as a possible placeholder
	PlaceholderThreshold int64 `yaml:"placeholder_threshold"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show progress bars
	Quiet    bool   `yaml:"quiet"`    // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Format     string `yaml:"format"`      // "json" or "text"
	Level      string `yaml:"level"`       // "debug", "info", "warn", "error"
	File       string `yaml:"file"`        // Log file path (empty = stderr)
	MaxSize    int64  `yaml:"max_size"`    // bytes before rotation, 0 = never
	MaxBackups int    `yaml:"max_backups"` // rotated files to keep
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Root: ".",
		Convert: ConvertConfig{
			Quality:    codec.DefaultQuality,
			Backend:    codec.BackendNative,
			AutoOrient: true,
			Collisions: CollisionWarn,
			Workers:    1,
		},
		Verify: VerifyConfig{
			PlaceholderThreshold: 100,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Enabled:    false,
			Format:     "text",
			Level:      "info",
			File:       "",
			MaxSize:    10 * 1024 * 1024,
			MaxBackups: 3,
		},
		Exclude: []string{
			".git/",
			"node_modules/",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Root == "" {
		return &models.ValidationError{
			Field:   "root",
			Message: "must not be empty",
		}
	}

	if c.Convert.Quality < 0 || c.Convert.Quality > 100 {
		return &models.ValidationError{
			Field:   "convert.quality",
			Message: "must be between 0 and 100",
		}
	}

	validBackends := map[string]bool{codec.BackendNative: true, codec.BackendCWebP: true}
	if !validBackends[c.Convert.Backend] {
		return &models.ValidationError{
			Field:   "convert.backend",
			Message: "must be 'native' or 'cwebp'",
		}
	}

	validCollisions := map[string]bool{CollisionWarn: true, CollisionFail: true}
	if !validCollisions[c.Convert.Collisions] {
		return &models.ValidationError{
			Field:   "convert.collisions",
			Message: "must be 'warn' or 'fail'",
		}
	}

	if c.Convert.Workers < 1 {
		return &models.ValidationError{
			Field:   "convert.workers",
			Message: "must be at least 1",
		}
	}

	if c.Verify.PlaceholderThreshold < 0 {
		return &models.ValidationError{
			Field:   "verify.placeholder_threshold",
			Message: "must not be negative",
		}
	}

	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(strings.TrimSuffix(pattern, "/")) {
			return &models.ValidationError{
				Field:   "exclude",
				Message: "invalid pattern " + pattern,
			}
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	if c.Logging.MaxSize < 0 || c.Logging.MaxBackups < 0 {
		return &models.ValidationError{
			Field:   "logging.max_size",
			Message: "rotation settings must not be negative",
		}
	}

	return nil
}
