package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sdejongh/webpnorris/pkg/models"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Convert.Quality != 90 {
		t.Errorf("Quality = %d, want 90", cfg.Convert.Quality)
	}
	if cfg.Verify.PlaceholderThreshold != 100 {
		t.Errorf("PlaceholderThreshold = %d, want 100", cfg.Verify.PlaceholderThreshold)
	}
	if cfg.Convert.Workers != 1 {
		t.Errorf("Workers = %d, want sequential default", cfg.Convert.Workers)
	}
	if cfg.Convert.Collisions != CollisionWarn {
		t.Errorf("Collisions = %s, want %s", cfg.Convert.Collisions, CollisionWarn)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"Valid", func(c *Config) {}, ""},
		{"EmptyRoot", func(c *Config) { c.Root = "" }, "root"},
		{"QualityTooLow", func(c *Config) { c.Convert.Quality = -1 }, "convert.quality"},
		{"QualityTooHigh", func(c *Config) { c.Convert.Quality = 101 }, "convert.quality"},
		{"QualityBounds", func(c *Config) { c.Convert.Quality = 0 }, ""},
		{"UnknownBackend", func(c *Config) { c.Convert.Backend = "sharp" }, "convert.backend"},
		{"CWebPBackend", func(c *Config) { c.Convert.Backend = "cwebp" }, ""},
		{"UnknownCollisionPolicy", func(c *Config) { c.Convert.Collisions = "rename" }, "convert.collisions"},
		{"ZeroWorkers", func(c *Config) { c.Convert.Workers = 0 }, "convert.workers"},
		{"NegativeThreshold", func(c *Config) { c.Verify.PlaceholderThreshold = -5 }, "verify.placeholder_threshold"},
		{"BadExclude", func(c *Config) { c.Exclude = []string{"[a-"} }, "exclude"},
		{"DirExclude", func(c *Config) { c.Exclude = []string{"**/cache/"} }, ""},
		{"BadOutputFormat", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"BadLogFormat", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"BadLogLevel", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"NegativeMaxSize", func(c *Config) { c.Logging.MaxSize = -1 }, "logging.max_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %s, want %s", verr.Field, tt.field)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("PartialFileKeepsDefaults", func(t *testing.T) {
		path := filepath.Join(dir, "partial.yaml")
		content := "root: /srv/assets\nconvert:\n  quality: 75\n  workers: 4\nverify:\n  placeholder_threshold: 512\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile() error = %v", err)
		}
		if cfg.Root != "/srv/assets" || cfg.Convert.Quality != 75 || cfg.Convert.Workers != 4 {
			t.Errorf("cfg = %+v, want overrides applied", cfg)
		}
		if cfg.Verify.PlaceholderThreshold != 512 {
			t.Errorf("PlaceholderThreshold = %d, want 512", cfg.Verify.PlaceholderThreshold)
		}
		if cfg.Convert.Backend != "native" || cfg.Output.Format != "human" {
			t.Errorf("unset keys lost their defaults: %+v", cfg)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.yaml")
		if err := os.WriteFile(path, []byte("convert:\n  quality: 150\n"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadFromFile(path)
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("LoadFromFile() error = %v, want *ValidationError", err)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		path := filepath.Join(dir, "malformed.yaml")
		if err := os.WriteFile(path, []byte("convert: [unclosed\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadFromFile(path); err == nil || !strings.Contains(err.Error(), "parse") {
			t.Errorf("LoadFromFile() error = %v, want parse error", err)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
			t.Error("Load() with an explicit missing path should fail")
		}
	})
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Convert.Collisions = CollisionFail
	cfg.Exclude = []string{"**/thumbs/"}

	if err := SaveToFile(cfg, path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.Convert.Collisions != CollisionFail {
		t.Errorf("Collisions = %s, want %s", loaded.Convert.Collisions, CollisionFail)
	}
	if len(loaded.Exclude) != 1 || loaded.Exclude[0] != "**/thumbs/" {
		t.Errorf("Exclude = %v", loaded.Exclude)
	}

	cfg.Convert.Workers = 0
	if err := SaveToFile(cfg, path); err == nil {
		t.Error("SaveToFile() should refuse an invalid configuration")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error = %v", err)
	}
	want := filepath.Join(home, ".config", "webpnorris", "config.yaml")
	if path != want {
		t.Errorf("DefaultConfigPath() = %s, want %s", path, want)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Root != "." {
		t.Errorf("Load(\"\") without a file should return defaults, got root %q", cfg.Root)
	}
}
