package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/trombinoscope/pkg/cropper"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}

	opts, err := c.SessionOptions()
	if err != nil {
		t.Fatalf("SessionOptions failed: %v", err)
	}
	if opts.Ratio != cropper.Classic || opts.WidthDivisor != 5 {
		t.Errorf("Unexpected session options %+v", opts)
	}
	if c.Controller.Multipliers.Shift != 5 || c.Controller.Multipliers.Control != 3 || c.Controller.Multipliers.Alt != 7 {
		t.Errorf("Unexpected multipliers %+v", c.Controller.Multipliers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad ratio", func(c *Config) { c.Crop.AspectRatio = "wide" }},
		{"divisor", func(c *Config) { c.Crop.WidthDivisor = 1 }},
		{"base step", func(c *Config) { c.Controller.BaseStep = 0 }},
		{"multiplier", func(c *Config) { c.Controller.Multipliers.Alt = 0 }},
		{"format", func(c *Config) { c.Output.DefaultFormat = "gif" }},
		{"quality", func(c *Config) { c.Output.Quality = 101 }},
		{"size", func(c *Config) { c.Output.Width = -1 }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			if err := c.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			c := Default()
			c.Crop.AspectRatio = "3:4"
			c.Controller.SaveOnExit = true
			c.Output.DefaultFormat = "webp"

			path := filepath.Join(dir, "nested", name)
			if err := c.SaveToFile(path); err != nil {
				t.Fatalf("SaveToFile failed: %v", err)
			}

			loaded, err := LoadFromFile(path)
			if err != nil {
				t.Fatalf("LoadFromFile failed: %v", err)
			}
			if *loaded != *c {
				t.Errorf("Loaded %+v, want %+v", *loaded, *c)
			}
		})
	}
}

func TestLoadKeepsDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("TROMBI_TEST_DIR", "/tmp/derivatives")

	path := filepath.Join(t.TempDir(), "config.yml")
	content := "output:\n  output_dir: ${TROMBI_TEST_DIR}\ncontroller:\n  save_on_exit: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Output.OutputDir != "/tmp/derivatives" {
		t.Errorf("Expected expanded output dir, got %q", c.Output.OutputDir)
	}
	if !c.Controller.SaveOnExit {
		t.Error("Expected save_on_exit to be read")
	}
	if c.Controller.BaseStep != 2 || c.Output.Quality != 92 {
		t.Errorf("Expected unset values to keep defaults, got %+v", c)
	}
}

func TestLoadMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.json")

	if _, err := Load(missing); err == nil {
		t.Error("Expected error for an explicit missing file")
	}

	t.Setenv(EnvConfigPath, missing)
	c, err := Load("")
	if err != nil {
		t.Fatalf("Expected defaults for a missing default file, got %v", err)
	}
	if c.Output.Quality != Default().Output.Quality {
		t.Error("Expected default config")
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"output": {"quality": 0}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected validation error")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/trombinoscope.yaml")
	if got := GetConfigPath(); got != "/etc/trombinoscope.yaml" {
		t.Errorf("GetConfigPath = %q", got)
	}
}

func TestExportOptions(t *testing.T) {
	c := Default()
	if got := c.ExportOptions("").Dir; got != "cropped" {
		t.Errorf("Expected default output dir, got %q", got)
	}
	if got := c.ExportOptions("elsewhere").Dir; got != "elsewhere" {
		t.Errorf("Expected explicit dir, got %q", got)
	}
}
