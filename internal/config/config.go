package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/trombinoscope/internal/logging"
	"github.com/menta2k/trombinoscope/pkg/controller"
	"github.com/menta2k/trombinoscope/pkg/cropper"
	"github.com/menta2k/trombinoscope/pkg/processing"
	"github.com/menta2k/trombinoscope/pkg/session"
)

// EnvConfigPath names the environment variable that overrides the config
// file location.
const EnvConfigPath = "TROMBINOSCOPE_CONFIG"

// Config holds the application configuration
type Config struct {
	Crop       CropConfig       `json:"crop" yaml:"crop"`
	Controller ControllerConfig `json:"controller" yaml:"controller"`
	Output     OutputConfig     `json:"output" yaml:"output"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

// CropConfig holds configuration for new crop rectangles
type CropConfig struct {
	AspectRatio  string `json:"aspect_ratio" yaml:"aspect_ratio"`
	WidthDivisor int    `json:"width_divisor" yaml:"width_divisor"`
	AutoOrient   bool   `json:"auto_orient" yaml:"auto_orient"`
	SkipCorrupt  bool   `json:"skip_corrupt" yaml:"skip_corrupt"`
}

// ControllerConfig holds configuration for the interactive editor
type ControllerConfig struct {
	BaseStep    int                    `json:"base_step" yaml:"base_step"`
	Multipliers controller.Multipliers `json:"multipliers" yaml:"multipliers"`
	SaveOnExit  bool                   `json:"save_on_exit" yaml:"save_on_exit"`
}

// OutputConfig holds configuration for cropped derivatives
type OutputConfig struct {
	DefaultFormat string `json:"default_format" yaml:"default_format"`
	OutputDir     string `json:"output_dir" yaml:"output_dir"`
	Quality       int    `json:"quality" yaml:"quality"`
	Lossless      bool   `json:"lossless" yaml:"lossless"`
	Width         int    `json:"width" yaml:"width"`
	Height        int    `json:"height" yaml:"height"`
}

// LoggingConfig holds configuration for the logger
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Crop: CropConfig{
			AspectRatio:  cropper.Classic.Name,
			WidthDivisor: session.DefaultWidthDivisor,
		},
		Controller: ControllerConfig{
			BaseStep:    controller.DefaultBaseStep,
			Multipliers: controller.DefaultMultipliers(),
		},
		Output: OutputConfig{
			DefaultFormat: "jpg",
			OutputDir:     "cropped",
			Quality:       92,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromFile loads configuration from a JSON or YAML file. Values missing
// from the file keep their defaults. Environment variables in the file are
// expanded.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	data = []byte(os.ExpandEnv(string(data)))

	config := Default()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load reads the config file at path, or the default location when path is
// empty. A missing default file yields the default configuration.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = GetConfigPath()
	}

	config, err := LoadFromFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		config, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// SaveToFile saves configuration to a JSON or YAML file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := cropper.ParseAspectRatio(c.Crop.AspectRatio); err != nil {
		return fmt.Errorf("crop.aspect_ratio: %w", err)
	}

	if c.Crop.WidthDivisor < 2 {
		return fmt.Errorf("crop.width_divisor must be at least 2")
	}

	if c.Controller.BaseStep < 1 {
		return fmt.Errorf("controller.base_step must be positive")
	}

	m := c.Controller.Multipliers
	if m.Shift < 1 || m.Control < 1 || m.Alt < 1 || m.Meta < 1 {
		return fmt.Errorf("controller.multipliers must all be at least 1")
	}

	if !slices.Contains([]string{"jpg", "jpeg", "png", "webp"}, strings.ToLower(c.Output.DefaultFormat)) {
		return fmt.Errorf("output.default_format must be one of jpg, png or webp")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if c.Output.Width < 0 || c.Output.Height < 0 {
		return fmt.Errorf("output.width and output.height cannot be negative")
	}

	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be console or json")
	}

	return nil
}

// SessionOptions returns the options for loading photos
func (c *Config) SessionOptions() (session.Options, error) {
	ratio, err := cropper.ParseAspectRatio(c.Crop.AspectRatio)
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		WidthDivisor: c.Crop.WidthDivisor,
		Ratio:        ratio,
		AutoOrient:   c.Crop.AutoOrient,
		SkipCorrupt:  c.Crop.SkipCorrupt,
	}, nil
}

// ControllerOptions returns the editor options. Display, save hook and
// logger are left for the caller.
func (c *Config) ControllerOptions() controller.Options {
	opts := controller.DefaultOptions()
	opts.BaseStep = c.Controller.BaseStep
	opts.Multipliers = c.Controller.Multipliers
	return opts
}

// ExportOptions returns the derivative options, writing to dir or to
// output.output_dir when dir is empty
func (c *Config) ExportOptions(dir string) processing.ExportOptions {
	if dir == "" {
		dir = c.Output.OutputDir
	}
	return processing.ExportOptions{
		Dir:      dir,
		Format:   c.Output.DefaultFormat,
		Quality:  c.Output.Quality,
		Lossless: c.Output.Lossless,
		Width:    c.Output.Width,
		Height:   c.Output.Height,
	}
}

// LoggerConfig returns the logger configuration
func (c *Config) LoggerConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.Format = c.Logging.Format
	return lc
}

// GetConfigPath returns the configuration file path, honoring
// TROMBINOSCOPE_CONFIG
func GetConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "trombinoscope", "config.json")
}
