// ABOUTME: Configuration loading and parsing for sundial
// ABOUTME: Supports YAML files with environment variable expansion

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config represents the complete sundial configuration
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Calendar CalendarConfig `yaml:"calendar"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// StorageConfig holds the document store location
type StorageConfig struct {
	Path string `yaml:"path"`
}

// CalendarConfig holds scheduling defaults applied to new documents
type CalendarConfig struct {
	Timezone        string `yaml:"timezone"`
	WeekStart       string `yaml:"week_start"`
	DefaultDuration int    `yaml:"default_duration"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no config file exists. The
// store path resolves under the XDG data directory.
func Default() *Config {
	return &Config{
		Storage:  StorageConfig{Path: defaultStorePath()},
		Calendar: CalendarConfig{Timezone: "UTC", WeekStart: "Monday", DefaultDuration: 60},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

func defaultStorePath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "sundial", "calendar.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "calendar.json")
	}
	return filepath.Join(home, ".local", "share", "sundial", "calendar.json")
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Fields left empty fall back to the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. An unset variable expands to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all configuration fields carry usable values.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.Calendar.DefaultDuration < 1 {
		return fmt.Errorf("calendar.default_duration must be positive")
	}

	return nil
}
