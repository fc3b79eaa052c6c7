package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all reveal configuration.
type Config struct {
	// Master toggle for category logging.
	DebugMode bool `yaml:"debug_mode"`

	Logging   LoggingConfig   `yaml:"logging"`
	Overlay   OverlayConfig   `yaml:"overlay"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
	Decisions DecisionsConfig `yaml:"decisions"`
	Tracking  TrackingConfig  `yaml:"tracking"`
}

// DecisionsConfig says where `reveal run` reads decisions from.
type DecisionsConfig struct {
	File string `yaml:"file"`
}

// TrackingConfig selects the tracking sinks.
type TrackingConfig struct {
	JSONLPath string `yaml:"jsonl_path"` // append-only event log, empty = off
	Metrics   bool   `yaml:"metrics"`    // OpenTelemetry counter
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Dir:    filepath.Join(".reveal", "logs"),
		},
		Overlay: OverlayConfig{
			MountPoint:      "reveal-overlay",
			EstimatedWidth:  36,
			EstimatedHeight: 6,
			MaxWidth:        48,
			LayoutRetries:   []time.Duration{0, 16 * time.Millisecond, 50 * time.Millisecond, 150 * time.Millisecond},
		},
		Defaults: DefaultsConfig{
			Dismissible: true,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("REVEAL_DEBUG"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.DebugMode = on
		}
	}
	if v := os.Getenv("REVEAL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("REVEAL_DECISION_FILE"); v != "" {
		c.Decisions.File = v
	}
	if v := os.Getenv("REVEAL_TRACKING_FILE"); v != "" {
		c.Tracking.JSONLPath = v
	}
}

// Validate rejects values the overlay cannot work with.
func (c *Config) Validate() error {
	o := c.Overlay
	if o.EstimatedWidth < 0 || o.EstimatedHeight < 0 {
		return fmt.Errorf("%w: estimated size %dx%d is negative", ErrInvalid, o.EstimatedWidth, o.EstimatedHeight)
	}
	if o.MaxWidth < 0 {
		return fmt.Errorf("%w: max_width %d is negative", ErrInvalid, o.MaxWidth)
	}
	for i, d := range o.LayoutRetries {
		if d < 0 {
			return fmt.Errorf("%w: layout_retries[%d] %s is negative", ErrInvalid, i, d)
		}
		if i > 0 && d < o.LayoutRetries[i-1] {
			return fmt.Errorf("%w: layout_retries must not decrease (%s after %s)", ErrInvalid, d, o.LayoutRetries[i-1])
		}
	}
	if c.Defaults.AutoDismiss < 0 {
		return fmt.Errorf("%w: auto_dismiss %s is negative", ErrInvalid, c.Defaults.AutoDismiss)
	}
	if err := c.Defaults.validSeverity(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "json", "console", "text":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}
