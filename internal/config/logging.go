package config

import "reveal/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`                // debug, info, warn, error
	Format     string          `yaml:"format"`               // json, console
	Dir        string          `yaml:"dir"`                  // one dated file per day
	Categories map[string]bool `yaml:"categories,omitempty"` // per-category toggles
}

// LogConfig converts to the logging package's view.
func (c *Config) LogConfig() logging.Config {
	return logging.Config{
		DebugMode:  c.DebugMode,
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		Dir:        c.Logging.Dir,
		Categories: c.Logging.Categories,
	}
}
