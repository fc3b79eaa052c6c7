package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reveal/internal/decision"
	"reveal/internal/position"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"REVEAL_DEBUG", "REVEAL_LOG_LEVEL", "REVEAL_DECISION_FILE", "REVEAL_TRACKING_FILE"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.DebugMode)
	assert.Equal(t, "reveal-overlay", cfg.Overlay.MountPoint)
	assert.Equal(t, position.Size{Width: 36, Height: 6}, cfg.Overlay.Estimated())
	assert.Equal(t, 48, cfg.Overlay.MaxWidth)
	assert.Equal(t, []time.Duration{0, 16 * time.Millisecond, 50 * time.Millisecond, 150 * time.Millisecond}, cfg.Overlay.LayoutRetries)
	assert.True(t, cfg.Defaults.Dismissible)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadParsesYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "reveal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
debug_mode: true
logging:
  level: debug
  categories:
    surface: false
overlay:
  max_width: 60
  layout_retries: [0s, 20ms]
defaults:
  dismissible: false
  auto_dismiss: 1500ms
  severity: warning
decisions:
  file: /tmp/decision.json
tracking:
  metrics: true
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.DebugMode)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format, "unset keys keep defaults")
	assert.Equal(t, 60, cfg.Overlay.MaxWidth)
	assert.Equal(t, 36, cfg.Overlay.EstimatedWidth)
	assert.Equal(t, []time.Duration{0, 20 * time.Millisecond}, cfg.Overlay.LayoutRetries)
	assert.Equal(t, 1500*time.Millisecond, cfg.Defaults.AutoDismiss)
	assert.Equal(t, decision.SeverityWarning, cfg.Defaults.Severity)
	assert.Equal(t, "/tmp/decision.json", cfg.Decisions.File)
	assert.True(t, cfg.Tracking.Metrics)
	assert.Equal(t, map[string]bool{"surface": false}, cfg.LogConfig().Categories)
}

func TestLoadRejectsBadInput(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("overlay: [\n"), 0644))
	_, err := Load(bad)
	assert.ErrorContains(t, err, "failed to parse config")

	neg := filepath.Join(dir, "neg.yaml")
	require.NoError(t, os.WriteFile(neg, []byte("overlay:\n  max_width: -1\n"), 0644))
	_, err = Load(neg)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative estimate", func(c *Config) { c.Overlay.EstimatedHeight = -2 }},
		{"negative retry", func(c *Config) { c.Overlay.LayoutRetries = []time.Duration{-time.Millisecond} }},
		{"decreasing retries", func(c *Config) {
			c.Overlay.LayoutRetries = []time.Duration{0, 50 * time.Millisecond, 10 * time.Millisecond}
		}},
		{"negative auto dismiss", func(c *Config) { c.Defaults.AutoDismiss = -time.Second }},
		{"unknown severity", func(c *Config) { c.Defaults.Severity = "loud" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "reveal.yaml")

	cfg := DefaultConfig()
	cfg.Defaults.AutoDismiss = 3 * time.Second
	cfg.Tracking.JSONLPath = "events.jsonl"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestMapOptions(t *testing.T) {
	opts := DefaultConfig().Defaults.MapOptions()
	require.NotNil(t, opts.Dismissible)
	assert.True(t, *opts.Dismissible)
	assert.Nil(t, opts.AutoDismissMs, "zero means persist")

	d := DefaultsConfig{AutoDismiss: 2500 * time.Millisecond, Severity: decision.SeverityCritical}
	opts = d.MapOptions()
	require.NotNil(t, opts.AutoDismissMs)
	assert.Equal(t, 2500, *opts.AutoDismissMs)
	assert.False(t, *opts.Dismissible)
	assert.Equal(t, decision.SeverityCritical, opts.Severity)
}

func TestLogConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DebugMode = true
	cfg.Logging.Categories = map[string]bool{"source": false}

	lc := cfg.LogConfig()
	assert.True(t, lc.DebugMode)
	assert.Equal(t, "info", lc.Level)
	assert.Equal(t, filepath.Join(".reveal", "logs"), lc.Dir)
	assert.Equal(t, map[string]bool{"source": false}, lc.Categories)
}
