// Package logging provides config-driven categorized logging for reveal.
// Logs are written to a dated file under the configured directory so the
// terminal UI is never written over. Logging is controlled by debug_mode:
// when false, every logger is a no-op.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup, config resolution
	CategoryDecision  Category = "decision"  // Wire decoding, mapping, validation
	CategoryLifecycle Category = "lifecycle" // Visibility state machine, timers
	CategorySurface   Category = "surface"   // Mount points, layout passes
	CategoryBridge    Category = "bridge"    // Event delivery to host callbacks
	CategoryTemplate  Category = "template"  // Template routing and rendering
	CategorySource    Category = "source"    // Decision sources (file watcher)
	CategoryTracking  Category = "tracking"  // Tracking sinks
)

// Config mirrors config.LoggingConfig to avoid circular imports.
type Config struct {
	DebugMode  bool
	Level      string // debug, info, warn, error
	Format     string // json, console
	Dir        string
	Categories map[string]bool
}

// Logger is a category-scoped printf-style logger over zap.
// The zero value (nil sugar) discards everything.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	cfg     Config
	root    *zap.Logger
	file    *os.File
	loggers = make(map[Category]*Logger)
)

// Initialize sets up the log file and zap core.
// Should be called once at startup. A disabled config is a silent no-op.
func Initialize(c Config) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	cfg = c
	if !c.DebugMode {
		return nil
	}

	dir := c.Dir
	if dir == "" {
		dir = filepath.Join(".reveal", "logs")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	name := fmt.Sprintf("%s_reveal.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	file = f

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if c.Format == "console" || c.Format == "text" {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(f), parseLevel(c.Level))
	root = zap.New(core)

	root.Named(string(CategoryBoot)).Sugar().Infof("logging initialized: dir=%s level=%s", dir, c.Level)
	return nil
}

// UseCore installs an arbitrary zap core. Tests use it with zaptest/observer.
func UseCore(core zapcore.Core, debug bool) {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	cfg = Config{DebugMode: debug}
	if debug {
		root = zap.New(core)
	}
}

// Reset drops all loggers and returns to the disabled state.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	cfg = Config{}
}

func closeLocked() {
	if root != nil {
		_ = root.Sync()
	}
	if file != nil {
		file.Close()
		file = nil
	}
	root = nil
	loggers = make(map[Category]*Logger)
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// IsDebugMode returns whether debug logging is enabled
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return cfg.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabledLocked(category)
}

func categoryEnabledLocked(category Category) bool {
	if !cfg.DebugMode || root == nil {
		return false
	}
	if cfg.Categories == nil {
		return true
	}
	enabled, exists := cfg.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	enabled := categoryEnabledLocked(category)
	mu.RUnlock()

	if !enabled {
		return &Logger{category: category}
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	if root == nil {
		return &Logger{category: category}
	}
	l := &Logger{category: category, sugar: root.Named(string(category)).Sugar()}
	loggers[category] = l
	return l
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// With returns a logger carrying structured key-value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	if l.sugar == nil {
		return l
	}
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// These are no-ops if the category is disabled
// =============================================================================

// DecisionDebug logs debug to the decision category
func DecisionDebug(format string, args ...interface{}) {
	Get(CategoryDecision).Debug(format, args...)
}

// LifecycleDebug logs debug to the lifecycle category
func LifecycleDebug(format string, args ...interface{}) {
	Get(CategoryLifecycle).Debug(format, args...)
}

// SurfaceDebug logs debug to the surface category
func SurfaceDebug(format string, args ...interface{}) {
	Get(CategorySurface).Debug(format, args...)
}

// BridgeDebug logs debug to the bridge category
func BridgeDebug(format string, args ...interface{}) {
	Get(CategoryBridge).Debug(format, args...)
}

// BridgeError logs an error to the bridge category
func BridgeError(format string, args ...interface{}) {
	Get(CategoryBridge).Error(format, args...)
}

// TemplateWarn logs a warning to the template category
func TemplateWarn(format string, args ...interface{}) {
	Get(CategoryTemplate).Warn(format, args...)
}

// Source logs to the source category
func Source(format string, args ...interface{}) {
	Get(CategorySource).Info(format, args...)
}

// SourceError logs an error to the source category
func SourceError(format string, args ...interface{}) {
	Get(CategorySource).Error(format, args...)
}

// TrackingError logs an error to the tracking category
func TrackingError(format string, args ...interface{}) {
	Get(CategoryTracking).Error(format, args...)
}

// CloseAll flushes and closes the log file (call at shutdown)
func CloseAll() {
	Reset()
}
