// Package logging provides categorized logging for AutoUSB on top of zap.
// Every subsystem logs through a named category so output can be filtered per concern.
// Until Initialize is called all loggers are no-ops.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup, config loading
	CategoryVolume   Category = "volume"   // Volume enumeration and watching
	CategoryAutorun  Category = "autorun"  // Descriptor rendering and writing
	CategoryPublish  Category = "publish"  // Copy-and-write orchestration
	CategoryPackager Category = "packager" // Script packaging pipeline
	CategoryTactile  Category = "tactile"  // Subprocess execution
	CategoryBuild    Category = "build"    // Toolchain build environment
	CategoryStore    Category = "store"    // Build ledger
	CategoryUI       Category = "ui"       // Terminal prompts
)

// Options configures the root logger.
type Options struct {
	Level      string          // debug, info, warn, error
	Format     string          // json or text
	File       string          // optional log file, appended to
	Categories map[string]bool // per-category toggles; missing means enabled
}

// Logger is a category-scoped logger.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu         sync.RWMutex
	root       = zap.NewNop()
	loggers    = make(map[Category]*Logger)
	categories map[string]bool
)

// Initialize builds the root zap logger from opts and resets all category loggers.
func Initialize(opts Options) error {
	level, err := zapcore.ParseLevel(strings.ToLower(defaultString(opts.Level, "info")))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Sampling = nil
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	switch strings.ToLower(defaultString(opts.Format, "text")) {
	case "json":
		cfg.Encoding = "json"
	case "text", "console":
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return fmt.Errorf("invalid log format %q: must be 'text' or 'json'", opts.Format)
	}

	cfg.OutputPaths = []string{"stderr"}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.OutputPaths = append(cfg.OutputPaths, opts.File)
	}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	SetLogger(logger)

	mu.Lock()
	categories = opts.Categories
	mu.Unlock()

	Get(CategoryBoot).Debug("logging initialized: level=%s format=%s file=%q", level, cfg.Encoding, opts.File)
	return nil
}

// SetLogger replaces the root logger. Tests use it with zaptest/observer.
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	root = logger
	loggers = make(map[Category]*Logger)
}

// Root returns the underlying zap logger.
func Root() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	if categories == nil {
		return true
	}
	enabled, exists := categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category, sugar: zap.NewNop().Sugar()}
	}

	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{category: category, sugar: root.Named(string(category)).Sugar()}
	loggers[category] = l
	return l
}

// Category returns the logger's category.
func (l *Logger) Category() Category {
	return l.category
}

// With returns a logger carrying structured key-value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// Sync flushes buffered entries. Call at shutdown.
func Sync() {
	_ = Root().Sync()
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }
func BootWarn(format string, args ...interface{})  { Get(CategoryBoot).Warn(format, args...) }

func Volume(format string, args ...interface{})      { Get(CategoryVolume).Info(format, args...) }
func VolumeDebug(format string, args ...interface{}) { Get(CategoryVolume).Debug(format, args...) }
func VolumeWarn(format string, args ...interface{})  { Get(CategoryVolume).Warn(format, args...) }

func Autorun(format string, args ...interface{})      { Get(CategoryAutorun).Info(format, args...) }
func AutorunDebug(format string, args ...interface{}) { Get(CategoryAutorun).Debug(format, args...) }
func AutorunError(format string, args ...interface{}) { Get(CategoryAutorun).Error(format, args...) }

func Publish(format string, args ...interface{})      { Get(CategoryPublish).Info(format, args...) }
func PublishDebug(format string, args ...interface{}) { Get(CategoryPublish).Debug(format, args...) }
func PublishError(format string, args ...interface{}) { Get(CategoryPublish).Error(format, args...) }

func Packager(format string, args ...interface{})      { Get(CategoryPackager).Info(format, args...) }
func PackagerDebug(format string, args ...interface{}) { Get(CategoryPackager).Debug(format, args...) }
func PackagerWarn(format string, args ...interface{})  { Get(CategoryPackager).Warn(format, args...) }
func PackagerError(format string, args ...interface{}) { Get(CategoryPackager).Error(format, args...) }

func Tactile(format string, args ...interface{})      { Get(CategoryTactile).Info(format, args...) }
func TactileDebug(format string, args ...interface{}) { Get(CategoryTactile).Debug(format, args...) }
func TactileWarn(format string, args ...interface{})  { Get(CategoryTactile).Warn(format, args...) }
func TactileError(format string, args ...interface{}) { Get(CategoryTactile).Error(format, args...) }

func BuildDebug(format string, args ...interface{}) { Get(CategoryBuild).Debug(format, args...) }

func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }
func StoreWarn(format string, args ...interface{})  { Get(CategoryStore).Warn(format, args...) }

func UI(format string, args ...interface{})      { Get(CategoryUI).Info(format, args...) }
func UIDebug(format string, args ...interface{}) { Get(CategoryUI).Debug(format, args...) }

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithInfo ends the timer and logs at info level
func (t *Timer) StopWithInfo() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Info("%s completed in %v", t.op, elapsed)
	return elapsed
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
