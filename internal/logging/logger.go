// Package logging provides the leveled, prefixed logger used throughout nullfs.
// Messages are written through zap so the output can be redirected to a
// rotating log file without touching the call sites.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	// LevelError only logs errors
	LevelError LogLevel = iota
	// LevelWarn logs warnings and errors
	LevelWarn
	// LevelInfo logs general information, warnings and errors
	LevelInfo
	// LevelDebug logs detailed debug information and all above
	LevelDebug
	// LevelTrace logs very detailed trace information and all above
	LevelTrace
)

// traceLevel sits one step below zap's debug level.
const traceLevel = zapcore.DebugLevel - 1

var levelNames = map[LogLevel]string{
	LevelError: "ERROR",
	LevelWarn:  "WARN",
	LevelInfo:  "INFO",
	LevelDebug: "DEBUG",
	LevelTrace: "TRACE",
}

var zapLevels = map[LogLevel]zapcore.Level{
	LevelError: zapcore.ErrorLevel,
	LevelWarn:  zapcore.WarnLevel,
	LevelInfo:  zapcore.InfoLevel,
	LevelDebug: zapcore.DebugLevel,
	LevelTrace: traceLevel,
}

// String returns the upper-case name of the level.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel maps a level name (case-insensitive) to a LogLevel.
func ParseLevel(name string) (LogLevel, error) {
	for level, n := range levelNames {
		if strings.EqualFold(n, name) {
			return level, nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// Config selects the log level and destination.
type Config struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max-size"`
	MaxBackups int    `mapstructure:"max-backups"`
}

// sink is shared by a logger and every logger derived from it with WithPrefix,
// so Configure and SetLevel affect all of them.
type sink struct {
	mu    sync.RWMutex
	base  *zap.SugaredLogger
	level zap.AtomicLevel
	// closer is set when logging to a rotated file.
	closer *lumberjack.Logger
}

// Logger provides structured logging capabilities
type Logger struct {
	prefix string
	sink   *sink
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	once.Do(func() {
		defaultLogger = NewLogger("NULLFS")

		// Set initial log level from environment
		if name := os.Getenv("LOG_LEVEL"); name != "" {
			if level, err := ParseLevel(name); err == nil {
				defaultLogger.SetLevel(level)
			}
		}

		// Enable debug logging if FUSE_DEBUG is set
		if os.Getenv("FUSE_DEBUG") != "" {
			defaultLogger.SetLevel(LevelDebug)
		}
	})
	return defaultLogger
}

// NewLogger creates a new logger with the given prefix writing to stdout.
func NewLogger(prefix string) *Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return &Logger{
		prefix: prefix,
		sink: &sink{
			base:  newCore(zapcore.AddSync(os.Stdout), level),
			level: level,
		},
	}
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		if l == traceLevel {
			enc.AppendString("TRACE")
			return
		}
		zapcore.CapitalLevelEncoder(l, enc)
	}
	return cfg
}

func newCore(ws zapcore.WriteSyncer, level zap.AtomicLevel) *zap.SugaredLogger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), ws, level)
	// Skip log() and the exported level method to report the real caller.
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)).Sugar()
}

// Configure applies cfg to the logger and every logger derived from it.
// An empty File keeps logging on stdout; otherwise output goes to a
// lumberjack-rotated file.
func (l *Logger) Configure(cfg Config) error {
	if cfg.Level != "" {
		level, err := ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		l.SetLevel(level)
	}

	var ws zapcore.WriteSyncer
	var rotated *lumberjack.Logger
	if cfg.File == "" {
		ws = zapcore.AddSync(os.Stdout)
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return fmt.Errorf("unable to create log directory: %w", err)
		}
		rotated = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
		}
		ws = zapcore.AddSync(rotated)
	}

	l.sink.mu.Lock()
	old := l.sink.closer
	l.sink.base = newCore(ws, l.sink.level)
	l.sink.closer = rotated
	l.sink.mu.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	if zl, ok := zapLevels[level]; ok {
		l.sink.level.SetLevel(zl)
	}
}

// Level returns the current logging level.
func (l *Logger) Level() LogLevel {
	current := l.sink.level.Level()
	for level, zl := range zapLevels {
		if zl == current {
			return level
		}
	}
	return LevelInfo
}

// Sync flushes buffered output and closes a rotated log file, if any.
func (l *Logger) Sync() error {
	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()
	// Syncing stdout fails on some platforms; that is not worth reporting.
	_ = l.sink.base.Sync()
	if l.sink.closer != nil {
		return l.sink.closer.Close()
	}
	return nil
}

// log performs the actual logging
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	zl := zapLevels[level]
	if !l.sink.level.Enabled(zl) {
		return
	}

	l.sink.mu.RLock()
	base := l.sink.base
	l.sink.mu.RUnlock()

	base.Named(l.prefix).Logf(zl, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Trace logs a trace message
func (l *Logger) Trace(format string, args ...interface{}) {
	l.log(LevelTrace, format, args...)
}

// WithPrefix creates a new logger with an additional prefix. The new logger
// shares level and destination with l.
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{
		prefix: prefix,
		sink:   l.sink,
	}
}
