// Package debug provides the process-wide sqlkit logger built on log/slog.
//
// Debug output is off unless Init(true) is called or the DEBUG environment
// variable names sqlkit (DEBUG=sqlkit, DEBUG=sqlkit:*, DEBUG=*).
package debug

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger  *slog.Logger
	enabled bool
	mu      sync.RWMutex
)

func init() {
	Init(FromEnv(os.Getenv("DEBUG")))
}

// FromEnv reports whether a DEBUG value enables sqlkit output.
func FromEnv(value string) bool {
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "*" || part == "sqlkit" || strings.HasPrefix(part, "sqlkit:") {
			return true
		}
	}
	return false
}

// Init switches debug output on or off. Output goes to os.Stderr.
func Init(enable bool) {
	InitWriter(enable, os.Stderr)
}

// InitWriter is Init with an explicit destination.
func InitWriter(enable bool, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable
	level := slog.Level(slog.LevelError + 1)
	if enable {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})).With("component", "sqlkit")
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
