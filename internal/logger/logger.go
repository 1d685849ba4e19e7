// Package logger provides levelled logging for the helpdesk.
// Debug and Info messages are printed only in verbose mode (or at a lower
// configured level); warnings and errors are always printed. Output goes to
// stderr by default through a zap console core.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	level             = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	sugar             = build(output)
)

func build(w io.Writer) *zap.SugaredLogger {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		EncodeLevel:      bracketLevel,
		ConsoleSeparator: " ",
		LineEnding:       zapcore.DefaultLineEnding,
	})
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core).Sugar()
}

func bracketLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.WarnLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetLevel sets the minimum level by name ("debug", "info", "warn", "error").
// It does not change verbose mode.
func SetLevel(name string) error {
	l, err := zapcore.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	level.SetLevel(l)
	return nil
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	sugar = build(w)
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Debug prints a debug message.
func Debug(format string, args ...any) {
	current().Debugf(format, args...)
}

// Info prints an informational message.
func Info(format string, args ...any) {
	current().Infof(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	current().Warnf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	current().Errorf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// With returns a logger carrying structured key-value context, e.g.
// logger.With("tenant", slug).Infof("reply sent").
func With(keysAndValues ...any) *zap.SugaredLogger {
	return current().With(keysAndValues...)
}

// Sync flushes buffered output.
func Sync() {
	_ = current().Sync()
}
