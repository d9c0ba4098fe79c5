// Package logging provides structured JSON logging for crewline jobs,
// built on log/slog. Child loggers carry contextual attributes (job,
// worker, phase) so every entry of a run can be correlated after the fact.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Recognized log levels.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var levelNames = map[string]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// parseLevel maps a level name to its slog level, defaulting to INFO for
// anything unrecognized.
func parseLevel(name string) slog.Level {
	if lvl, ok := levelNames[strings.ToUpper(name)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// Logger is a leveled JSON logger. Child loggers created with the WithX
// methods share the parent's sink; Close belongs to the root.
// Safe for concurrent use.
type Logger struct {
	slog *slog.Logger
	mu   sync.Mutex
	file *os.File
}

// NewLogger creates a Logger writing JSON entries to {jobDir}/debug.log,
// creating the directory if needed. An empty jobDir writes to stderr
// instead. Level filtering follows the named level, INFO when unrecognized.
func NewLogger(jobDir, level string) (*Logger, error) {
	var sink io.Writer = os.Stderr
	var file *os.File

	if jobDir != "" {
		if err := os.MkdirAll(jobDir, 0755); err != nil {
			return nil, fmt.Errorf("creating job directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(jobDir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		file = f
		sink = f
	}

	handler := slog.NewJSONHandler(sink, &slog.HandlerOptions{Level: parseLevel(level)})
	return &Logger{slog: slog.New(handler), file: file}, nil
}

// NopLogger returns a Logger that discards everything. Components default
// to it when no logger is configured.
func NopLogger() *Logger {
	return &Logger{slog: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

// WithJob returns a child logger tagging every entry with the job ID.
func (l *Logger) WithJob(jobID string) *Logger {
	return l.With("job_id", jobID)
}

// WithWorker returns a child logger tagging every entry with a worker role.
func (l *Logger) WithWorker(role string) *Logger {
	return l.With("worker", role)
}

// WithPhase returns a child logger tagging every entry with a phase name,
// such as "provisioning" or "execution".
func (l *Logger) WithPhase(phase string) *Logger {
	return l.With("phase", phase)
}

// With returns a child logger carrying the given key-value pairs on every
// entry. The parent is not modified.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	return &Logger{slog: l.slog.With(args...), file: l.file}
}

// Debug logs at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// Close syncs and closes the log file. A no-op for stderr and nop loggers,
// and for child loggers after the root has closed.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("syncing log file: %w", err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	l.file = nil
	return nil
}
