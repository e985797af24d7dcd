// Package logger provides a file-backed leveled logger. A *Logger is
// injected into each component rather than shared as package state.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Logger writes leveled messages to a log file.
type Logger struct {
	mu      sync.Mutex
	l       *log.Logger
	file    *os.File
	verbose bool // also echo to stderr
}

// New creates a logger writing to the given path, creating parent
// directories as needed.
func New(path string) (*Logger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	return &Logger{
		l:    log.New(f, "", log.Ltime|log.Lmicroseconds),
		file: f,
	}, nil
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *Logger {
	return &Logger{l: log.New(io.Discard, "", 0)}
}

// SetVerbose echoes log lines to stderr in addition to the file.
func (lg *Logger) SetVerbose(v bool) {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	lg.verbose = v
}

// Close closes the log file.
func (lg *Logger) Close() {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	if lg.file != nil {
		lg.file.Close()
		lg.file = nil
	}
}

// Info logs an info message.
func (lg *Logger) Info(format string, v ...interface{}) {
	lg.printf("[INFO] ", format, v...)
}

// Debug logs a debug message.
func (lg *Logger) Debug(format string, v ...interface{}) {
	lg.printf("[DEBUG] ", format, v...)
}

// Warn logs a warning message.
func (lg *Logger) Warn(format string, v ...interface{}) {
	lg.printf("[WARN] ", format, v...)
}

// Error logs an error message.
func (lg *Logger) Error(format string, v ...interface{}) {
	lg.printf("[ERROR] ", format, v...)
}

func (lg *Logger) printf(prefix, format string, v ...interface{}) {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	if lg.l != nil {
		lg.l.Printf(prefix+format, v...)
	}
	if lg.verbose {
		fmt.Fprintf(os.Stderr, prefix+format+"\n", v...)
	}
}

// Writer returns the underlying writer for use by clients that keep
// their own request logs.
func (lg *Logger) Writer() io.Writer {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	if lg.file != nil {
		return lg.file
	}
	return io.Discard
}
