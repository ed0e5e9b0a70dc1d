// Package logging provides structured debug logging for Concierge
// components. All components of one process share a session-scoped log
// file under ~/.concierge/logs/ so a whole agent run can be audited from
// one place.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	sessionID     string
	sessionIDOnce sync.Once
)

// SessionID returns the process-wide session identifier, created on first
// use.
func SessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// Logger writes leveled, timestamped entries for one component. All level
// methods write unconditionally; there is no level filtering.
type Logger struct {
	component string
	logger    *log.Logger
	file      *os.File
	logPath   string
	mu        sync.Mutex
	closeOnce sync.Once
}

// Option configures a Logger.
type Option func(*options)

type options struct {
	dir    string
	writer io.Writer
}

// WithDir overrides the log directory (default ~/.concierge/logs).
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithWriter sends log output to the given writer instead of a file.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// New creates a logger for a component. If the log file cannot be opened
// it falls back to stderr and reports the error; the returned logger is
// always usable.
func New(component string, opts ...Option) (*Logger, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.writer != nil {
		return &Logger{
			component: component,
			logger:    log.New(o.writer, "", 0),
		}, nil
	}

	dir := o.dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fallback(component), fmt.Errorf("logging: failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".concierge", "logs")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fallback(component), fmt.Errorf("logging: failed to create log directory: %w", err)
	}

	logPath := filepath.Join(dir, SessionID()+"-concierge.log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fallback(component), fmt.Errorf("logging: failed to open log file: %w", err)
	}

	return &Logger{
		component: component,
		logger:    log.New(file, "", 0),
		file:      file,
		logPath:   logPath,
	}, nil
}

// fallback builds a stderr logger used when file logging is unavailable.
func fallback(component string) *Logger {
	return &Logger{
		component: component,
		logger:    log.New(os.Stderr, "", 0),
	}
}

func (l *Logger) write(level, format string, v ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	l.logger.Printf("[%s] [%s] [%s] %s", ts, l.component, level, fmt.Sprintf(format, v...))
}

// Debugf logs a debug-level message.
func (l *Logger) Debugf(format string, v ...interface{}) { l.write("DEBUG", format, v...) }

// Infof logs an info-level message.
func (l *Logger) Infof(format string, v ...interface{}) { l.write("INFO", format, v...) }

// Warnf logs a warning-level message.
func (l *Logger) Warnf(format string, v ...interface{}) { l.write("WARN", format, v...) }

// Errorf logs an error-level message.
func (l *Logger) Errorf(format string, v ...interface{}) { l.write("ERROR", format, v...) }

// LogPath returns the path of the backing file, empty when logging to a
// writer or stderr.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the backing file. Safe to call multiple times and on
// writer-backed loggers.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}
