// Package logger provides the logging interface used by every aptjitter
// component. Output goes to stderr for cron to pick up, to syslog, or both.
package logger

import (
	"fmt"
	"io"
	"log"
)

// Logger is the logging interface shared by the trigger, daemon and RPC
// server. Implementations may write to stderr, syslog or a test recorder.
type Logger interface {
	// Info logs an informational message (e.g., "aptcron: queued at 13:37").
	Info(format string, args ...interface{})

	// Warning logs a condition worth noticing that did not fail the cycle.
	Warning(format string, args ...interface{})

	// Error logs a failed operation (e.g., "at: cannot open queue").
	Error(format string, args ...interface{})

	// Close releases resources held by the logger (e.g., a syslog connection).
	// Safe to call multiple times.
	Close() error
}

// StandardLogger wraps a stdlib *log.Logger. It is what the CLI uses when
// run from cron, where stderr ends up in the cron mail.
type StandardLogger struct {
	logger *log.Logger
}

// NewStandardLogger creates a logger that wraps the given *log.Logger.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// NewWriterLogger creates a StandardLogger writing to w with the given
// prefix and the stdlib date/time flags.
func NewWriterLogger(w io.Writer, prefix string) *StandardLogger {
	return NewStandardLogger(log.New(w, prefix, log.LstdFlags))
}

// Info logs an informational message with [INFO] prefix.
func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.logger.Printf("[INFO] "+format, args...)
}

// Warning logs a warning message with [WARNING] prefix.
func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.logger.Printf("[WARNING] "+format, args...)
}

// Error logs an error message with [ERROR] prefix.
func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}

// Close is a no-op for StandardLogger.
func (s *StandardLogger) Close() error {
	return nil
}

// NopLogger discards all messages.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}
func (n *NopLogger) Close() error                               { return nil }

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
)

// MockLogger records all log calls for verification in tests.
type MockLogger struct {
	InfoCalls    []string
	WarningCalls []string
	ErrorCalls   []string
	CloseCalled  bool
}

// NewMockLogger creates a new MockLogger for testing.
func NewMockLogger() *MockLogger {
	return &MockLogger{
		InfoCalls:    make([]string, 0),
		WarningCalls: make([]string, 0),
		ErrorCalls:   make([]string, 0),
	}
}

// Info records the formatted message.
func (m *MockLogger) Info(format string, args ...interface{}) {
	m.InfoCalls = append(m.InfoCalls, fmt.Sprintf(format, args...))
}

// Warning records the formatted message.
func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.WarningCalls = append(m.WarningCalls, fmt.Sprintf(format, args...))
}

// Error records the formatted message.
func (m *MockLogger) Error(format string, args ...interface{}) {
	m.ErrorCalls = append(m.ErrorCalls, fmt.Sprintf(format, args...))
}

// Close records that Close was called.
func (m *MockLogger) Close() error {
	m.CloseCalled = true
	return nil
}

var _ Logger = (*MockLogger)(nil)
