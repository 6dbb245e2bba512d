package logger

// MultiLogger broadcasts log messages to multiple Logger backends, such as
// stderr for cron mail and syslog for the host log.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger that writes to all provided backends in
// order. Nil backends are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	ls := make([]Logger, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			ls = append(ls, l)
		}
	}
	return &MultiLogger{loggers: ls}
}

// Info logs an informational message to all backends.
func (m *MultiLogger) Info(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Info(format, args...)
	}
}

// Warning logs a warning message to all backends.
func (m *MultiLogger) Warning(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Warning(format, args...)
	}
}

// Error logs an error message to all backends.
func (m *MultiLogger) Error(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Error(format, args...)
	}
}

// Close closes all backends and returns the first error encountered.
func (m *MultiLogger) Close() error {
	var firstErr error
	for _, l := range m.loggers {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Logger = (*MultiLogger)(nil)
