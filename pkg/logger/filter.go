package logger

// ErrorOnlyLogger forwards errors and drops informational and warning
// messages. The trigger wraps stderr with it so that cron only mails on
// failure.
type ErrorOnlyLogger struct {
	next Logger
}

// NewErrorOnlyLogger wraps next.
func NewErrorOnlyLogger(next Logger) *ErrorOnlyLogger {
	return &ErrorOnlyLogger{next: next}
}

// Info is dropped.
func (e *ErrorOnlyLogger) Info(format string, args ...interface{}) {}

// Warning is dropped.
func (e *ErrorOnlyLogger) Warning(format string, args ...interface{}) {}

// Error forwards the message.
func (e *ErrorOnlyLogger) Error(format string, args ...interface{}) {
	e.next.Error(format, args...)
}

// Close closes the wrapped logger.
func (e *ErrorOnlyLogger) Close() error {
	return e.next.Close()
}

var _ Logger = (*ErrorOnlyLogger)(nil)
