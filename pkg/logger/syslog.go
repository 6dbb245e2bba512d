//go:build !windows && !plan9

package logger

import (
	"fmt"
	"log/syslog"
	"sync"
)

// syslogWriter is the subset of *syslog.Writer used by SyslogLogger.
type syslogWriter interface {
	Info(m string) error
	Warning(m string) error
	Err(m string) error
	Close() error
}

// SyslogLogger writes to the local syslog daemon under the cron facility,
// next to the entries of the cron and atd daemons themselves.
type SyslogLogger struct {
	mu     sync.Mutex
	w      syslogWriter
	closed bool
}

// NewSyslogLogger connects to the local syslog daemon with the given tag.
func NewSyslogLogger(tag string) (*SyslogLogger, error) {
	w, err := syslog.New(syslog.LOG_CRON|syslog.LOG_INFO, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to open syslog: %w", err)
	}
	return &SyslogLogger{w: w}, nil
}

func (s *SyslogLogger) write(fn func(string) error, format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	_ = fn(fmt.Sprintf(format, args...))
}

// Info logs at LOG_INFO.
func (s *SyslogLogger) Info(format string, args ...interface{}) {
	s.write(s.w.Info, format, args...)
}

// Warning logs at LOG_WARNING.
func (s *SyslogLogger) Warning(format string, args ...interface{}) {
	s.write(s.w.Warning, format, args...)
}

// Error logs at LOG_ERR.
func (s *SyslogLogger) Error(format string, args ...interface{}) {
	s.write(s.w.Err, format, args...)
}

// Close closes the syslog connection. Later calls are no-ops.
func (s *SyslogLogger) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.w.Close()
}

var _ Logger = (*SyslogLogger)(nil)
