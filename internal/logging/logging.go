// Package logging provides the leveled, stderr-based logging used across
// the pipeline. There is no structured logging dependency here: warnings
// about skipped files, cache misses, and degraded writes are expected
// operational noise, not events that need to be shipped anywhere.
package logging

import (
	"fmt"
	"log"
	"os"
)

// Logger wraps the standard logger with a debug gate. Raw provider
// response bodies and other detail that could leak secrets are only
// emitted when Debug is enabled.
type Logger struct {
	Debug  bool
	prefix string
}

// New returns a Logger that prefixes every line with the given component name.
func New(prefix string) *Logger {
	return &Logger{prefix: prefix}
}

// Warnf logs a warning. Always emitted.
func (l *Logger) Warnf(format string, args ...any) {
	log.Printf("WARN  [%s] %s", l.prefix, fmt.Sprintf(format, args...))
}

// Errorf logs an error. Always emitted.
func (l *Logger) Errorf(format string, args ...any) {
	log.Printf("ERROR [%s] %s", l.prefix, fmt.Sprintf(format, args...))
}

// Debugf logs a debug line, including detail such as raw response bodies
// that must not surface unless the caller explicitly opted into it.
func (l *Logger) Debugf(format string, args ...any) {
	if !l.Debug {
		return
	}
	log.Printf("DEBUG [%s] %s", l.prefix, fmt.Sprintf(format, args...))
}

// Infof logs an informational line to stderr, outside the log package's
// timestamp prefix, matching the CLI's plain progress output style.
func (l *Logger) Infof(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", l.prefix, fmt.Sprintf(format, args...))
}
