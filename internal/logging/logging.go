// Package logging provides the leveled diagnostic sink shared by obfs4shim
// components.
//
// A Logger is constructed once at startup and passed explicitly to every
// component that logs. Lower levels are more verbose: a Logger configured at
// Debug emits everything, one configured at Error emits only errors.
package logging

import (
	"fmt"
	"io"
	"log"
)

// Level is a logging threshold. Messages below the Logger's level are
// dropped.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Logger writes leveled lines through a stdlib *log.Logger.
type Logger struct {
	out   *log.Logger
	level Level
}

// New returns a Logger writing to w that emits messages at level and above.
func New(w io.Writer, level Level) *Logger {
	return &Logger{out: log.New(w, "", log.LstdFlags), level: level}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return &Logger{out: log.New(io.Discard, "", 0), level: Error + 1}
}

// Level reports the configured threshold.
func (l *Logger) Level() Level { return l.level }

// Enabled reports whether messages at level would be emitted.
func (l *Logger) Enabled(level Level) bool { return level >= l.level }

func (l *Logger) logf(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	l.out.Printf("[%s]\t%s", level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(Debug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(Info, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(Warn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(Error, format, args...) }
