package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level orders log severities
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// ParseLevel maps a config value to a Level; unknown values mean info
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarning
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger provides leveled logging. A nil *Logger discards everything.
type Logger struct {
	level      Level
	debugLog   *log.Logger
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	mu         sync.Mutex
}

// New writes debug/info/warning to out and errors to errOut
func New(out, errOut io.Writer, level Level) *Logger {
	flags := log.Ldate | log.Ltime | log.Lmsgprefix
	return &Logger{
		level:      level,
		debugLog:   log.New(out, "DEBUG   ", flags),
		infoLog:    log.New(out, "INFO    ", flags),
		warningLog: log.New(out, "WARNING ", flags),
		errorLog:   log.New(errOut, "ERROR   ", flags),
	}
}

// NewStderr logs everything to stderr so stdout stays free for command output
func NewStderr(level Level) *Logger {
	return New(os.Stderr, os.Stderr, level)
}

// With returns a logger whose lines start with the given component name
func (l *Logger) With(component string) *Logger {
	if l == nil {
		return nil
	}
	prefix := "(" + component + ") "
	return &Logger{
		level:      l.level,
		debugLog:   log.New(l.debugLog.Writer(), l.debugLog.Prefix()+prefix, l.debugLog.Flags()),
		infoLog:    log.New(l.infoLog.Writer(), l.infoLog.Prefix()+prefix, l.infoLog.Flags()),
		warningLog: log.New(l.warningLog.Writer(), l.warningLog.Prefix()+prefix, l.warningLog.Flags()),
		errorLog:   log.New(l.errorLog.Writer(), l.errorLog.Prefix()+prefix, l.errorLog.Flags()),
	}
}

func (l *Logger) Debug(format string, v ...any) {
	l.output(LevelDebug, format, v...)
}

func (l *Logger) Info(format string, v ...any) {
	l.output(LevelInfo, format, v...)
}

func (l *Logger) Warning(format string, v ...any) {
	l.output(LevelWarning, format, v...)
}

func (l *Logger) Error(format string, v ...any) {
	l.output(LevelError, format, v...)
}

func (l *Logger) output(level Level, format string, v ...any) {
	if l == nil || level < l.level {
		return
	}

	var target *log.Logger
	switch level {
	case LevelDebug:
		target = l.debugLog
	case LevelInfo:
		target = l.infoLog
	case LevelWarning:
		target = l.warningLog
	default:
		target = l.errorLog
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	target.Output(3, fmt.Sprintf(format, v...))
}
