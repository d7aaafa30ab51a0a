package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelSuccess
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelTrace:   "TRACE",
	LevelDebug:   "DEBUG",
	LevelInfo:    "INFO",
	LevelSuccess: "SUCCESS",
	LevelWarn:    "WARN",
	LevelError:   "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

type Logger struct {
	Debug bool

	mu    sync.Mutex
	out   io.Writer
	level Level
	now   func() time.Time
}

func NewLogger(debug bool) *Logger {
	return NewLoggerTo(os.Stderr, debug, 0)
}

// NewLoggerTo builds a Logger writing to w. Every extra verbosity step
// lowers the threshold by one level below INFO.
func NewLoggerTo(w io.Writer, debug bool, verbosity int) *Logger {
	lvl := LevelInfo - Level(verbosity)
	if debug && lvl > LevelDebug {
		lvl = LevelDebug
	}
	if lvl < LevelTrace {
		lvl = LevelTrace
	}

	return &Logger{
		Debug: lvl <= LevelDebug,
		out:   w,
		level: lvl,
		now:   time.Now,
	}
}

// SetOutput redirects the logger and returns the previous writer.
func (l *Logger) SetOutput(w io.Writer) io.Writer {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.out
	l.out = w
	return prev
}

func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) Enabled(lvl Level) bool {
	return lvl >= l.level
}

func (l *Logger) logf(lvl Level, format string, args ...any) {
	if !l.Enabled(lvl) {
		return
	}

	msg := fmt.Sprintf(format, args...)
	msg = strings.TrimRight(msg, "\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintf(l.out, "[%s][%s] %s\n", l.now().UTC().Format("15:04:05"), lvl, msg)
}

func (l *Logger) Tracef(format string, args ...any) {
	l.logf(LevelTrace, format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.logf(LevelDebug, format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.logf(LevelInfo, format, args...)
}

func (l *Logger) Successf(format string, args ...any) {
	l.logf(LevelSuccess, format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logf(LevelWarn, format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logf(LevelError, format, args...)
}
