package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, false, 0)
	logger.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	logger.Debugf("hidden %d", 1)
	logger.Infof("info %d", 2)
	logger.Warnf("warn %s", "three")
	logger.Errorf("error %s\n", "four")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered, got %q", out)
	}
	for _, token := range []string{
		"[03:04:05][INFO] info 2\n",
		"[03:04:05][WARN] warn three\n",
		"[03:04:05][ERROR] error four\n",
	} {
		if !strings.Contains(out, token) {
			t.Fatalf("expected output to contain %q, got %q", token, out)
		}
	}
}

func TestLoggerVerbosity(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		verbosity int
		want      Level
	}{
		{"default", false, 0, LevelInfo},
		{"debug flag", true, 0, LevelDebug},
		{"one v", false, 1, LevelDebug},
		{"two v", false, 2, LevelTrace},
		{"clamped", false, 9, LevelTrace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoggerTo(&bytes.Buffer{}, tt.debug, tt.verbosity)
			if l.Level() != tt.want {
				t.Fatalf("Level() = %s, want %s", l.Level(), tt.want)
			}
			if l.Debug != (tt.want <= LevelDebug) {
				t.Fatalf("Debug = %t for level %s", l.Debug, tt.want)
			}
		})
	}
}

func TestLoggerSetOutput(t *testing.T) {
	var first, second bytes.Buffer
	logger := NewLoggerTo(&first, false, 0)

	logger.Infof("one")
	prev := logger.SetOutput(&second)
	logger.Infof("two")
	logger.SetOutput(prev)
	logger.Infof("three")

	if got := first.String(); !strings.Contains(got, "one") || strings.Contains(got, "two") || !strings.Contains(got, "three") {
		t.Fatalf("first writer = %q", got)
	}
	if got := second.String(); !strings.Contains(got, "two") || strings.Contains(got, "one") {
		t.Fatalf("second writer = %q", got)
	}
}
