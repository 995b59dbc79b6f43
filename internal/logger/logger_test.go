package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarning},
		{"warning", LevelWarning},
		{" error ", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var out, errOut bytes.Buffer
	l := New(&out, &errOut, LevelWarning)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warning("warning %d", 3)
	l.Error("error %d", 4)

	if strings.Contains(out.String(), "debug 1") || strings.Contains(out.String(), "info 2") {
		t.Errorf("messages below warning were logged: %q", out.String())
	}
	if !strings.Contains(out.String(), "WARNING warning 3") {
		t.Errorf("warning not logged: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "ERROR   error 4") {
		t.Errorf("error not logged to error writer: %q", errOut.String())
	}
}

func TestWithComponent(t *testing.T) {
	var out bytes.Buffer
	l := New(&out, &out, LevelDebug).With("fetcher")

	l.Info("batch %s started", "abc")

	if !strings.Contains(out.String(), "(fetcher) batch abc started") {
		t.Errorf("component prefix missing: %q", out.String())
	}
}

func TestPrefixFollowsTimestamp(t *testing.T) {
	var out bytes.Buffer
	l := New(&out, &out, LevelDebug).With("album")

	l.Warning("pin %d busy", 7)

	line := out.String()
	if strings.HasPrefix(line, "WARNING") {
		t.Errorf("level prefix before timestamp: %q", line)
	}
	if !strings.HasSuffix(line, "WARNING (album) pin 7 busy\n") {
		t.Errorf("unexpected line layout: %q", line)
	}
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	l.Info("nothing")
	if l.With("x") != nil {
		t.Error("With on nil logger should return nil")
	}
}
