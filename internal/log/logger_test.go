package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, InfoLevel)

	l.Debug("dropped")
	l.Info("kept")
	out := buf.String()

	if strings.Contains(out, "dropped") {
		t.Error("Debug message should be dropped at InfoLevel")
	}
	if !strings.Contains(out, "INFO: kept") {
		t.Errorf("Info message missing from output: %q", out)
	}

	l.SetLevel(DebugLevel)
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "DEBUG: now visible") {
		t.Error("Debug message should pass after SetLevel(DebugLevel)")
	}
}

func TestLoggerKeyValueArgs(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, DebugLevel)

	l.Warn("cache miss", "path", "/tmp/cache.bin", "entries", 3)
	out := buf.String()

	if !strings.Contains(out, "cache miss path=/tmp/cache.bin entries=3") {
		t.Errorf("key=value pairs not rendered: %q", out)
	}
	if !strings.Contains(out, "WARN") {
		t.Errorf("level label missing: %q", out)
	}
}

func TestLoggerOddArgs(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, DebugLevel)

	l.Error("failed", "detail")
	if !strings.Contains(buf.String(), "failed detail") {
		t.Errorf("leading odd argument should append as-is: %q", buf.String())
	}
}

func TestLoggerNoColorsForBuffer(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, InfoLevel)

	l.Info("plain")
	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("non-terminal writer should not get ANSI codes: %q", buf.String())
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestProgressSpinnerStartStop(t *testing.T) {
	p := NewProgressSpinner("working...")
	p.Start()
	p.Start() // second Start must not spawn another animation
	p.Message("still working...")
	p.Stop()
	p.Stop() // Stop is idempotent
}
