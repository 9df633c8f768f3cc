package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"deleteafter/internal/config"
)

// TestLevelThreshold verifies messages below the threshold are dropped
func TestLevelThreshold(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelError)

	l.Debug("debug message")
	l.Info("info message", "path", "/tmp/x")
	l.Error("error message", "path", "/tmp/x", "error", "boom")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("Expected only ERROR lines, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] error message path=/tmp/x error=boom") {
		t.Errorf("Expected formatted error line, got %q", out)
	}
}

// TestLevelOff verifies the off level silences everything
func TestLevelOff(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelOff)
	l.Error("nope")
	if buf.Len() != 0 {
		t.Errorf("Expected no output, got %q", buf.String())
	}
	if l.Enabled(LevelError) {
		t.Error("Enabled(ERROR) should be false at OFF")
	}
}

// TestOddArgs verifies a trailing key without value is still printed
func TestOddArgs(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, LevelDebug).Debug("msg", "lonely")
	if !strings.Contains(buf.String(), "[DEBUG] msg lonely") {
		t.Errorf("Unexpected output %q", buf.String())
	}
}

// TestParseLevel verifies config spellings
func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelError, false},
		{" error ", LevelError, false},
		{"off", LevelOff, false},
		{"loud", LevelOff, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, expected %v", tt.in, got, tt.want)
		}
	}
}

// TestNewWithConfigFile verifies lines reach both stderr and the log file
func TestNewWithConfigFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "deleteafter.log")
	var stderr bytes.Buffer

	l, err := NewWithConfig(config.LoggingCfg{Level: "info", File: logPath, RotationDays: 30}, &stderr)
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}
	l.Info("scheduled", "target", "/tmp/upload")
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "[INFO] scheduled target=/tmp/upload") {
		t.Errorf("Log file missing line, got %q", data)
	}
	if !strings.Contains(stderr.String(), "[INFO] scheduled") {
		t.Errorf("Stderr missing line, got %q", stderr.String())
	}
}

// TestNewWithConfigBadLevel verifies a bad level falls back to ERROR with an error
func TestNewWithConfigBadLevel(t *testing.T) {
	var stderr bytes.Buffer
	l, err := NewWithConfig(config.LoggingCfg{Level: "chatty"}, &stderr)
	if err == nil {
		t.Error("Expected error for unknown level")
	}
	if l == nil || l.Level() != LevelError {
		t.Errorf("Expected ERROR fallback logger, got %v", l)
	}
}

// TestRotateLogsIfNeeded verifies stale logs are renamed and very old rotations removed
func TestRotateLogsIfNeeded(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "deleteafter.log")
	now := time.Now()

	if err := os.WriteFile(logPath, []byte("old\n"), 0o644); err != nil {
		t.Fatalf("Failed to write log: %v", err)
	}
	stale := now.AddDate(0, 0, -10)
	if err := os.Chtimes(logPath, stale, stale); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	ancient := filepath.Join(dir, "deleteafter.log.20000101-000000")
	if err := os.WriteFile(ancient, []byte("ancient\n"), 0o644); err != nil {
		t.Fatalf("Failed to write rotated log: %v", err)
	}
	old := now.AddDate(-1, 0, 0)
	if err := os.Chtimes(ancient, old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	rotateLogsIfNeeded(logPath, 7, now)

	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Errorf("Expected %s to be rotated away, err = %v", logPath, err)
	}
	rotated := logPath + "." + stale.Format("20060102-150405")
	if _, err := os.Stat(rotated); err != nil {
		t.Errorf("Expected rotated file %s: %v", rotated, err)
	}
	if _, err := os.Stat(ancient); !os.IsNotExist(err) {
		t.Errorf("Expected ancient rotation to be removed, err = %v", err)
	}
}

// TestRotateFreshLogUntouched verifies a recent log is left alone
func TestRotateFreshLogUntouched(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "deleteafter.log")
	if err := os.WriteFile(logPath, []byte("fresh\n"), 0o644); err != nil {
		t.Fatalf("Failed to write log: %v", err)
	}

	rotateLogsIfNeeded(logPath, 7, time.Now())

	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("Fresh log should stay in place: %v", err)
	}
}
