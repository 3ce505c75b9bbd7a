package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseLevel("chatty"); err == nil {
		t.Fatal("ParseLevel(chatty) expected error")
	}
}

func TestInit_WritesFileAndLatestSymlink(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	res, err := Init(Options{
		Level:   slog.LevelInfo,
		Dir:     dir,
		Console: &console,
		Now:     func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	res.Logger.Info("hello", slog.Int("windows", 3))
	res.Logger.Debug("hidden")
	if err := res.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	wantPath := filepath.Join(dir, "floatwm_20260102T030405.log")
	if res.Path != wantPath {
		t.Fatalf("Path = %q, want %q", res.Path, wantPath)
	}
	target, err := os.Readlink(filepath.Join(dir, "latest.log"))
	if err != nil {
		t.Fatalf("Readlink(latest.log) error: %v", err)
	}
	if target != filepath.Base(wantPath) {
		t.Fatalf("latest.log -> %q, want %q", target, filepath.Base(wantPath))
	}

	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("log file has %d lines, want 1: %q", len(lines), data)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["msg"] != "hello" || rec["windows"] != float64(3) {
		t.Fatalf("record = %v", rec)
	}
	if !strings.Contains(console.String(), "hello") {
		t.Fatalf("console output missing message: %q", console.String())
	}
	if strings.Contains(console.String(), "hidden") {
		t.Fatalf("console output contains debug record: %q", console.String())
	}
}

func TestRecover_Repanics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	defer func() {
		if r := recover(); r != "boom" {
			t.Fatalf("recover() = %v, want boom", r)
		}
		if !strings.Contains(buf.String(), "boom") {
			t.Fatalf("panic was not logged: %q", buf.String())
		}
	}()

	func() {
		defer Recover(logger)
		panic("boom")
	}()
}
