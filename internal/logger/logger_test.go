package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDefaultLogsInfo(t *testing.T) {
	log := New(Config{})
	if log == nil {
		t.Fatal("nil logger")
	}
	if !log.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info disabled by default")
	}
	if log.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug enabled by default")
	}
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	log := New(Config{Level: slog.LevelDebug})
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug not enabled")
	}
}

func TestNewWithFileWritesRotatedCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gojoctl.log")
	log := New(Config{File: path})
	log.Info("hello from test", "k", "v")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(b), "hello from test") {
		t.Fatalf("message missing from file: %q", string(b))
	}
}

func TestColorHandlerPrefixesLevel(t *testing.T) {
	var sb strings.Builder
	log := slog.New(NewColorTextHandler(&sb, nil))
	log.Warn("careful")
	out := sb.String()
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "careful") {
		t.Fatalf("unexpected handler output: %q", out)
	}
	if !strings.Contains(out, "\033[33m") {
		t.Fatalf("warn color code missing: %q", out)
	}
}
