//go:build !windows

package gojoctl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEmbeddedLifecycle(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "bot.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nwhile true; do sleep 0.1; done\n"), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DISCORD_TOKEN=x\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("", dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.Python = "/bin/sh"
	cfg.ScriptPath = script
	cfg.SettleDelay = 250 * time.Millisecond
	cfg.StopTimeout = time.Second
	cfg.PollInterval = 50 * time.Millisecond

	sup := New(cfg, nil)
	pid, err := sup.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if pid <= 0 {
		t.Fatalf("bad pid %d", pid)
	}

	st, err := sup.Status()
	if err != nil || st.State != StateRunning {
		t.Fatalf("Status: %+v %v", st, err)
	}

	if err := sup.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := sup.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("second Stop: got %v, want ErrNotRunning", err)
	}

	db, err := OpenHistory(cfg.HistoryDB)
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer func() { _ = db.Close() }()
	events, err := db.Recent(context.Background(), 10)
	if err != nil || len(events) == 0 {
		t.Fatalf("history: %v %v", events, err)
	}
}
