package logsink

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTailFewerLinesThanAsked(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "bot.log"))
	f, err := s.OpenAppend()
	if err != nil {
		t.Fatalf("OpenAppend: %v", err)
	}
	_, _ = f.WriteString("one\ntwo\nthree\n")
	_ = f.Close()

	lines, err := s.Tail(5)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	want := []string{"one", "two", "three"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %v", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestTailExactWindowAndOrder(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "bot.log"))
	f, _ := s.OpenAppend()
	for _, l := range []string{"a", "b", "c", "d", "e"} {
		_, _ = f.WriteString(l + "\n")
	}
	_ = f.Close()

	lines, err := s.Tail(2)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(lines) != 2 || lines[0] != "d" || lines[1] != "e" {
		t.Fatalf("Tail(2) = %v, want [d e]", lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "bot.log"))
	lines, err := s.Tail(10)
	if err != nil || lines != nil {
		t.Fatalf("missing file: lines=%v err=%v", lines, err)
	}
}

func TestTailRejectsNonPositive(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "bot.log"))
	if _, err := s.Tail(0); err == nil {
		t.Fatalf("Tail(0) accepted")
	}
	if _, err := s.Tail(-3); err == nil {
		t.Fatalf("Tail(-3) accepted")
	}
}

func TestNoteAppendsMarkedLine(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "bot.log"))
	s.Note("started bot (pid %d)", 42)
	lines, err := s.Tail(1)
	if err != nil || len(lines) != 1 {
		t.Fatalf("Tail after Note: %v %v", lines, err)
	}
	if !strings.HasPrefix(lines[0], "[gojoctl] ") || !strings.Contains(lines[0], "(pid 42)") {
		t.Fatalf("unexpected note line: %q", lines[0])
	}
}

func TestFollowStreamsNewLinesOnly(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "bot.log"))
	f, _ := s.OpenAppend()
	_, _ = f.WriteString("old line\n")

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var out strings.Builder
	done := make(chan error, 1)
	go func() {
		done <- s.Follow(ctx, syncWriter{&mu, &out})
	}()

	// Give the follower time to seek to the end before appending.
	time.Sleep(200 * time.Millisecond)
	_, _ = f.WriteString("fresh line\n")
	_ = f.Close()

	deadline := time.Now().Add(3 * time.Second)
	for {
		mu.Lock()
		got := out.String()
		mu.Unlock()
		if strings.Contains(got, "fresh line") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("follow never saw appended line; got %q", got)
		}
		time.Sleep(25 * time.Millisecond)
	}

	mu.Lock()
	got := out.String()
	mu.Unlock()
	if strings.Contains(got, "old line") {
		t.Fatalf("follow replayed pre-existing content: %q", got)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Follow returned %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Follow did not return after cancel")
	}
}

func TestFollowCreatesMissingFile(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "logs", "bot.log"))
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	var mu sync.Mutex
	var out strings.Builder
	err := s.Follow(ctx, syncWriter{&mu, &out})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Follow returned %v", err)
	}
	if _, err := os.Stat(s.Path()); err != nil {
		t.Fatalf("log file not created: %v", err)
	}
}

type syncWriter struct {
	mu *sync.Mutex
	sb *strings.Builder
}

func (w syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sb.Write(p)
}
