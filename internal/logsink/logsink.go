package logsink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Sink is the bot's append-only log file. The supervisor only ever appends;
// the file is never truncated or rotated here.
type Sink struct {
	path string
}

func New(path string) *Sink { return &Sink{path: path} }

func (s *Sink) Path() string { return s.path }

// EnsureDir creates the log directory when absent. Idempotent.
func (s *Sink) EnsureDir() error {
	return os.MkdirAll(filepath.Dir(s.path), 0o750)
}

// OpenAppend returns a writer positioned at the end of the log, creating the
// directory and file when needed. The caller owns the close.
func (s *Sink) OpenAppend() (*os.File, error) {
	if err := s.EnsureDir(); err != nil {
		return nil, err
	}
	return os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
}

// Note appends a supervisor status line, timestamped and marked so it can be
// told apart from the bot's own output in the shared file.
func (s *Sink) Note(format string, args ...any) {
	f, err := s.OpenAppend()
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()
	line := fmt.Sprintf("[gojoctl] %s %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		fmt.Sprintf(format, args...))
	_, _ = f.WriteString(line)
}

// Tail returns at most the last n complete lines, oldest first. A file with
// fewer lines yields all of them; a missing file yields none. n must be
// positive (the dispatcher rejects anything else before calling).
func (s *Sink) Tail(n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("tail: n must be positive, got %d", n)
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	content := strings.TrimRight(string(b), "\n")
	if content == "" {
		return nil, nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// Follow streams lines appended after the call, writing them to w until ctx
// is cancelled. Appends are picked up via fsnotify with a polling fallback
// for filesystems that do not emit events. Only complete lines are emitted;
// a trailing fragment waits for its newline.
func (s *Sink) Follow(ctx context.Context, w io.Writer) error {
	if err := s.EnsureDir(); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDONLY, 0o640)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(s.path); err != nil {
		return err
	}

	var pending []byte
	buf := make([]byte, 32*1024)
	drain := func() error {
		for {
			n, err := f.Read(buf)
			if n > 0 {
				pending = append(pending, buf[:n]...)
				for {
					i := bytes.IndexByte(pending, '\n')
					if i < 0 {
						break
					}
					if _, werr := w.Write(pending[:i+1]); werr != nil {
						return werr
					}
					pending = pending[i+1:]
				}
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}

	// Fallback ticker: some filesystems never emit events for appends.
	poll := time.NewTicker(500 * time.Millisecond)
	defer poll.Stop()

	for {
		if err := drain(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// keep going; the poll ticker covers missed events
		case <-poll.C:
		}
	}
}
