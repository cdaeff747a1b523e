//go:build !windows

package pidfile

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Lock is an exclusive flock on the lock file. The file descriptor is
// inherited by the launched child, so the kernel holds the lock exactly as
// long as the bot is alive and drops it on any exit path, crash included.
// The pid record stays the human-readable diagnostic; the lock is the
// authoritative single-instance guard.
type Lock struct {
	f *os.File
}

// Acquire opens path and takes a non-blocking exclusive lock.
// Returns ErrLocked when the lock is held elsewhere.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}
	return &Lock{f: f}, nil
}

// Held reports whether the lock at path is currently held by some process,
// without acquiring it.
func Held(path string) bool {
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return err == unix.EWOULDBLOCK
	}
	_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return false
}

// File exposes the descriptor so the launcher can pass it to the child.
func (l *Lock) File() *os.File { return l.f }

// Release closes the descriptor in this process. flock lives on the open
// file description: when a child inherited the descriptor the lock stays
// held through the child's copy, and when no child did, the close drops it.
// An explicit LOCK_UN here would strip the lock from the child as well.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
