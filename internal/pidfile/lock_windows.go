//go:build windows

package pidfile

import (
	"os"
	"path/filepath"
)

// Lock on Windows degrades to the pid-record existence check: there is no
// flock equivalent that survives handing the handle to a detached child.
// The stale-record self-healing in Store.Live covers crash recovery.
type Lock struct {
	f *os.File
}

func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	return &Lock{f: f}, nil
}

func Held(path string) bool { return false }

func (l *Lock) File() *os.File { return l.f }

func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
