package pidfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Meta is the second line of the record file: enough identity to tell our
// process apart from an unrelated one that recycled the PID.
type Meta struct {
	StartUnix int64  `json:"start_unix"`
	Command   string `json:"command,omitempty"`
}

// Record is the persisted process identity. Its presence asserts only that a
// process was launched under this PID; liveness must be re-verified against
// the OS every time.
type Record struct {
	PID  int
	Meta Meta
}

// Liveness is the slice of the probe the store needs for staleness checks.
type Liveness interface {
	AliveSince(pid int, startUnix int64) bool
}

// Store persists the record at a fixed path. The on-disk format is the
// decimal PID on the first line and the JSON meta on the second, so the file
// stays readable with cat while carrying the PID-reuse token.
type Store struct {
	path string
}

func NewStore(path string) *Store { return &Store{path: path} }

func (s *Store) Path() string { return s.path }

// Load reads the record. The second return is false when no record exists.
// A file that cannot be parsed is reported as an error, not silently absent.
func (s *Store) Load() (Record, bool, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	pidLine, rest, _ := strings.Cut(string(b), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(pidLine))
	if err != nil {
		return Record{}, false, fmt.Errorf("invalid pid record %s: %w", s.path, err)
	}
	rec := Record{PID: pid}
	rest = strings.TrimSpace(rest)
	if rest != "" {
		// Meta is best-effort: a record with a bare PID is still usable.
		_ = json.Unmarshal([]byte(rest), &rec.Meta)
	}
	return rec, true, nil
}

// Save writes the record atomically: temp file in the same directory, then
// rename, so a concurrent status invocation never reads a partial write.
func (s *Store) Save(rec Record) error {
	if rec.PID <= 0 {
		return fmt.Errorf("refusing to save non-positive pid %d", rec.PID)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	meta, err := json.Marshal(rec.Meta)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	content := strconv.Itoa(rec.PID) + "\n" + string(meta) + "\n"
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Clear removes the record. A missing file is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Live resolves the record against the OS via the probe. When the record
// points to a dead (or recycled) PID the store self-heals by clearing it
// before answering "not running".
func (s *Store) Live(p Liveness) (Record, bool, error) {
	rec, ok, err := s.Load()
	if err != nil || !ok {
		return Record{}, false, err
	}
	if p.AliveSince(rec.PID, rec.Meta.StartUnix) {
		return rec, true, nil
	}
	if err := s.Clear(); err != nil {
		return Record{}, false, err
	}
	return Record{}, false, nil
}

// ErrLocked is returned by Acquire when another invocation (or the running
// child itself) holds the start lock.
var ErrLocked = errors.New("already locked")
