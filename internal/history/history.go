package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one recorded lifecycle operation.
type Event struct {
	ID     int64
	Op     string // start, stop, restart
	PID    int
	OK     bool
	Detail string
	At     time.Time
}

// DB is the embedded event log (modernc.org/sqlite, CGO-free). History is
// best-effort bookkeeping: callers must not fail a lifecycle operation
// because a history write failed.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and ensures the
// schema. Use ":memory:" for tests.
func Open(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty history db path")
	}
	if p != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			return nil, err
		}
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks across invocations
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	h := &DB{db: d}
	if err := h.ensureSchema(context.Background()); err != nil {
		_ = d.Close()
		return nil, err
	}
	return h, nil
}

func (h *DB) ensureSchema(ctx context.Context) error {
	_, err := h.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS lifecycle_events(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			op TEXT NOT NULL,
			pid INTEGER NOT NULL,
			ok BOOLEAN NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			at TIMESTAMP NOT NULL
		);`)
	return err
}

func (h *DB) Close() error { return h.db.Close() }

// Record appends one event.
func (h *DB) Record(ctx context.Context, op string, pid int, ok bool, detail string) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO lifecycle_events(op, pid, ok, detail, at)
		VALUES(?, ?, ?, ?, ?);`,
		op, pid, ok, detail, time.Now().UTC())
	return err
}

// Recent returns the latest events, newest first.
func (h *DB) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, op, pid, ok, detail, at
		FROM lifecycle_events
		ORDER BY id DESC
		LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Op, &e.PID, &e.OK, &e.Detail, &e.At); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
