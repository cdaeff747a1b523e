package logger

import (
	"io"
	"log/slog"
	"os"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the supervisor's own diagnostic log. The supervised
// bot's log file is a plain append-only stream and is never rotated; these
// apply only to gojoctl's structured log.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Config describes where gojoctl writes its own structured log.
type Config struct {
	// File is an optional path for a rotated copy of the log. Empty means
	// stderr only.
	File       string
	Level      slog.Level
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	NoColor    bool
}

// New builds the supervisor's slog.Logger. Output always goes to stderr in
// colored text form; when cfg.File is set a lumberjack-rotated copy is
// written there as well.
func New(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var w io.Writer = os.Stderr
	if cfg.File != "" {
		w = io.MultiWriter(os.Stderr, &lj.Logger{
			Filename:   cfg.File,
			MaxSize:    valOr(cfg.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(cfg.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(cfg.MaxAgeDays, DefaultMaxAgeDays),
		})
	}
	if cfg.NoColor || cfg.File != "" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(NewColorTextHandler(w, opts))
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
