package gojoctl

import (
	"log/slog"

	"github.com/gojo-bot/gojoctl/internal/config"
	"github.com/gojo-bot/gojoctl/internal/history"
	"github.com/gojo-bot/gojoctl/internal/logger"
	"github.com/gojo-bot/gojoctl/internal/supervisor"
)

// Re-export core types for external consumers. These are aliases so
// conversions are zero-cost.

type Config = config.Config

type Status = supervisor.Status

type State = supervisor.State

type StartFailedError = supervisor.StartFailedError

type Event = history.Event

const (
	StateStopped  = supervisor.StateStopped
	StateStarting = supervisor.StateStarting
	StateRunning  = supervisor.StateRunning
	StateStopping = supervisor.StateStopping
)

var (
	ErrConfig         = config.ErrConfig
	ErrAlreadyRunning = supervisor.ErrAlreadyRunning
	ErrNotRunning     = supervisor.ErrNotRunning
)

// Supervisor is a thin facade over internal/supervisor for embedding the
// bot lifecycle in another program.
type Supervisor = supervisor.Supervisor

// New builds a supervisor for cfg. A nil log falls back to the default
// stderr logger.
func New(cfg Config, log *slog.Logger) *Supervisor {
	if log == nil {
		log = logger.New(logger.Config{})
	}
	return supervisor.New(cfg, log)
}

// LoadConfig resolves the configuration the same way the CLI does: defaults
// rooted at baseDir, an optional TOML file, GOJOCTL_* env overrides.
func LoadConfig(path, baseDir string) (Config, error) {
	return config.Load(path, baseDir)
}

// OpenHistory opens the lifecycle event log recorded by the supervisor.
func OpenHistory(path string) (*history.DB, error) {
	return history.Open(path)
}
