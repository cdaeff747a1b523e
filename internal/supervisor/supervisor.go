package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gojo-bot/gojoctl/internal/config"
	"github.com/gojo-bot/gojoctl/internal/history"
	"github.com/gojo-bot/gojoctl/internal/launcher"
	"github.com/gojo-bot/gojoctl/internal/logsink"
	"github.com/gojo-bot/gojoctl/internal/pidfile"
	"github.com/gojo-bot/gojoctl/internal/probe"
)

// State is where the supervised bot sits in its lifecycle. STARTING and
// STOPPING exist only within one invocation; persisted state only ever
// records STOPPED (no record) or RUNNING (record + live process).
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

var (
	ErrAlreadyRunning = errors.New("bot is already running")
	ErrNotRunning     = errors.New("bot is not running")
)

// StartFailedError reports a child that spawned but was gone at the settle
// check. Tail carries the last log lines as the diagnostic.
type StartFailedError struct {
	PID  int
	Tail []string
}

func (e *StartFailedError) Error() string {
	return fmt.Sprintf("bot (pid %d) exited during startup", e.PID)
}

// Status is the answer to a status query.
type Status struct {
	State         State
	PID           int
	StartedAt     time.Time
	Uptime        time.Duration
	ResidentBytes uint64
}

// Supervisor orchestrates the pid record, the launcher, the liveness probe
// and the log sink into the start/stop/restart/status operations. Each CLI
// invocation builds one Supervisor, runs one operation and exits; the only
// cross-invocation state is the record file, the lock and the log.
type Supervisor struct {
	cfg    config.Config
	store  *pidfile.Store
	sink   *logsink.Sink
	probe  probe.Probe
	launch *launcher.Launcher
	log    *slog.Logger
}

func New(cfg config.Config, log *slog.Logger) *Supervisor {
	sink := logsink.New(cfg.LogFile)
	return &Supervisor{
		cfg:    cfg,
		store:  pidfile.NewStore(cfg.PIDFile),
		sink:   sink,
		probe:  probe.New(),
		launch: launcher.New(cfg, sink),
		log:    log,
	}
}

// Sink exposes the bot log for the logs command.
func (s *Supervisor) Sink() *logsink.Sink { return s.sink }

// Start launches the bot and confirms it survived the settle delay. The pid
// record is written only after that confirmation; a child that dies earlier
// leaves no record, only a diagnostic tail in the returned error.
func (s *Supervisor) Start() (int, error) {
	if err := s.cfg.CheckSecret(); err != nil {
		s.record("start", 0, false, err.Error())
		return 0, err
	}

	if rec, live, err := s.store.Live(s.probe); err != nil {
		return 0, err
	} else if live {
		return 0, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, rec.PID)
	}

	// The flock is the authoritative single-instance guard: a concurrent
	// start that passed the record check above still loses here. The child
	// inherits the descriptor, so the lock outlives this invocation.
	lock, err := pidfile.Acquire(s.cfg.LockFile)
	if err != nil {
		if errors.Is(err, pidfile.ErrLocked) {
			return 0, ErrAlreadyRunning
		}
		return 0, err
	}
	defer func() { _ = lock.Release() }()

	s.log.Info("starting bot", "script", s.cfg.ScriptPath)
	s.sink.Note("starting bot")

	pid, err := s.launch.Launch(lock.File())
	if err != nil {
		s.record("start", 0, false, err.Error())
		return 0, err
	}

	// Settle delay: a bot that crashes on boot (bad token, import error)
	// usually does so within the first seconds.
	time.Sleep(s.cfg.SettleDelay)

	if !s.probe.Alive(pid) {
		tail, _ := s.sink.Tail(s.cfg.TailLines)
		s.sink.Note("bot (pid %d) exited during startup", pid)
		s.record("start", pid, false, "exited during startup")
		return 0, &StartFailedError{PID: pid, Tail: tail}
	}

	rec := pidfile.Record{
		PID: pid,
		Meta: pidfile.Meta{
			StartUnix: probe.StartUnix(pid),
			Command:   s.cfg.Python + " " + s.cfg.ScriptPath,
		},
	}
	if err := s.store.Save(rec); err != nil {
		return pid, fmt.Errorf("bot started (pid %d) but pid record failed: %w", pid, err)
	}

	s.log.Info("bot running", "pid", pid)
	s.sink.Note("started bot (pid %d)", pid)
	s.record("start", pid, true, "")
	return pid, nil
}

// Stop terminates the bot: SIGTERM, a bounded wait, then SIGKILL. The record
// is cleared only after the exit is actually observed. Stopping an already
// stopped bot returns ErrNotRunning, which callers treat as a warning.
func (s *Supervisor) Stop() error {
	rec, live, err := s.store.Live(s.probe)
	if err != nil {
		return err
	}
	if !live {
		return ErrNotRunning
	}

	s.log.Info("stopping bot", "pid", rec.PID, "timeout", s.cfg.StopTimeout)
	s.sink.Note("stopping bot (pid %d)", rec.PID)

	if err := terminate(rec.PID); err != nil && s.probe.Alive(rec.PID) {
		return fmt.Errorf("signal pid %d: %w", rec.PID, err)
	}

	graceful := s.waitGone(rec, s.cfg.StopTimeout)
	if !graceful {
		// Escalation is the one built-in retry: the deadline passed with
		// the bot still up, so it is ended unconditionally.
		s.log.Warn("bot ignored termination request, killing", "pid", rec.PID)
		s.sink.Note("bot (pid %d) did not stop within %s, killing", rec.PID, s.cfg.StopTimeout)
		if err := kill(rec.PID); err != nil && s.probe.Alive(rec.PID) {
			return fmt.Errorf("kill pid %d: %w", rec.PID, err)
		}
		if !s.waitGone(rec, s.cfg.KillWait) {
			return fmt.Errorf("bot (pid %d) still alive after kill", rec.PID)
		}
	}

	if err := s.store.Clear(); err != nil {
		return err
	}
	detail := "graceful"
	if !graceful {
		detail = "killed after timeout"
	}
	s.log.Info("bot stopped", "pid", rec.PID, "how", detail)
	s.sink.Note("bot stopped (%s)", detail)
	s.record("stop", rec.PID, true, detail)
	return nil
}

// Restart is stop, a settle pause, then start. A bot that was not running is
// not an error; restart proceeds to the start unconditionally.
func (s *Supervisor) Restart() (int, error) {
	if err := s.Stop(); err != nil {
		if !errors.Is(err, ErrNotRunning) {
			return 0, err
		}
		s.log.Warn("bot was not running, starting fresh")
	}
	time.Sleep(s.cfg.SettleDelay)
	pid, err := s.Start()
	if err == nil {
		s.record("restart", pid, true, "")
	}
	return pid, err
}

// Status resolves the record against the process table. A stale record is
// cleared on the way (the store self-heals), so a crash leaves no trace
// beyond the log.
func (s *Supervisor) Status() (Status, error) {
	rec, live, err := s.store.Live(s.probe)
	if err != nil {
		return Status{}, err
	}
	if !live {
		return Status{State: StateStopped}, nil
	}
	m := s.probe.Metrics(rec.PID)
	return Status{
		State:         StateRunning,
		PID:           rec.PID,
		StartedAt:     m.StartedAt,
		Uptime:        m.Uptime,
		ResidentBytes: m.ResidentBytes,
	}, nil
}

// waitGone polls until the recorded process is no longer observable or the
// deadline passes.
func (s *Supervisor) waitGone(rec pidfile.Record, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !s.probe.AliveSince(rec.PID, rec.Meta.StartUnix) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(s.cfg.PollInterval)
	}
}

// record appends to the lifecycle history. Best-effort: the history file
// being unwritable must never fail a start or stop.
func (s *Supervisor) record(op string, pid int, ok bool, detail string) {
	db, err := history.Open(s.cfg.HistoryDB)
	if err != nil {
		s.log.Debug("history unavailable", "error", err)
		return
	}
	defer func() { _ = db.Close() }()
	if err := db.Record(context.Background(), op, pid, ok, detail); err != nil {
		s.log.Debug("history write failed", "error", err)
	}
}

// FormatTail renders a diagnostic tail for terminal output.
func FormatTail(tail []string) string {
	if len(tail) == 0 {
		return "  (log is empty)"
	}
	var b strings.Builder
	for _, l := range tail {
		b.WriteString("  | ")
		b.WriteString(l)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
