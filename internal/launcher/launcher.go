package launcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/gojo-bot/gojoctl/internal/config"
	"github.com/gojo-bot/gojoctl/internal/logsink"
)

// ErrLaunch marks failures to spawn the bot process at all (missing script,
// missing interpreter). Distinct from a child that spawns and then dies,
// which the supervisor diagnoses at the settle check.
var ErrLaunch = errors.New("launch failure")

// Launcher spawns the bot detached from the invoking session with its output
// appended to the shared log. It never waits for the child to initialize;
// confirming liveness is the supervisor's job.
type Launcher struct {
	cfg  config.Config
	sink *logsink.Sink
}

func New(cfg config.Config, sink *logsink.Sink) *Launcher {
	return &Launcher{cfg: cfg, sink: sink}
}

// Launch starts the bot and returns its PID immediately. lockFile, when
// non-nil, is passed to the child so the kernel keeps the start lock held
// for exactly the child's lifetime.
func (l *Launcher) Launch(lockFile *os.File) (int, error) {
	if _, err := os.Stat(l.cfg.ScriptPath); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrLaunch, l.cfg.ScriptPath, err)
	}

	childEnv, err := l.cfg.ChildEnv()
	if err != nil {
		return 0, err
	}

	out, err := l.sink.OpenAppend()
	if err != nil {
		return 0, fmt.Errorf("%w: open log: %v", ErrLaunch, err)
	}
	// The child holds its own descriptor after Start; ours can go.
	defer func() { _ = out.Close() }()

	// #nosec G204 -- interpreter and script come from the operator's config
	cmd := exec.Command(l.cfg.Python, l.cfg.ScriptPath)
	cmd.Dir = l.cfg.BaseDir
	cmd.Env = childEnv
	cmd.Stdin = nil
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.SysProcAttr = detachAttrs()
	if lockFile != nil {
		cmd.ExtraFiles = []*os.File{lockFile}
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("%w: %s %s: %v", ErrLaunch, l.cfg.Python, l.cfg.ScriptPath, err)
	}
	pid := cmd.Process.Pid

	// Reap in the background so a child that dies before this invocation
	// exits does not linger as a zombie and confuse the settle check.
	go func() { _ = cmd.Wait() }()

	return pid, nil
}
