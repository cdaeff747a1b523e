package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gojo-bot/gojoctl/internal/config"
	"github.com/gojo-bot/gojoctl/internal/logger"
	"github.com/gojo-bot/gojoctl/internal/supervisor"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errHelpShown) {
			_, _ = fmt.Fprintln(os.Stderr, "gojoctl:", err)
		}
		os.Exit(1)
	}
}

// errHelpShown marks the bare invocation: help was already printed, the
// non-zero exit is the only thing left to do.
var errHelpShown = errors.New("no command given")

// GlobalFlags holds the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
	BaseDir    string
	Verbose    bool
	SelfLog    string
}

func buildRoot() *cobra.Command {
	flags := &GlobalFlags{}
	gojoCommand := command{flags: flags}

	root := &cobra.Command{
		Use:   "gojoctl",
		Short: "Supervisor for the Gojo Discord bot",
		Long: `gojoctl starts, stops and watches a single instance of the Gojo
Discord bot. The bot runs detached from your terminal with its output
appended to the bot log; gojoctl tracks it through a pid record and an
exclusive lock so at most one instance is ever live.

Examples:
  gojoctl start              # launch the bot in the background
  gojoctl status             # state, pid, memory and uptime
  gojoctl logs 50            # last 50 log lines
  gojoctl logs               # follow the log live (Ctrl-C to quit)
  gojoctl stop               # graceful stop, killed after the timeout`,
		// A bare invocation prints help and exits non-zero: doing nothing
		// is not a successful operation.
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errHelpShown
		},
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (default <dir>/gojoctl.toml when present)")
	root.PersistentFlags().StringVar(&flags.BaseDir, "dir", ".", "bot directory holding bot.py, .env and logs/")
	root.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&flags.SelfLog, "self-log", "", "also write gojoctl's own log to this rotated file")

	root.AddCommand(
		createStartCommand(gojoCommand),
		createStopCommand(gojoCommand),
		createRestartCommand(gojoCommand),
		createStatusCommand(gojoCommand),
		createLogsCommand(gojoCommand),
		createHistoryCommand(gojoCommand),
	)

	return root
}

// setup builds the per-invocation pieces every operation needs.
func setup(flags *GlobalFlags) (*supervisor.Supervisor, config.Config, error) {
	cfg, err := config.Load(flags.ConfigPath, flags.BaseDir)
	if err != nil {
		return nil, config.Config{}, err
	}
	level := slog.LevelInfo
	if flags.Verbose {
		level = slog.LevelDebug
	}
	log := logger.New(logger.Config{Level: level, File: flags.SelfLog})
	return supervisor.New(cfg, log), cfg, nil
}

func createStartCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Launch the bot in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Start(cmd)
		},
		SilenceUsage: true,
	}
}

func createStopCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the bot (graceful, then forced after the timeout)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Stop(cmd)
		},
		SilenceUsage: true,
	}
}

func createRestartCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Stop the bot if running, then start it again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Restart(cmd)
		},
		SilenceUsage: true,
	}
}

func createStatusCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the bot is running, with pid, memory and uptime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Status(cmd)
		},
		SilenceUsage: true,
	}
}

func createLogsCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "logs [N]",
		Short: "Print the last N log lines, or follow the log live",
		Long: `With a positive integer N, prints the last N lines of the bot log.
Without an argument, follows the log and streams new lines until
interrupted (Ctrl-C).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Logs(cmd, args)
		},
		SilenceUsage: true,
	}
}

func createHistoryCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "history [N]",
		Short: "List recent start/stop/restart events",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.History(cmd, args)
		},
		SilenceUsage: true,
	}
}
