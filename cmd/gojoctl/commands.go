package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gojo-bot/gojoctl/internal/history"
	"github.com/gojo-bot/gojoctl/internal/supervisor"
)

// command carries the global flags into the operation implementations.
type command struct {
	flags *GlobalFlags
}

func (c command) Start(cmd *cobra.Command) error {
	sup, _, err := setup(c.flags)
	if err != nil {
		return err
	}
	pid, err := sup.Start()
	if err != nil {
		var sfe *supervisor.StartFailedError
		if errors.As(err, &sfe) {
			fmt.Fprintln(cmd.ErrOrStderr(), "bot exited during startup; last log lines:")
			fmt.Fprintln(cmd.ErrOrStderr(), supervisor.FormatTail(sfe.Tail))
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "bot started (pid %d)\n", pid)
	return nil
}

func (c command) Stop(cmd *cobra.Command) error {
	sup, _, err := setup(c.flags)
	if err != nil {
		return err
	}
	if err := sup.Stop(); err != nil {
		// Stopping a stopped bot is an idempotent no-op: warn, exit zero.
		if errors.Is(err, supervisor.ErrNotRunning) {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning: bot is not running")
			return nil
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "bot stopped")
	return nil
}

func (c command) Restart(cmd *cobra.Command) error {
	sup, _, err := setup(c.flags)
	if err != nil {
		return err
	}
	pid, err := sup.Restart()
	if err != nil {
		var sfe *supervisor.StartFailedError
		if errors.As(err, &sfe) {
			fmt.Fprintln(cmd.ErrOrStderr(), "bot exited during startup; last log lines:")
			fmt.Fprintln(cmd.ErrOrStderr(), supervisor.FormatTail(sfe.Tail))
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "bot restarted (pid %d)\n", pid)
	return nil
}

func (c command) Status(cmd *cobra.Command) error {
	sup, _, err := setup(c.flags)
	if err != nil {
		return err
	}
	st, err := sup.Status()
	if err != nil {
		return err
	}
	if st.State != supervisor.StateRunning {
		fmt.Fprintln(cmd.OutOrStdout(), "bot is stopped")
		return supervisor.ErrNotRunning
	}
	fmt.Fprintf(cmd.OutOrStdout(), "bot is running\n  pid:    %d\n  uptime: %s\n  memory: %.1f MB\n",
		st.PID, st.Uptime, float64(st.ResidentBytes)/(1024*1024))
	return nil
}

func (c command) Logs(cmd *cobra.Command, args []string) error {
	sup, _, err := setup(c.flags)
	if err != nil {
		return err
	}
	sink := sup.Sink()

	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("logs: want a positive line count, got %q", args[0])
		}
		lines, err := sink.Tail(n)
		if err != nil {
			return err
		}
		for _, l := range lines {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
		return nil
	}

	// No argument: follow until interrupted.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err = sink.Follow(ctx, cmd.OutOrStdout())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c command) History(cmd *cobra.Command, args []string) error {
	_, cfg, err := setup(c.flags)
	if err != nil {
		return err
	}
	limit := 20
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("history: want a positive event count, got %q", args[0])
		}
		limit = n
	}
	db, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = db.Close() }()

	events, err := db.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no recorded events")
		return nil
	}
	for _, e := range events {
		outcome := "ok"
		if !e.OK {
			outcome = "failed"
		}
		line := fmt.Sprintf("%s  %-7s %-6s pid=%d", e.At.Local().Format("2006-01-02 15:04:05"), e.Op, outcome, e.PID)
		if e.Detail != "" {
			line += "  " + e.Detail
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
