package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/lydakis/blackfast/internal/daemonctl"
)

const (
	startTimeout = 10 * time.Second
	stopTimeout  = 5 * time.Second
)

var daemonExecutableFn = daemonExecutable

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon and wait until it accepts connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.paths()
			if err != nil {
				return err
			}
			exe, err := daemonExecutableFn()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(cmd.Context(), p, exe, startTimeout)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.paths()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.Stop(cmd.Context(), p, stopTimeout)
			if errors.Is(err, daemonctl.ErrNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon (pid %d) did not exit in time and was killed\n", result.PID)
				return nil
			}
			fmt.Fprintf(stdout, "Daemon (pid %d) stopped\n", result.PID)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.paths()
			if err != nil {
				return err
			}
			st := daemonctl.Inspect(cmd.Context(), p)
			stdout := cmd.OutOrStdout()
			fmt.Fprintln(stdout, renderStatus(st, shouldColorize(stdout)))
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func renderStatus(st daemonctl.Status, colorize bool) string {
	state := "stopped"
	stateColor := text.FgYellow
	switch {
	case st.Running:
		state = "running"
		stateColor = text.FgGreen
	case st.StalePID:
		state = "stale pid file"
		stateColor = text.FgRed
	}
	if colorize {
		state = stateColor.Sprint(state)
	}

	pid := "-"
	if st.PID > 0 {
		pid = strconv.Itoa(st.PID)
	}
	if st.PIDError != "" {
		pid = st.PIDError
	}

	rows := [][]string{
		{"State", state},
		{"PID", pid},
		{"Endpoint", st.Endpoint},
		{"PID file", st.PIDFile},
		{"Lock file", st.LockFile},
		{"Log file", orDash(st.LogFile)},
	}
	return renderTable([]string{"Field", "Value"}, rows)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}
