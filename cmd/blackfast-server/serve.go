package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lydakis/blackfast/internal/config"
	"github.com/lydakis/blackfast/internal/daemon"
	"github.com/lydakis/blackfast/internal/daemonctl"
	"github.com/lydakis/blackfast/internal/formatter"
	"github.com/lydakis/blackfast/internal/logging"
	"github.com/lydakis/blackfast/internal/paths"
)

var runDaemonFn = daemon.Run

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:    "serve",
		Short:  "Run the daemon in the foreground",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.paths()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), p, cmd.ErrOrStderr())
		},
	}
}

func runServe(ctx context.Context, p paths.Paths, stderr io.Writer) error {
	cfg, err := config.LoadFrom(p.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, closeLog, err := newDaemonLogger(cfg.Log, p.LogDir, stderr)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLog()

	if err := formatter.CheckCommand(cfg.Formatter); err != nil {
		logger.Warn("formatter unavailable, requests will fail", "error", err)
	}
	runner := formatter.New(cfg.Formatter, logger)
	err = runDaemonFn(ctx, daemon.Options{
		Paths:       p,
		Handler:     runner.Run,
		IdleTimeout: cfg.Daemon.IdleTimeoutDuration(),
		Logger:      logger,
	})
	if errors.Is(err, daemon.ErrAlreadyRunning) {
		logger.Info("another daemon holds the lock", "lock_file", p.LockFile)
		return nil
	}
	return err
}

// newDaemonLogger writes to the daemon log file when a log directory is
// known, and to stderr otherwise.
func newDaemonLogger(cfg config.LogConfig, logDir string, stderr io.Writer) (*slog.Logger, func(), error) {
	out := stderr
	closeFn := func() {}
	if logDir != "" {
		f, err := logging.OpenFile(logDir, daemonctl.LogFileName)
		if err != nil {
			return nil, nil, err
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}
	logger, err := logging.New(logging.Options{Level: cfg.Level, Format: cfg.Format, Output: out})
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return logger.With("component", "daemon", "pid", os.Getpid()), closeFn, nil
}
