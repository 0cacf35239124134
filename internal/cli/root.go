// Package cli is the blackfast client: it forwards its arguments to the
// daemon and exits with the status the daemon reports.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lydakis/blackfast/internal/daemon"
	"github.com/lydakis/blackfast/internal/ipc"
	"github.com/lydakis/blackfast/internal/logging"
	"github.com/lydakis/blackfast/internal/paths"
)

const (
	appName         = "blackfast"
	exitLocalError  = -1 // every client-side failure
	defaultLogLevel = "warn"
)

var (
	rootStdout  io.Writer = os.Stdout
	rootStderr  io.Writer = os.Stderr
	getwdFn               = os.Getwd
	loadPathsFn           = paths.Load
)

// Run is the main client entry point. Returns an exit code.
func Run(args []string) int {
	logger := clientLogger()

	p, err := loadPathsFn(appName)
	if err != nil {
		return fail(err)
	}
	cwd, err := getwdFn()
	if err != nil {
		return fail(fmt.Errorf("resolving working directory: %w", err))
	}

	ctx := context.Background()
	supervisor := daemon.NewSupervisor(p, logger)
	if err := supervisor.EnsureRunning(ctx); err != nil {
		return fail(err)
	}
	conn, err := daemon.NewConnector(p, supervisor, logger).Connect(ctx)
	if err != nil {
		return fail(err)
	}
	client := ipc.NewClient(conn)
	defer client.Close()

	code, err := client.Do(ipc.Request{WorkDir: cwd, Args: args}, rootStdout, rootStderr)
	if err != nil {
		return fail(err)
	}
	return int(code)
}

func fail(err error) int {
	fmt.Fprintf(rootStderr, "%s: %v\n", appName, err)
	return exitLocalError
}

// clientLogger logs to stderr so stdout carries only daemon output.
func clientLogger() *slog.Logger {
	level := os.Getenv(paths.EnvName(appName, "log_level"))
	if level == "" {
		level = defaultLogLevel
	}
	logger, err := logging.New(logging.Options{Level: level, Format: "text", Output: rootStderr})
	if err != nil {
		fmt.Fprintf(rootStderr, "%s: warning: %v\n", appName, err)
		return logging.Discard()
	}
	return logger
}
