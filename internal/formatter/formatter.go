// Package formatter runs the external formatting command on behalf of a
// client request.
package formatter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"time"

	"github.com/lydakis/blackfast/internal/config"
	"github.com/lydakis/blackfast/internal/ipc"
)

// waitDelay bounds how long a canceled formatter may keep its output pipes open.
const waitDelay = 5 * time.Second

var execCommandFn = exec.CommandContext

// Runner runs the configured formatter command.
type Runner struct {
	command string
	args    []string
	env     []string
	logger  *slog.Logger
}

// New creates a Runner from the formatter section of the config.
func New(cfg config.FormatterConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	keys := make([]string, 0, len(cfg.Env))
	for k := range cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+cfg.Env[k])
	}
	return &Runner{
		command: cfg.Command,
		args:    append([]string(nil), cfg.Args...),
		env:     env,
		logger:  logger,
	}
}

// Run formats according to req inside req.WorkDir, streaming the command's
// stdout and stderr into out. It returns the command's exit code, or -1 when
// the command could not run to completion.
func (r *Runner) Run(ctx context.Context, req *ipc.Request, out io.Writer) int32 {
	if info, err := os.Stat(req.WorkDir); err != nil || !info.IsDir() {
		fmt.Fprintf(out, "invalid work dir: %s\n", req.WorkDir)
		return -1
	}

	args := make([]string, 0, len(r.args)+len(req.Args))
	args = append(args, r.args...)
	args = append(args, req.Args...)

	cmd := execCommandFn(ctx, r.command, args...)
	cmd.Dir = req.WorkDir
	cmd.Env = append(os.Environ(), r.env...)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err == nil {
		r.logger.Debug("formatter finished", "command", r.command, "duration", elapsed)
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		r.logger.Debug("formatter failed", "command", r.command, "exit_code", code, "duration", elapsed)
		if code < 0 {
			// killed by a signal, e.g. after the client went away
			return -1
		}
		return int32(code)
	}

	r.logger.Error("formatter did not run", "command", r.command, "error", err)
	fmt.Fprintf(out, "INTERNAL ERROR: %v\n", err)
	return -1
}
