package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/lydakis/blackfast/internal/paths"
)

var (
	// ErrSpawn reports that the daemon launch command could not be run or
	// exited unsuccessfully.
	ErrSpawn = errors.New("failed to start daemon")
	// ErrConnect reports that the endpoint stayed unreachable after a relaunch.
	ErrConnect = errors.New("failed to connect to daemon")
)

var (
	launchDaemonFn = launchDaemon
	execCommandFn  = exec.CommandContext
)

// Supervisor makes sure a daemon has been launched before the client dials.
type Supervisor struct {
	paths  paths.Paths
	logger *slog.Logger
}

// NewSupervisor creates a supervisor for the daemon described by p.
// A nil logger discards log output.
func NewSupervisor(p paths.Paths, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Supervisor{paths: p, logger: logger}
}

// EnsureRunning launches the daemon when its pid file is absent and waits
// for the launch command to finish. An existing pid file is trusted without
// further checks; the connector handles the stale case.
func (s *Supervisor) EnsureRunning(ctx context.Context) error {
	if _, err := os.Stat(s.paths.PIDFile); err == nil {
		return nil
	}

	s.logger.Debug("launching daemon", "server", s.paths.Server, "pid_file", s.paths.PIDFile)
	if err := launchDaemonFn(ctx, s.paths); err != nil {
		return fmt.Errorf("%w: %w", ErrSpawn, err)
	}
	return nil
}

func launchDaemon(ctx context.Context, p paths.Paths) error {
	cmd, stderr, cleanup, err := newLaunchCommand(ctx, p)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(readCaptured(stderr)); msg != "" {
			return fmt.Errorf("%s start: %w: %s", p.Server, err, msg)
		}
		return fmt.Errorf("%s start: %w", p.Server, err)
	}
	return nil
}

// newLaunchCommand builds "{server} start" with stdin and stdout on the null
// device and stderr captured in a temporary file. Only *os.File streams are
// used so Run returns when start exits, even if a daemon it forked keeps the
// descriptors open.
func newLaunchCommand(ctx context.Context, p paths.Paths) (*exec.Cmd, *os.File, func(), error) {
	cmd := execCommandFn(ctx, p.Server, "start")
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening %s: %w", os.DevNull, err)
	}
	stderr, err := os.CreateTemp("", "blackfast-start-*.log")
	if err != nil {
		_ = devNull.Close()
		return nil, nil, nil, fmt.Errorf("creating launch log: %w", err)
	}

	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(), p.Environ()...)
	return cmd, stderr, func() {
		_ = devNull.Close()
		_ = stderr.Close()
		_ = os.Remove(stderr.Name())
	}, nil
}

func readCaptured(f *os.File) string {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(f, 4096))
	if err != nil {
		return ""
	}
	return string(data)
}
