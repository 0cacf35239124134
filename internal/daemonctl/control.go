// Package daemonctl launches, waits for, inspects and stops the blackfast
// daemon process.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/lydakis/blackfast/internal/daemon"
	"github.com/lydakis/blackfast/internal/ipc"
	"github.com/lydakis/blackfast/internal/logging"
	"github.com/lydakis/blackfast/internal/paths"
)

// LogFileName is the daemon log inside Paths.LogDir.
const LogFileName = "daemon.log"

// ErrNotRunning indicates there is no daemon pid file.
var ErrNotRunning = errors.New("daemon not running")

var (
	dialFn         = ipc.Dial
	launchFn       = Launch
	execCommandFn  = exec.Command
	signalStopFn   = interruptProcess
	killProcessFn  = killProcess
	initialBackoff = 25 * time.Millisecond
	maxBackoff     = 500 * time.Millisecond
	stopPollPeriod = 50 * time.Millisecond
)

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
}

// StopResult captures daemon stop outcome.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// Status is a point-in-time view of the daemon.
type Status struct {
	Running  bool // endpoint accepts connections
	PID      int  // 0 when the pid file is missing or unreadable
	Endpoint string
	PIDFile  string
	LockFile string
	LogFile  string
	StalePID bool // pid file present but endpoint unreachable
	PIDError string
}

// Launch starts a detached daemon process running `exe serve`. Its standard
// streams go to the daemon log so early failures are recorded.
func Launch(exe string, p paths.Paths) error {
	if strings.TrimSpace(exe) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	out, err := openLaunchOutput(p)
	if err != nil {
		return err
	}
	defer out.Close()
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return fmt.Errorf("opening %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	proc := execCommandFn(exe, "serve")
	proc.Stdin = devNull
	proc.Stdout = out
	proc.Stderr = out
	proc.Env = append(os.Environ(), p.Environ()...)
	proc.SysProcAttr = detachedProcAttr()
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

func openLaunchOutput(p paths.Paths) (*os.File, error) {
	if p.LogDir == "" {
		f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", os.DevNull, err)
		}
		return f, nil
	}
	return logging.OpenFile(p.LogDir, LogFileName)
}

// WaitReady dials endpoint with exponential backoff until it accepts a
// connection or timeout elapses.
func WaitReady(ctx context.Context, endpoint string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := initialBackoff
	var lastErr error
	for {
		conn, err := dialFn(ctx, endpoint)
		if err == nil {
			return conn.Close()
		}
		lastErr = err

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("daemon failed to start within %s: %w", timeout, lastErr)
		case <-timer.C:
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// EnsureStarted launches the daemon unless its endpoint already answers and
// returns once the endpoint is connectable.
func EnsureStarted(ctx context.Context, p paths.Paths, exe string, timeout time.Duration) (StartResult, error) {
	if conn, err := dialFn(ctx, p.Endpoint); err == nil {
		_ = conn.Close()
		return StartResult{State: StartStateAlreadyRunning}, nil
	}

	if err := launchFn(exe, p); err != nil {
		return StartResult{}, err
	}
	if err := WaitReady(ctx, p.Endpoint, timeout); err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, Launched: true}, nil
}

// Stop interrupts the daemon named by the pid file and waits for it to remove
// the pid file. A daemon still alive after timeout is killed and its pid file
// removed.
func Stop(ctx context.Context, p paths.Paths, timeout time.Duration) (StopResult, error) {
	pid, err := daemon.ReadPIDFile(p.PIDFile)
	if errors.Is(err, fs.ErrNotExist) {
		return StopResult{}, ErrNotRunning
	}
	if err != nil {
		return StopResult{}, err
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to stop current process (pid %d)", pid)
	}

	result := StopResult{PID: pid}
	if err := signalStopFn(pid); err != nil {
		if processGone(err) {
			removePIDFile(p.PIDFile)
			return result, nil
		}
		return result, fmt.Errorf("interrupt daemon process %d: %w", pid, err)
	}

	if waitForRemoval(ctx, p.PIDFile, timeout) {
		return result, nil
	}

	if err := killProcessFn(pid); err != nil && !processGone(err) {
		return result, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	removePIDFile(p.PIDFile)
	result.ForcedKill = true
	return result, nil
}

func waitForRemoval(ctx context.Context, path string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(stopPollPeriod)
	defer ticker.Stop()
	for {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

func removePIDFile(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "blackfast-server: warning: removing pid file %s: %v\n", path, err)
	}
}

// Inspect reports whether the daemon answers and what its pid file says.
func Inspect(ctx context.Context, p paths.Paths) Status {
	st := Status{
		Endpoint: p.Endpoint,
		PIDFile:  p.PIDFile,
		LockFile: p.LockFile,
	}
	if p.LogDir != "" {
		st.LogFile = filepath.Join(p.LogDir, LogFileName)
	}

	dialCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if conn, err := dialFn(dialCtx, p.Endpoint); err == nil {
		_ = conn.Close()
		st.Running = true
	}

	pid, err := daemon.ReadPIDFile(p.PIDFile)
	switch {
	case err == nil:
		st.PID = pid
		st.StalePID = !st.Running
	case !errors.Is(err, fs.ErrNotExist):
		st.PIDError = err.Error()
	}
	return st
}

func processGone(err error) bool {
	return errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH)
}

func killProcess(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}
