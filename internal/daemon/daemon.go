// Package daemon holds both halves of daemon supervision: the client side
// that launches and connects to the daemon, and the daemon runtime itself.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/lydakis/blackfast/internal/ipc"
	"github.com/lydakis/blackfast/internal/paths"
)

// ErrAlreadyRunning is returned by Run when another daemon holds the lock.
var ErrAlreadyRunning = errors.New("daemon already running")

// Options configures the daemon runtime.
type Options struct {
	Paths       paths.Paths
	Handler     ipc.Handler
	IdleTimeout time.Duration // 0 keeps the daemon alive until signaled
	Logger      *slog.Logger
}

// Run serves requests until ctx is canceled, the process is interrupted or
// the idle timeout fires. The endpoint is listening before the pid file is
// written, and the pid file is removed before the lock is released.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	files := []string{opts.Paths.LockFile, opts.Paths.PIDFile}
	if runtime.GOOS != "windows" {
		files = append(files, opts.Paths.Endpoint)
	}
	for _, file := range files {
		if err := paths.EnsureDir(filepath.Dir(file)); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(file), err)
		}
	}

	lock := flock.New(opts.Paths.LockFile)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking %s: %w", opts.Paths.LockFile, err)
	}
	if !locked {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("releasing lock", "path", opts.Paths.LockFile, "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ka := NewKeepalive(opts.IdleTimeout, func() {
		logger.Info("idle timeout reached", "idle_timeout", opts.IdleTimeout.String())
		cancel()
	})
	defer ka.Stop()

	handler := func(reqCtx context.Context, req *ipc.Request, out io.Writer) int32 {
		ka.Begin()
		defer ka.End()
		return opts.Handler(reqCtx, req, out)
	}

	srv := ipc.NewServer(opts.Paths.Endpoint, handler, logger)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("listening on %s: %w", opts.Paths.Endpoint, err)
	}
	if err := writePIDFile(opts.Paths.PIDFile); err != nil {
		srv.Stop()
		return err
	}
	ka.Touch()
	logger.Info("daemon listening", "endpoint", opts.Paths.Endpoint)

	<-ctx.Done()
	logger.Info("daemon shutting down")

	srv.Stop()
	if err := os.Remove(opts.Paths.PIDFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("removing pid file", "path", opts.Paths.PIDFile, "error", err)
	}
	return nil
}

// writePIDFile replaces path atomically so a reader never sees a partial pid.
func writePIDFile(path string) error {
	tmp := fmt.Sprintf("%s.%d.tmp", path, os.Getpid())
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(os.Getpid())+"\n"), 0600); err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing pid file: %w", err)
	}
	return nil
}

// ReadPIDFile returns the pid recorded in path.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid file %s: %q", path, data)
	}
	return pid, nil
}
