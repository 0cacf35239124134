package daemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/lydakis/blackfast/internal/ipc"
	"github.com/lydakis/blackfast/internal/paths"
)

var dialFn = ipc.Dial

// Connector opens the client connection to the daemon, relaunching it once
// when the endpoint does not answer.
type Connector struct {
	paths      paths.Paths
	supervisor *Supervisor
	logger     *slog.Logger
}

// NewConnector creates a connector. A nil logger discards log output.
func NewConnector(p paths.Paths, supervisor *Supervisor, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Connector{paths: p, supervisor: supervisor, logger: logger}
}

// Connect dials the endpoint. On failure the pid file is treated as stale:
// it is removed, the daemon is launched again and the endpoint is dialed
// exactly once more.
func (c *Connector) Connect(ctx context.Context) (ipc.Conn, error) {
	conn, err := dialFn(ctx, c.paths.Endpoint)
	if err == nil {
		return conn, nil
	}
	c.logger.Debug("daemon endpoint unreachable", "endpoint", c.paths.Endpoint, "error", err)

	if rmErr := os.Remove(c.paths.PIDFile); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
		c.logger.Warn("removing stale pid file", "path", c.paths.PIDFile, "error", rmErr)
	}
	if err := c.supervisor.EnsureRunning(ctx); err != nil {
		return nil, err
	}

	conn, err = dialFn(ctx, c.paths.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w at %s: %w", ErrConnect, c.paths.Endpoint, err)
	}
	return conn, nil
}
