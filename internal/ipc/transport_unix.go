//go:build unix

package ipc

import (
	"context"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// sun_path holds the path plus its terminating NUL.
var maxSocketPath = len(unix.RawSockaddrUnix{}.Path) - 1

// Reads from the disconnect watcher can run alongside handler writes.
const watchesDisconnect = true

func checkEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("socket path is empty")
	}
	if len(endpoint) > maxSocketPath {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrEndpointTooLong, endpoint, maxSocketPath)
	}
	return nil
}

// Dial connects to the unix socket at endpoint.
func Dial(ctx context.Context, endpoint string) (Conn, error) {
	if err := checkEndpoint(endpoint); err != nil {
		return nil, err
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", endpoint)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Listen binds a unix socket at endpoint, replacing a stale socket file, and
// restricts it to the current user.
func Listen(endpoint string) (Listener, error) {
	if err := checkEndpoint(endpoint); err != nil {
		return nil, err
	}
	_ = os.Remove(endpoint)

	ln, err := net.Listen("unix", endpoint)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", endpoint, err)
	}
	if err := os.Chmod(endpoint, 0600); err != nil {
		ln.Close()
		os.Remove(endpoint)
		return nil, fmt.Errorf("setting socket permissions: %w", err)
	}
	return &unixListener{ln: ln, path: endpoint}, nil
}

type unixListener struct {
	ln   net.Listener
	path string
}

func (l *unixListener) Accept() (Conn, error) {
	return l.ln.Accept()
}

func (l *unixListener) Close() error {
	err := l.ln.Close()
	_ = os.Remove(l.path)
	return err
}
