package ipc

import (
	"errors"
	"io"
)

// Conn is a connected byte stream to the other side: a unix socket
// connection or a named pipe handle. Closing it releases the endpoint.
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
}

// Listener accepts daemon-side connections on an endpoint.
type Listener interface {
	Accept() (Conn, error)
	Close() error
}

// ErrEndpointTooLong is returned for socket paths the platform cannot bind.
var ErrEndpointTooLong = errors.New("endpoint path too long")
