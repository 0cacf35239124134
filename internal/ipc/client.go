package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Client runs one request over an established connection.
type Client struct {
	conn Conn
}

// NewClient wraps conn. The client owns conn from here on.
func NewClient(conn Conn) *Client {
	return &Client{conn: conn}
}

// Do sends req and relays the response to stdout. It returns the daemon's
// exit status, or -1 with an error when the round trip fails locally.
func (c *Client) Do(req Request, stdout, stderr io.Writer) (int, error) {
	data, err := EncodeRequest(req.WorkDir, req.Args)
	if err != nil {
		return -1, err
	}
	if _, err := c.conn.Write(data); err != nil {
		return -1, fmt.Errorf("sending request: %w", err)
	}

	code, err := Relay(c.conn, stdout, stderr)
	if err != nil {
		return -1, err
	}
	return int(code), nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Relay copies output lines from r to stdout until the termination frame
// arrives and returns its exit status. Each line is written as soon as it is
// read. Failures writing to stdout are reported on stderr and do not stop
// the relay. End of stream before the frame is ErrProtocol, even when
// output lines preceded it.
func Relay(r io.Reader, stdout, stderr io.Writer) (int32, error) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if code, ok := ParseExitFrame(line); ok {
			return code, nil
		}
		if len(line) > 0 {
			if _, werr := stdout.Write(line); werr != nil {
				fmt.Fprintf(stderr, "blackfast: writing output: %v\n", werr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return -1, fmt.Errorf("%w: daemon closed the connection without an exit status", ErrProtocol)
			}
			return -1, fmt.Errorf("%w: reading response: %v", ErrProtocol, err)
		}
	}
}
