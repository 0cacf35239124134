//go:build windows

package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"golang.org/x/sys/windows"
)

// Synchronous pipe handles serialize I/O, so a pending read would block the
// handler's writes.
const watchesDisconnect = false

const pipeBufferSize = 64 * 1024

// Dial opens the named pipe at endpoint, e.g. \\.\pipe\blackfast.
func Dial(ctx context.Context, endpoint string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := windows.UTF16PtrFromString(endpoint)
	if err != nil {
		return nil, fmt.Errorf("pipe name %q: %w", endpoint, err)
	}
	h, err := windows.CreateFile(name,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0, nil, windows.OPEN_EXISTING, 0, 0)
	if err != nil {
		return nil, &os.PathError{Op: "dial", Path: endpoint, Err: err}
	}
	return os.NewFile(uintptr(h), endpoint), nil
}

// Listen creates the first instance of the named pipe at endpoint. Creation
// fails if another process already owns the name.
func Listen(endpoint string) (Listener, error) {
	h, err := createPipe(endpoint, true)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", endpoint, err)
	}
	return &pipeListener{name: endpoint, next: h}, nil
}

func createPipe(endpoint string, first bool) (windows.Handle, error) {
	name, err := windows.UTF16PtrFromString(endpoint)
	if err != nil {
		return windows.InvalidHandle, err
	}
	openMode := uint32(windows.PIPE_ACCESS_DUPLEX)
	if first {
		openMode |= windows.FILE_FLAG_FIRST_PIPE_INSTANCE
	}
	return windows.CreateNamedPipe(name,
		openMode,
		windows.PIPE_TYPE_BYTE|windows.PIPE_READMODE_BYTE|windows.PIPE_WAIT,
		windows.PIPE_UNLIMITED_INSTANCES,
		pipeBufferSize, pipeBufferSize, 0, nil)
}

type pipeListener struct {
	name string

	mu        sync.Mutex
	next      windows.Handle
	accepting bool
	closed    bool
}

func (l *pipeListener) Accept() (Conn, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, net.ErrClosed
	}
	h := l.next
	l.accepting = true
	l.mu.Unlock()

	err := windows.ConnectNamedPipe(h, nil)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.accepting = false
	if l.closed {
		windows.CloseHandle(h)
		l.next = windows.InvalidHandle
		return nil, net.ErrClosed
	}
	if err != nil && !errors.Is(err, windows.ERROR_PIPE_CONNECTED) {
		windows.CloseHandle(h)
		l.next, _ = createPipe(l.name, false)
		return nil, fmt.Errorf("accepting on %s: %w", l.name, err)
	}
	next, cerr := createPipe(l.name, false)
	if cerr != nil {
		l.next = windows.InvalidHandle
		l.closed = true
	} else {
		l.next = next
	}
	return os.NewFile(uintptr(h), l.name), nil
}

func (l *pipeListener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	if !l.accepting {
		if l.next != windows.InvalidHandle {
			windows.CloseHandle(l.next)
			l.next = windows.InvalidHandle
		}
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	// Wake the pending ConnectNamedPipe; Accept closes the handle.
	if c, err := Dial(context.Background(), l.name); err == nil {
		c.Close()
	}
	return nil
}
