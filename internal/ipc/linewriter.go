package ipc

import (
	"bytes"
	"io"
	"sync"
)

// maxPendingLine bounds how much of an unterminated line is held back before
// it is written through.
const maxPendingLine = 4096

// replacementChar is U+FFFD in UTF-8. It stands in for the leading NUL of an
// output line that would otherwise parse as a termination frame.
var replacementChar = []byte("\uFFFD")

// lineWriter forwards handler output to the connection one line at a time.
// Output lines never parse as a termination frame, and Flush leaves the
// stream on a line boundary so the frame that follows is read on its own.
type lineWriter struct {
	mu      sync.Mutex
	w       io.Writer
	pending []byte
	midLine bool // part of the current line was already written through
	err     error
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{w: w}
}

func (lw *lineWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if lw.err != nil {
		return 0, lw.err
	}

	lw.pending = append(lw.pending, p...)
	for {
		i := bytes.IndexByte(lw.pending, '\n')
		if i < 0 {
			break
		}
		if err := lw.emitLocked(lw.pending[:i+1]); err != nil {
			return 0, err
		}
		lw.pending = lw.pending[i+1:]
		lw.midLine = false
	}

	if len(lw.pending) > maxPendingLine {
		if err := lw.writeLocked(lw.pending); err != nil {
			return 0, err
		}
		lw.pending = lw.pending[:0]
		lw.midLine = true
	}
	return len(p), nil
}

// Flush writes any unterminated line, adding the missing newline.
func (lw *lineWriter) Flush() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if lw.err != nil {
		return lw.err
	}
	if len(lw.pending) == 0 && !lw.midLine {
		return nil
	}
	line := append(lw.pending, '\n')
	lw.pending = nil
	err := lw.emitLocked(line)
	lw.midLine = false
	return err
}

func (lw *lineWriter) emitLocked(line []byte) error {
	if !lw.midLine && isFrameShaped(line) {
		escaped := make([]byte, 0, len(line)+len(replacementChar))
		escaped = append(escaped, replacementChar...)
		escaped = append(escaped, line[1:]...)
		return lw.writeLocked(escaped)
	}
	return lw.writeLocked(line)
}

func (lw *lineWriter) writeLocked(b []byte) error {
	if _, err := lw.w.Write(b); err != nil {
		lw.err = err
		return err
	}
	return nil
}
