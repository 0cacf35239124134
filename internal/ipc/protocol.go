// Package ipc implements the blackfast wire protocol and its local transport.
//
// The client sends one request line: a JSON array of strings whose first two
// elements are "--work-dir" and the caller's working directory, followed by
// the caller's arguments, terminated by '\n'.
//
// The daemon answers with zero or more output lines and then exactly one
// termination frame:
//
//	0x00 <int32 little-endian exit status> '\n'
//
// A line is the termination frame only if it is exactly six bytes long and
// starts with 0x00. Every other line is output and is forwarded verbatim.
package ipc

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
)

// WorkDirFlag is the first element of every request.
const WorkDirFlag = "--work-dir"

// ExitFrameLen is the length of the termination frame including its newline.
const ExitFrameLen = 6

const exitFrameMarker byte = 0x00

// ErrProtocol reports a response stream that ended without a termination
// frame, or a request the daemon cannot parse.
var ErrProtocol = errors.New("protocol error")

// Request is one client invocation.
type Request struct {
	WorkDir string
	Args    []string
}

// EncodeRequest serializes workDir and args as the newline-terminated request
// line. Arguments keep their order and duplicates.
func EncodeRequest(workDir string, args []string) ([]byte, error) {
	full := make([]string, 0, len(args)+2)
	full = append(full, WorkDirFlag, workDir)
	full = append(full, args...)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(full); err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeRequest parses a request line produced by EncodeRequest.
func DecodeRequest(line []byte) (Request, error) {
	var full []string
	if err := json.Unmarshal(bytes.TrimRight(line, "\r\n"), &full); err != nil {
		return Request{}, fmt.Errorf("%w: request is not a JSON array of strings: %v", ErrProtocol, err)
	}
	if len(full) < 2 || full[0] != WorkDirFlag {
		return Request{}, fmt.Errorf("%w: request must start with %s <dir>", ErrProtocol, WorkDirFlag)
	}
	if !filepath.IsAbs(full[1]) {
		return Request{}, fmt.Errorf("%w: work dir %q is not absolute", ErrProtocol, full[1])
	}
	return Request{WorkDir: full[1], Args: full[2:]}, nil
}

// EncodeExitFrame returns the termination frame carrying code.
func EncodeExitFrame(code int32) []byte {
	frame := make([]byte, ExitFrameLen)
	frame[0] = exitFrameMarker
	binary.LittleEndian.PutUint32(frame[1:5], uint32(code))
	frame[5] = '\n'
	return frame
}

// ParseExitFrame reports whether line is a termination frame and, if so,
// the exit status it carries.
func ParseExitFrame(line []byte) (int32, bool) {
	if len(line) != ExitFrameLen || line[0] != exitFrameMarker || line[ExitFrameLen-1] != '\n' {
		return 0, false
	}
	return int32(binary.LittleEndian.Uint32(line[1:5])), true
}

// isFrameShaped reports whether an output line would be read back as a
// termination frame.
func isFrameShaped(line []byte) bool {
	_, ok := ParseExitFrame(line)
	return ok
}
