package ipc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Handler runs one request. Everything written to out is relayed to the
// client as output lines; the return value becomes the client's exit status.
// ctx is canceled when the client disconnects.
type Handler func(ctx context.Context, req *Request, out io.Writer) int32

var (
	peerUIDMatchesCurrentUserFn = peerUIDMatchesCurrentUser
	listenFn                    = Listen
)

// Server accepts client connections on the daemon endpoint.
type Server struct {
	endpoint string
	handler  Handler
	logger   *slog.Logger
	listener Listener
	wg       sync.WaitGroup
}

// NewServer creates a new IPC server. A nil logger discards log output.
func NewServer(endpoint string, handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		endpoint: endpoint,
		handler:  handler,
		logger:   logger,
	}
}

// Start begins listening for connections.
func (s *Server) Start() error {
	ln, err := listenFn(s.endpoint)
	if err != nil {
		return err
	}
	s.listener = ln

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop()
	}()
	return nil
}

// Stop closes the listener and waits for in-flight connections.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return // listener closed
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn Conn) {
	logger := s.logger.With("conn_id", uuid.NewString())
	out := newLineWriter(conn)

	ok, err := peerUIDMatchesCurrentUserFn(conn)
	if err != nil {
		logger.Warn("peer uid check failed", "error", err)
		s.finish(conn, out, logger, "peer uid check failed", -1)
		return
	}
	if !ok {
		logger.Warn("rejected connection from another user")
		s.finish(conn, out, logger, "peer uid mismatch", -1)
		return
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if len(line) == 0 {
		if err != nil && err != io.EOF {
			logger.Debug("reading request", "error", err)
		}
		return
	}
	req, err := DecodeRequest(line)
	if err != nil {
		logger.Warn("invalid request", "error", err)
		s.finish(conn, out, logger, err.Error(), -1)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if watchesDisconnect {
		// The client sends nothing after its request; any read result means
		// it went away. The read ends when conn is closed.
		go func() {
			var buf [1]byte
			_, _ = conn.Read(buf[:])
			cancel()
		}()
	}

	logger.Info("request", "work_dir", req.WorkDir, "args", req.Args)
	code := s.handler(ctx, &req, out)
	if ctx.Err() != nil {
		logger.Info("client disconnected", "exit_code", code)
		return
	}
	s.finish(conn, out, logger, "", code)
	logger.Info("request done", "exit_code", code)
}

func (s *Server) finish(conn Conn, out *lineWriter, logger *slog.Logger, message string, code int32) {
	if message != "" {
		fmt.Fprintln(out, message)
	}
	if err := out.Flush(); err != nil {
		logger.Debug("writing output", "error", err)
		return
	}
	if _, err := conn.Write(EncodeExitFrame(code)); err != nil {
		logger.Debug("writing exit frame", "error", err)
	}
}
