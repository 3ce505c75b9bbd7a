package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/1broseidon/floatwm/internal/surface"
)

// maxQueuedEvents bounds a session's unsent events. Events past the limit
// are dropped until the client catches up.
const maxQueuedEvents = 4096

// Handler executes requests. Implementations must be safe to call from
// connection goroutines.
type Handler interface {
	HandleControl(ctx context.Context, req *Request) *Response
	// OpenSession starts a client session. Events for the session's surfaces
	// go to sink.
	OpenSession(ctx context.Context, id string, sink surface.Sink) (Session, error)
}

// Session is a connected client.
type Session interface {
	Handle(ctx context.Context, req *Request) *Response
	// Close destroys everything the session owns.
	Close()
}

// Server accepts control requests and client sessions on a unix socket.
type Server struct {
	socketPath string
	handler    Handler
	logger     *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	sessions map[string]*outbox
	closed   bool
}

// NewServer creates a new IPC server
func NewServer(socketPath string, handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		logger:     logger.With("component", "ipc"),
		sessions:   make(map[string]*outbox),
	}
}

func (s *Server) String() string { return "ipc.Server" }

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Listen creates the socket. It is separate from Serve so that startup can
// fail before anything else runs.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}

	// Remove existing socket if present
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}
	s.listener = listener
	s.closed = false
	s.logger.Info("listening", "socket", s.socketPath)
	return nil
}

// Serve accepts connections until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("listener closed: %w", err)
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("read failed", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		writeLine(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}
	if req.Command != CommandHello {
		resp := s.handler.HandleControl(ctx, req)
		if err := writeLine(conn, resp); err != nil {
			s.logger.Debug("failed to send response", "error", err)
		}
		return
	}
	s.serveSession(ctx, conn, reader)
}

func (s *Server) serveSession(ctx context.Context, conn net.Conn, reader *bufio.Reader) {
	id := uuid.NewString()
	logger := s.logger.With("session", id)
	out := newOutbox(logger)

	sess, err := s.handler.OpenSession(ctx, id, out)
	if err != nil {
		writeLine(conn, NewErrorResponse(err.Error()))
		return
	}
	defer sess.Close()

	s.mu.Lock()
	s.sessions[id] = out
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := out.run(conn); err != nil {
			logger.Debug("session writer stopped", "error", err)
			conn.Close()
		}
	}()
	defer func() {
		out.close()
		<-done
	}()

	out.push(Respond(HelloData{Session: id}, nil))
	logger.Info("client connected")

	for {
		data, err := reader.ReadBytes('\n')
		if len(data) > 0 {
			req, perr := ParseRequest(data)
			if perr != nil {
				out.push(NewErrorResponse(fmt.Sprintf("Invalid request: %v", perr)))
			} else {
				out.push(sess.Handle(ctx, req))
			}
		}
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				logger.Debug("read failed", "error", err)
			}
			logger.Info("client disconnected")
			return
		}
	}
}

// Flush wakes every session writer so queued events go out.
func (s *Server) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, out := range s.sessions {
		out.wake()
	}
}

// Sessions returns the number of connected client sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops accepting connections and removes the socket.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	s.listener = nil
	os.Remove(s.socketPath)
	return err
}

func writeLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// outbox queues a session's outgoing lines. Events queue silently until the
// next Flush; responses wake the writer right away.
type outbox struct {
	logger *slog.Logger

	mu      sync.Mutex
	queue   [][]byte
	events  int
	dropped int
	closed  bool
	notify  chan struct{}
}

func newOutbox(logger *slog.Logger) *outbox {
	return &outbox{logger: logger, notify: make(chan struct{}, 1)}
}

// Deliver implements surface.Sink.
func (o *outbox) Deliver(ev surface.Event) {
	data, err := json.Marshal(EventMessage{Event: ev})
	if err != nil {
		o.logger.Warn("failed to marshal event", "type", ev.Type, "error", err)
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if o.events >= maxQueuedEvents {
		if o.dropped == 0 {
			o.logger.Warn("client is not reading, dropping events")
		}
		o.dropped++
		return
	}
	o.events++
	o.queue = append(o.queue, data)
}

func (o *outbox) push(resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		o.logger.Warn("failed to marshal response", "error", err)
		return
	}
	o.mu.Lock()
	o.queue = append(o.queue, data)
	o.mu.Unlock()
	o.wake()
}

func (o *outbox) wake() {
	select {
	case o.notify <- struct{}{}:
	default:
	}
}

func (o *outbox) close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.wake()
}

// run writes queued lines to w until close.
func (o *outbox) run(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for range o.notify {
		o.mu.Lock()
		lines := o.queue
		o.queue = nil
		o.events = 0
		o.dropped = 0
		closed := o.closed
		o.mu.Unlock()

		for _, line := range lines {
			bw.Write(line)
			bw.WriteByte('\n')
		}
		if err := bw.Flush(); err != nil {
			return err
		}
		if closed {
			return nil
		}
	}
	return nil
}
