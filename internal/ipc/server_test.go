package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/floatwm/internal/surface"
)

type fakeHandler struct {
	mu     sync.Mutex
	sinks  map[string]surface.Sink
	closed []string
}

func (h *fakeHandler) HandleControl(_ context.Context, req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return Respond(StatusData{Backend: "fake", Workspace: 1, WorkspaceCount: 9}, nil)
	case CommandSpawn:
		var p SpawnPayload
		if err := DecodePayload(req, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		return Respond(nil, nil)
	}
	return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
}

func (h *fakeHandler) OpenSession(_ context.Context, id string, sink surface.Sink) (Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sinks == nil {
		h.sinks = make(map[string]surface.Sink)
	}
	h.sinks[id] = sink
	return &fakeSession{h: h, id: id, sink: sink}, nil
}

func (h *fakeHandler) closedSessions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.closed...)
}

type fakeSession struct {
	h    *fakeHandler
	id   string
	sink surface.Sink
}

// Handle echoes a configure event before answering CREATE_SURFACE, so the
// event must reach the client ahead of the response.
func (s *fakeSession) Handle(ctx context.Context, req *Request) *Response {
	if req.Command == CommandCreateSurface {
		s.sink.Deliver(surface.Event{Type: surface.EventConfigure, Surface: 7, Activated: true})
		return Respond(SurfaceData{Surface: 7}, nil)
	}
	return s.h.HandleControl(ctx, req)
}

func (s *fakeSession) Close() {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	s.h.closed = append(s.h.closed, s.id)
}

func startServer(t *testing.T, h Handler) *Server {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "ipc.sock")
	srv := NewServer(sock, h, nil)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return srv
}

func TestServer_ControlRoundTrip(t *testing.T) {
	srv := startServer(t, &fakeHandler{})

	info, err := os.Stat(srv.SocketPath())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("socket mode = %o, want 600", perm)
	}

	c := NewClientWithPath(srv.SocketPath())
	st, err := c.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if st.Backend != "fake" || st.WorkspaceCount != 9 {
		t.Fatalf("status = %+v", st)
	}
	if err := c.Spawn("foot"); err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	if err := c.Quit(); err == nil || !strings.Contains(err.Error(), "Unknown command: QUIT") {
		t.Fatalf("Quit() error = %v", err)
	}
}

func TestServer_InvalidRequest(t *testing.T) {
	srv := startServer(t, &fakeHandler{})
	conn, err := net.Dial("unix", srv.SocketPath())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	fmt.Fprintln(conn, "{not json")

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		t.Fatal(err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ERROR" || !strings.HasPrefix(resp.Error, "Invalid request") {
		t.Fatalf("response = %+v", resp)
	}
}

func TestServer_SessionEventsPrecedeResponse(t *testing.T) {
	h := &fakeHandler{}
	srv := startServer(t, h)

	sc, err := Dial(srv.SocketPath())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if sc.ID() == "" {
		t.Fatal("empty session id")
	}
	if srv.Sessions() != 1 {
		t.Fatalf("Sessions() = %d, want 1", srv.Sessions())
	}

	id, err := sc.CreateSurface(CreateSurfacePayload{Title: "t"})
	if err != nil || id != 7 {
		t.Fatalf("CreateSurface() = %d, %v", id, err)
	}
	select {
	case ev := <-sc.Events():
		if ev.Type != surface.EventConfigure || ev.Surface != 7 || !ev.Activated {
			t.Fatalf("event = %+v", ev)
		}
	default:
		t.Fatal("event did not arrive before the response")
	}

	// Events queued outside a request wait for Flush.
	h.mu.Lock()
	sink := h.sinks[sc.ID()]
	h.mu.Unlock()
	sink.Deliver(surface.Event{Type: surface.EventFrame, Surface: 7, Time: 42})
	srv.Flush()
	select {
	case ev := <-sc.Events():
		if ev.Type != surface.EventFrame || ev.Time != 42 {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("flushed event not received")
	}

	if err := sc.Close(); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(h.closedSessions()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not closed after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := h.closedSessions(); got[0] != sc.ID() {
		t.Fatalf("closed = %v, want %s", got, sc.ID())
	}
}

func TestOutbox_DropsEventsPastLimit(t *testing.T) {
	o := newOutbox(slog.Default())
	for i := 0; i < maxQueuedEvents+10; i++ {
		o.Deliver(surface.Event{Type: surface.EventPointerMotion})
	}
	o.push(Respond(nil, nil))
	if len(o.queue) != maxQueuedEvents+1 {
		t.Fatalf("queued %d lines, want %d", len(o.queue), maxQueuedEvents+1)
	}
	if o.dropped != 10 {
		t.Fatalf("dropped = %d, want 10", o.dropped)
	}

	var sb strings.Builder
	o.close()
	if err := o.run(&sb); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(sb.String(), "\n"); n != maxQueuedEvents+1 {
		t.Fatalf("wrote %d lines, want %d", n, maxQueuedEvents+1)
	}
	o.Deliver(surface.Event{Type: surface.EventFrame})
	if len(o.queue) != 0 {
		t.Fatal("closed outbox accepted an event")
	}
}

func TestDecodePayload(t *testing.T) {
	var p SpawnPayload
	if err := DecodePayload(&Request{Command: CommandSpawn}, &p); err == nil {
		t.Fatal("DecodePayload() accepted a missing payload")
	}
	req, err := ParseRequest([]byte(`{"command":"SPAWN","payload":{"command":"foot -e htop"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := DecodePayload(req, &p); err != nil || p.Command != "foot -e htop" {
		t.Fatalf("DecodePayload() = %+v, %v", p, err)
	}
	if err := DecodePayload(&Request{Payload: json.RawMessage(`[1]`)}, &p); err == nil {
		t.Fatal("DecodePayload() accepted a mismatched payload")
	}
}
