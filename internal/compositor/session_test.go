package compositor

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/floatwm/internal/ipc"
	"github.com/1broseidon/floatwm/internal/surface"
)

// startCompositor runs a headless compositor with an IPC server on a
// temporary socket.
func startCompositor(t *testing.T) (*State, string, <-chan error) {
	t.Helper()
	s, _ := newTestState(t, nil)
	sock := filepath.Join(t.TempDir(), "floatwm.sock")
	srv := ipc.NewServer(sock, s, nil)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	s.SetFlusher(srv.Flush)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	go srv.Serve(ctx)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return s, sock, done
}

func waitEvent(t *testing.T, sc *ipc.SessionClient, typ surface.EventType) surface.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sc.Events():
			if ev.Type == typ {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event", typ)
		}
	}
}

func TestSession_EndToEnd(t *testing.T) {
	_, sock, done := startCompositor(t)

	sc, err := ipc.Dial(sock)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer sc.Close()

	id, err := sc.CreateSurface(ipc.CreateSurfacePayload{Title: "term", Width: 64, Height: 48})
	if err != nil {
		t.Fatalf("CreateSurface() error = %v", err)
	}
	if err := sc.Attach(ipc.AttachPayload{Surface: id, Width: 64, Height: 48, Color: "#336699"}); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := sc.Commit(id, true); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	cfg := waitEvent(t, sc, surface.EventConfigure)
	if cfg.Surface != surface.ID(id) || !cfg.Activated || cfg.Width != 64 || cfg.Height != 48 {
		t.Fatalf("configure = %+v", cfg)
	}
	waitEvent(t, sc, surface.EventFrame)

	c := ipc.NewClientWithPath(sock)
	st, err := c.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if st.WindowCount != 1 || st.Clients != 1 || st.Workspace != 1 || st.Backend != "headless" {
		t.Fatalf("status = %+v", st)
	}
	wins, err := c.ListWindows()
	if err != nil {
		t.Fatal(err)
	}
	if len(wins.Windows) != 1 || wins.Windows[0].Title != "term" || wins.Windows[0].Width != 64 {
		t.Fatalf("windows = %+v", wins.Windows)
	}

	if err := c.MoveWindow(id, 200, 100); err != nil {
		t.Fatalf("MoveWindow() error = %v", err)
	}
	if err := c.SwitchWorkspace(0); err == nil {
		t.Fatal("SwitchWorkspace(0) accepted")
	}
	if err := c.FocusWindow(999); err == nil {
		t.Fatal("FocusWindow(unknown) accepted")
	}

	if err := c.Quit(); err != nil {
		t.Fatalf("Quit() error = %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after quit")
	}
}

func TestSession_SurfacesAreOwned(t *testing.T) {
	_, sock, _ := startCompositor(t)

	a, err := ipc.Dial(sock)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := ipc.Dial(sock)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	id, err := a.CreateSurface(ipc.CreateSurfacePayload{})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Commit(id, false); err == nil || !strings.Contains(err.Error(), "no such surface") {
		t.Fatalf("foreign Commit() error = %v", err)
	}
	if err := b.SetCursor(ipc.SetCursorPayload{Surface: &id}); err == nil {
		t.Fatal("foreign SetCursor() accepted")
	}
	if err := a.SetCursor(ipc.SetCursorPayload{Surface: &id}); err == nil {
		t.Fatal("toplevel accepted as cursor")
	}
	if err := a.Move(id); err == nil {
		t.Fatal("Move() accepted without a held button")
	}
}

func TestSession_DisconnectUnmapsWindows(t *testing.T) {
	_, sock, _ := startCompositor(t)

	sc, err := ipc.Dial(sock)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sc.CreateSurface(ipc.CreateSurfacePayload{}); err != nil {
		t.Fatal(err)
	}
	sc.Close()

	c := ipc.NewClientWithPath(sock)
	deadline := time.Now().Add(2 * time.Second)
	for {
		st, err := c.GetStatus()
		if err != nil {
			t.Fatal(err)
		}
		if st.WindowCount == 0 && st.Clients == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("status after disconnect = %+v", st)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCall_AfterStop(t *testing.T) {
	s, _ := newTestState(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var ran bool
	if err := s.Call(context.Background(), func() { ran = true }); err != nil || !ran {
		t.Fatalf("Call() = %v, ran = %v", err, ran)
	}
	cancel()
	<-done
	if err := s.Call(context.Background(), func() {}); !errors.Is(err, ErrStopped) {
		t.Fatalf("Call() after stop = %v, want ErrStopped", err)
	}
}

func TestDecodeBuffer(t *testing.T) {
	tests := []struct {
		name    string
		payload ipc.AttachPayload
		wantErr string
	}{
		{"color", ipc.AttachPayload{Width: 2, Height: 2, Color: "#ff0000"}, ""},
		{"pixels", ipc.AttachPayload{Width: 1, Height: 2, Pixels: make([]byte, 8)}, ""},
		{"short pixels", ipc.AttachPayload{Width: 2, Height: 2, Pixels: make([]byte, 8)}, "want 16"},
		{"zero size", ipc.AttachPayload{Width: 0, Height: 2, Color: "#ff0000"}, "invalid buffer size"},
		{"too large", ipc.AttachPayload{Width: maxSurfaceSize + 1, Height: 1, Color: "#ff0000"}, "invalid buffer size"},
		{"no content", ipc.AttachPayload{Width: 1, Height: 1}, "pixels or a color"},
		{"bad color", ipc.AttachPayload{Width: 1, Height: 1, Color: "blue"}, "color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := decodeBuffer(tt.payload)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("decodeBuffer() error = %v", err)
				}
				if buf.Bounds().Dx() != tt.payload.Width || buf.Bounds().Dy() != tt.payload.Height {
					t.Fatalf("bounds = %v", buf.Bounds())
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("decodeBuffer() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	buf, _ := decodeBuffer(ipc.AttachPayload{Width: 1, Height: 1, Color: "#102030"})
	if got := buf.RGBAAt(0, 0); got.R != 0x10 || got.G != 0x20 || got.B != 0x30 || got.A != 0xff {
		t.Fatalf("pixel = %v", got)
	}
}
