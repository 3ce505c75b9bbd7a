package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/floatwm/internal/ipc"
)

type fakeControl struct {
	windows []ipc.WindowInfo
	err     error

	spawned   []string
	focused   []uint32
	moved     [][3]int
	closed    []uint32
	workspace int
	quit      bool
}

func (f *fakeControl) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.StatusData{Backend: "headless", Workspace: 2, WorkspaceCount: 9, WindowCount: len(f.windows)}, nil
}

func (f *fakeControl) ListWindows() (*ipc.WindowsData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.WindowsData{Windows: f.windows}, nil
}

func (f *fakeControl) ListOutputs() (*ipc.OutputsData, error) {
	return &ipc.OutputsData{Outputs: []ipc.OutputInfo{{Name: "HEADLESS-1", Width: 1280, Height: 720, Scale: 1}}}, nil
}

func (f *fakeControl) Spawn(command string) error {
	f.spawned = append(f.spawned, command)
	return f.err
}

func (f *fakeControl) FocusWindow(id uint32) error {
	f.focused = append(f.focused, id)
	return nil
}

func (f *fakeControl) MoveWindow(id uint32, x, y int) error {
	f.moved = append(f.moved, [3]int{int(id), x, y})
	return nil
}

func (f *fakeControl) CloseWindow(id uint32) error {
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeControl) SwitchWorkspace(n int) error {
	f.workspace = n
	return nil
}

func (f *fakeControl) Quit() error {
	f.quit = true
	return nil
}

func testWindows() []ipc.WindowInfo {
	return []ipc.WindowInfo{
		{ID: 1, Title: "foot", Workspace: 1},
		{ID: 2, Title: "Firefox - Mozilla", Workspace: 1},
		{ID: 3, Title: "foot server", Workspace: 2},
		{ID: 4, Title: "htop", Workspace: 2},
	}
}

func TestGetStatus(t *testing.T) {
	s := NewServer(&fakeControl{windows: testWindows()})
	_, st, err := s.handleGetStatus(context.Background(), nil, GetStatusInput{})
	if err != nil {
		t.Fatalf("handleGetStatus() error = %v", err)
	}
	if st.Workspace != 2 || st.WindowCount != 4 {
		t.Fatalf("status = %+v", st)
	}

	s = NewServer(&fakeControl{err: errors.New("is floatwm running?")})
	if _, _, err := s.handleGetStatus(context.Background(), nil, GetStatusInput{}); err == nil {
		t.Fatal("handleGetStatus() hid the connection error")
	}
}

func TestListWindows_Filters(t *testing.T) {
	s := NewServer(&fakeControl{windows: testWindows()})
	tests := []struct {
		name string
		args ListWindowsInput
		want []uint32
	}{
		{"all", ListWindowsInput{}, []uint32{1, 2, 3, 4}},
		{"workspace", ListWindowsInput{Workspace: 2}, []uint32{3, 4}},
		{"title", ListWindowsInput{Title: "FOOT"}, []uint32{1, 3}},
		{"fuzzy title", ListWindowsInput{Title: "ffx"}, []uint32{2}},
		{"both", ListWindowsInput{Workspace: 1, Title: "ft"}, []uint32{1}},
		{"none", ListWindowsInput{Title: "xterm"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := s.handleListWindows(context.Background(), nil, tt.args)
			if err != nil {
				t.Fatal(err)
			}
			var got []uint32
			for _, w := range out.Windows {
				got = append(got, w.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ids = %v, want %v", got, tt.want)
				}
			}
			if out.Windows == nil {
				t.Fatal("nil window list")
			}
		})
	}
}

func TestResolveWindow(t *testing.T) {
	s := NewServer(&fakeControl{windows: testWindows()})
	tests := []struct {
		name    string
		id      uint32
		title   string
		want    uint32
		wantErr string
	}{
		{"by id", 4, "", 4, ""},
		{"unknown id", 9, "", 0, "no window with id 9"},
		{"exact title wins over fuzzy", 0, "foot", 1, ""},
		{"case-insensitive", 0, "HTOP", 4, ""},
		{"closest fuzzy", 0, "fox", 2, ""},
		{"no match", 0, "xterm", 0, "no window matches"},
		{"required", 0, " ", 0, "id or title is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := s.resolveWindow(tt.id, tt.title)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("resolveWindow() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveWindow() error = %v", err)
			}
			if w.ID != tt.want {
				t.Fatalf("resolveWindow() = %d, want %d", w.ID, tt.want)
			}
		})
	}
}

func TestResolveWindow_Ambiguous(t *testing.T) {
	s := NewServer(&fakeControl{windows: []ipc.WindowInfo{
		{ID: 1, Title: "term"},
		{ID: 2, Title: "term"},
		{ID: 3, Title: "teams"},
		{ID: 4, Title: "tomes"},
	}})
	if _, err := s.resolveWindow(0, "term"); err == nil || !strings.Contains(err.Error(), "use an id") {
		t.Fatalf("duplicate exact title error = %v", err)
	}
	if _, err := s.resolveWindow(0, "tms"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Fatalf("tied fuzzy match error = %v", err)
	}
}

func TestWindowTools(t *testing.T) {
	fc := &fakeControl{windows: testWindows()}
	s := NewServer(fc)
	ctx := context.Background()

	if _, out, err := s.handleFocusWindow(ctx, nil, WindowInput{Title: "htop"}); err != nil || out.ID != 4 {
		t.Fatalf("focus = %+v, %v", out, err)
	}
	if _, _, err := s.handleMoveWindow(ctx, nil, MoveWindowInput{ID: 2, X: 10, Y: -5}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.handleCloseWindow(ctx, nil, WindowInput{ID: 3}); err != nil {
		t.Fatal(err)
	}
	if len(fc.focused) != 1 || fc.focused[0] != 4 {
		t.Fatalf("focused = %v", fc.focused)
	}
	if len(fc.moved) != 1 || fc.moved[0] != [3]int{2, 10, -5} {
		t.Fatalf("moved = %v", fc.moved)
	}
	if len(fc.closed) != 1 || fc.closed[0] != 3 {
		t.Fatalf("closed = %v", fc.closed)
	}
}

func TestSpawnSwitchQuit(t *testing.T) {
	fc := &fakeControl{}
	s := NewServer(fc)
	ctx := context.Background()

	res, _, err := s.handleSpawn(ctx, nil, SpawnInput{Command: " foot -e htop "})
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.spawned) != 1 || fc.spawned[0] != "foot -e htop" {
		t.Fatalf("spawned = %q", fc.spawned)
	}
	if text := res.Content[0].(*mcpsdk.TextContent).Text; !strings.Contains(text, "foot -e htop") {
		t.Fatalf("result text = %q", text)
	}
	if _, _, err := s.handleSpawn(ctx, nil, SpawnInput{}); err == nil {
		t.Fatal("empty command accepted")
	}

	if _, _, err := s.handleSwitchWorkspace(ctx, nil, SwitchWorkspaceInput{Workspace: 0}); err == nil {
		t.Fatal("workspace 0 accepted")
	}
	if _, _, err := s.handleSwitchWorkspace(ctx, nil, SwitchWorkspaceInput{Workspace: 3}); err != nil || fc.workspace != 3 {
		t.Fatalf("switch = %d, %v", fc.workspace, err)
	}

	if _, _, err := s.handleQuit(ctx, nil, QuitInput{}); err != nil || !fc.quit {
		t.Fatalf("quit = %v, %v", fc.quit, err)
	}
}
