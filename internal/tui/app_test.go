package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/floatwm/internal/ipc"
)

type fakeSource struct {
	windows []ipc.WindowInfo
	err     error

	focused   []uint32
	closed    []uint32
	workspace int
}

func (f *fakeSource) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.StatusData{Backend: "headless", Workspace: 1, WorkspaceCount: 9, WindowCount: len(f.windows), Clients: 1, UptimeSeconds: 65}, nil
}

func (f *fakeSource) ListWindows() (*ipc.WindowsData, error) {
	return &ipc.WindowsData{Windows: f.windows}, nil
}

func (f *fakeSource) FocusWindow(id uint32) error {
	f.focused = append(f.focused, id)
	return nil
}

func (f *fakeSource) CloseWindow(id uint32) error {
	f.closed = append(f.closed, id)
	return errors.New("gone")
}

func (f *fakeSource) SwitchWorkspace(n int) error {
	f.workspace = n
	return nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loaded returns a sized model that has applied one snapshot.
func loaded(t *testing.T, src *fakeSource) model {
	t.Helper()
	var m tea.Model = newModel(src)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m, _ = m.Update(m.(model).fetch()())
	return m.(model)
}

func TestModel_SnapshotFillsTable(t *testing.T) {
	src := &fakeSource{windows: []ipc.WindowInfo{
		{ID: 3, Title: "foot", Workspace: 1, X: 10, Y: -5, Width: 640, Height: 480, Focused: true},
		{ID: 4, Title: "htop", Workspace: 2, Width: 100, Height: 50, Activated: true},
	}}
	m := loaded(t, src)

	rows := m.table.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if strings.Join(rows[0], "|") != "3|1|foot|640x480+10-5|focused" {
		t.Errorf("row 0 = %q", rows[0])
	}
	if rows[1][4] != "active" {
		t.Errorf("row 1 state = %q", rows[1][4])
	}

	view := m.View()
	for _, want := range []string{"headless", "workspace 1/9", "2 windows", "up 1m5s", "enter: focus"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_Disconnected(t *testing.T) {
	m := loaded(t, &fakeSource{err: errors.New("dial unix: no such file")})
	if !strings.Contains(m.View(), "floatwm not running") {
		t.Fatalf("view = %q", m.View())
	}
}

func TestModel_KeysDriveActions(t *testing.T) {
	src := &fakeSource{windows: []ipc.WindowInfo{{ID: 3, Title: "foot"}, {ID: 4, Title: "htop"}}}
	var m tea.Model = loaded(t, src)

	m, _ = m.Update(runes("j"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter produced no command")
	}
	if got := cmd(); got != (statusMsg{text: "focused #4"}) {
		t.Fatalf("enter msg = %#v", got)
	}
	if len(src.focused) != 1 || src.focused[0] != 4 {
		t.Fatalf("focused = %v", src.focused)
	}

	_, cmd = m.Update(runes("x"))
	if got := cmd(); got != (statusMsg{text: "error: gone"}) {
		t.Fatalf("close msg = %#v", got)
	}

	_, cmd = m.Update(runes("7"))
	cmd()
	if src.workspace != 7 {
		t.Fatalf("workspace = %d", src.workspace)
	}

	m, _ = m.Update(statusMsg{text: "focused #4"})
	if !strings.Contains(m.View(), "focused #4") {
		t.Error("status text not shown")
	}
	m, _ = m.Update(clearStatusMsg{})
	if strings.Contains(m.View(), "focused #4") {
		t.Error("status text not cleared")
	}

	_, cmd = m.Update(runes("q"))
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q did not quit")
	}
}

func TestModel_CursorClampsWhenWindowsGo(t *testing.T) {
	src := &fakeSource{windows: []ipc.WindowInfo{{ID: 1}, {ID: 2}, {ID: 3}}}
	var m tea.Model = loaded(t, src)
	m, _ = m.Update(runes("j"))
	m, _ = m.Update(runes("j"))
	if c := m.(model).table.Cursor(); c != 2 {
		t.Fatalf("cursor = %d", c)
	}
	m, _ = m.Update(snapshotMsg{status: &ipc.StatusData{}, windows: []ipc.WindowInfo{{ID: 1}}})
	w, ok := m.(model).selectedWindow()
	if !ok || w.ID != 1 {
		t.Fatalf("selected = %+v, %v", w, ok)
	}
}
