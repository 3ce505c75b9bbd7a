// Package tui is a live terminal monitor for a running floatwm: status,
// the window list and a few window actions.
package tui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/floatwm/internal/ipc"
)

// Source is the control socket surface the monitor reads and drives.
type Source interface {
	GetStatus() (*ipc.StatusData, error)
	ListWindows() (*ipc.WindowsData, error)
	FocusWindow(id uint32) error
	CloseWindow(id uint32) error
	SwitchWorkspace(n int) error
}

var _ Source = (*ipc.Client)(nil)

const (
	refreshInterval = time.Second
	statusTimeout   = 3 * time.Second
)

type snapshotMsg struct {
	status  *ipc.StatusData
	windows []ipc.WindowInfo
	err     error
}

type tickMsg struct{}

type statusMsg struct{ text string }

type clearStatusMsg struct{}

// model is the root bubbletea model.
type model struct {
	src Source

	status  *ipc.StatusData
	windows []ipc.WindowInfo
	err     error

	table      table.Model
	statusText string

	width  int
	height int
}

func newModel(src Source) model {
	t := table.New(
		table.WithColumns(windowColumns()),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Bold(true)
	t.SetStyles(styles)
	return model{src: src, table: t}
}

func windowColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 5},
		{Title: "WS", Width: 3},
		{Title: "TITLE", Width: 30},
		{Title: "GEOMETRY", Width: 18},
		{Title: "STATE", Width: 9},
	}
}

func (m model) fetch() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		st, err := src.GetStatus()
		if err != nil {
			return snapshotMsg{err: err}
		}
		wins, err := src.ListWindows()
		if err != nil {
			return snapshotMsg{err: err}
		}
		return snapshotMsg{status: st, windows: wins.Windows}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

// act runs fn off the UI goroutine and reports the outcome in the status bar.
func (m model) act(done string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return statusMsg{text: "error: " + err.Error()}
		}
		return statusMsg{text: done}
	}
}

func (m model) selectedWindow() (ipc.WindowInfo, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.windows) {
		return ipc.WindowInfo{}, false
	}
	return m.windows[i], true
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), tick())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(msg.Height-4, 3))
		return m, nil

	case snapshotMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
			m.windows = msg.windows
			m.table.SetRows(windowRows(msg.windows))
			if c := m.table.Cursor(); c >= len(msg.windows) && len(msg.windows) > 0 {
				m.table.SetCursor(len(msg.windows) - 1)
			}
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetch(), tick())

	case statusMsg:
		m.statusText = msg.text
		return m, tea.Batch(m.fetch(), tea.Tick(statusTimeout, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		}))

	case clearStatusMsg:
		m.statusText = ""
		return m, nil

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetch()
		case "enter":
			if w, ok := m.selectedWindow(); ok {
				return m, m.act(fmt.Sprintf("focused #%d", w.ID), func() error { return m.src.FocusWindow(w.ID) })
			}
			return m, nil
		case "x":
			if w, ok := m.selectedWindow(); ok {
				return m, m.act(fmt.Sprintf("closing #%d", w.ID), func() error { return m.src.CloseWindow(w.ID) })
			}
			return m, nil
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			n, _ := strconv.Atoi(key)
			return m, m.act("workspace "+key, func() error { return m.src.SwitchWorkspace(n) })
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func windowRows(windows []ipc.WindowInfo) []table.Row {
	rows := make([]table.Row, 0, len(windows))
	for _, w := range windows {
		state := ""
		switch {
		case w.Focused:
			state = "focused"
		case w.Activated:
			state = "active"
		}
		rows = append(rows, table.Row{
			strconv.FormatUint(uint64(w.ID), 10),
			strconv.Itoa(w.Workspace),
			w.Title,
			fmt.Sprintf("%dx%d%+d%+d", w.Width, w.Height, w.X, w.Y),
			state,
		})
	}
	return rows
}
