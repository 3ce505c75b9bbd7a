package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	barStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("250")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1)

	connectedDot    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
	disconnectedDot = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
)

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	status := barStyle.Width(m.width).Render(m.statusLine())
	help := helpStyle.Width(m.width).Render(m.helpLine())
	return lipgloss.JoinVertical(lipgloss.Left, status, m.table.View(), help)
}

func (m model) statusLine() string {
	if m.err != nil || m.status == nil {
		return disconnectedDot + " floatwm not running"
	}
	st := m.status
	parts := []string{
		connectedDot + " " + st.Backend,
		fmt.Sprintf("workspace %d/%d", st.Workspace, st.WorkspaceCount),
		fmt.Sprintf("%d windows", st.WindowCount),
		fmt.Sprintf("%d clients", st.Clients),
		"up " + (time.Duration(st.UptimeSeconds) * time.Second).String(),
	}
	return strings.Join(parts, "  ")
}

func (m model) helpLine() string {
	if m.statusText != "" {
		return m.statusText
	}
	return "j/k: select  enter: focus  x: close  1-9: workspace  r: refresh  q: quit"
}
