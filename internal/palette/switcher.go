package palette

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/1broseidon/floatwm/internal/ipc"
)

// Control is the part of the control socket the switcher drives.
type Control interface {
	GetStatus() (*ipc.StatusData, error)
	ListWindows() (*ipc.WindowsData, error)
	FocusWindow(id uint32) error
	CloseWindow(id uint32) error
	SwitchWorkspace(n int) error
	Quit() error
}

var _ Control = (*ipc.Client)(nil)

const (
	actionFocus     = "focus"
	actionClose     = "close"
	actionWorkspace = "workspace"
	actionQuit      = "quit"
)

// maxHeaderRetries bounds how often a header pick re-opens the launcher.
const maxHeaderRetries = 3

// Items builds the switcher rows: windows topmost first per workspace, then
// workspaces, then session actions.
func Items(st *ipc.StatusData, windows []ipc.WindowInfo) []Item {
	ordered := make([]ipc.WindowInfo, len(windows))
	copy(ordered, windows)
	// windows arrive bottom to top per workspace
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Workspace < ordered[j].Workspace
	})

	var items []Item
	if len(ordered) > 0 {
		items = append(items, Item{Label: "Windows", Header: true})
		for _, w := range ordered {
			title := strings.TrimSpace(w.Title)
			if title == "" {
				title = "(untitled)"
			}
			items = append(items, Item{
				Label:  fmt.Sprintf("%s  [%d] #%d", title, w.Workspace, w.ID),
				Action: actionFocus + ":" + strconv.FormatUint(uint64(w.ID), 10),
				Icon:   "window",
				Active: w.Focused,
			})
		}
	}

	if st != nil && st.WorkspaceCount > 0 {
		items = append(items, Item{Label: "Workspaces", Header: true})
		for n := 1; n <= st.WorkspaceCount; n++ {
			items = append(items, Item{
				Label:  fmt.Sprintf("Workspace %d", n),
				Action: actionWorkspace + ":" + strconv.Itoa(n),
				Icon:   "desktop",
				Active: n == st.Workspace,
			})
		}
	}

	items = append(items, Item{Label: "Session", Header: true})
	for _, w := range ordered {
		if w.Focused {
			items = append(items, Item{
				Label:  "Close " + strings.TrimSpace(w.Title),
				Action: actionClose + ":" + strconv.FormatUint(uint64(w.ID), 10),
				Icon:   "window-close",
			})
			break
		}
	}
	items = append(items, Item{Label: "Quit floatwm", Action: actionQuit, Icon: "system-log-out"})
	return items
}

// Apply performs an item action against the compositor.
func Apply(c Control, action string) error {
	name, arg, _ := strings.Cut(action, ":")
	switch name {
	case actionFocus, actionClose:
		id, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return fmt.Errorf("palette: bad window id %q", arg)
		}
		if name == actionClose {
			return c.CloseWindow(uint32(id))
		}
		return c.FocusWindow(uint32(id))
	case actionWorkspace:
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("palette: bad workspace %q", arg)
		}
		return c.SwitchWorkspace(n)
	case actionQuit:
		return c.Quit()
	default:
		return fmt.Errorf("palette: unknown action %q", action)
	}
}

// Run shows the switcher once and applies the chosen row.
func Run(ctx context.Context, l Launcher, c Control) error {
	st, err := c.GetStatus()
	if err != nil {
		return err
	}
	windows, err := c.ListWindows()
	if err != nil {
		return err
	}
	items := Items(st, windows.Windows)

	for range maxHeaderRetries {
		item, err := l.Choose(ctx, "floatwm", items)
		if err != nil {
			return err
		}
		if item.Header || item.Action == "" {
			continue
		}
		return Apply(c, item.Action)
	}
	return errors.New("palette: no action selected")
}
