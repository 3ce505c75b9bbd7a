package space

import "slices"

// Workspaces is a fixed ring of spaces sharing one output layout. Only the
// active space is hit-tested and rendered.
type Workspaces struct {
	spaces []*Space
	active int
}

// NewWorkspaces creates n spaces (at least one).
func NewWorkspaces(n, border int) *Workspaces {
	if n < 1 {
		n = 1
	}
	ws := &Workspaces{spaces: make([]*Space, n)}
	for i := range ws.spaces {
		ws.spaces[i] = New(border)
	}
	return ws
}

func (ws *Workspaces) Len() int         { return len(ws.spaces) }
func (ws *Workspaces) Active() *Space   { return ws.spaces[ws.active] }
func (ws *Workspaces) ActiveIndex() int { return ws.active }

// Get returns the space at index i, or nil.
func (ws *Workspaces) Get(i int) *Space {
	if i < 0 || i >= len(ws.spaces) {
		return nil
	}
	return ws.spaces[i]
}

// Elements lists the windows of the active space bottom to top.
func (ws *Workspaces) Elements() []*Window {
	return ws.Active().Elements()
}

// Switch makes space i active. It reports false for an out of range index or
// when i is already active.
func (ws *Workspaces) Switch(i int) bool {
	if i < 0 || i >= len(ws.spaces) || i == ws.active {
		return false
	}
	ws.active = i
	return true
}

// Next activates the following space, wrapping around.
func (ws *Workspaces) Next() bool {
	return ws.Switch(ws.wrap(ws.active + 1))
}

// Prev activates the preceding space, wrapping around.
func (ws *Workspaces) Prev() bool {
	return ws.Switch(ws.wrap(ws.active - 1))
}

func (ws *Workspaces) wrap(i int) int {
	n := len(ws.spaces)
	return ((i % n) + n) % n
}

// MapOutput places o in every space.
func (ws *Workspaces) MapOutput(o *Output, x, y int) {
	for _, s := range ws.spaces {
		s.MapOutput(o, x, y)
	}
}

// UnmapOutput removes o from every space.
func (ws *Workspaces) UnmapOutput(o *Output) {
	for _, s := range ws.spaces {
		s.UnmapOutput(o)
	}
}

// Find returns the index of the space holding w, or -1.
func (ws *Workspaces) Find(w *Window) int {
	return slices.IndexFunc(ws.spaces, func(s *Space) bool { return s.Contains(w) })
}

// MoveWindow moves w to space to, keeping its location. The window is
// deactivated when it leaves the active space.
func (ws *Workspaces) MoveWindow(w *Window, to int) bool {
	from := ws.Find(w)
	if from < 0 || to < 0 || to >= len(ws.spaces) || from == to {
		return false
	}
	loc, _ := ws.spaces[from].ElementLocation(w)
	ws.spaces[from].UnmapElement(w)
	if from == ws.active {
		w.SetActivated(false)
		w.SetFocused(false)
		w.SendPendingConfigure()
	}
	ws.spaces[to].MapElement(w, loc.X, loc.Y, false)
	return true
}

// MoveWindowRelative moves w by delta spaces, wrapping around.
func (ws *Workspaces) MoveWindowRelative(w *Window, delta int) bool {
	from := ws.Find(w)
	if from < 0 {
		return false
	}
	return ws.MoveWindow(w, ws.wrap(from+delta))
}

// All returns every window with the index of its space.
func (ws *Workspaces) All() []Placement {
	var out []Placement
	for i, s := range ws.spaces {
		for _, w := range s.Elements() {
			out = append(out, Placement{Window: w, Workspace: i})
		}
	}
	return out
}

// Placement pairs a window with its workspace index.
type Placement struct {
	Window    *Window
	Workspace int
}

// Refresh refreshes every space.
func (ws *Workspaces) Refresh() {
	for _, s := range ws.spaces {
		s.Refresh()
	}
}
