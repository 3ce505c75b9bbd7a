package compositor

import (
	"fmt"
	"image"

	"github.com/1broseidon/floatwm/internal/grab"
	"github.com/1broseidon/floatwm/internal/input"
	"github.com/1broseidon/floatwm/internal/render"
	"github.com/1broseidon/floatwm/internal/space"
	"github.com/1broseidon/floatwm/internal/surface"
)

// CreateSurface registers a surface for client. Toplevels are mapped right
// away; a size suggests the first configure.
func (s *State) CreateSurface(client string, role surface.Role, title string, width, height int, sink surface.Sink) *surface.Surface {
	sf := surface.New(s.nextID, client, sink)
	s.nextID++
	sf.SetRole(role)
	sf.SetTitle(title)
	if width > 0 && height > 0 {
		sf.SetSize(width, height)
	}
	s.surfaces[sf.ID()] = sf
	owned, ok := s.clients[client]
	if !ok {
		owned = make(map[surface.ID]struct{})
		s.clients[client] = owned
	}
	owned[sf.ID()] = struct{}{}

	s.logger.Debug("surface created", "surface", sf.ID(), "role", role.String(), "client", client)
	if role == surface.RoleToplevel {
		s.MapWindow(sf)
	}
	return sf
}

// MapWindow wraps sf in a window on the active space at (0, 0), on top and
// activated. Mapping a surface twice returns the existing window.
func (s *State) MapWindow(sf *surface.Surface) *space.Window {
	if w, ok := s.windows[sf.ID()]; ok {
		return w
	}
	w := space.NewWindow(sf)
	s.windows[sf.ID()] = w
	s.spaces.Active().MapElement(w, 0, 0, true)
	s.logger.Info("window mapped", "window", sf.ID(), "title", sf.Title(), "workspace", s.spaces.ActiveIndex()+1)
	return w
}

// UnmapWindow removes sf's window from whichever space holds it.
func (s *State) UnmapWindow(sf *surface.Surface) bool {
	w, ok := s.windows[sf.ID()]
	if !ok {
		return false
	}
	delete(s.windows, sf.ID())
	if i := s.spaces.Find(w); i >= 0 {
		s.spaces.Get(i).UnmapElement(w)
	}
	s.detachGrab(w)
	if s.seat.KeyboardFocus() == sf {
		s.seat.SetKeyboardFocus(nil)
	}
	s.logger.Info("window unmapped", "window", sf.ID())
	return true
}

// Attach stages a buffer on surface id.
func (s *State) Attach(id surface.ID, buf *image.RGBA) error {
	sf, ok := s.surfaces[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchSurface, id)
	}
	sf.Attach(buf)
	return nil
}

// Commit applies surface id's staged state. The first commit of a toplevel
// sends its initial configure; later commits only refresh window state.
func (s *State) Commit(id surface.ID, requestFrame bool) error {
	sf, ok := s.surfaces[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchSurface, id)
	}
	sf.Commit(requestFrame)
	s.backend.EarlyImport(sf)
	if w, ok := s.windows[id]; ok {
		if !sf.InitialConfigureSent() {
			sf.SendConfigure()
		}
		if i := s.spaces.Find(w); i >= 0 {
			// Size changes move the window's output overlap.
			s.spaces.Get(i).Refresh()
		}
	}
	return nil
}

// SetActivated changes a window's activated state and sends a configure if
// it changed.
func (s *State) SetActivated(id surface.ID, activated bool) error {
	w, ok := s.windows[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchWindow, id)
	}
	if w.Surface().SetActivated(activated) {
		w.SendPendingConfigure()
	}
	return nil
}

// SendConfigure sends surface id's pending state unconditionally.
func (s *State) SendConfigure(id surface.ID) (uint32, error) {
	sf, ok := s.surfaces[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrNoSuchSurface, id)
	}
	return sf.SendConfigure(), nil
}

// SendPendingConfigure sends surface id's state if it changed.
func (s *State) SendPendingConfigure(id surface.ID) (uint32, bool, error) {
	sf, ok := s.surfaces[id]
	if !ok {
		return 0, false, fmt.Errorf("%w: %d", ErrNoSuchSurface, id)
	}
	serial, sent := sf.SendPendingConfigure()
	return serial, sent, nil
}

// SendFrame fires surface id's pending frame callback.
func (s *State) SendFrame(id surface.ID) (bool, error) {
	sf, ok := s.surfaces[id]
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrNoSuchSurface, id)
	}
	return sf.SendFrame(s.msec()), nil
}

// SetCursor sets the pointer image to a cursor surface, hides it, or with a
// nil surface and hidden false restores the default.
func (s *State) SetCursor(sf *surface.Surface, hotspot image.Point, hidden bool) {
	switch {
	case hidden:
		s.pipeline.SetCursorStatus(render.CursorStatus{Kind: render.CursorHidden})
	case sf == nil:
		s.pipeline.SetCursorStatus(render.DefaultCursor)
	default:
		sf.SetCursorHotspot(hotspot)
		s.pipeline.SetCursorStatus(render.CursorStatus{Kind: render.CursorSurface, Surface: sf})
	}
}

// StartMove begins an interactive move of window id. It needs a held button,
// like any client-initiated move.
func (s *State) StartMove(id surface.ID) error {
	w, err := s.grabbable(id)
	if err != nil {
		return err
	}
	g := grab.NewMove(s.spaces.Active(), w, s.seat.Location())
	if g == nil {
		return fmt.Errorf("%w: %d", ErrNoSuchWindow, id)
	}
	s.seat.SetGrab(g)
	return nil
}

// StartResize begins an interactive resize of window id.
func (s *State) StartResize(id surface.ID) error {
	w, err := s.grabbable(id)
	if err != nil {
		return err
	}
	s.seat.SetGrab(grab.NewResize(w, s.seat.Location()))
	return nil
}

func (s *State) grabbable(id surface.ID) (*space.Window, error) {
	w, ok := s.windows[id]
	if !ok || !s.spaces.Active().Contains(w) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchWindow, id)
	}
	if len(s.seat.PressedButtons()) == 0 {
		return nil, fmt.Errorf("no pointer button held")
	}
	return w, nil
}

// DestroySurface kills surface id and unmaps its window.
func (s *State) DestroySurface(id surface.ID) error {
	sf, ok := s.surfaces[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchSurface, id)
	}
	s.destroy(sf)
	return nil
}

func (s *State) destroy(sf *surface.Surface) {
	s.UnmapWindow(sf)
	sf.Kill()
	delete(s.surfaces, sf.ID())
	if owned, ok := s.clients[sf.Client()]; ok {
		delete(owned, sf.ID())
	}
	if st := s.pipeline.CursorStatus(); st.Kind == render.CursorSurface && st.Surface == sf {
		s.pipeline.SetCursorStatus(render.DefaultCursor)
	}
	s.seat.Forget()
}

// DisconnectClient destroys every surface client owns.
func (s *State) DisconnectClient(client string) {
	owned := s.clients[client]
	delete(s.clients, client)
	for id := range owned {
		if sf, ok := s.surfaces[id]; ok {
			s.destroy(sf)
		}
	}
}

// Clients returns the number of connected clients.
func (s *State) Clients() int { return len(s.clients) }

var _ input.ActionHandler = (*State)(nil)
