package compositor

import (
	"context"
	"fmt"
	"time"

	"github.com/1broseidon/floatwm/internal/ipc"
	"github.com/1broseidon/floatwm/internal/surface"
)

// Status reports the compositor state for GET_STATUS.
func (s *State) Status() ipc.StatusData {
	return ipc.StatusData{
		Backend:        s.backend.Name(),
		Seat:           s.seat.Name(),
		Workspace:      s.spaces.ActiveIndex() + 1,
		WorkspaceCount: s.spaces.Len(),
		WindowCount:    len(s.windows),
		Clients:        len(s.clients),
		UptimeSeconds:  int64(s.now().Sub(s.start) / time.Second),
		Running:        s.running,
	}
}

// Windows lists every window, workspace by workspace, bottom to top.
func (s *State) Windows() []ipc.WindowInfo {
	out := []ipc.WindowInfo{}
	for _, p := range s.spaces.All() {
		w := p.Window
		r, _ := s.spaces.Get(p.Workspace).ContentGeometry(w)
		out = append(out, ipc.WindowInfo{
			ID:        uint32(w.ID()),
			Title:     w.Surface().Title(),
			Client:    w.Surface().Client(),
			Workspace: p.Workspace + 1,
			X:         r.X,
			Y:         r.Y,
			Width:     r.Width,
			Height:    r.Height,
			Focused:   w.Focused(),
			Activated: w.Activated(),
		})
	}
	return out
}

// Outputs lists the output layout.
func (s *State) Outputs() []ipc.OutputInfo {
	sp := s.spaces.Active()
	out := []ipc.OutputInfo{}
	for _, o := range sp.Outputs() {
		r, _ := sp.OutputGeometry(o)
		out = append(out, ipc.OutputInfo{
			Name:      o.Name(),
			X:         r.X,
			Y:         r.Y,
			Width:     r.Width,
			Height:    r.Height,
			Refresh:   o.Mode().Refresh,
			Scale:     o.Scale(),
			Transform: o.Transform().String(),
		})
	}
	return out
}

// MoveWindow places window id's content origin at (x, y) and raises it.
func (s *State) MoveWindow(id surface.ID, x, y int) error {
	w, ok := s.windows[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchWindow, id)
	}
	i := s.spaces.Find(w)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNoSuchWindow, id)
	}
	s.spaces.Get(i).MapElement(w, x, y, false)
	return nil
}

// CloseWindow asks window id's client to close it.
func (s *State) CloseWindow(id surface.ID) error {
	w, ok := s.windows[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSuchWindow, id)
	}
	w.Surface().SendClose()
	return nil
}

// HandleControl implements ipc.Handler. The request runs on the loop.
func (s *State) HandleControl(ctx context.Context, req *ipc.Request) *ipc.Response {
	var resp *ipc.Response
	err := s.Call(ctx, func() { resp = s.control(req) })
	if err != nil {
		return ipc.NewErrorResponse(err.Error())
	}
	return resp
}

func (s *State) control(req *ipc.Request) *ipc.Response {
	switch req.Command {
	case ipc.CommandGetStatus:
		return ipc.Respond(s.Status(), nil)
	case ipc.CommandListWindows:
		return ipc.Respond(ipc.WindowsData{Windows: s.Windows()}, nil)
	case ipc.CommandListOutputs:
		return ipc.Respond(ipc.OutputsData{Outputs: s.Outputs()}, nil)
	case ipc.CommandSpawn:
		var p ipc.SpawnPayload
		if err := ipc.DecodePayload(req, &p); err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		return ipc.Respond(nil, s.Spawn(p.Command))
	case ipc.CommandFocusWindow:
		var p ipc.WindowPayload
		if err := ipc.DecodePayload(req, &p); err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		w, ok := s.windows[surface.ID(p.ID)]
		if !ok {
			return ipc.NewErrorResponse(fmt.Sprintf("%v: %d", ErrNoSuchWindow, p.ID))
		}
		return ipc.Respond(nil, s.FocusWindow(w))
	case ipc.CommandMoveWindow:
		var p ipc.MoveWindowPayload
		if err := ipc.DecodePayload(req, &p); err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		return ipc.Respond(nil, s.MoveWindow(surface.ID(p.ID), p.X, p.Y))
	case ipc.CommandCloseWindow:
		var p ipc.WindowPayload
		if err := ipc.DecodePayload(req, &p); err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		return ipc.Respond(nil, s.CloseWindow(surface.ID(p.ID)))
	case ipc.CommandSwitchWorkspace:
		var p ipc.SwitchWorkspacePayload
		if err := ipc.DecodePayload(req, &p); err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		return ipc.Respond(nil, s.SwitchWorkspace(p.Workspace-1))
	case ipc.CommandQuit:
		s.Stop()
		return ipc.Respond(nil, nil)
	default:
		return ipc.NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}
