package compositor

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/1broseidon/floatwm/internal/config"
	"github.com/1broseidon/floatwm/internal/ipc"
	"github.com/1broseidon/floatwm/internal/surface"
)

// maxSurfaceSize bounds attached buffers on either axis.
const maxSurfaceSize = 8192

var _ ipc.Handler = (*State)(nil)

// OpenSession implements ipc.Handler.
func (s *State) OpenSession(ctx context.Context, id string, sink surface.Sink) (ipc.Session, error) {
	err := s.Call(ctx, func() {
		if _, ok := s.clients[id]; !ok {
			s.clients[id] = make(map[surface.ID]struct{})
		}
	})
	if err != nil {
		return nil, err
	}
	return &session{state: s, id: id, sink: sink}, nil
}

// session is one connected client. Its requests run on the loop.
type session struct {
	state *State
	id    string
	sink  surface.Sink
}

func (c *session) Handle(ctx context.Context, req *ipc.Request) *ipc.Response {
	var resp *ipc.Response
	if err := c.state.Call(ctx, func() { resp = c.handle(req) }); err != nil {
		return ipc.NewErrorResponse(err.Error())
	}
	return resp
}

func (c *session) Close() {
	// The loop may already be gone during shutdown.
	c.state.Call(context.Background(), func() { c.state.DisconnectClient(c.id) })
}

// owned returns a surface of this session.
func (c *session) owned(id uint32) (*surface.Surface, error) {
	sf, ok := c.state.surfaces[surface.ID(id)]
	if !ok || sf.Client() != c.id {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchSurface, id)
	}
	return sf, nil
}

func (c *session) handle(req *ipc.Request) *ipc.Response {
	s := c.state
	switch req.Command {
	case ipc.CommandCreateSurface:
		var p ipc.CreateSurfacePayload
		if err := ipc.DecodePayload(req, &p); err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		role, err := parseRole(p.Role)
		if err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		sf := s.CreateSurface(c.id, role, p.Title, p.Width, p.Height, c.sink)
		return ipc.Respond(ipc.SurfaceData{Surface: uint32(sf.ID())}, nil)

	case ipc.CommandAttach:
		var p ipc.AttachPayload
		if err := ipc.DecodePayload(req, &p); err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		sf, err := c.owned(p.Surface)
		if err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		buf, err := decodeBuffer(p)
		if err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		sf.Attach(buf)
		return ipc.Respond(nil, nil)

	case ipc.CommandCommit:
		var p ipc.CommitPayload
		if err := ipc.DecodePayload(req, &p); err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		if _, err := c.owned(p.Surface); err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		return ipc.Respond(nil, s.Commit(surface.ID(p.Surface), p.Frame))

	case ipc.CommandSetCursor:
		var p ipc.SetCursorPayload
		if err := ipc.DecodePayload(req, &p); err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		var sf *surface.Surface
		if p.Surface != nil {
			var err error
			if sf, err = c.owned(*p.Surface); err != nil {
				return ipc.NewErrorResponse(err.Error())
			}
			if sf.Role() != surface.RoleCursor {
				return ipc.NewErrorResponse(fmt.Sprintf("surface %d is a %s, not a cursor", sf.ID(), sf.Role()))
			}
		}
		s.SetCursor(sf, image.Pt(p.HotspotX, p.HotspotY), p.Hidden)
		return ipc.Respond(nil, nil)

	case ipc.CommandMove, ipc.CommandResize:
		var p ipc.SurfacePayload
		if err := ipc.DecodePayload(req, &p); err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		if _, err := c.owned(p.Surface); err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		if req.Command == ipc.CommandMove {
			return ipc.Respond(nil, s.StartMove(surface.ID(p.Surface)))
		}
		return ipc.Respond(nil, s.StartResize(surface.ID(p.Surface)))

	case ipc.CommandDestroy:
		var p ipc.SurfacePayload
		if err := ipc.DecodePayload(req, &p); err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		if _, err := c.owned(p.Surface); err != nil {
			return ipc.NewErrorResponse(err.Error())
		}
		return ipc.Respond(nil, s.DestroySurface(surface.ID(p.Surface)))

	default:
		// Control commands work inside a session too.
		return s.control(req)
	}
}

func parseRole(name string) (surface.Role, error) {
	switch name {
	case "", "toplevel":
		return surface.RoleToplevel, nil
	case "cursor":
		return surface.RoleCursor, nil
	}
	return surface.RoleNone, fmt.Errorf("unknown surface role %q", name)
}

// decodeBuffer builds an RGBA buffer from tightly packed pixels or a solid
// color.
func decodeBuffer(p ipc.AttachPayload) (*image.RGBA, error) {
	if p.Width <= 0 || p.Height <= 0 || p.Width > maxSurfaceSize || p.Height > maxSurfaceSize {
		return nil, fmt.Errorf("invalid buffer size %dx%d", p.Width, p.Height)
	}
	buf := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	switch {
	case len(p.Pixels) > 0:
		if len(p.Pixels) != len(buf.Pix) {
			return nil, fmt.Errorf("pixels: got %d bytes, want %d for %dx%d RGBA", len(p.Pixels), len(buf.Pix), p.Width, p.Height)
		}
		copy(buf.Pix, p.Pixels)
	case p.Color != "":
		c, err := config.ParseColor(p.Color)
		if err != nil {
			return nil, err
		}
		r, g, b := c.RGB()
		draw.Draw(buf, buf.Bounds(), image.NewUniform(color.RGBA{R: r, G: g, B: b, A: 0xff}), image.Point{}, draw.Src)
	default:
		return nil, fmt.Errorf("attach needs pixels or a color")
	}
	return buf, nil
}
