// Package focus resolves what receives pointer and keyboard input and keeps
// the seat state: focus, pointer location, pressed buttons and the active grab.
package focus

import (
	"github.com/1broseidon/floatwm/internal/geom"
	"github.com/1broseidon/floatwm/internal/space"
	"github.com/1broseidon/floatwm/internal/surface"
)

// Kind distinguishes the variants of Target.
type Kind int

const (
	KindNone Kind = iota
	KindSurface
	KindWindow
)

// Target is either a raw surface or a mapped window. The zero value means
// nothing is focused.
type Target struct {
	kind    Kind
	surface *surface.Surface
	window  *space.Window
}

// SurfaceTarget focuses a bare surface.
func SurfaceTarget(s *surface.Surface) Target {
	if s == nil {
		return Target{}
	}
	return Target{kind: KindSurface, surface: s}
}

// WindowTarget focuses a window.
func WindowTarget(w *space.Window) Target {
	if w == nil {
		return Target{}
	}
	return Target{kind: KindWindow, surface: w.Surface(), window: w}
}

func (t Target) Kind() Kind            { return t.kind }
func (t Target) IsZero() bool          { return t.kind == KindNone }
func (t Target) Window() *space.Window { return t.window }

// Surface returns the surface that receives events: the raw surface or the
// window's toplevel surface.
func (t Target) Surface() *surface.Surface { return t.surface }

// Equal compares variants and identity.
func (t Target) Equal(o Target) bool {
	return t.kind == o.kind && t.surface == o.surface && t.window == o.window
}

// Alive reports whether the underlying surface still exists.
func (t Target) Alive() bool {
	return t.surface != nil && t.surface.Alive()
}

// Enter is called when the pointer moves onto the target. Keyboard focus
// follows the pointer; a window also becomes the only focused window and is
// activated, after which every window's pending configure is flushed.
func (t Target) Enter(seat *Seat, local geom.Point, time uint32) {
	if t.IsZero() {
		return
	}
	t.surface.Deliver(surface.Event{
		Type:   surface.EventPointerEnter,
		Serial: seat.NextSerial(),
		Time:   time,
		X:      local.X,
		Y:      local.Y,
	})
	seat.SetKeyboardFocus(t.surface)
	if t.kind != KindWindow {
		return
	}
	if seat.windows != nil {
		for _, w := range seat.windows.Elements() {
			if w != t.window {
				w.SetFocused(false)
			}
		}
	}
	t.window.SetFocused(true)
	t.window.SetActivated(true)
	seat.flushConfigures()
}

// Leave reverses Enter.
func (t Target) Leave(seat *Seat, time uint32) {
	if t.IsZero() {
		return
	}
	t.surface.Deliver(surface.Event{
		Type:   surface.EventPointerLeave,
		Serial: seat.NextSerial(),
		Time:   time,
	})
	seat.SetKeyboardFocus(nil)
	if t.kind != KindWindow {
		return
	}
	t.window.SetFocused(false)
	t.window.SetActivated(false)
	seat.flushConfigures()
}
