// Package grab implements interactive pointer grabs that move or resize a
// window while a button is held.
package grab

import (
	"image"

	"github.com/1broseidon/floatwm/internal/focus"
	"github.com/1broseidon/floatwm/internal/geom"
	"github.com/1broseidon/floatwm/internal/space"
)

// Move drags a window with the pointer.
type Move struct {
	space    *space.Space
	window   *space.Window
	start    geom.Point
	initial  image.Point
	detached bool
}

var _ focus.Grab = (*Move)(nil)

// NewMove starts a move of w from the pointer position start. It returns nil
// when w is not mapped in sp.
func NewMove(sp *space.Space, w *space.Window, start geom.Point) *Move {
	loc, ok := sp.ElementLocation(w)
	if !ok {
		return nil
	}
	return &Move{space: sp, window: w, start: start, initial: loc}
}

// Motion repositions the window at initial + (location - start), rounded.
func (m *Move) Motion(seat *focus.Seat, location geom.Point, _ uint32) {
	seat.SetLocation(location)
	if m.detached || !m.space.Contains(m.window) {
		return
	}
	x, y := geom.Point{X: float64(m.initial.X), Y: float64(m.initial.Y)}.Add(location.Sub(m.start)).Round()
	m.space.MapElement(m.window, x, y, true)
}

// Button forwards to the focus held before the grab started.
func (m *Move) Button(seat *focus.Seat, button uint32, pressed bool, time uint32) {
	seat.Button(button, pressed, time)
}

func (m *Move) Unset(*focus.Seat) {}

// Detach stops the grab from touching the window. The grab stays installed
// until the last button is released.
func (m *Move) Detach() { m.detached = true }

func (m *Move) StartLocation() geom.Point { return m.start }

// Window returns the window being moved.
func (m *Move) Window() *space.Window { return m.window }

// Resize grows or shrinks a window from its bottom-right corner.
type Resize struct {
	window   *space.Window
	start    geom.Point
	initial  image.Point
	minimum  image.Point
	detached bool
}

var _ focus.Grab = (*Resize)(nil)

// MinSize is the smallest size a resize grab suggests.
const MinSize = 1

// NewResize starts a resize of w from the pointer position start.
func NewResize(w *space.Window, start geom.Point) *Resize {
	width, height := w.Size()
	return &Resize{
		window:  w,
		start:   start,
		initial: image.Pt(width, height),
		minimum: image.Pt(MinSize, MinSize),
	}
}

// Motion suggests the new size to the client with a configure.
func (r *Resize) Motion(seat *focus.Seat, location geom.Point, _ uint32) {
	seat.SetLocation(location)
	if r.detached || !r.window.Alive() {
		return
	}
	dw, dh := location.Sub(r.start).Round()
	w := max(r.initial.X+dw, r.minimum.X)
	h := max(r.initial.Y+dh, r.minimum.Y)
	r.window.Surface().SetSize(w, h)
	r.window.SendPendingConfigure()
}

func (r *Resize) Button(seat *focus.Seat, button uint32, pressed bool, time uint32) {
	seat.Button(button, pressed, time)
}

// Unset keeps the last suggested size.
func (r *Resize) Unset(*focus.Seat) {}

// Detach stops further size suggestions until the grab ends.
func (r *Resize) Detach() { r.detached = true }

func (r *Resize) StartLocation() geom.Point { return r.start }

// Window returns the window being resized.
func (r *Resize) Window() *space.Window { return r.window }
