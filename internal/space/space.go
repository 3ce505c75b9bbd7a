// Package space holds the stacking order and placement of windows and the
// layout of outputs in global logical coordinates.
package space

import (
	"image"
	"slices"

	"github.com/1broseidon/floatwm/internal/geom"
	"github.com/1broseidon/floatwm/internal/surface"
)

// Window is a mapped toplevel.
type Window struct {
	surface *surface.Surface
	focused bool
}

// NewWindow wraps a toplevel surface.
func NewWindow(s *surface.Surface) *Window {
	return &Window{surface: s}
}

func (w *Window) Surface() *surface.Surface { return w.surface }
func (w *Window) ID() surface.ID            { return w.surface.ID() }
func (w *Window) Alive() bool               { return w.surface.Alive() }

// Focused is the border highlight flag, driven by pointer enter and leave.
func (w *Window) Focused() bool         { return w.focused }
func (w *Window) SetFocused(f bool)     { w.focused = f }
func (w *Window) Size() (int, int)      { return w.surface.Size() }
func (w *Window) Activated() bool       { return w.surface.Activated() }
func (w *Window) SetActivated(a bool)   { w.surface.SetActivated(a) }
func (w *Window) SendPendingConfigure() { w.surface.SendPendingConfigure() }

type element struct {
	window  *Window
	loc     image.Point
	outputs []*Output
}

type mappedOutput struct {
	output *Output
	loc    image.Point
}

// Space keeps windows bottom to top; the last element is drawn last and hit
// first. Every window is treated as occupying its content rectangle grown by
// the border thickness on all sides.
type Space struct {
	border   int
	elements []*element
	outputs  []*mappedOutput
}

// New creates an empty space with the given border thickness.
func New(border int) *Space {
	return &Space{border: border}
}

// Border returns the border thickness used for hit-testing and damage.
func (s *Space) Border() int { return s.border }

func (s *Space) find(w *Window) int {
	return slices.IndexFunc(s.elements, func(e *element) bool { return e.window == w })
}

// MapElement places w with its content origin at (x, y) and puts it on top.
// Mapping an already mapped window moves and raises it.
func (s *Space) MapElement(w *Window, x, y int, activate bool) {
	if i := s.find(w); i >= 0 {
		e := s.elements[i]
		s.elements = slices.Delete(s.elements, i, i+1)
		e.loc = image.Pt(x, y)
		s.elements = append(s.elements, e)
	} else {
		s.elements = append(s.elements, &element{window: w, loc: image.Pt(x, y)})
	}
	s.updateOutputs(s.elements[len(s.elements)-1])
	if activate {
		s.activate(w)
	}
}

// UnmapElement removes w and reports whether it was mapped.
func (s *Space) UnmapElement(w *Window) bool {
	i := s.find(w)
	if i < 0 {
		return false
	}
	s.elements = slices.Delete(s.elements, i, i+1)
	return true
}

// Contains reports whether w is mapped.
func (s *Space) Contains(w *Window) bool { return s.find(w) >= 0 }

// RaiseElement moves w to the top. With activate, w becomes the only
// activated window.
func (s *Space) RaiseElement(w *Window, activate bool) {
	i := s.find(w)
	if i < 0 {
		return
	}
	e := s.elements[i]
	s.elements = append(slices.Delete(s.elements, i, i+1), e)
	if activate {
		s.activate(w)
	}
}

// LowerElement moves w to the bottom of the stack.
func (s *Space) LowerElement(w *Window) {
	i := s.find(w)
	if i <= 0 {
		return
	}
	e := s.elements[i]
	s.elements = slices.Insert(slices.Delete(s.elements, i, i+1), 0, e)
}

func (s *Space) activate(w *Window) {
	for _, e := range s.elements {
		e.window.SetActivated(e.window == w)
	}
}

// Elements returns the windows bottom to top.
func (s *Space) Elements() []*Window {
	out := make([]*Window, len(s.elements))
	for i, e := range s.elements {
		out[i] = e.window
	}
	return out
}

// Len returns the number of mapped windows.
func (s *Space) Len() int { return len(s.elements) }

// ElementLocation returns the content origin of w.
func (s *Space) ElementLocation(w *Window) (image.Point, bool) {
	i := s.find(w)
	if i < 0 {
		return image.Point{}, false
	}
	return s.elements[i].loc, true
}

// ContentGeometry is the window's content rectangle without the border.
func (s *Space) ContentGeometry(w *Window) (geom.Rect, bool) {
	i := s.find(w)
	if i < 0 {
		return geom.Rect{}, false
	}
	return s.contentRect(s.elements[i]), true
}

func (s *Space) contentRect(e *element) geom.Rect {
	width, height := e.window.Size()
	return geom.Rect{X: e.loc.X, Y: e.loc.Y, Width: width, Height: height}
}

// ElementGeometry is the border-inflated rectangle of w.
func (s *Space) ElementGeometry(w *Window) (geom.Rect, bool) {
	r, ok := s.ContentGeometry(w)
	if !ok {
		return geom.Rect{}, false
	}
	return r.Inflate(s.border), true
}

// ElementBBox is the damage extent of w. It equals ElementGeometry.
func (s *Space) ElementBBox(w *Window) (geom.Rect, bool) {
	return s.ElementGeometry(w)
}

// ElementUnder returns the topmost window whose inflated rectangle contains
// p, together with the origin of that rectangle.
func (s *Space) ElementUnder(p geom.Point) (*Window, image.Point, bool) {
	for i := len(s.elements) - 1; i >= 0; i-- {
		e := s.elements[i]
		r := s.contentRect(e).Inflate(s.border)
		if r.Contains(p) {
			return e.window, image.Pt(r.X, r.Y), true
		}
	}
	return nil, image.Point{}, false
}

// MapOutput places o with its top-left at (x, y), replacing any earlier
// placement.
func (s *Space) MapOutput(o *Output, x, y int) {
	for _, m := range s.outputs {
		if m.output == o {
			m.loc = image.Pt(x, y)
			s.refreshOutputs()
			return
		}
	}
	s.outputs = append(s.outputs, &mappedOutput{output: o, loc: image.Pt(x, y)})
	s.refreshOutputs()
}

// UnmapOutput removes o from the layout.
func (s *Space) UnmapOutput(o *Output) {
	s.outputs = slices.DeleteFunc(s.outputs, func(m *mappedOutput) bool { return m.output == o })
	s.refreshOutputs()
}

// Outputs returns outputs in mapping order.
func (s *Space) Outputs() []*Output {
	out := make([]*Output, len(s.outputs))
	for i, m := range s.outputs {
		out[i] = m.output
	}
	return out
}

// OutputGeometry is o's logical rectangle in the global space.
func (s *Space) OutputGeometry(o *Output) (geom.Rect, bool) {
	for _, m := range s.outputs {
		if m.output == o {
			w, h := o.LogicalSize()
			return geom.Rect{X: m.loc.X, Y: m.loc.Y, Width: w, Height: h}, true
		}
	}
	return geom.Rect{}, false
}

// OutputUnder returns the outputs containing p.
func (s *Space) OutputUnder(p geom.Point) []*Output {
	var out []*Output
	for _, m := range s.outputs {
		if r, _ := s.OutputGeometry(m.output); r.Contains(p) {
			out = append(out, m.output)
		}
	}
	return out
}

// OutputsForElement returns the outputs w overlapped at the last refresh or
// placement.
func (s *Space) OutputsForElement(w *Window) []*Output {
	i := s.find(w)
	if i < 0 {
		return nil
	}
	return slices.Clone(s.elements[i].outputs)
}

// Refresh drops windows whose surface died and recomputes output overlap.
func (s *Space) Refresh() {
	s.elements = slices.DeleteFunc(s.elements, func(e *element) bool { return !e.window.Alive() })
	s.refreshOutputs()
}

func (s *Space) refreshOutputs() {
	for _, e := range s.elements {
		s.updateOutputs(e)
	}
}

func (s *Space) updateOutputs(e *element) {
	e.outputs = e.outputs[:0]
	bbox := s.contentRect(e).Inflate(s.border)
	for _, m := range s.outputs {
		if r, _ := s.OutputGeometry(m.output); r.Overlaps(bbox) {
			e.outputs = append(e.outputs, m.output)
		}
	}
}
