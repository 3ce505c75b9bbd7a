package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/1broseidon/floatwm/internal/geom"
	"github.com/1broseidon/floatwm/internal/space"
)

// fullRedrawFrames is how many frames ResetBuffers repaints in full, enough
// to cycle every buffer of a deep swap chain.
const fullRedrawFrames = 4

// BorderStyle configures window frames.
type BorderStyle struct {
	Thickness int
	Focused   color.RGBA
	Unfocused color.RGBA
}

// Pipeline builds the element list for each output and renders it.
type Pipeline struct {
	renderer *Renderer
	border   BorderStyle
	cursor   *Cursor
	status   CursorStatus
	trackers map[*space.Output]*DamageTracker
	logger   *slog.Logger
}

// NewPipeline creates a pipeline drawing with the software renderer.
func NewPipeline(border BorderStyle, cursor *Cursor, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		renderer: NewRenderer(),
		border:   border,
		cursor:   cursor,
		status:   DefaultCursor,
		trackers: make(map[*space.Output]*DamageTracker),
		logger:   logger.With("component", "render"),
	}
}

// CursorStatus returns the current pointer appearance.
func (p *Pipeline) CursorStatus() CursorStatus { return p.status }

// SetCursorStatus changes the pointer appearance.
func (p *Pipeline) SetCursorStatus(s CursorStatus) { p.status = s }

// ResetBuffers forces the next frames on o to repaint everything.
func (p *Pipeline) ResetBuffers(o *space.Output) {
	p.tracker(o).ForceFull(fullRedrawFrames)
}

// RemoveOutput forgets o's damage history.
func (p *Pipeline) RemoveOutput(o *space.Output) {
	delete(p.trackers, o)
}

func (p *Pipeline) tracker(o *space.Output) *DamageTracker {
	t, ok := p.trackers[o]
	if !ok {
		t = NewDamageTracker()
		p.trackers[o] = t
	}
	return t
}

// Elements returns what o shows, bottom to top: each window's border under
// its content, then the cursor.
func (p *Pipeline) Elements(o *space.Output, sp *space.Space, pointer geom.Point) []Element {
	og, ok := sp.OutputGeometry(o)
	if !ok {
		return nil
	}
	scale := o.Scale()
	local := func(r geom.Rect) geom.Rect {
		return r.Translate(-og.X, -og.Y).Scale(scale)
	}

	var out []Element
	for _, w := range sp.Elements() {
		bbox, _ := sp.ElementBBox(w)
		if !bbox.Overlaps(og) {
			continue
		}
		content, _ := sp.ContentGeometry(w)
		if p.border.Thickness > 0 {
			c := p.border.Unfocused
			if w.Focused() {
				c = p.border.Focused
			}
			t := max(1, int(float64(p.border.Thickness)*scale))
			out = append(out, NewBorder(fmt.Sprintf("border-%d", w.ID()), local(content), t, c))
		}
		out = append(out, NewSurfaceElement("window", w.Surface(), local(content)))
	}

	if e := p.cursorElement(pointer, local); e != nil {
		out = append(out, e)
	}
	return out
}

func (p *Pipeline) cursorElement(pointer geom.Point, local func(geom.Rect) geom.Rect) Element {
	px, py := pointer.Round()
	switch p.status.Kind {
	case CursorHidden:
		return nil
	case CursorSurface:
		s := p.status.Surface
		if s != nil && s.Alive() {
			hot := s.CursorHotspot()
			w, h := s.Size()
			return NewSurfaceElement("cursor", s, local(geom.R(px-hot.X, py-hot.Y, w, h)))
		}
		p.status = DefaultCursor
	}
	img := p.cursor.Image(p.status.Name)
	b := img.Bounds()
	return NewImageElement("cursor-"+p.status.Name, img, local(geom.R(px, py, b.Dx(), b.Dy())), 1)
}

// RenderOutput draws o into target and, once the frame is submitted, fires
// frame callbacks for every window in sp and for a cursor surface. Only
// ErrContextLost is returned; other failures are logged and the frame is
// retried on the next iteration.
func (p *Pipeline) RenderOutput(o *space.Output, sp *space.Space, target Target, pointer geom.Point, now uint32) (geom.Region, error) {
	damage, err := p.renderer.Render(target, p.tracker(o), p.Elements(o, sp, pointer))
	if err != nil {
		if errors.Is(err, ErrContextLost) {
			return nil, err
		}
		p.logger.Warn("rendering failed", "output", o.Name(), "error", err)
		return nil, nil
	}
	for _, w := range sp.Elements() {
		w.Surface().SendFrame(now)
	}
	if p.status.Kind == CursorSurface && p.status.Surface != nil {
		p.status.Surface.SendFrame(now)
	}
	return damage, nil
}

// Snapshot copies buf, for screenshots and tests.
func Snapshot(buf *image.RGBA) *image.RGBA {
	out := image.NewRGBA(buf.Bounds())
	copy(out.Pix, buf.Pix)
	return out
}
