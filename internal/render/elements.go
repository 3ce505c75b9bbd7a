package render

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/1broseidon/floatwm/internal/geom"
	"github.com/1broseidon/floatwm/internal/surface"
)

// BorderElement is a solid frame of a given thickness around a rectangle.
// It is drawn beneath the window content it surrounds.
type BorderElement struct {
	id        string
	outer     geom.Rect
	thickness int
	color     color.RGBA
}

// NewBorder frames content with thickness pixels of c.
func NewBorder(id string, content geom.Rect, thickness int, c color.RGBA) *BorderElement {
	return &BorderElement{id: id, outer: content.Inflate(thickness), thickness: thickness, color: c}
}

func (b *BorderElement) ID() string          { return b.id }
func (b *BorderElement) Geometry() geom.Rect { return b.outer }

// Commit encodes the color so a focus change repaints the frame.
func (b *BorderElement) Commit() uint64 {
	return uint64(b.color.R)<<24 | uint64(b.color.G)<<16 | uint64(b.color.B)<<8 | uint64(b.color.A)
}

func (b *BorderElement) Draw(dst *image.RGBA, clip geom.Rect) {
	src := image.NewUniform(b.color)
	t := b.thickness
	o := b.outer
	edges := []geom.Rect{
		geom.R(o.X, o.Y, o.Width, t),
		geom.R(o.X, o.Bottom()-t, o.Width, t),
		geom.R(o.X, o.Y+t, t, o.Height-2*t),
		geom.R(o.Right()-t, o.Y+t, t, o.Height-2*t),
	}
	for _, e := range edges {
		if r := e.Intersect(clip); !r.Empty() {
			draw.Draw(dst, r.Image(), src, image.Point{}, draw.Src)
		}
	}
}

// SurfaceElement draws a surface's committed buffer, scaled to dest.
type SurfaceElement struct {
	surface *surface.Surface
	dest    geom.Rect
	prefix  string
}

// NewSurfaceElement places s at dest in output-local physical pixels.
func NewSurfaceElement(prefix string, s *surface.Surface, dest geom.Rect) *SurfaceElement {
	return &SurfaceElement{surface: s, dest: dest, prefix: prefix}
}

func (e *SurfaceElement) ID() string          { return fmt.Sprintf("%s-%d", e.prefix, e.surface.ID()) }
func (e *SurfaceElement) Geometry() geom.Rect { return e.dest }
func (e *SurfaceElement) Commit() uint64      { return e.surface.Generation() }

func (e *SurfaceElement) Draw(dst *image.RGBA, clip geom.Rect) {
	buf := e.surface.Buffer()
	if buf == nil {
		return
	}
	drawScaled(dst, e.dest, buf, clip)
}

// ImageElement draws a fixed image, such as a named cursor.
type ImageElement struct {
	id     string
	img    *image.RGBA
	dest   geom.Rect
	commit uint64
}

// NewImageElement places img at dest. commit identifies the image content.
func NewImageElement(id string, img *image.RGBA, dest geom.Rect, commit uint64) *ImageElement {
	return &ImageElement{id: id, img: img, dest: dest, commit: commit}
}

func (e *ImageElement) ID() string          { return e.id }
func (e *ImageElement) Geometry() geom.Rect { return e.dest }
func (e *ImageElement) Commit() uint64      { return e.commit }

func (e *ImageElement) Draw(dst *image.RGBA, clip geom.Rect) {
	drawScaled(dst, e.dest, e.img, clip)
}

// drawScaled composites src over dst so that src fills dest, touching only
// pixels inside clip.
func drawScaled(dst *image.RGBA, dest geom.Rect, src *image.RGBA, clip geom.Rect) {
	sb := src.Bounds()
	if sb.Dx() == dest.Width && sb.Dy() == dest.Height {
		r := dest.Intersect(clip)
		if r.Empty() {
			return
		}
		sp := sb.Min.Add(image.Pt(r.X-dest.X, r.Y-dest.Y))
		draw.Draw(dst, r.Image(), src, sp, draw.Over)
		return
	}
	// Scale into a clip-sized view of dst. The scaler maps the whole source
	// onto dest, and the sub-image bounds keep writes inside clip.
	r := dest.Intersect(clip)
	if r.Empty() {
		return
	}
	view, ok := dst.SubImage(r.Image()).(*image.RGBA)
	if !ok {
		return
	}
	draw.ApproxBiLinear.Scale(view, dest.Image(), src, sb, draw.Over, nil)
}
