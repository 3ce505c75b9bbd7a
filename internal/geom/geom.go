// Package geom holds the integer and floating point primitives shared by the
// spatial model, input routing and rendering.
package geom

import (
	"image"
	"math"
)

// Point is a logical position. Pointer coordinates are fractional.
type Point struct {
	X float64
	Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Round rounds both coordinates to the nearest integer pixel.
func (p Point) Round() (int, int) {
	return int(math.Round(p.X)), int(math.Round(p.Y))
}

// Rect is an axis aligned rectangle in logical pixels.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// R is shorthand for Rect{X: x, Y: y, Width: w, Height: h}.
func R(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Inflate grows r by n on every edge.
func (r Rect) Inflate(n int) Rect {
	return Rect{X: r.X - n, Y: r.Y - n, Width: r.Width + 2*n, Height: r.Height + 2*n}
}

// Translate moves r by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= float64(r.X) && p.X < float64(r.Right()) &&
		p.Y >= float64(r.Y) && p.Y < float64(r.Bottom())
}

// Intersect returns the overlap of r and s, or the zero Rect.
func (r Rect) Intersect(s Rect) Rect {
	x1 := max(r.X, s.X)
	y1 := max(r.Y, s.Y)
	x2 := min(r.Right(), s.Right())
	y2 := min(r.Bottom(), s.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Overlaps reports whether r and s share at least one pixel.
func (r Rect) Overlaps(s Rect) bool {
	return !r.Intersect(s).Empty()
}

// Union returns the smallest rectangle covering r and s. Empty operands are
// ignored.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	x1 := min(r.X, s.X)
	y1 := min(r.Y, s.Y)
	x2 := max(r.Right(), s.Right())
	y2 := max(r.Bottom(), s.Bottom())
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Scale converts a logical rectangle into physical pixels.
func (r Rect) Scale(f float64) Rect {
	if f == 1 || f <= 0 {
		return r
	}
	x1 := int(math.Floor(float64(r.X) * f))
	y1 := int(math.Floor(float64(r.Y) * f))
	x2 := int(math.Ceil(float64(r.Right()) * f))
	y2 := int(math.Ceil(float64(r.Bottom()) * f))
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Image converts r into an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.Right(), r.Bottom())
}

// FromImage converts an image.Rectangle into a Rect.
func FromImage(r image.Rectangle) Rect {
	return Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}
