package render

import (
	"image"
	"image/color"

	"github.com/1broseidon/floatwm/internal/surface"
)

// CursorKind selects how the pointer is drawn.
type CursorKind int

const (
	CursorNamed CursorKind = iota
	CursorHidden
	CursorSurface
)

// CursorStatus is what the focused client last asked the pointer to look
// like.
type CursorStatus struct {
	Kind    CursorKind
	Name    string
	Surface *surface.Surface
}

// DefaultCursor is the named arrow shown when no client sets a cursor.
var DefaultCursor = CursorStatus{Kind: CursorNamed, Name: "default"}

// Cursor draws named cursors from a cache of generated images.
type Cursor struct {
	size  int
	color color.RGBA
	cache map[string]*image.RGBA
}

// NewCursor creates a cursor theme with images of size pixels filled with c.
func NewCursor(size int, c color.RGBA) *Cursor {
	if size < 4 {
		size = 4
	}
	return &Cursor{size: size, color: c, cache: make(map[string]*image.RGBA)}
}

// Image returns the cached image for name, generating it on first use.
// Every name currently renders as the arrow.
func (c *Cursor) Image(name string) *image.RGBA {
	if img, ok := c.cache[name]; ok {
		return img
	}
	img := arrow(c.size, c.color)
	c.cache[name] = img
	return img
}

// CacheLen reports how many images were generated.
func (c *Cursor) CacheLen() int { return len(c.cache) }

// arrow draws an up-left pointing arrow with a one-pixel black outline.
func arrow(size int, fill color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	inside := func(x, y int) bool {
		return x >= 0 && y >= 0 && y < size && x <= y && x+y/2 < size
	}
	outline := color.RGBA{A: 0xff}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if !inside(x, y) {
				continue
			}
			edge := !inside(x-1, y) || !inside(x+1, y) || !inside(x, y-1) || !inside(x, y+1)
			if edge {
				img.SetRGBA(x, y, outline)
			} else {
				img.SetRGBA(x, y, fill)
			}
		}
	}
	return img
}
