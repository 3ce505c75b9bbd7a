// Package render composites windows, borders and the cursor into output
// buffers in software, redrawing only damaged regions.
package render

import (
	"errors"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/1broseidon/floatwm/internal/geom"
)

// ErrContextLost means the output's drawing context is gone for good. The
// event loop treats it as fatal.
var ErrContextLost = errors.New("render context lost")

// Target is an output's buffer chain.
type Target interface {
	// Bind returns the back buffer and its age: how many frames ago its
	// content was current. Age 0 means unknown contents.
	Bind() (*image.RGBA, int, error)
	// Submit presents the bound buffer. damage lists the changed rectangles.
	Submit(damage geom.Region) error
}

// Element is one drawable item in output-local physical coordinates.
type Element interface {
	// ID is stable across frames for the same item.
	ID() string
	Geometry() geom.Rect
	// Commit changes whenever the content changes without moving.
	Commit() uint64
	// Draw paints the part of the element inside clip.
	Draw(dst *image.RGBA, clip geom.Rect)
}

// Renderer paints elements into a target, clearing damaged areas first.
type Renderer struct {
	Clear color.RGBA
}

// NewRenderer returns a renderer with the default dark background.
func NewRenderer() *Renderer {
	return &Renderer{Clear: color.RGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}}
}

// Render binds target, draws elements bottom to top over the damage tracked
// by tracker and submits. It returns the damage that was drawn; an empty
// region means nothing changed and nothing was submitted.
func (r *Renderer) Render(target Target, tracker *DamageTracker, elements []Element) (geom.Region, error) {
	buf, age, err := target.Bind()
	if err != nil {
		return nil, err
	}
	tracker.Resize(geom.FromImage(buf.Bounds()))
	damage := tracker.Damage(age, elements)
	if len(damage) == 0 {
		return nil, nil
	}
	bg := image.NewUniform(r.Clear)
	for _, d := range damage {
		draw.Draw(buf, d.Image(), bg, image.Point{}, draw.Src)
	}
	for _, e := range elements {
		g := e.Geometry()
		for _, d := range damage {
			if clip := g.Intersect(d); !clip.Empty() {
				e.Draw(buf, clip)
			}
		}
	}
	if err := target.Submit(damage); err != nil {
		return nil, err
	}
	return damage, nil
}
