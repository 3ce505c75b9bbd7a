package backend

import (
	"image"

	"github.com/1broseidon/floatwm/internal/geom"
)

// PresentFunc shows a submitted buffer.
type PresentFunc func(buf *image.RGBA, damage geom.Region) error

// Swapchain is a double-buffered render target that tracks buffer ages.
type Swapchain struct {
	buffers [2]*image.RGBA
	ages    [2]int
	back    int
	present PresentFunc
}

// NewSwapchain allocates two w×h buffers. present may be nil.
func NewSwapchain(w, h int, present PresentFunc) *Swapchain {
	sc := &Swapchain{present: present}
	sc.Resize(w, h)
	return sc
}

// Resize reallocates the buffers; their contents become unknown.
func (sc *Swapchain) Resize(w, h int) {
	for i := range sc.buffers {
		sc.buffers[i] = image.NewRGBA(image.Rect(0, 0, w, h))
		sc.ages[i] = 0
	}
}

// Reset marks both buffers as having unknown contents.
func (sc *Swapchain) Reset() {
	sc.ages = [2]int{}
}

// Bind returns the back buffer and its age.
func (sc *Swapchain) Bind() (*image.RGBA, int, error) {
	return sc.buffers[sc.back], sc.ages[sc.back], nil
}

// Submit presents the back buffer and swaps.
func (sc *Swapchain) Submit(damage geom.Region) error {
	if sc.present != nil {
		if err := sc.present(sc.buffers[sc.back], damage); err != nil {
			return err
		}
	}
	for i := range sc.ages {
		if sc.ages[i] > 0 {
			sc.ages[i]++
		}
	}
	sc.ages[sc.back] = 1
	sc.back = 1 - sc.back
	return nil
}

// Front returns the most recently presented buffer.
func (sc *Swapchain) Front() *image.RGBA {
	return sc.buffers[1-sc.back]
}
