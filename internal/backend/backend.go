// Package backend defines what the compositor needs from a display backend
// and provides the headless implementation.
package backend

import (
	"github.com/1broseidon/floatwm/internal/input"
	"github.com/1broseidon/floatwm/internal/render"
	"github.com/1broseidon/floatwm/internal/space"
	"github.com/1broseidon/floatwm/internal/surface"
)

// Event is produced by Dispatch: an input.Event or one of the types below.
type Event any

// OutputResized reports a new mode for an output, e.g. after the host window
// was resized.
type OutputResized struct {
	Output *space.Output
	Mode   space.Mode
}

// CloseRequested asks the compositor to quit, e.g. when the host window is
// closed.
type CloseRequested struct{}

// Damaged asks for a full redraw of an output, e.g. after an expose.
type Damaged struct {
	Output *space.Output
}

// Placement is an output and its position in the global space.
type Placement struct {
	Output *space.Output
	X, Y   int
}

// Backend is a display and input provider. All methods are called from the
// event loop goroutine.
type Backend interface {
	Name() string
	// SeatName names the input seat.
	SeatName() string
	// Outputs lists the outputs to map at startup.
	Outputs() []Placement
	// Dispatch delivers pending events without blocking. An error is fatal.
	Dispatch(func(Event)) error
	// Target returns the buffer chain of o.
	Target(o *space.Output) (render.Target, bool)
	// ResetBuffers forgets buffer contents so the next frames redraw fully.
	ResetBuffers(o *space.Output)
	// EarlyImport is a hint that s has a fresh commit.
	EarlyImport(s *surface.Surface)
	// UpdateLEDState sets the keyboard indicators.
	UpdateLEDState(input.LockState)
	Close() error
}
