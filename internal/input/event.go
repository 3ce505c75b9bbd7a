// Package input defines backend-neutral input events and routes them to the
// seat, the keybinding table and the active grab.
package input

import (
	"github.com/1broseidon/floatwm/internal/focus"
	"github.com/1broseidon/floatwm/internal/geom"
	"github.com/1broseidon/floatwm/internal/keybind"
)

// Event is one of the concrete event types below.
type Event interface {
	EventTime() uint32
}

// LockState is the state of the lock keys, mirrored to the keyboard LEDs.
type LockState struct {
	Caps   bool
	Num    bool
	Scroll bool
}

// KeyEvent is a key press or release with the modifier state and keysym the
// backend resolved for it.
type KeyEvent struct {
	Time    uint32
	Keycode uint32
	Sym     keybind.Keysym
	Mods    keybind.Modifiers
	Locks   LockState
	Pressed bool
}

// PointerMotionEvent moves the pointer by a relative delta.
type PointerMotionEvent struct {
	Time         uint32
	Delta        geom.Point
	DeltaUnaccel geom.Point
}

// PointerMotionAbsoluteEvent places the pointer at Position, given in global
// logical coordinates.
type PointerMotionAbsoluteEvent struct {
	Time     uint32
	Position geom.Point
}

// PointerButtonEvent is a press or release of a button code (BTN_LEFT = 0x110).
type PointerButtonEvent struct {
	Time    uint32
	Button  uint32
	Pressed bool
}

// PointerAxisEvent is a scroll. Amount holds the continuous value if the
// device reported one; V120 holds discrete wheel steps in 1/120 units.
type PointerAxisEvent struct {
	Time      uint32
	Source    focus.AxisSource
	Amount    [2]float64
	HasAmount [2]bool
	V120      [2]float64
	HasV120   [2]bool
}

// GestureKind names a touchpad gesture phase.
type GestureKind string

const (
	GestureSwipeBegin  GestureKind = "swipe_begin"
	GestureSwipeUpdate GestureKind = "swipe_update"
	GestureSwipeEnd    GestureKind = "swipe_end"
	GesturePinchBegin  GestureKind = "pinch_begin"
	GesturePinchUpdate GestureKind = "pinch_update"
	GesturePinchEnd    GestureKind = "pinch_end"
	GestureHoldBegin   GestureKind = "hold_begin"
	GestureHoldEnd     GestureKind = "hold_end"
)

// GestureEvent is forwarded to the pointer focus untouched.
type GestureEvent struct {
	Time      uint32
	Kind      GestureKind
	Fingers   uint32
	Delta     geom.Point
	Scale     float64
	Rotation  float64
	Cancelled bool
}

func (e KeyEvent) EventTime() uint32                   { return e.Time }
func (e PointerMotionEvent) EventTime() uint32         { return e.Time }
func (e PointerMotionAbsoluteEvent) EventTime() uint32 { return e.Time }
func (e PointerButtonEvent) EventTime() uint32         { return e.Time }
func (e PointerAxisEvent) EventTime() uint32           { return e.Time }
func (e GestureEvent) EventTime() uint32               { return e.Time }

// Linux evdev button codes.
const (
	BtnLeft   uint32 = 0x110
	BtnRight  uint32 = 0x111
	BtnMiddle uint32 = 0x112
)
