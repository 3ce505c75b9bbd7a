package focus

import (
	"slices"

	"github.com/1broseidon/floatwm/internal/geom"
	"github.com/1broseidon/floatwm/internal/keybind"
	"github.com/1broseidon/floatwm/internal/space"
	"github.com/1broseidon/floatwm/internal/surface"
)

// Axis identifies a scroll axis.
type Axis int

const (
	AxisHorizontal Axis = iota
	AxisVertical
)

func (a Axis) String() string {
	if a == AxisHorizontal {
		return "horizontal"
	}
	return "vertical"
}

// AxisSource is the device class that produced a scroll.
type AxisSource int

const (
	SourceWheel AxisSource = iota
	SourceFinger
	SourceContinuous
	SourceWheelTilt
)

var axisSourceNames = [...]string{"wheel", "finger", "continuous", "wheel_tilt"}

func (s AxisSource) String() string {
	if s >= 0 && int(s) < len(axisSourceNames) {
		return axisSourceNames[s]
	}
	return "unknown"
}

// AxisFrame groups the scroll values of one event.
type AxisFrame struct {
	Source AxisSource
	Time   uint32
	// Value and V120 hold per-axis amounts; HasValue marks which were set.
	Value    [2]float64
	V120     [2]float64
	HasValue [2]bool
	HasV120  [2]bool
	Stop     [2]bool
}

// SetValue records a continuous amount, and the discrete one when v120 != 0.
func (f *AxisFrame) SetValue(a Axis, value, v120 float64) {
	f.Value[a] = value
	f.HasValue[a] = true
	if v120 != 0 {
		f.V120[a] = v120
		f.HasV120[a] = true
	}
}

// Empty reports whether the frame carries nothing to deliver.
func (f AxisFrame) Empty() bool {
	return !f.HasValue[0] && !f.HasValue[1] && !f.Stop[0] && !f.Stop[1]
}

// Grab takes over pointer handling while it is installed on the seat.
type Grab interface {
	Motion(seat *Seat, location geom.Point, time uint32)
	Button(seat *Seat, button uint32, pressed bool, time uint32)
	Unset(seat *Seat)
	// StartLocation is where the pointer was when the grab began.
	StartLocation() geom.Point
}

// WindowSource lists the windows whose pending configures are flushed on
// focus changes.
type WindowSource interface {
	Elements() []*space.Window
}

// Seat is the single input seat. It is owned by the event loop goroutine.
type Seat struct {
	name    string
	windows WindowSource

	serial uint32

	keyboardFocus *surface.Surface
	mods          keybind.Modifiers

	pointerFocus Target
	location     geom.Point
	pressed      []uint32
	grab         Grab
}

// NewSeat creates a seat named after the backend's seat.
func NewSeat(name string, windows WindowSource) *Seat {
	return &Seat{name: name, windows: windows}
}

func (s *Seat) Name() string { return s.name }

// NextSerial returns a fresh event serial.
func (s *Seat) NextSerial() uint32 {
	s.serial++
	return s.serial
}

func (s *Seat) flushConfigures() {
	if s.windows == nil {
		return
	}
	for _, w := range s.windows.Elements() {
		w.SendPendingConfigure()
	}
}

// FlushConfigures sends every pending configure of the current windows.
func (s *Seat) FlushConfigures() { s.flushConfigures() }

// KeyboardFocus returns the surface receiving keys, or nil.
func (s *Seat) KeyboardFocus() *surface.Surface { return s.keyboardFocus }

// SetKeyboardFocus moves keyboard focus, sending leave and enter as needed.
func (s *Seat) SetKeyboardFocus(sf *surface.Surface) {
	if s.keyboardFocus == sf {
		return
	}
	if old := s.keyboardFocus; old != nil {
		old.Deliver(surface.Event{Type: surface.EventKeyboardLeave, Serial: s.NextSerial()})
	}
	s.keyboardFocus = sf
	if sf != nil {
		sf.Deliver(surface.Event{Type: surface.EventKeyboardEnter, Serial: s.NextSerial(), Mods: uint8(s.mods)})
	}
}

// Modifiers returns the last known modifier state.
func (s *Seat) Modifiers() keybind.Modifiers { return s.mods }

// SetModifiers records the modifier state reported by the backend.
func (s *Seat) SetModifiers(m keybind.Modifiers) { s.mods = m }

// Key forwards a key event to the keyboard focus.
func (s *Seat) Key(keycode uint32, sym keybind.Keysym, pressed bool, time uint32) {
	if s.keyboardFocus == nil {
		return
	}
	s.keyboardFocus.Deliver(surface.Event{
		Type:    surface.EventKey,
		Serial:  s.NextSerial(),
		Time:    time,
		Keycode: keycode,
		Keysym:  uint32(sym),
		Pressed: pressed,
		Mods:    uint8(s.mods),
	})
}

// Location is the pointer position in global logical coordinates.
func (s *Seat) Location() geom.Point { return s.location }

// SetLocation moves the pointer without touching focus.
func (s *Seat) SetLocation(p geom.Point) { s.location = p }

// PointerFocus returns the current pointer target.
func (s *Seat) PointerFocus() Target { return s.pointerFocus }

// PointerMotion moves the pointer to location over target, whose surface
// origin is origin. Crossing into a different target runs Leave on the old
// one and Enter on the new one before the motion is forwarded.
func (s *Seat) PointerMotion(target Target, origin, location geom.Point, time uint32) {
	s.location = location
	if !target.Equal(s.pointerFocus) {
		s.pointerFocus.Leave(s, time)
		s.pointerFocus = target
		target.Enter(s, location.Sub(origin), time)
	}
	if target.IsZero() {
		return
	}
	local := location.Sub(origin)
	target.Surface().Deliver(surface.Event{
		Type: surface.EventPointerMotion,
		Time: time,
		X:    local.X,
		Y:    local.Y,
	})
}

// RelativeMotion forwards an unclamped delta to the pointer focus.
func (s *Seat) RelativeMotion(delta, unaccel geom.Point, time uint32) {
	if s.pointerFocus.IsZero() {
		return
	}
	s.pointerFocus.Surface().Deliver(surface.Event{
		Type: surface.EventRelativeMotion,
		Time: time,
		X:    unaccel.X,
		Y:    unaccel.Y,
		DX:   delta.X,
		DY:   delta.Y,
	})
}

// Button records the button state and forwards it to the pointer focus.
func (s *Seat) Button(button uint32, pressed bool, time uint32) {
	if pressed {
		if !slices.Contains(s.pressed, button) {
			s.pressed = append(s.pressed, button)
		}
	} else {
		s.pressed = slices.DeleteFunc(s.pressed, func(b uint32) bool { return b == button })
	}
	if s.pointerFocus.IsZero() {
		return
	}
	s.pointerFocus.Surface().Deliver(surface.Event{
		Type:    surface.EventPointerButton,
		Serial:  s.NextSerial(),
		Time:    time,
		Button:  button,
		Pressed: pressed,
	})
}

// PressedButtons returns the buttons currently held.
func (s *Seat) PressedButtons() []uint32 { return slices.Clone(s.pressed) }

// IsPressed reports whether button is held.
func (s *Seat) IsPressed(button uint32) bool { return slices.Contains(s.pressed, button) }

// Axis forwards a scroll frame to the pointer focus.
func (s *Seat) Axis(f AxisFrame) {
	if s.pointerFocus.IsZero() || f.Empty() {
		return
	}
	sf := s.pointerFocus.Surface()
	for _, a := range []Axis{AxisHorizontal, AxisVertical} {
		if f.HasValue[a] {
			sf.Deliver(surface.Event{
				Type:   surface.EventPointerAxis,
				Time:   f.Time,
				Axis:   a.String(),
				Value:  f.Value[a],
				V120:   f.V120[a],
				Source: f.Source.String(),
			})
		}
		if f.Stop[a] {
			sf.Deliver(surface.Event{
				Type:   surface.EventAxisStop,
				Time:   f.Time,
				Axis:   a.String(),
				Source: f.Source.String(),
			})
		}
	}
}

// Gesture forwards a touchpad gesture event to the pointer focus.
func (s *Seat) Gesture(ev surface.Event) {
	if s.pointerFocus.IsZero() {
		return
	}
	ev.Type = surface.EventGesture
	s.pointerFocus.Surface().Deliver(ev)
}

// Frame ends a group of pointer events.
func (s *Seat) Frame() {
	if s.pointerFocus.IsZero() {
		return
	}
	s.pointerFocus.Surface().Deliver(surface.Event{Type: surface.EventPointerFrame})
}

// Grab returns the active grab, or nil.
func (s *Seat) Grab() Grab { return s.grab }

// HasGrab reports whether a grab is installed.
func (s *Seat) HasGrab() bool { return s.grab != nil }

// SetGrab installs g, replacing and unsetting any previous grab.
func (s *Seat) SetGrab(g Grab) {
	if s.grab != nil {
		s.grab.Unset(s)
	}
	s.grab = g
}

// UnsetGrab removes the active grab.
func (s *Seat) UnsetGrab() {
	if s.grab == nil {
		return
	}
	g := s.grab
	s.grab = nil
	g.Unset(s)
}

// Forget drops any focus on dead surfaces.
func (s *Seat) Forget() {
	if s.keyboardFocus != nil && !s.keyboardFocus.Alive() {
		s.keyboardFocus = nil
	}
	if !s.pointerFocus.IsZero() && !s.pointerFocus.Alive() {
		s.pointerFocus = Target{}
	}
}
