package input

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/floatwm/internal/focus"
	"github.com/1broseidon/floatwm/internal/geom"
	"github.com/1broseidon/floatwm/internal/keybind"
	"github.com/1broseidon/floatwm/internal/space"
	"github.com/1broseidon/floatwm/internal/surface"
)

// ActionHandler runs actions bound to keys.
type ActionHandler interface {
	HandleAction(keybind.Action)
}

// Router turns backend input into seat updates. It runs on the event loop
// goroutine.
type Router struct {
	seat    *focus.Seat
	spaces  *space.Workspaces
	binds   *keybind.Table
	actions ActionHandler
	logger  *slog.Logger

	// intercepted holds keycodes whose press triggered an action, so the
	// matching release is swallowed too.
	intercepted map[uint32]struct{}
}

// NewRouter creates a router. binds may be nil.
func NewRouter(seat *focus.Seat, spaces *space.Workspaces, binds *keybind.Table, actions ActionHandler, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		seat:        seat,
		spaces:      spaces,
		binds:       binds,
		actions:     actions,
		logger:      logger.With("component", "input"),
		intercepted: make(map[uint32]struct{}),
	}
}

// SetBindings replaces the keybinding table.
func (r *Router) SetBindings(t *keybind.Table) { r.binds = t }

func (r *Router) Seat() *focus.Seat { return r.seat }

// Process routes one event.
func (r *Router) Process(ev Event) {
	switch ev := ev.(type) {
	case KeyEvent:
		r.key(ev)
	case PointerMotionEvent:
		r.motion(r.seat.Location().Add(ev.Delta), ev.Time)
		r.seat.RelativeMotion(ev.Delta, ev.DeltaUnaccel, ev.Time)
		r.seat.Frame()
	case PointerMotionAbsoluteEvent:
		r.motion(ev.Position, ev.Time)
		r.seat.Frame()
	case PointerButtonEvent:
		r.button(ev)
		r.seat.Frame()
	case PointerAxisEvent:
		r.seat.Axis(ToAxisFrame(ev))
		r.seat.Frame()
	case GestureEvent:
		r.seat.Gesture(surface.Event{
			Time:      ev.Time,
			Gesture:   string(ev.Kind),
			Fingers:   ev.Fingers,
			DX:        ev.Delta.X,
			DY:        ev.Delta.Y,
			Scale:     ev.Scale,
			Rotation:  ev.Rotation,
			Cancelled: ev.Cancelled,
		})
	default:
		r.logger.Debug("ignoring input event", "type", fmt.Sprintf("%T", ev))
	}
}

func (r *Router) key(ev KeyEvent) {
	r.seat.SetModifiers(ev.Mods)
	if ev.Pressed {
		if r.binds != nil {
			if action, ok := r.binds.Lookup(ev.Mods, ev.Sym); ok {
				r.intercepted[ev.Keycode] = struct{}{}
				r.logger.Debug("keybind", "mods", ev.Mods.String(), "sym", ev.Sym.String(), "action", action.String())
				if r.actions != nil {
					r.actions.HandleAction(action)
				}
				return
			}
		}
	} else if _, ok := r.intercepted[ev.Keycode]; ok {
		delete(r.intercepted, ev.Keycode)
		return
	}
	r.seat.Key(ev.Keycode, ev.Sym, ev.Pressed, ev.Time)
}

func (r *Router) motion(pos geom.Point, time uint32) {
	sp := r.spaces.Active()
	pos = Clamp(pos, sp)
	if g := r.seat.Grab(); g != nil {
		g.Motion(r.seat, pos, time)
		return
	}
	target, origin := TargetUnder(sp, pos)
	r.seat.PointerMotion(target, origin, pos, time)
}

func (r *Router) button(ev PointerButtonEvent) {
	sp := r.spaces.Active()
	if ev.Pressed && !r.seat.HasGrab() {
		if w, _, ok := sp.ElementUnder(r.seat.Location()); ok {
			sp.RaiseElement(w, true)
			for _, other := range sp.Elements() {
				other.SetFocused(other == w)
			}
			r.seat.SetKeyboardFocus(w.Surface())
			r.seat.FlushConfigures()
		} else {
			// Clicking empty space drops focus from everything. This walks
			// every window on each such click.
			for _, other := range sp.Elements() {
				other.SetActivated(false)
				other.SetFocused(false)
				other.SendPendingConfigure()
			}
			r.seat.SetKeyboardFocus(nil)
		}
	}

	if g := r.seat.Grab(); g != nil {
		g.Button(r.seat, ev.Button, ev.Pressed, ev.Time)
	} else {
		r.seat.Button(ev.Button, ev.Pressed, ev.Time)
	}

	if !ev.Pressed && len(r.seat.PressedButtons()) == 0 && r.seat.HasGrab() {
		r.seat.UnsetGrab()
	}
}

// TargetUnder returns the focus target at pos and the global origin of its
// surface.
func TargetUnder(sp *space.Space, pos geom.Point) (focus.Target, geom.Point) {
	w, _, ok := sp.ElementUnder(pos)
	if !ok {
		return focus.Target{}, geom.Point{}
	}
	loc, _ := sp.ElementLocation(w)
	return focus.WindowTarget(w), geom.Point{X: float64(loc.X), Y: float64(loc.Y)}
}

// ToAxisFrame converts a scroll event. Continuous amounts fall back to
// v120 * 15 / 120. A finger scroll reporting exactly zero on an axis stops
// kinetic scrolling on that axis.
func ToAxisFrame(ev PointerAxisEvent) focus.AxisFrame {
	f := focus.AxisFrame{Source: ev.Source, Time: ev.Time}
	for _, a := range []focus.Axis{focus.AxisHorizontal, focus.AxisVertical} {
		amount := 0.0
		switch {
		case ev.HasAmount[a]:
			amount = ev.Amount[a]
		case ev.HasV120[a]:
			amount = ev.V120[a] * 15 / 120
		}
		if amount != 0 {
			v120 := 0.0
			if ev.HasV120[a] {
				v120 = ev.V120[a]
			}
			f.SetValue(a, amount, v120)
		}
		if ev.Source == focus.SourceFinger && ev.HasAmount[a] && ev.Amount[a] == 0 {
			f.Stop[a] = true
		}
	}
	return f
}

// Clamp keeps pos inside the output layout. X is limited to [0, sum of
// output widths]; Y is limited to the height of the output containing the
// clamped X, and left alone when no output contains it. With no outputs pos
// is returned unchanged.
func Clamp(pos geom.Point, sp *space.Space) geom.Point {
	outputs := sp.Outputs()
	if len(outputs) == 0 {
		return pos
	}
	maxX := 0
	for _, o := range outputs {
		r, _ := sp.OutputGeometry(o)
		maxX += r.Width
	}
	x := min(max(pos.X, 0), float64(maxX))
	// the right edge belongs to the last output
	probe := geom.Point{X: float64(min(int(x), maxX-1)), Y: 0}
	for _, o := range outputs {
		r, _ := sp.OutputGeometry(o)
		if r.Contains(probe) {
			return geom.Point{X: x, Y: min(max(pos.Y, 0), float64(r.Height))}
		}
	}
	return geom.Point{X: x, Y: pos.Y}
}
