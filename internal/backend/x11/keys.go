package x11

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/floatwm/internal/focus"
	"github.com/1broseidon/floatwm/internal/input"
	"github.com/1broseidon/floatwm/internal/keybind"
)

// evdevOffset converts X keycodes to the evdev codes clients expect.
const evdevOffset = 8

// lockMasks are the modifier bits of the lock keys on the host server.
// Caps Lock is always ModMaskLock; Num Lock and Scroll Lock are looked up.
type lockMasks struct {
	num    uint16
	scroll uint16
}

// modifiers converts an X modifier state, ignoring the lock keys.
func (l lockMasks) modifiers(state uint16) keybind.Modifiers {
	state &^= xproto.ModMaskLock | l.num | l.scroll
	var m keybind.Modifiers
	if state&xproto.ModMaskControl != 0 {
		m |= keybind.ModCtrl
	}
	if state&xproto.ModMask1 != 0 {
		m |= keybind.ModAlt
	}
	if state&xproto.ModMaskShift != 0 {
		m |= keybind.ModShift
	}
	if state&xproto.ModMask4 != 0 {
		m |= keybind.ModSuper
	}
	return m
}

func (l lockMasks) locks(state uint16) input.LockState {
	return input.LockState{
		Caps:   state&xproto.ModMaskLock != 0,
		Num:    l.num != 0 && state&l.num != 0,
		Scroll: l.scroll != 0 && state&l.scroll != 0,
	}
}

// pointerButton maps an X core button to an evdev button code or a scroll
// step. X reports each wheel detent as a press of buttons 4-7.
func pointerButton(detail xproto.Button) (button uint32, scroll *input.PointerAxisEvent) {
	step := func(a focus.Axis, v120 float64) *input.PointerAxisEvent {
		ev := &input.PointerAxisEvent{Source: focus.SourceWheel}
		ev.V120[a] = v120
		ev.HasV120[a] = true
		return ev
	}
	switch detail {
	case 1:
		return input.BtnLeft, nil
	case 2:
		return input.BtnMiddle, nil
	case 3:
		return input.BtnRight, nil
	case 4:
		return 0, step(focus.AxisVertical, -120)
	case 5:
		return 0, step(focus.AxisVertical, 120)
	case 6:
		return 0, step(focus.AxisHorizontal, -120)
	case 7:
		return 0, step(focus.AxisHorizontal, 120)
	}
	// BTN_SIDE and up for the extra buttons.
	return 0x113 + uint32(detail) - 8, nil
}
