// Package keybind holds the static (modifiers, keysym) -> Action table that the
// input router consults on every key press.
package keybind

import (
	"fmt"
	"strings"
)

// Modifiers is a bitmask of held modifier keys.
type Modifiers uint8

const (
	ModCtrl  Modifiers = 1 << 0
	ModAlt   Modifiers = 1 << 1
	ModShift Modifiers = 1 << 2
	ModSuper Modifiers = 1 << 3
)

func (m Modifiers) String() string {
	var parts []string
	if m&ModCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if m&ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if m&ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if m&ModSuper != 0 {
		parts = append(parts, "Super")
	}
	return strings.Join(parts, "+")
}

func parseModifier(name string) (Modifiers, bool) {
	switch strings.ToLower(name) {
	case "ctrl", "control":
		return ModCtrl, true
	case "alt", "mod1":
		return ModAlt, true
	case "shift":
		return ModShift, true
	case "super", "mod4", "logo", "win":
		return ModSuper, true
	}
	return 0, false
}

// Binding is a key chord.
type Binding struct {
	Mods Modifiers
	Sym  Keysym
}

func (b Binding) String() string {
	if b.Mods == 0 {
		return b.Sym.String()
	}
	return b.Mods.String() + "+" + b.Sym.String()
}

// ParseBinding parses chords such as "Super+Shift+Return". Modifiers and the
// key are separated by '+' or '-'.
func ParseBinding(s string) (Binding, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Binding{}, fmt.Errorf("key binding is empty")
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '+' || r == '-' })
	if len(parts) == 0 {
		return Binding{}, fmt.Errorf("invalid key binding %q", s)
	}

	var b Binding
	for _, part := range parts[:len(parts)-1] {
		mod, ok := parseModifier(part)
		if !ok {
			return Binding{}, fmt.Errorf("invalid key binding %q: unknown modifier %q", s, part)
		}
		b.Mods |= mod
	}
	sym, err := ParseKeysym(parts[len(parts)-1])
	if err != nil {
		return Binding{}, fmt.Errorf("invalid key binding %q: %w", s, err)
	}
	b.Sym = sym
	return b, nil
}

// Bind pairs a chord with the action it triggers.
type Bind struct {
	Binding Binding
	Action  Action
}

// Table is the immutable lookup built once at startup.
type Table struct {
	entries map[Binding]Action
	order   []Binding
}

// NewTable builds a table, rejecting chords bound twice.
func NewTable(binds []Bind) (*Table, error) {
	t := &Table{entries: make(map[Binding]Action, len(binds))}
	for _, bind := range binds {
		key := Binding{Mods: bind.Binding.Mods, Sym: bind.Binding.Sym.Lower()}
		if existing, ok := t.entries[key]; ok {
			return nil, fmt.Errorf("key binding %s is bound to both %s and %s", key, existing, bind.Action)
		}
		t.entries[key] = bind.Action
		t.order = append(t.order, key)
	}
	return t, nil
}

// Lookup returns the action bound to the chord.
func (t *Table) Lookup(mods Modifiers, sym Keysym) (Action, bool) {
	if t == nil {
		return Action{}, false
	}
	a, ok := t.entries[Binding{Mods: mods, Sym: sym.Lower()}]
	return a, ok
}

// Binds returns the table contents in definition order.
func (t *Table) Binds() []Bind {
	if t == nil {
		return nil
	}
	out := make([]Bind, 0, len(t.order))
	for _, b := range t.order {
		out = append(out, Bind{Binding: b, Action: t.entries[b]})
	}
	return out
}

// Len returns the number of bindings.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}
