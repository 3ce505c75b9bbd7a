package keybind

import (
	"fmt"
	"strings"
)

// ActionKind identifies a compositor command.
type ActionKind int

const (
	ActionQuit ActionKind = iota + 1
	ActionNextWorkspace
	ActionPrevWorkspace
	ActionSpawn
	ActionMoveWindowToPrevWorkspace
	ActionMoveWindowToNextWorkspace
	ActionMoveWindowFloating
	ActionResizeWindowFloating
	ActionMoveWindowBack
	ActionMoveWindowNext
	ActionRemoveWindow
)

var actionNames = map[ActionKind]string{
	ActionQuit:                      "quit",
	ActionNextWorkspace:             "next_workspace",
	ActionPrevWorkspace:             "prev_workspace",
	ActionSpawn:                     "spawn",
	ActionMoveWindowToPrevWorkspace: "move_window_to_prev_workspace",
	ActionMoveWindowToNextWorkspace: "move_window_to_next_workspace",
	ActionMoveWindowFloating:        "move_window_floating",
	ActionResizeWindowFloating:      "resize_window_floating",
	ActionMoveWindowBack:            "move_window_back",
	ActionMoveWindowNext:            "move_window_next",
	ActionRemoveWindow:              "remove_window",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// Action is a bound command. Command is only set for spawn.
type Action struct {
	Kind    ActionKind
	Command string
}

func (a Action) String() string {
	if a.Kind == ActionSpawn {
		return fmt.Sprintf("spawn(%q)", a.Command)
	}
	return a.Kind.String()
}

// ActionNames lists the accepted action names.
func ActionNames() []string {
	out := make([]string, 0, len(actionNames))
	for k := ActionQuit; k <= ActionRemoveWindow; k++ {
		out = append(out, actionNames[k])
	}
	return out
}

// ParseAction resolves a configured action name. Spawn requires a command.
func ParseAction(name string, command string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, n := range actionNames {
		if n != name {
			continue
		}
		if kind == ActionSpawn {
			if strings.TrimSpace(command) == "" {
				return Action{}, fmt.Errorf("spawn requires a command")
			}
			return Action{Kind: kind, Command: command}, nil
		}
		if command != "" {
			return Action{}, fmt.Errorf("action %s does not take a command", name)
		}
		return Action{Kind: kind}, nil
	}
	return Action{}, fmt.Errorf("unknown action %q (valid: %s)", name, strings.Join(ActionNames(), ", "))
}

// DefaultBinds returns the built-in bindings.
func DefaultBinds() []Bind {
	return []Bind{
		{Binding{ModSuper | ModShift, 'q'}, Action{Kind: ActionQuit}},
		{Binding{ModSuper, 'l'}, Action{Kind: ActionNextWorkspace}},
		{Binding{ModSuper, 'h'}, Action{Kind: ActionPrevWorkspace}},
		{Binding{ModSuper | ModShift, KeyReturn}, Action{Kind: ActionSpawn, Command: "alacritty"}},
		{Binding{ModSuper, 'p'}, Action{Kind: ActionSpawn, Command: "bemenu-run"}},
		{Binding{ModSuper, KeySpace}, Action{Kind: ActionSpawn, Command: "floatwm palette"}},
	}
}
