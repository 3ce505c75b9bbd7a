// Package palette drives an external dmenu-style launcher to pick windows,
// workspaces and session actions from a running floatwm.
package palette

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCancelled is returned when the user closes the launcher without picking a row.
var ErrCancelled = errors.New("palette cancelled")

// Item is a single row in the launcher.
type Item struct {
	Label  string
	Action string // empty for headers
	Icon   string
	Header bool
	Active bool
}

// Launcher shows items and returns the chosen one.
type Launcher interface {
	Choose(ctx context.Context, prompt string, items []Item) (Item, error)
}

// Launchers lists the supported launcher commands in detection order.
var Launchers = []string{"rofi", "fuzzel", "wofi", "bemenu", "dmenu"}

// Detect returns the first launcher found by lookPath.
func Detect(lookPath func(string) (string, error)) (string, error) {
	for _, name := range Launchers {
		if _, err := lookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no launcher found in PATH (looked for: %s)", strings.Join(Launchers, ", "))
}

// New returns the launcher called name. An empty name or "auto" detects one.
func New(name string) (Launcher, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := Detect(exec.LookPath)
		if err != nil {
			return nil, err
		}
		name = detected
	}
	k, ok := kinds[name]
	if !ok {
		return nil, fmt.Errorf("unknown launcher %q (expected: auto, %s)", name, strings.Join(Launchers, ", "))
	}
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("launcher %q not found in PATH", name)
	}
	return &command{name: name, kind: k}, nil
}
