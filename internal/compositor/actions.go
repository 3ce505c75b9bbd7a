package compositor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/kballard/go-shellquote"

	"github.com/1broseidon/floatwm/internal/input"
	"github.com/1broseidon/floatwm/internal/keybind"
	"github.com/1broseidon/floatwm/internal/runtimepath"
	"github.com/1broseidon/floatwm/internal/space"
	"github.com/1broseidon/floatwm/internal/surface"
)

// HandleAction runs a bound action. It is called by the input router.
func (s *State) HandleAction(a keybind.Action) {
	s.logger.Debug("action", "action", a.String())
	switch a.Kind {
	case keybind.ActionQuit:
		s.Stop()
	case keybind.ActionNextWorkspace:
		s.switchWorkspace(s.spaces.ActiveIndex() + 1)
	case keybind.ActionPrevWorkspace:
		s.switchWorkspace(s.spaces.ActiveIndex() - 1)
	case keybind.ActionSpawn:
		if err := s.Spawn(a.Command); err != nil {
			s.logger.Warn("spawn failed", "command", a.Command, "error", err)
		}
	case keybind.ActionMoveWindowToPrevWorkspace:
		s.moveFocusedWindow(-1)
	case keybind.ActionMoveWindowToNextWorkspace:
		s.moveFocusedWindow(1)
	case keybind.ActionMoveWindowFloating:
		s.grabUnderPointer(s.StartMove)
	case keybind.ActionResizeWindowFloating:
		s.grabUnderPointer(s.StartResize)
	case keybind.ActionMoveWindowBack:
		s.cycleFocus(false)
	case keybind.ActionMoveWindowNext:
		s.cycleFocus(true)
	case keybind.ActionRemoveWindow:
		if w := s.focusedWindow(); w != nil {
			w.Surface().SendClose()
		}
	default:
		s.logger.Warn("unhandled action", "action", a.String())
	}
}

// SwitchWorkspace activates workspace i, counting from 0.
func (s *State) SwitchWorkspace(i int) error {
	if i < 0 || i >= s.spaces.Len() {
		return fmt.Errorf("workspace %d out of range 1-%d", i+1, s.spaces.Len())
	}
	s.switchWorkspace(i)
	return nil
}

// switchWorkspace wraps i around. Windows of the space being left lose
// activation and focus, and the pointer focus is recomputed on the new one.
func (s *State) switchWorkspace(i int) {
	n := s.spaces.Len()
	i = ((i % n) + n) % n
	old := s.spaces.Active()
	if !s.spaces.Switch(i) {
		return
	}
	for _, w := range old.Elements() {
		w.SetActivated(false)
		w.SetFocused(false)
		w.SendPendingConfigure()
	}
	s.detachGrab(nil)
	s.seat.SetKeyboardFocus(nil)

	s.repointer()
	s.resetAllBuffers()
	s.logger.Info("workspace switched", "workspace", i+1)
}

// repointer recomputes the pointer focus at the current location after the
// active space changed under the pointer.
func (s *State) repointer() {
	loc := s.seat.Location()
	target, origin := input.TargetUnder(s.spaces.Active(), loc)
	s.seat.PointerMotion(target, origin, loc, s.msec())
	s.seat.Frame()
}

// detachGrab stops an active grab from moving w, or any window when w is
// nil. The grab itself ends on the last button release.
func (s *State) detachGrab(w *space.Window) {
	g, ok := s.seat.Grab().(interface {
		Window() *space.Window
		Detach()
	})
	if ok && (w == nil || g.Window() == w) {
		g.Detach()
	}
}

func (s *State) focusedWindow() *space.Window {
	for _, w := range s.spaces.Active().Elements() {
		if w.Focused() {
			return w
		}
	}
	return nil
}

// FocusWindow raises w, activates it and gives it keyboard focus. A window
// on another workspace switches to that workspace first.
func (s *State) FocusWindow(w *space.Window) error {
	i := s.spaces.Find(w)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNoSuchWindow, w.ID())
	}
	if i != s.spaces.ActiveIndex() {
		s.switchWorkspace(i)
	}
	sp := s.spaces.Active()
	sp.RaiseElement(w, true)
	for _, other := range sp.Elements() {
		other.SetFocused(other == w)
	}
	s.seat.SetKeyboardFocus(w.Surface())
	s.seat.FlushConfigures()
	return nil
}

// cycleFocus walks the stack. Forward raises the bottom window; backward
// sends the top window to the bottom and focuses the new top.
func (s *State) cycleFocus(forward bool) {
	sp := s.spaces.Active()
	elems := sp.Elements()
	if len(elems) == 0 {
		return
	}
	var next *space.Window
	if forward {
		next = elems[0]
	} else {
		if len(elems) == 1 {
			next = elems[0]
		} else {
			sp.LowerElement(elems[len(elems)-1])
			next = elems[len(elems)-2]
		}
	}
	s.FocusWindow(next)
}

func (s *State) moveFocusedWindow(delta int) {
	w := s.focusedWindow()
	if w == nil {
		return
	}
	if s.spaces.MoveWindowRelative(w, delta) {
		s.detachGrab(w)
		w.SetFocused(false)
		w.SetActivated(false)
		w.SendPendingConfigure()
		if s.seat.KeyboardFocus() == w.Surface() {
			s.seat.SetKeyboardFocus(nil)
		}
		s.repointer()
		s.resetAllBuffers()
		s.logger.Info("window moved to workspace", "window", w.ID(), "workspace", s.spaces.Find(w)+1)
	}
}

func (s *State) grabUnderPointer(start func(surface.ID) error) {
	w, _, ok := s.spaces.Active().ElementUnder(s.seat.Location())
	if !ok {
		return
	}
	if err := start(w.ID()); err != nil {
		s.logger.Debug("grab not started", "window", w.ID(), "error", err)
	}
}

// Spawn starts command detached, with the compositor socket and the spawn
// env file in its environment.
func (s *State) Spawn(command string) error {
	argv, err := shellquote.Split(command)
	if err != nil {
		return fmt.Errorf("invalid command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	env := os.Environ()
	for k, v := range s.spawnEnv {
		env = append(env, k+"="+v)
	}
	if s.socketPath != "" {
		env = append(env, runtimepath.SocketEnv+"="+s.socketPath)
	}
	if err := s.spawn(argv, env); err != nil {
		return err
	}
	s.logger.Info("spawned", "command", command)
	return nil
}

func startDetached(argv []string, env []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
