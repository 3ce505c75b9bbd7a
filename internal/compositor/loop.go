package compositor

import (
	"context"
	"fmt"
	"time"

	"github.com/1broseidon/floatwm/internal/backend"
	"github.com/1broseidon/floatwm/internal/config"
	"github.com/1broseidon/floatwm/internal/input"
	"github.com/1broseidon/floatwm/internal/space"
)

// maxFrameInterval bounds how long the loop sleeps between iterations.
const maxFrameInterval = 16 * time.Millisecond

// Run drives the event loop until Stop, ctx cancellation, a close request
// from the backend or a fatal error. A failed backend dispatch and a lost
// render context are fatal.
func (s *State) Run(ctx context.Context) error {
	defer close(s.stopped)
	s.running = true
	s.ready()

	ticker := time.NewTicker(s.frameInterval())
	defer ticker.Stop()

	for s.running {
		select {
		case <-ctx.Done():
			s.Stop()
			continue
		case fn := <-s.calls:
			fn()
			s.drainCalls()
		case <-ticker.C:
		}
		if err := s.Step(); err != nil {
			s.running = false
			return err
		}
	}
	return nil
}

// Step runs one iteration: dispatch backend events, refresh the spaces,
// render every output and flush client events.
func (s *State) Step() error {
	if err := s.backend.Dispatch(s.handleBackendEvent); err != nil {
		return fmt.Errorf("backend dispatch failed: %w", err)
	}
	s.spaces.Refresh()
	s.seat.Forget()
	if err := s.render(); err != nil {
		return err
	}
	if s.flush != nil {
		s.flush()
	}
	return nil
}

func (s *State) ready() {
	s.logger.Info("backend ready", "backend", s.backend.Name(), "seat", s.seat.Name(), "outputs", len(s.spaces.Active().Outputs()))
	for _, fn := range s.onReady {
		fn()
	}
	for _, cmd := range s.cfg.Autostart {
		if err := s.Spawn(cmd); err != nil {
			s.logger.Warn("autostart failed", "command", cmd, "error", err)
		}
	}
}

func (s *State) drainCalls() {
	for {
		select {
		case fn := <-s.calls:
			fn()
		default:
			return
		}
	}
}

// frameInterval follows the fastest output, capped at maxFrameInterval.
func (s *State) frameInterval() time.Duration {
	refresh := config.DefaultRefresh
	for _, o := range s.spaces.Active().Outputs() {
		refresh = max(refresh, o.Mode().Refresh)
	}
	d := time.Duration(float64(time.Second) * 1000 / float64(refresh))
	return min(d, maxFrameInterval)
}

// Call runs fn on the loop goroutine and waits for it.
func (s *State) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}
	select {
	case s.calls <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *State) handleBackendEvent(ev backend.Event) {
	switch ev := ev.(type) {
	case input.KeyEvent:
		if ev.Locks != s.locks {
			s.locks = ev.Locks
			s.backend.UpdateLEDState(ev.Locks)
		}
		s.router.Process(ev)
	case input.Event:
		s.router.Process(ev)
	case backend.OutputResized:
		s.logger.Debug("output resized", "output", ev.Output.Name(), "width", ev.Mode.Width, "height", ev.Mode.Height)
		s.spaces.Refresh()
		s.resetBuffers(ev.Output)
	case backend.Damaged:
		s.resetBuffers(ev.Output)
	case backend.CloseRequested:
		s.logger.Info("backend requested close")
		s.Stop()
	default:
		s.logger.Debug("ignoring backend event", "type", fmt.Sprintf("%T", ev))
	}
}

func (s *State) resetBuffers(o *space.Output) {
	s.backend.ResetBuffers(o)
	s.pipeline.ResetBuffers(o)
}

func (s *State) resetAllBuffers() {
	for _, o := range s.spaces.Active().Outputs() {
		s.resetBuffers(o)
	}
}

func (s *State) render() error {
	sp := s.spaces.Active()
	now := s.msec()
	for _, o := range sp.Outputs() {
		target, ok := s.backend.Target(o)
		if !ok {
			continue
		}
		if _, err := s.pipeline.RenderOutput(o, sp, target, s.seat.Location(), now); err != nil {
			return fmt.Errorf("render %s: %w", o.Name(), err)
		}
	}
	return nil
}
