// Package compositor owns the spatial model, the seat and the render
// pipeline, and runs them on a single event loop goroutine.
package compositor

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"github.com/1broseidon/floatwm/internal/backend"
	"github.com/1broseidon/floatwm/internal/config"
	"github.com/1broseidon/floatwm/internal/focus"
	"github.com/1broseidon/floatwm/internal/input"
	"github.com/1broseidon/floatwm/internal/render"
	"github.com/1broseidon/floatwm/internal/space"
	"github.com/1broseidon/floatwm/internal/surface"
)

var (
	// ErrNoSuchSurface is returned for requests naming an unknown surface.
	ErrNoSuchSurface = errors.New("no such surface")
	// ErrNoSuchWindow is returned for requests naming an unmapped window.
	ErrNoSuchWindow = errors.New("no such window")
	// ErrStopped is returned by Call once the loop has exited.
	ErrStopped = errors.New("compositor stopped")
)

// Options configures New.
type Options struct {
	Config  *config.Config
	Backend backend.Backend
	Logger  *slog.Logger
	// SocketPath is exported to spawned processes.
	SocketPath string
	// Spawn overrides how commands are started; tests use it to observe
	// spawns.
	Spawn func(argv []string, env []string) error
	Now   func() time.Time
}

// State is the compositor. Everything except Call and the Handler methods
// must run on the loop goroutine.
type State struct {
	cfg     *config.Config
	backend backend.Backend
	logger  *slog.Logger

	spaces   *space.Workspaces
	seat     *focus.Seat
	router   *input.Router
	pipeline *render.Pipeline

	surfaces map[surface.ID]*surface.Surface
	windows  map[surface.ID]*space.Window
	clients  map[string]map[surface.ID]struct{}
	nextID   surface.ID

	socketPath string
	spawnEnv   map[string]string
	spawn      func(argv []string, env []string) error
	locks      input.LockState

	calls   chan func()
	stopped chan struct{}
	running bool
	flush   func()
	onReady []func()

	now   func() time.Time
	start time.Time
}

// New builds the compositor state and maps the backend's outputs.
func New(opts Options) (*State, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("compositor requires a backend")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	binds, err := cfg.KeybindTable()
	if err != nil {
		return nil, err
	}

	s := &State{
		cfg:        cfg,
		backend:    opts.Backend,
		logger:     logger.With("component", "compositor"),
		spaces:     space.NewWorkspaces(cfg.WorkspaceCount, cfg.Border.Thickness),
		surfaces:   make(map[surface.ID]*surface.Surface),
		windows:    make(map[surface.ID]*space.Window),
		clients:    make(map[string]map[surface.ID]struct{}),
		nextID:     1,
		socketPath: opts.SocketPath,
		spawn:      opts.Spawn,
		calls:      make(chan func()),
		stopped:    make(chan struct{}),
		now:        now,
		start:      now(),
	}
	if s.spawn == nil {
		s.spawn = startDetached
	}
	if cfg.SpawnEnvFile != "" {
		env, err := godotenv.Read(cfg.SpawnEnvFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read spawn env file: %w", err)
		}
		s.spawnEnv = env
	}

	s.seat = focus.NewSeat(opts.Backend.SeatName(), s.spaces)
	s.router = input.NewRouter(s.seat, s.spaces, binds, s, logger)
	s.pipeline = render.NewPipeline(borderStyle(cfg.Border), render.NewCursor(cfg.Cursor.Size, rgba(cfg.Cursor.Color)), logger)

	for _, p := range opts.Backend.Outputs() {
		s.spaces.MapOutput(p.Output, p.X, p.Y)
		s.logger.Info("output mapped", "output", p.Output.String(), "x", p.X, "y", p.Y)
	}
	return s, nil
}

func borderStyle(b config.Border) render.BorderStyle {
	return render.BorderStyle{
		Thickness: b.Thickness,
		Focused:   rgba(b.FocusedColor),
		Unfocused: rgba(b.UnfocusedColor),
	}
}

func rgba(c config.Color) color.RGBA {
	r, g, b := c.RGB()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Spaces returns the workspaces.
func (s *State) Spaces() *space.Workspaces { return s.spaces }

// Seat returns the input seat.
func (s *State) Seat() *focus.Seat { return s.seat }

// Router returns the input router.
func (s *State) Router() *input.Router { return s.router }

// Pipeline returns the render pipeline.
func (s *State) Pipeline() *render.Pipeline { return s.pipeline }

// Running reports whether the loop keeps iterating.
func (s *State) Running() bool { return s.running }

// Stop clears the running flag; the loop exits after the current iteration.
func (s *State) Stop() {
	if s.running {
		s.logger.Info("stopping")
	}
	s.running = false
}

// SetFlusher sets the function that pushes queued client events out at the
// end of each iteration.
func (s *State) SetFlusher(fn func()) { s.flush = fn }

// OnReady registers fn to run on the loop once the backend is up.
func (s *State) OnReady(fn func()) { s.onReady = append(s.onReady, fn) }

// msec is the frame clock in milliseconds since start.
func (s *State) msec() uint32 {
	return uint32(s.now().Sub(s.start).Milliseconds())
}

// Surface returns a live surface by id.
func (s *State) Surface(id surface.ID) (*surface.Surface, bool) {
	sf, ok := s.surfaces[id]
	return sf, ok
}

// Window returns the window wrapping surface id.
func (s *State) Window(id surface.ID) (*space.Window, bool) {
	w, ok := s.windows[id]
	return w, ok
}
