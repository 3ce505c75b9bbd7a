package compositor

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/1broseidon/floatwm/internal/backend"
	"github.com/1broseidon/floatwm/internal/config"
	"github.com/1broseidon/floatwm/internal/geom"
	"github.com/1broseidon/floatwm/internal/input"
	"github.com/1broseidon/floatwm/internal/keybind"
	"github.com/1broseidon/floatwm/internal/render"
	"github.com/1broseidon/floatwm/internal/runtimepath"
	"github.com/1broseidon/floatwm/internal/surface"
)

func newTestState(t *testing.T, mutate func(*config.Config)) (*State, *backend.Headless) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Autostart = nil
	if mutate != nil {
		mutate(cfg)
	}
	h, err := backend.NewHeadless(nil, nil)
	if err != nil {
		t.Fatalf("NewHeadless() error = %v", err)
	}
	s, err := New(Options{
		Config:     cfg,
		Backend:    h,
		SocketPath: "/tmp/floatwm-test.sock",
		Spawn:      func([]string, []string) error { return nil },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, h
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// openWindow creates a toplevel with committed content.
func openWindow(t *testing.T, s *State, client string, w, h int, c color.RGBA) (*surface.Surface, *surface.Recorder) {
	t.Helper()
	rec := &surface.Recorder{}
	sf := s.CreateSurface(client, surface.RoleToplevel, client+"-window", 0, 0, rec)
	if err := s.Attach(sf.ID(), solid(w, h, c)); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := s.Commit(sf.ID(), false); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	return sf, rec
}

func TestMapWindow_NeverDuplicates(t *testing.T) {
	s, _ := newTestState(t, nil)
	sf, _ := openWindow(t, s, "a", 10, 10, color.RGBA{A: 0xff})

	w1, _ := s.Window(sf.ID())
	w2 := s.MapWindow(sf)
	if w1 != w2 {
		t.Fatal("MapWindow() created a second window for the same surface")
	}
	if n := s.Spaces().Active().Len(); n != 1 {
		t.Fatalf("space has %d windows, want 1", n)
	}
	if !w1.Activated() {
		t.Fatal("new toplevel is not activated")
	}
	loc, _ := s.Spaces().Active().ElementLocation(w1)
	if loc != (image.Point{}) {
		t.Fatalf("new toplevel at %v, want (0,0)", loc)
	}
}

func TestCommit_InitialConfigureOnce(t *testing.T) {
	s, h := newTestState(t, nil)
	sf, rec := openWindow(t, s, "a", 10, 10, color.RGBA{A: 0xff})
	if err := s.Commit(sf.ID(), false); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if n := rec.Count(surface.EventConfigure); n != 1 {
		t.Fatalf("configure sent %d times, want 1", n)
	}
	if ev, _ := rec.Last(surface.EventConfigure); !ev.Activated {
		t.Fatal("initial configure is not activated")
	}
	if h.Imported() != 2 {
		t.Fatalf("EarlyImport called %d times, want 2", h.Imported())
	}

	if err := s.Commit(999, false); !errors.Is(err, ErrNoSuchSurface) {
		t.Fatalf("Commit(unknown) error = %v, want ErrNoSuchSurface", err)
	}
}

func TestStep_RendersWindowAndFiresFrames(t *testing.T) {
	s, h := newTestState(t, nil)
	blue := color.RGBA{B: 0xff, A: 0xff}
	sf, rec := openWindow(t, s, "a", 20, 20, blue)
	if err := s.Commit(sf.ID(), true); err != nil {
		t.Fatal(err)
	}
	// Away from the cursor drawn at the origin.
	if err := s.MoveWindow(sf.ID(), 100, 100); err != nil {
		t.Fatal(err)
	}
	if err := s.Step(); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if rec.Count(surface.EventFrame) != 1 {
		t.Fatalf("frame events = %d, want 1", rec.Count(surface.EventFrame))
	}

	o := s.Spaces().Active().Outputs()[0]
	frame := h.Frame(o)
	if got := frame.RGBAAt(105, 105); got != blue {
		t.Fatalf("pixel inside window = %v, want %v", got, blue)
	}
	// The window is focused only after a click; its border is unfocused red.
	if got := frame.RGBAAt(121, 105); got != (color.RGBA{R: 0xff, A: 0xff}) {
		t.Fatalf("border pixel = %v, want red", got)
	}
}

func TestKeybind_SwitchesWorkspaceAndSwallowsRelease(t *testing.T) {
	s, h := newTestState(t, nil)
	_, rec := openWindow(t, s, "a", 10, 10, color.RGBA{A: 0xff})
	sf, _ := s.Surface(1)
	s.Seat().SetKeyboardFocus(sf)
	rec.Reset()

	h.Inject(input.KeyEvent{Keycode: 38, Sym: 'l', Mods: keybind.ModSuper, Pressed: true})
	h.Inject(input.KeyEvent{Keycode: 38, Sym: 'l', Mods: keybind.ModSuper, Pressed: false})
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if s.Spaces().ActiveIndex() != 1 {
		t.Fatalf("active workspace = %d, want 1", s.Spaces().ActiveIndex())
	}
	if rec.Count(surface.EventKey) != 0 {
		t.Fatal("bound key reached the client")
	}
	if s.Seat().KeyboardFocus() != nil {
		t.Fatal("keyboard focus kept across workspace switch")
	}
	w, _ := s.Window(1)
	if w.Activated() {
		t.Fatal("window on the old workspace is still activated")
	}
}

func TestClick_FocusesWindowUnderPointer(t *testing.T) {
	s, h := newTestState(t, nil)
	_, recA := openWindow(t, s, "a", 50, 50, color.RGBA{A: 0xff})
	b, recB := openWindow(t, s, "b", 50, 50, color.RGBA{A: 0xff})
	if err := s.MoveWindow(b.ID(), 100, 0); err != nil {
		t.Fatal(err)
	}

	h.Inject(input.PointerMotionAbsoluteEvent{Position: geom.Point{X: 10, Y: 10}})
	h.Inject(input.PointerButtonEvent{Button: input.BtnLeft, Pressed: true})
	h.Inject(input.PointerButtonEvent{Button: input.BtnLeft, Pressed: false})
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}

	wa, _ := s.Window(1)
	wb, _ := s.Window(b.ID())
	if !wa.Focused() || wb.Focused() {
		t.Fatalf("focused a=%v b=%v, want true false", wa.Focused(), wb.Focused())
	}
	if !wa.Activated() || wb.Activated() {
		t.Fatalf("activated a=%v b=%v, want true false", wa.Activated(), wb.Activated())
	}
	if recA.Count(surface.EventKeyboardEnter) != 1 || recB.Count(surface.EventKeyboardEnter) != 0 {
		t.Fatal("keyboard enter went to the wrong window")
	}
	if recA.Count(surface.EventPointerButton) != 2 {
		t.Fatalf("button events = %d, want 2", recA.Count(surface.EventPointerButton))
	}
	elems := s.Spaces().Active().Elements()
	if elems[len(elems)-1] != wa {
		t.Fatal("clicked window not raised")
	}
}

func TestMoveGrab_FollowsPointerUntilRelease(t *testing.T) {
	s, h := newTestState(t, nil)
	sf, _ := openWindow(t, s, "a", 50, 50, color.RGBA{A: 0xff})

	h.Inject(input.PointerMotionAbsoluteEvent{Position: geom.Point{X: 10, Y: 10}})
	h.Inject(input.PointerButtonEvent{Button: input.BtnLeft, Pressed: true})
	s.Step()
	if err := s.StartMove(sf.ID()); err != nil {
		t.Fatalf("StartMove() error = %v", err)
	}

	h.Inject(input.PointerMotionAbsoluteEvent{Position: geom.Point{X: 40.4, Y: 30.6}})
	s.Step()
	w, _ := s.Window(sf.ID())
	if loc, _ := s.Spaces().Active().ElementLocation(w); loc != image.Pt(30, 21) {
		t.Fatalf("window at %v during grab, want (30,21)", loc)
	}

	h.Inject(input.PointerButtonEvent{Button: input.BtnLeft, Pressed: false})
	h.Inject(input.PointerMotionAbsoluteEvent{Position: geom.Point{X: 200, Y: 200}})
	s.Step()
	if s.Seat().HasGrab() {
		t.Fatal("grab survived the last button release")
	}
	if loc, _ := s.Spaces().Active().ElementLocation(w); loc != image.Pt(30, 21) {
		t.Fatalf("window moved after release to %v", loc)
	}
}

func TestStartMove_NeedsHeldButton(t *testing.T) {
	s, _ := newTestState(t, nil)
	sf, _ := openWindow(t, s, "a", 50, 50, color.RGBA{A: 0xff})
	if err := s.StartMove(sf.ID()); err == nil {
		t.Fatal("StartMove() succeeded without a held button")
	}
}

func TestDisconnectClient_PrunesWindows(t *testing.T) {
	s, _ := newTestState(t, nil)
	openWindow(t, s, "a", 10, 10, color.RGBA{A: 0xff})
	openWindow(t, s, "a", 10, 10, color.RGBA{A: 0xff})
	openWindow(t, s, "b", 10, 10, color.RGBA{A: 0xff})

	s.DisconnectClient("a")
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if n := s.Spaces().Active().Len(); n != 1 {
		t.Fatalf("windows after disconnect = %d, want 1", n)
	}
	if got := s.Windows(); len(got) != 1 || got[0].Client != "b" {
		t.Fatalf("Windows() = %+v", got)
	}
}

func TestCycleFocus(t *testing.T) {
	s, _ := newTestState(t, nil)
	a, _ := openWindow(t, s, "a", 10, 10, color.RGBA{A: 0xff})
	b, _ := openWindow(t, s, "b", 10, 10, color.RGBA{A: 0xff})
	c, _ := openWindow(t, s, "c", 10, 10, color.RGBA{A: 0xff})
	ids := func() []surface.ID {
		var out []surface.ID
		for _, w := range s.Spaces().Active().Elements() {
			out = append(out, w.ID())
		}
		return out
	}

	s.HandleAction(keybind.Action{Kind: keybind.ActionMoveWindowNext})
	if got := ids(); !slices.Equal(got, []surface.ID{b.ID(), c.ID(), a.ID()}) {
		t.Fatalf("stack after next = %v", got)
	}
	if s.Seat().KeyboardFocus() != a {
		t.Fatal("next did not focus the bottom window")
	}

	s.HandleAction(keybind.Action{Kind: keybind.ActionMoveWindowBack})
	if got := ids(); !slices.Equal(got, []surface.ID{a.ID(), b.ID(), c.ID()}) {
		t.Fatalf("stack after back = %v", got)
	}
	if s.Seat().KeyboardFocus() != c {
		t.Fatal("back did not focus the new top window")
	}
}

func TestMoveFocusedWindowToWorkspace(t *testing.T) {
	s, _ := newTestState(t, nil)
	sf, _ := openWindow(t, s, "a", 10, 10, color.RGBA{A: 0xff})
	w, _ := s.Window(sf.ID())
	s.FocusWindow(w)

	s.HandleAction(keybind.Action{Kind: keybind.ActionMoveWindowToPrevWorkspace})
	if got := s.Spaces().Find(w); got != s.Spaces().Len()-1 {
		t.Fatalf("window on workspace %d, want %d", got, s.Spaces().Len()-1)
	}
	if s.Spaces().Active().Len() != 0 || w.Focused() {
		t.Fatal("moved window still on the active workspace or focused")
	}

	if err := s.FocusWindow(w); err != nil {
		t.Fatal(err)
	}
	if s.Spaces().ActiveIndex() != s.Spaces().Len()-1 || !w.Focused() {
		t.Fatal("FocusWindow did not follow the window to its workspace")
	}
}

func TestRemoveWindow_SendsClose(t *testing.T) {
	s, _ := newTestState(t, nil)
	sf, rec := openWindow(t, s, "a", 10, 10, color.RGBA{A: 0xff})
	s.HandleAction(keybind.Action{Kind: keybind.ActionRemoveWindow})
	if rec.Count(surface.EventClose) != 0 {
		t.Fatal("close sent with nothing focused")
	}
	w, _ := s.Window(sf.ID())
	s.FocusWindow(w)
	s.HandleAction(keybind.Action{Kind: keybind.ActionRemoveWindow})
	if rec.Count(surface.EventClose) != 1 {
		t.Fatal("close not sent to the focused window")
	}
}

func TestSpawn_Environment(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "spawn.env")
	if err := os.WriteFile(envFile, []byte("GDK_BACKEND=floatwm\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	var argv, env []string
	s, _ := newTestState(t, func(c *config.Config) { c.SpawnEnvFile = envFile })
	s.spawn = func(a, e []string) error {
		argv, env = a, e
		return nil
	}

	s.HandleAction(keybind.Action{Kind: keybind.ActionSpawn, Command: `foot -e "htop -d 5"`})
	if !slices.Equal(argv, []string{"foot", "-e", "htop -d 5"}) {
		t.Fatalf("argv = %q", argv)
	}
	if !slices.Contains(env, "GDK_BACKEND=floatwm") {
		t.Fatal("env file variable missing")
	}
	if !slices.Contains(env, runtimepath.SocketEnv+"=/tmp/floatwm-test.sock") {
		t.Fatal("socket variable missing")
	}

	if err := s.Spawn(`unterminated "quote`); err == nil {
		t.Fatal("Spawn() accepted an unbalanced quote")
	}
}

func TestKeyLocks_UpdateLEDs(t *testing.T) {
	s, h := newTestState(t, nil)
	h.Inject(input.KeyEvent{Keycode: 58, Pressed: true, Locks: input.LockState{Caps: true}})
	s.Step()
	if !h.LEDs().Caps {
		t.Fatal("caps lock LED not updated")
	}
}

func TestCloseRequested_StopsLoop(t *testing.T) {
	s, h := newTestState(t, nil)
	h.Inject(backend.CloseRequested{})
	done := make(chan error, 1)
	go func() { done <- s.Run(t.Context()) }()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.Running() {
		t.Fatal("Running() after close request")
	}
}

func TestSetCursor_DeadSurfaceFallsBack(t *testing.T) {
	s, _ := newTestState(t, nil)
	cur := s.CreateSurface("a", surface.RoleCursor, "", 0, 0, nil)
	s.SetCursor(cur, image.Pt(2, 2), false)
	if s.Pipeline().CursorStatus().Surface != cur {
		t.Fatal("cursor surface not set")
	}
	s.DestroySurface(cur.ID())
	if got := s.Pipeline().CursorStatus(); got != render.DefaultCursor {
		t.Fatalf("cursor after destroy = %+v, want default", got)
	}
}

func TestFocus_KeyboardThenPointerLeavesOneFocusedWindow(t *testing.T) {
	s, h := newTestState(t, nil)
	var ids []surface.ID
	var recs []*surface.Recorder
	for i, name := range []string{"a", "b", "c"} {
		sf, rec := openWindow(t, s, name, 50, 50, color.RGBA{A: 0xff})
		if err := s.MoveWindow(sf.ID(), i*100, 0); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, sf.ID())
		recs = append(recs, rec)
	}

	h.Inject(input.PointerMotionAbsoluteEvent{Position: geom.Point{X: 10, Y: 10}})
	s.Step()
	b, _ := s.Window(ids[1])
	if err := s.FocusWindow(b); err != nil {
		t.Fatal(err)
	}
	h.Inject(input.PointerMotionAbsoluteEvent{Position: geom.Point{X: 210, Y: 10}})
	s.Step()

	var focused []surface.ID
	for _, w := range s.Spaces().Active().Elements() {
		if w.Focused() {
			focused = append(focused, w.ID())
		}
	}
	if !slices.Equal(focused, []surface.ID{ids[2]}) {
		t.Fatalf("focused windows = %v, want [%d]", focused, ids[2])
	}

	s.HandleAction(keybind.Action{Kind: keybind.ActionRemoveWindow})
	if recs[2].Count(surface.EventClose) != 1 || recs[1].Count(surface.EventClose) != 0 {
		t.Fatal("close did not go to the window under the pointer")
	}
}

func TestMoveGrab_OutlivesWorkspaceSwitchUntilRelease(t *testing.T) {
	s, h := newTestState(t, nil)
	sf, _ := openWindow(t, s, "a", 50, 50, color.RGBA{A: 0xff})
	w, _ := s.Window(sf.ID())

	h.Inject(input.PointerMotionAbsoluteEvent{Position: geom.Point{X: 10, Y: 10}})
	h.Inject(input.PointerButtonEvent{Button: input.BtnLeft, Pressed: true})
	s.Step()
	if err := s.StartMove(sf.ID()); err != nil {
		t.Fatalf("StartMove() error = %v", err)
	}

	s.HandleAction(keybind.Action{Kind: keybind.ActionNextWorkspace})
	h.Inject(input.PointerMotionAbsoluteEvent{Position: geom.Point{X: 60, Y: 60}})
	s.Step()
	if !s.Seat().HasGrab() {
		t.Fatal("grab ended before the button was released")
	}
	if loc, _ := s.Spaces().Get(0).ElementLocation(w); loc != image.Pt(0, 0) {
		t.Fatalf("window on the hidden workspace moved to %v", loc)
	}
	if s.Spaces().Active().Contains(w) {
		t.Fatal("grab pulled the window onto the new workspace")
	}

	h.Inject(input.PointerButtonEvent{Button: input.BtnLeft, Pressed: false})
	s.Step()
	if s.Seat().HasGrab() {
		t.Fatal("grab survived the last button release")
	}
}

func TestMoveGrab_DestroyedWindowIsNotRemapped(t *testing.T) {
	s, h := newTestState(t, nil)
	sf, _ := openWindow(t, s, "a", 50, 50, color.RGBA{A: 0xff})

	h.Inject(input.PointerMotionAbsoluteEvent{Position: geom.Point{X: 10, Y: 10}})
	h.Inject(input.PointerButtonEvent{Button: input.BtnLeft, Pressed: true})
	s.Step()
	if err := s.StartMove(sf.ID()); err != nil {
		t.Fatalf("StartMove() error = %v", err)
	}
	if err := s.DestroySurface(sf.ID()); err != nil {
		t.Fatal(err)
	}
	h.Inject(input.PointerMotionAbsoluteEvent{Position: geom.Point{X: 40, Y: 40}})
	s.Step()
	if n := s.Spaces().Active().Len(); n != 0 {
		t.Fatalf("space has %d windows after destroy, want 0", n)
	}
	if !s.Seat().HasGrab() {
		t.Fatal("grab ended before the button was released")
	}
}

func TestMoveFocusedWindowToWorkspace_DropsPointerFocus(t *testing.T) {
	s, h := newTestState(t, nil)
	sf, rec := openWindow(t, s, "a", 50, 50, color.RGBA{A: 0xff})

	h.Inject(input.PointerMotionAbsoluteEvent{Position: geom.Point{X: 10, Y: 10}})
	s.Step()
	if s.Seat().PointerFocus().Surface() != sf {
		t.Fatal("pointer focus not on the window under the pointer")
	}

	s.HandleAction(keybind.Action{Kind: keybind.ActionMoveWindowToNextWorkspace})
	if !s.Seat().PointerFocus().IsZero() {
		t.Fatal("pointer focus still on the moved window")
	}
	if rec.Count(surface.EventPointerLeave) != 1 {
		t.Fatalf("pointer leave events = %d, want 1", rec.Count(surface.EventPointerLeave))
	}

	h.Inject(input.PointerButtonEvent{Button: input.BtnLeft, Pressed: true})
	h.Inject(input.PointerButtonEvent{Button: input.BtnLeft, Pressed: false})
	s.Step()
	if n := rec.Count(surface.EventPointerButton); n != 0 {
		t.Fatalf("moved window got %d button events", n)
	}
}
