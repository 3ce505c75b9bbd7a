// Package x11 runs the compositor nested in a window on a host X server.
package x11

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	xkeybind "github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xgraphics"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/floatwm/internal/backend"
	"github.com/1broseidon/floatwm/internal/config"
	"github.com/1broseidon/floatwm/internal/geom"
	"github.com/1broseidon/floatwm/internal/input"
	"github.com/1broseidon/floatwm/internal/keybind"
	"github.com/1broseidon/floatwm/internal/render"
	"github.com/1broseidon/floatwm/internal/space"
	"github.com/1broseidon/floatwm/internal/surface"
)

// Default host window size.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
	OutputName    = "X11-1"
)

const eventMask = xproto.EventMaskExposure |
	xproto.EventMaskKeyPress |
	xproto.EventMaskKeyRelease |
	xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion |
	xproto.EventMaskStructureNotify

// Backend shows a single output in a host window and reads input from it.
type Backend struct {
	xu     *xgbutil.XUtil
	win    *xwindow.Window
	ximg   *xgraphics.Image
	logger *slog.Logger

	output *space.Output
	x, y   int
	chain  *backend.Swapchain

	locks       lockMasks
	wmProtocols xproto.Atom
	wmDelete    xproto.Atom
	leds        input.LockState
	closed      bool
}

var _ backend.Backend = (*Backend)(nil)

// New connects to $DISPLAY and opens the host window. Only the first
// configured output is used; its size is capped to the host's first monitor.
func New(outputs []config.Output, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	oc := config.Output{Name: OutputName, Width: DefaultWidth, Height: DefaultHeight, Scale: 1}
	if len(outputs) > 0 {
		oc = outputs[0]
		if len(outputs) > 1 {
			logger.Warn("x11 backend shows one output, ignoring the rest", "configured", len(outputs))
		}
	}
	tr, err := geom.ParseTransform(oc.Transform)
	if err != nil {
		return nil, fmt.Errorf("output %s: %w", oc.Name, err)
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	xkeybind.Initialize(xu)

	b := &Backend{xu: xu, logger: logger.With("backend", "x11"), x: oc.X, y: oc.Y}
	if err := b.open(oc, tr); err != nil {
		xu.Conn().Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) open(oc config.Output, tr geom.Transform) error {
	w, h := oc.Width, oc.Height
	if w <= 0 || h <= 0 {
		w, h = DefaultWidth, DefaultHeight
	}
	if mons, err := hostMonitors(b.xu); err != nil {
		b.logger.Debug("host monitors unavailable", "error", err)
	} else if len(mons) > 0 {
		w, h = min(w, mons[0].Width), min(h, mons[0].Height)
	}

	win, err := xwindow.Generate(b.xu)
	if err != nil {
		return fmt.Errorf("failed to allocate window: %w", err)
	}
	screen := b.xu.Screen()
	if err := win.CreateChecked(b.xu.RootWin(), 0, 0, w, h,
		xproto.CwBackPixel|xproto.CwEventMask, screen.BlackPixel, eventMask); err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	b.win = win

	title := "floatwm"
	if err := ewmh.WmNameSet(b.xu, win.Id, title); err != nil {
		b.logger.Debug("failed to set _NET_WM_NAME", "error", err)
	}
	if err := icccm.WmNameSet(b.xu, win.Id, title); err != nil {
		b.logger.Debug("failed to set WM_NAME", "error", err)
	}
	if err := icccm.WmProtocolsSet(b.xu, win.Id, []string{"WM_DELETE_WINDOW"}); err != nil {
		return fmt.Errorf("failed to set WM_PROTOCOLS: %w", err)
	}
	if b.wmProtocols, err = xprop.Atm(b.xu, "WM_PROTOCOLS"); err != nil {
		return err
	}
	if b.wmDelete, err = xprop.Atm(b.xu, "WM_DELETE_WINDOW"); err != nil {
		return err
	}

	b.locks = lockMasks{
		num:    modMaskForKeysym(b.xu, "Num_Lock"),
		scroll: modMaskForKeysym(b.xu, "Scroll_Lock"),
	}

	refresh := oc.Refresh
	if refresh <= 0 {
		refresh = config.DefaultRefresh
	}
	name := oc.Name
	if name == "" {
		name = OutputName
	}
	b.output = space.NewOutput(name, space.Mode{Width: w, Height: h, Refresh: refresh}, oc.Scale, tr)
	b.chain = backend.NewSwapchain(w, h, b.present)
	if err := b.allocImage(w, h); err != nil {
		return err
	}
	win.Map()
	b.logger.Info("output created", "output", b.output.String(), "window", win.Id)
	return nil
}

func (b *Backend) allocImage(w, h int) error {
	if b.ximg != nil {
		b.ximg.Destroy()
	}
	b.ximg = xgraphics.New(b.xu, image.Rect(0, 0, w, h))
	if err := b.ximg.XSurfaceSet(b.win.Id); err != nil {
		return fmt.Errorf("failed to create drawing surface: %w", err)
	}
	return nil
}

// present copies the damaged parts of buf into the host window.
func (b *Backend) present(buf *image.RGBA, damage geom.Region) error {
	if b.closed {
		return render.ErrContextLost
	}
	bounds := buf.Bounds().Intersect(b.ximg.Bounds())
	for _, r := range damage {
		rect := r.Image().Intersect(bounds)
		if rect.Empty() {
			continue
		}
		copyBGRA(b.ximg, buf, rect)
		if sub, ok := b.ximg.SubImage(rect).(*xgraphics.Image); ok {
			sub.XDraw()
		}
	}
	b.ximg.XPaint(b.win.Id)
	return nil
}

// copyBGRA converts the pixels of rect from RGBA to the host's BGRA layout.
func copyBGRA(dst *xgraphics.Image, src *image.RGBA, rect image.Rectangle) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		si := src.PixOffset(rect.Min.X, y)
		di := dst.PixOffset(rect.Min.X, y)
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Pix[di+0] = src.Pix[si+2]
			dst.Pix[di+1] = src.Pix[si+1]
			dst.Pix[di+2] = src.Pix[si+0]
			dst.Pix[di+3] = src.Pix[si+3]
			si += 4
			di += 4
		}
	}
}

func (b *Backend) Name() string     { return "x11" }
func (b *Backend) SeatName() string { return "x11" }

func (b *Backend) Outputs() []backend.Placement {
	return []backend.Placement{{Output: b.output, X: b.x, Y: b.y}}
}

// Dispatch drains the host event queue.
func (b *Backend) Dispatch(fn func(backend.Event)) error {
	if b.closed {
		return render.ErrContextLost
	}
	for {
		ev, xerr := b.xu.Conn().PollForEvent()
		if xerr != nil {
			b.logger.Warn("x error", "error", xerr)
			continue
		}
		if ev == nil {
			return nil
		}
		b.handle(ev, fn)
	}
}

func (b *Backend) handle(ev any, fn func(backend.Event)) {
	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		fn(b.key(e.Detail, e.State, uint32(e.Time), true))
	case xproto.KeyReleaseEvent:
		fn(b.key(e.Detail, e.State, uint32(e.Time), false))
	case xproto.ButtonPressEvent:
		b.button(e.Detail, uint32(e.Time), true, fn)
	case xproto.ButtonReleaseEvent:
		b.button(e.Detail, uint32(e.Time), false, fn)
	case xproto.MotionNotifyEvent:
		fn(input.PointerMotionAbsoluteEvent{Time: uint32(e.Time), Position: b.position(e.EventX, e.EventY)})
	case xproto.ConfigureNotifyEvent:
		if e.Window != b.win.Id {
			return
		}
		w, h := int(e.Width), int(e.Height)
		mode := b.output.Mode()
		if w == mode.Width && h == mode.Height {
			return
		}
		mode.Width, mode.Height = w, h
		b.chain.Resize(w, h)
		if err := b.allocImage(w, h); err != nil {
			b.logger.Error("resize failed", "error", err)
			return
		}
		b.output.SetMode(mode)
		b.logger.Debug("host window resized", "width", w, "height", h)
		fn(backend.OutputResized{Output: b.output, Mode: mode})
	case xproto.ExposeEvent:
		if e.Count == 0 {
			b.chain.Reset()
			fn(backend.Damaged{Output: b.output})
		}
	case xproto.ClientMessageEvent:
		if e.Type == b.wmProtocols && len(e.Data.Data32) > 0 && xproto.Atom(e.Data.Data32[0]) == b.wmDelete {
			fn(backend.CloseRequested{})
		}
	case xproto.DestroyNotifyEvent:
		if e.Window == b.win.Id {
			b.closed = true
			fn(backend.CloseRequested{})
		}
	}
}

func (b *Backend) key(code xproto.Keycode, state uint16, time uint32, pressed bool) input.KeyEvent {
	column := byte(0)
	if state&xproto.ModMaskShift != 0 {
		column = 1
	}
	return input.KeyEvent{
		Time:    time,
		Keycode: uint32(code) - evdevOffset,
		Sym:     keybind.Keysym(xkeybind.KeysymGet(b.xu, code, column)),
		Mods:    b.locks.modifiers(state),
		Locks:   b.locks.locks(state),
		Pressed: pressed,
	}
}

func (b *Backend) button(detail xproto.Button, time uint32, pressed bool, fn func(backend.Event)) {
	code, scroll := pointerButton(detail)
	if scroll != nil {
		if pressed {
			scroll.Time = time
			fn(*scroll)
		}
		return
	}
	fn(input.PointerButtonEvent{Time: time, Button: code, Pressed: pressed})
}

// position converts window pixels to global logical coordinates.
func (b *Backend) position(x, y int16) geom.Point {
	scale := b.output.Scale()
	if scale <= 0 {
		scale = 1
	}
	return geom.Point{
		X: float64(b.x) + float64(x)/scale,
		Y: float64(b.y) + float64(y)/scale,
	}
}

func (b *Backend) Target(o *space.Output) (render.Target, bool) {
	if o != b.output {
		return nil, false
	}
	return b.chain, true
}

func (b *Backend) ResetBuffers(o *space.Output) {
	if o == b.output {
		b.chain.Reset()
	}
}

// EarlyImport is a no-op: buffers are plain memory.
func (b *Backend) EarlyImport(*surface.Surface) {}

// UpdateLEDState sets the host keyboard's Caps, Num and Scroll Lock LEDs.
func (b *Backend) UpdateLEDState(s input.LockState) {
	if s == b.leds {
		return
	}
	b.leds = s
	for i, on := range []bool{s.Caps, s.Num, s.Scroll} {
		mode := uint32(xproto.LedModeOff)
		if on {
			mode = xproto.LedModeOn
		}
		xproto.ChangeKeyboardControl(b.xu.Conn(), xproto.KbLed|xproto.KbLedMode, []uint32{uint32(i + 1), mode})
	}
}

func (b *Backend) Close() error {
	if b.ximg != nil {
		b.ximg.Destroy()
	}
	if b.win != nil && !b.closed {
		b.win.Destroy()
	}
	b.closed = true
	b.xu.Conn().Close()
	return nil
}
