package backend

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/1broseidon/floatwm/internal/config"
	"github.com/1broseidon/floatwm/internal/geom"
	"github.com/1broseidon/floatwm/internal/input"
	"github.com/1broseidon/floatwm/internal/render"
	"github.com/1broseidon/floatwm/internal/space"
	"github.com/1broseidon/floatwm/internal/surface"
)

// Default headless output.
const (
	HeadlessOutputName = "HEADLESS-1"
	HeadlessWidth      = 1280
	HeadlessHeight     = 720
)

type headlessOutput struct {
	output *space.Output
	x, y   int
	chain  *Swapchain
}

// Headless renders into memory and takes input from Inject. It backs tests
// and runs without a display server.
type Headless struct {
	logger  *slog.Logger
	outputs []*headlessOutput

	mu      sync.Mutex
	pending []Event

	leds      input.LockState
	presented int
	imported  int
}

var _ Backend = (*Headless)(nil)

// NewHeadless creates one output per entry of outputs, or a single
// 1280x720 output when outputs is empty.
func NewHeadless(outputs []config.Output, logger *slog.Logger) (*Headless, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Headless{logger: logger.With("backend", "headless")}
	if len(outputs) == 0 {
		outputs = []config.Output{{
			Name:    HeadlessOutputName,
			Width:   HeadlessWidth,
			Height:  HeadlessHeight,
			Scale:   1,
			Refresh: config.DefaultRefresh,
		}}
	}
	for _, oc := range outputs {
		tr, err := geom.ParseTransform(oc.Transform)
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", oc.Name, err)
		}
		refresh := oc.Refresh
		if refresh <= 0 {
			refresh = config.DefaultRefresh
		}
		o := space.NewOutput(oc.Name, space.Mode{Width: oc.Width, Height: oc.Height, Refresh: refresh}, oc.Scale, tr)
		ho := &headlessOutput{output: o, x: oc.X, y: oc.Y}
		ho.chain = NewSwapchain(oc.Width, oc.Height, func(*image.RGBA, geom.Region) error {
			h.presented++
			return nil
		})
		h.outputs = append(h.outputs, ho)
		h.logger.Info("output created", "output", o.String(), "x", oc.X, "y", oc.Y)
	}
	return h, nil
}

func (h *Headless) Name() string     { return "headless" }
func (h *Headless) SeatName() string { return "headless" }

func (h *Headless) Outputs() []Placement {
	out := make([]Placement, len(h.outputs))
	for i, ho := range h.outputs {
		out[i] = Placement{Output: ho.output, X: ho.x, Y: ho.y}
	}
	return out
}

// Inject queues an event for the next Dispatch. It is safe to call from any
// goroutine.
func (h *Headless) Inject(ev Event) {
	h.mu.Lock()
	h.pending = append(h.pending, ev)
	h.mu.Unlock()
}

func (h *Headless) Dispatch(fn func(Event)) error {
	h.mu.Lock()
	pending := h.pending
	h.pending = nil
	h.mu.Unlock()
	for _, ev := range pending {
		if ro, ok := ev.(OutputResized); ok {
			h.resize(ro)
		}
		fn(ev)
	}
	return nil
}

func (h *Headless) resize(ev OutputResized) {
	for _, ho := range h.outputs {
		if ho.output == ev.Output {
			ho.output.SetMode(ev.Mode)
			ho.chain.Resize(ev.Mode.Width, ev.Mode.Height)
		}
	}
}

func (h *Headless) find(o *space.Output) *headlessOutput {
	for _, ho := range h.outputs {
		if ho.output == o {
			return ho
		}
	}
	return nil
}

func (h *Headless) Target(o *space.Output) (render.Target, bool) {
	ho := h.find(o)
	if ho == nil {
		return nil, false
	}
	return ho.chain, true
}

func (h *Headless) ResetBuffers(o *space.Output) {
	if ho := h.find(o); ho != nil {
		ho.chain.Reset()
	}
}

func (h *Headless) EarlyImport(*surface.Surface) { h.imported++ }

func (h *Headless) UpdateLEDState(s input.LockState) { h.leds = s }

// LEDs returns the last indicator state set.
func (h *Headless) LEDs() input.LockState { return h.leds }

// Imported counts EarlyImport hints.
func (h *Headless) Imported() int { return h.imported }

// Presented counts submitted frames across outputs.
func (h *Headless) Presented() int { return h.presented }

// Frame returns the last presented buffer of o.
func (h *Headless) Frame(o *space.Output) *image.RGBA {
	if ho := h.find(o); ho != nil {
		return ho.chain.Front()
	}
	return nil
}

func (h *Headless) Close() error { return nil }
