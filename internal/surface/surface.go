// Package surface models client surfaces: their committed buffers, toplevel
// configure state, frame callbacks and cursor hotspot.
package surface

import (
	"image"
	"sync"
)

// ID identifies a surface for the lifetime of the compositor.
type ID uint32

// Role is what a surface is used for.
type Role int

const (
	RoleNone Role = iota
	RoleToplevel
	RoleCursor
)

func (r Role) String() string {
	switch r {
	case RoleToplevel:
		return "toplevel"
	case RoleCursor:
		return "cursor"
	default:
		return "none"
	}
}

// ToplevelState is the state carried by a configure event.
type ToplevelState struct {
	Width     int
	Height    int
	Activated bool
}

// Surface is owned by the event loop goroutine. Only the cursor hotspot may
// be touched from elsewhere.
type Surface struct {
	id     ID
	client string
	sink   Sink
	role   Role
	title  string
	alive  bool

	pendingBuffer *image.RGBA
	buffer        *image.RGBA
	generation    uint64

	pending              ToplevelState
	lastSent             ToplevelState
	serial               uint32
	initialConfigureSent bool

	frameRequested bool

	hotspotMu sync.Mutex
	hotspot   image.Point
}

// New creates a live surface whose events go to sink.
func New(id ID, client string, sink Sink) *Surface {
	return &Surface{id: id, client: client, sink: sink, alive: true}
}

func (s *Surface) ID() ID         { return s.id }
func (s *Surface) Client() string { return s.client }
func (s *Surface) Role() Role     { return s.role }
func (s *Surface) Title() string  { return s.title }

func (s *Surface) SetRole(r Role)       { s.role = r }
func (s *Surface) SetTitle(title string) { s.title = title }

// Alive reports whether the client still owns the surface.
func (s *Surface) Alive() bool { return s.alive }

// Kill marks the surface destroyed. The space prunes it on its next refresh.
func (s *Surface) Kill() {
	s.alive = false
	s.pendingBuffer = nil
}

// Attach stages a buffer for the next commit. A nil buffer unmaps the content.
func (s *Surface) Attach(buf *image.RGBA) {
	s.pendingBuffer = buf
}

// Commit applies the staged buffer and requests a frame callback when asked.
func (s *Surface) Commit(requestFrame bool) {
	if s.pendingBuffer != nil {
		s.buffer = s.pendingBuffer
		s.pendingBuffer = nil
	}
	s.generation++
	if requestFrame {
		s.frameRequested = true
	}
}

// Buffer returns the committed content, or nil.
func (s *Surface) Buffer() *image.RGBA { return s.buffer }

// Generation increases on every commit. Renderers compare it to decide
// whether the content changed.
func (s *Surface) Generation() uint64 { return s.generation }

// Size returns the committed buffer size.
func (s *Surface) Size() (int, int) {
	if s.buffer == nil {
		return 0, 0
	}
	b := s.buffer.Bounds()
	return b.Dx(), b.Dy()
}

// Activated reports the pending activated state.
func (s *Surface) Activated() bool { return s.pending.Activated }

// SetActivated changes the pending activated state and reports whether it
// changed. Nothing is sent until SendPendingConfigure.
func (s *Surface) SetActivated(activated bool) bool {
	if s.pending.Activated == activated {
		return false
	}
	s.pending.Activated = activated
	return true
}

// SetSize sets the size the next configure suggests.
func (s *Surface) SetSize(w, h int) {
	s.pending.Width = w
	s.pending.Height = h
}

// PendingState returns the state the next configure would carry.
func (s *Surface) PendingState() ToplevelState { return s.pending }

// InitialConfigureSent reports whether any configure was sent.
func (s *Surface) InitialConfigureSent() bool { return s.initialConfigureSent }

// SendConfigure unconditionally sends the pending state and returns its serial.
func (s *Surface) SendConfigure() uint32 {
	s.serial++
	s.lastSent = s.pending
	s.initialConfigureSent = true
	s.Deliver(Event{
		Type:      EventConfigure,
		Serial:    s.serial,
		Width:     s.pending.Width,
		Height:    s.pending.Height,
		Activated: s.pending.Activated,
	})
	return s.serial
}

// SendPendingConfigure sends a configure only if the pending state differs
// from the last one sent. It returns the serial and whether anything was sent.
func (s *Surface) SendPendingConfigure() (uint32, bool) {
	if s.initialConfigureSent && s.pending == s.lastSent {
		return 0, false
	}
	return s.SendConfigure(), true
}

// SendFrame fires the pending frame callback, if the client asked for one.
func (s *Surface) SendFrame(timeMsec uint32) bool {
	if !s.frameRequested {
		return false
	}
	s.frameRequested = false
	s.Deliver(Event{Type: EventFrame, Time: timeMsec})
	return true
}

// SendClose asks the client to close the surface.
func (s *Surface) SendClose() {
	s.Deliver(Event{Type: EventClose})
}

// SetCursorHotspot is safe to call from any goroutine.
func (s *Surface) SetCursorHotspot(p image.Point) {
	s.hotspotMu.Lock()
	s.hotspot = p
	s.hotspotMu.Unlock()
}

// CursorHotspot is safe to call from any goroutine.
func (s *Surface) CursorHotspot() image.Point {
	s.hotspotMu.Lock()
	defer s.hotspotMu.Unlock()
	return s.hotspot
}

// Deliver stamps ev with the surface id and hands it to the client. Events
// for dead surfaces are dropped.
func (s *Surface) Deliver(ev Event) {
	if !s.alive || s.sink == nil {
		return
	}
	ev.Surface = s.id
	s.sink.Deliver(ev)
}
