package surface

// EventType names a compositor → client event.
type EventType string

const (
	EventConfigure      EventType = "configure"
	EventFrame          EventType = "frame"
	EventClose          EventType = "close"
	EventKeyboardEnter  EventType = "keyboard_enter"
	EventKeyboardLeave  EventType = "keyboard_leave"
	EventKey            EventType = "key"
	EventPointerEnter   EventType = "pointer_enter"
	EventPointerLeave   EventType = "pointer_leave"
	EventPointerMotion  EventType = "pointer_motion"
	EventRelativeMotion EventType = "relative_motion"
	EventPointerButton  EventType = "pointer_button"
	EventPointerAxis    EventType = "pointer_axis"
	EventAxisStop       EventType = "pointer_axis_stop"
	EventPointerFrame   EventType = "pointer_frame"
	EventGesture        EventType = "pointer_gesture"
)

// Event is the flat wire form of every event delivered to a client.
// Coordinates are surface-local.
type Event struct {
	Type      EventType `json:"type"`
	Surface   ID        `json:"surface"`
	Serial    uint32    `json:"serial,omitempty"`
	Time      uint32    `json:"time,omitempty"`
	X         float64   `json:"x,omitempty"`
	Y         float64   `json:"y,omitempty"`
	DX        float64   `json:"dx,omitempty"`
	DY        float64   `json:"dy,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	Activated bool      `json:"activated,omitempty"`
	Button    uint32    `json:"button,omitempty"`
	Pressed   bool      `json:"pressed,omitempty"`
	Keycode   uint32    `json:"keycode,omitempty"`
	Keysym    uint32    `json:"keysym,omitempty"`
	Mods      uint8     `json:"mods,omitempty"`
	Axis      string    `json:"axis,omitempty"`
	Value     float64   `json:"value,omitempty"`
	V120      float64   `json:"v120,omitempty"`
	Source    string    `json:"source,omitempty"`
	Gesture   string    `json:"gesture,omitempty"`
	Fingers   uint32    `json:"fingers,omitempty"`
	Scale     float64   `json:"scale,omitempty"`
	Rotation  float64   `json:"rotation,omitempty"`
	Cancelled bool      `json:"cancelled,omitempty"`
}

// Sink receives events for the surfaces of one client.
type Sink interface {
	Deliver(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Deliver(ev Event) { f(ev) }

// Recorder is a Sink that keeps every event. Tests use it in place of a
// socket connection.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Deliver(ev Event) {
	r.Events = append(r.Events, ev)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []EventType {
	out := make([]EventType, len(r.Events))
	for i, ev := range r.Events {
		out[i] = ev.Type
	}
	return out
}

// Last returns the most recent event of type t.
func (r *Recorder) Last(t EventType) (Event, bool) {
	for i := len(r.Events) - 1; i >= 0; i-- {
		if r.Events[i].Type == t {
			return r.Events[i], true
		}
	}
	return Event{}, false
}

// Count returns how many events of type t were recorded.
func (r *Recorder) Count(t EventType) int {
	n := 0
	for _, ev := range r.Events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.Events = nil
}
