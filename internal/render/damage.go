package render

import (
	"slices"

	"github.com/1broseidon/floatwm/internal/geom"
)

// maxAge is how many frames of damage history are kept. Older buffers are
// redrawn in full.
const maxAge = 4

type elementState struct {
	geometry geom.Rect
	commit   uint64
}

// DamageTracker diffs the element list against the previous frame and turns
// the per-frame damage into the damage a buffer of a given age needs.
type DamageTracker struct {
	bounds    geom.Rect
	last      map[string]elementState
	order     []string
	history   []geom.Region
	forceFull int
}

// NewDamageTracker creates a tracker whose first frame is a full redraw.
func NewDamageTracker() *DamageTracker {
	return &DamageTracker{last: make(map[string]elementState)}
}

// Resize sets the output bounds. A change forces a full redraw.
func (t *DamageTracker) Resize(bounds geom.Rect) {
	if bounds == t.bounds {
		return
	}
	t.bounds = bounds
	t.history = nil
}

// ForceFull makes the next n frames redraw everything.
func (t *DamageTracker) ForceFull(n int) {
	t.forceFull = max(t.forceFull, n)
}

// Damage records the damage of the new frame and returns what a buffer of
// the given age must repaint, clipped to the output.
func (t *DamageTracker) Damage(age int, elements []Element) geom.Region {
	var frame geom.Region
	if t.forceFull > 0 {
		t.forceFull--
		frame = frame.Add(t.bounds)
	}

	seen := make(map[string]struct{}, len(elements))
	order := make([]string, 0, len(elements))
	for i, e := range elements {
		id := e.ID()
		seen[id] = struct{}{}
		order = append(order, id)
		cur := elementState{geometry: e.Geometry(), commit: e.Commit()}
		prev, ok := t.last[id]
		switch {
		case !ok:
			frame = frame.Add(cur.geometry)
		case prev.geometry != cur.geometry:
			frame = frame.Add(prev.geometry).Add(cur.geometry)
		case prev.commit != cur.commit:
			frame = frame.Add(cur.geometry)
		case i >= len(t.order) || t.order[i] != id:
			// Restacked.
			frame = frame.Add(cur.geometry)
		}
		t.last[id] = cur
	}
	for id, prev := range t.last {
		if _, ok := seen[id]; !ok {
			frame = frame.Add(prev.geometry)
			delete(t.last, id)
		}
	}
	t.order = order
	frame = frame.Clip(t.bounds)

	full := age <= 0 || age > min(len(t.history)+1, maxAge)
	t.history = slices.Insert(t.history, 0, frame)
	if len(t.history) > maxAge {
		t.history = t.history[:maxAge]
	}
	if full {
		return geom.Region{t.bounds}.Clip(t.bounds)
	}
	var out geom.Region
	for _, r := range t.history[:age] {
		out = out.Union(r)
	}
	return out
}
