package space

import (
	"image"
	"testing"

	"github.com/1broseidon/floatwm/internal/geom"
	"github.com/1broseidon/floatwm/internal/surface"
)

func newTestWindow(t *testing.T, id surface.ID, w, h int) *Window {
	t.Helper()
	s := surface.New(id, "test", nil)
	s.SetRole(surface.RoleToplevel)
	s.Attach(image.NewRGBA(image.Rect(0, 0, w, h)))
	s.Commit(false)
	return NewWindow(s)
}

func TestElementUnder_UsesInflatedGeometry(t *testing.T) {
	sp := New(2)
	w := newTestWindow(t, 1, 100, 80)
	sp.MapElement(w, 10, 10, false)

	tests := []struct {
		name string
		p    geom.Point
		hit  bool
	}{
		{"inside content", geom.Point{X: 50, Y: 50}, true},
		{"in border left", geom.Point{X: 8.5, Y: 50}, true},
		{"in border bottom", geom.Point{X: 50, Y: 91}, true},
		{"just outside border", geom.Point{X: 7.9, Y: 50}, false},
		{"right edge exclusive", geom.Point{X: 112, Y: 50}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, origin, ok := sp.ElementUnder(tt.p)
			if ok != tt.hit {
				t.Fatalf("ElementUnder(%v) hit = %v, want %v", tt.p, ok, tt.hit)
			}
			if ok && (got != w || origin != image.Pt(8, 8)) {
				t.Fatalf("ElementUnder(%v) = %v at %v", tt.p, got.ID(), origin)
			}
		})
	}

	bbox, _ := sp.ElementBBox(w)
	if want := geom.R(8, 8, 104, 84); bbox != want {
		t.Fatalf("ElementBBox() = %+v, want %+v", bbox, want)
	}
}

func TestElementUnder_ReturnsTopmost(t *testing.T) {
	sp := New(2)
	a := newTestWindow(t, 1, 100, 100)
	b := newTestWindow(t, 2, 100, 100)
	sp.MapElement(a, 0, 0, false)
	sp.MapElement(b, 50, 50, false)

	p := geom.Point{X: 75, Y: 75}
	if got, _, _ := sp.ElementUnder(p); got != b {
		t.Fatalf("ElementUnder() = %d, want 2", got.ID())
	}
	sp.RaiseElement(a, false)
	if got, _, _ := sp.ElementUnder(p); got != a {
		t.Fatalf("after raise ElementUnder() = %d, want 1", got.ID())
	}
	if els := sp.Elements(); els[len(els)-1] != a {
		t.Fatal("raised window is not last in stacking order")
	}
}

func TestRaiseElement_ActivatesExclusively(t *testing.T) {
	sp := New(2)
	a := newTestWindow(t, 1, 10, 10)
	b := newTestWindow(t, 2, 10, 10)
	sp.MapElement(a, 0, 0, true)
	sp.MapElement(b, 20, 0, true)
	if a.Activated() || !b.Activated() {
		t.Fatalf("activated a=%v b=%v, want false true", a.Activated(), b.Activated())
	}
	sp.RaiseElement(a, true)
	if !a.Activated() || b.Activated() {
		t.Fatalf("activated a=%v b=%v, want true false", a.Activated(), b.Activated())
	}
}

func TestLowerElement(t *testing.T) {
	sp := New(0)
	a := newTestWindow(t, 1, 10, 10)
	b := newTestWindow(t, 2, 10, 10)
	c := newTestWindow(t, 3, 10, 10)
	sp.MapElement(a, 0, 0, false)
	sp.MapElement(b, 0, 0, false)
	sp.MapElement(c, 0, 0, false)

	sp.LowerElement(c)
	got := sp.Elements()
	if got[0] != c || got[1] != a || got[2] != b {
		t.Fatalf("stack after LowerElement = %v, want c a b", []surface.ID{got[0].ID(), got[1].ID(), got[2].ID()})
	}
	sp.LowerElement(c)
	if sp.Elements()[0] != c || sp.Len() != 3 {
		t.Fatal("lowering the bottom window changed the stack")
	}
}

func TestRefresh_PrunesDeadAndTracksOutputs(t *testing.T) {
	sp := New(2)
	left := NewOutput("L", Mode{Width: 100, Height: 100, Refresh: 60000}, 1, geom.TransformNormal)
	right := NewOutput("R", Mode{Width: 100, Height: 100, Refresh: 60000}, 1, geom.TransformNormal)
	sp.MapOutput(left, 0, 0)
	sp.MapOutput(right, 100, 0)

	w := newTestWindow(t, 1, 20, 20)
	dead := newTestWindow(t, 2, 20, 20)
	sp.MapElement(w, 90, 10, false)
	sp.MapElement(dead, 10, 10, false)

	if got := sp.OutputsForElement(w); len(got) != 2 {
		t.Fatalf("OutputsForElement() = %d outputs, want 2", len(got))
	}

	dead.Surface().Kill()
	sp.Refresh()
	if sp.Contains(dead) || sp.Len() != 1 {
		t.Fatalf("dead window survived refresh, len = %d", sp.Len())
	}

	sp.MapElement(w, 150, 10, false)
	sp.Refresh()
	got := sp.OutputsForElement(w)
	if len(got) != 1 || got[0] != right {
		t.Fatalf("OutputsForElement() after move = %v, want [R]", got)
	}
}

func TestOutputGeometry_AppliesTransformAndScale(t *testing.T) {
	sp := New(0)
	o := NewOutput("X", Mode{Width: 1920, Height: 1080}, 2, geom.Transform90)
	sp.MapOutput(o, 10, 0)
	r, ok := sp.OutputGeometry(o)
	if !ok {
		t.Fatal("OutputGeometry() missing")
	}
	if want := geom.R(10, 0, 540, 960); r != want {
		t.Fatalf("OutputGeometry() = %+v, want %+v", r, want)
	}
}

func TestWorkspaces_SwitchWrapsAndMovesWindows(t *testing.T) {
	ws := NewWorkspaces(3, 2)
	if ws.Prev(); ws.ActiveIndex() != 2 {
		t.Fatalf("Prev() from 0 = %d, want 2", ws.ActiveIndex())
	}
	if ws.Next(); ws.ActiveIndex() != 0 {
		t.Fatalf("Next() from 2 = %d, want 0", ws.ActiveIndex())
	}

	w := newTestWindow(t, 1, 10, 10)
	ws.Active().MapElement(w, 5, 6, true)
	if !ws.MoveWindowRelative(w, -1) {
		t.Fatal("MoveWindowRelative() = false")
	}
	if ws.Find(w) != 2 {
		t.Fatalf("Find() = %d, want 2", ws.Find(w))
	}
	if w.Activated() {
		t.Fatal("window left active workspace still activated")
	}
	loc, _ := ws.Get(2).ElementLocation(w)
	if loc != image.Pt(5, 6) {
		t.Fatalf("location after move = %v, want (5,6)", loc)
	}
	if ws.Switch(7) {
		t.Fatal("Switch(7) accepted out of range index")
	}
	if n := len(ws.All()); n != 1 {
		t.Fatalf("All() = %d, want 1", n)
	}
}
