package geom

import "testing"

func TestInflate(t *testing.T) {
	r := R(10, 20, 100, 50)
	got := r.Inflate(2)
	want := R(8, 18, 104, 54)
	if got != want {
		t.Fatalf("Inflate(2) = %+v, want %+v", got, want)
	}
	if got.Width != r.Width+4 || got.Height != r.Height+4 {
		t.Fatalf("inflated size = %dx%d, want inner + 2*thickness", got.Width, got.Height)
	}
}

func TestContains_ExclusiveEdges(t *testing.T) {
	r := R(0, 0, 10, 10)
	tests := []struct {
		p    Point
		want bool
	}{
		{Point{0, 0}, true},
		{Point{9.99, 9.99}, true},
		{Point{10, 5}, false},
		{Point{5, 10}, false},
		{Point{-0.01, 5}, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.p); got != tt.want {
			t.Fatalf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestIntersectAndUnion(t *testing.T) {
	a := R(0, 0, 10, 10)
	b := R(5, 5, 10, 10)
	if got, want := a.Intersect(b), R(5, 5, 5, 5); got != want {
		t.Fatalf("Intersect = %+v, want %+v", got, want)
	}
	if got, want := a.Union(b), R(0, 0, 15, 15); got != want {
		t.Fatalf("Union = %+v, want %+v", got, want)
	}
	if got := a.Intersect(R(20, 20, 5, 5)); !got.Empty() {
		t.Fatalf("disjoint Intersect = %+v, want empty", got)
	}
	if got := (Rect{}).Union(b); got != b {
		t.Fatalf("empty Union = %+v, want %+v", got, b)
	}
}

func TestScale(t *testing.T) {
	if got, want := R(1, 1, 3, 3).Scale(1.5), R(1, 1, 5, 5); got != want {
		t.Fatalf("Scale(1.5) = %+v, want %+v", got, want)
	}
	if got, want := R(1, 2, 3, 4).Scale(1), R(1, 2, 3, 4); got != want {
		t.Fatalf("Scale(1) = %+v, want %+v", got, want)
	}
}

func TestRound(t *testing.T) {
	x, y := Point{X: 10.5, Y: -3.4}.Round()
	if x != 11 || y != -3 {
		t.Fatalf("Round() = (%d, %d), want (11, -3)", x, y)
	}
}

func TestRegionAdd_StaysDisjoint(t *testing.T) {
	var g Region
	g = g.Add(R(0, 0, 10, 10))
	g = g.Add(R(5, 5, 10, 10))
	g = g.Add(R(2, 2, 3, 3))

	if got, want := g.Area(), 100+100-25; got != want {
		t.Fatalf("Area() = %d, want %d", got, want)
	}
	for i := range g {
		for j := i + 1; j < len(g); j++ {
			if g[i].Overlaps(g[j]) {
				t.Fatalf("rects %+v and %+v overlap", g[i], g[j])
			}
		}
	}
	if got, want := g.Bounds(), R(0, 0, 15, 15); got != want {
		t.Fatalf("Bounds() = %+v, want %+v", got, want)
	}
}

func TestRegionClip(t *testing.T) {
	g := Region{R(-5, -5, 10, 10), R(100, 100, 5, 5)}
	got := g.Clip(R(0, 0, 50, 50))
	if len(got) != 1 || got[0] != R(0, 0, 5, 5) {
		t.Fatalf("Clip() = %+v, want [{0 0 5 5}]", got)
	}
}
