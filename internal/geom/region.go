package geom

// Region is a list of non-overlapping rectangles.
type Region []Rect

// Add inserts r, subtracting the parts already covered so the region stays
// disjoint.
func (g Region) Add(r Rect) Region {
	if r.Empty() {
		return g
	}
	pending := []Rect{r}
	for _, existing := range g {
		var next []Rect
		for _, p := range pending {
			next = append(next, subtract(p, existing)...)
		}
		pending = next
		if len(pending) == 0 {
			return g
		}
	}
	return append(g, pending...)
}

// Union adds every rectangle of other.
func (g Region) Union(other Region) Region {
	for _, r := range other {
		g = g.Add(r)
	}
	return g
}

// Clip intersects every rectangle with bounds and drops empty results.
func (g Region) Clip(bounds Rect) Region {
	out := make(Region, 0, len(g))
	for _, r := range g {
		if c := r.Intersect(bounds); !c.Empty() {
			out = append(out, c)
		}
	}
	return out
}

// Area returns the number of pixels covered.
func (g Region) Area() int {
	total := 0
	for _, r := range g {
		total += r.Width * r.Height
	}
	return total
}

// Bounds returns the bounding box of the region.
func (g Region) Bounds() Rect {
	var b Rect
	for _, r := range g {
		b = b.Union(r)
	}
	return b
}

// subtract returns the parts of a not covered by b, as up to four bands.
func subtract(a, b Rect) []Rect {
	isect := a.Intersect(b)
	if isect.Empty() {
		return []Rect{a}
	}
	var out []Rect
	if isect.Y > a.Y {
		out = append(out, Rect{X: a.X, Y: a.Y, Width: a.Width, Height: isect.Y - a.Y})
	}
	if isect.Bottom() < a.Bottom() {
		out = append(out, Rect{X: a.X, Y: isect.Bottom(), Width: a.Width, Height: a.Bottom() - isect.Bottom()})
	}
	if isect.X > a.X {
		out = append(out, Rect{X: a.X, Y: isect.Y, Width: isect.X - a.X, Height: isect.Height})
	}
	if isect.Right() < a.Right() {
		out = append(out, Rect{X: isect.Right(), Y: isect.Y, Width: a.Right() - isect.Right(), Height: isect.Height})
	}
	return out
}
