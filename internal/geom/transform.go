package geom

import "fmt"

// Transform is an output rotation/flip.
type Transform int

const (
	TransformNormal Transform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

var transformNames = [...]string{
	TransformNormal:     "normal",
	Transform90:         "90",
	Transform180:        "180",
	Transform270:        "270",
	TransformFlipped:    "flipped",
	TransformFlipped90:  "flipped-90",
	TransformFlipped180: "flipped-180",
	TransformFlipped270: "flipped-270",
}

func (t Transform) String() string {
	if t >= 0 && int(t) < len(transformNames) {
		return transformNames[t]
	}
	return fmt.Sprintf("transform(%d)", int(t))
}

// ParseTransform accepts the names printed by String. The empty string is
// TransformNormal.
func ParseTransform(s string) (Transform, error) {
	if s == "" {
		return TransformNormal, nil
	}
	for i, name := range transformNames {
		if name == s {
			return Transform(i), nil
		}
	}
	return TransformNormal, fmt.Errorf("unknown transform %q", s)
}

// TransformNames lists valid transform names.
func TransformNames() []string {
	return transformNames[:]
}

// Swaps reports whether the transform exchanges width and height.
func (t Transform) Swaps() bool {
	switch t {
	case Transform90, Transform270, TransformFlipped90, TransformFlipped270:
		return true
	}
	return false
}

// Apply maps a mode size to the logical size seen after the transform.
func (t Transform) Apply(w, h int) (int, int) {
	if t.Swaps() {
		return h, w
	}
	return w, h
}
