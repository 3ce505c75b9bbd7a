package space

import (
	"fmt"
	"math"

	"github.com/1broseidon/floatwm/internal/geom"
)

// Mode is an output's pixel size and refresh rate in millihertz.
type Mode struct {
	Width   int
	Height  int
	Refresh int
}

// Output is a display the space can be mapped onto.
type Output struct {
	name      string
	mode      Mode
	scale     float64
	transform geom.Transform
}

// NewOutput creates an output. A non-positive scale is treated as 1.
func NewOutput(name string, mode Mode, scale float64, transform geom.Transform) *Output {
	if scale <= 0 {
		scale = 1
	}
	return &Output{name: name, mode: mode, scale: scale, transform: transform}
}

func (o *Output) Name() string              { return o.name }
func (o *Output) Mode() Mode                { return o.mode }
func (o *Output) Scale() float64            { return o.scale }
func (o *Output) Transform() geom.Transform { return o.transform }

// SetMode updates the current mode, e.g. after the host window was resized.
func (o *Output) SetMode(m Mode) { o.mode = m }

// LogicalSize is the mode size after the transform, divided by the scale.
func (o *Output) LogicalSize() (int, int) {
	w, h := o.transform.Apply(o.mode.Width, o.mode.Height)
	return int(math.Ceil(float64(w) / o.scale)), int(math.Ceil(float64(h) / o.scale))
}

func (o *Output) String() string {
	return fmt.Sprintf("%s %dx%d@%.3f", o.name, o.mode.Width, o.mode.Height, float64(o.mode.Refresh)/1000)
}
