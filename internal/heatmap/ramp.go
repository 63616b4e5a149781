package heatmap

import (
	"image/color"
	"sort"
)

// Stop is one colour of a Ramp at position At in [0, 1]
type Stop struct {
	At    float64
	Color color.NRGBA
}

// Ramp maps track density to colour by linear interpolation between stops.
// Stops must be sorted by At.
type Ramp []Stop

// DefaultRamp goes from translucent blue for a single pass to white for the busiest pixels
var DefaultRamp = Ramp{
	{At: 0, Color: color.NRGBA{R: 0, G: 40, B: 255, A: 0}},
	{At: 0.1, Color: color.NRGBA{R: 0, G: 40, B: 255, A: 170}},
	{At: 0.4, Color: color.NRGBA{R: 255, G: 0, B: 40, A: 220}},
	{At: 0.75, Color: color.NRGBA{R: 255, G: 220, B: 0, A: 255}},
	{At: 1, Color: color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
}

// At returns the colour for density t, clamped to the ramp ends
func (r Ramp) At(t float64) color.NRGBA {
	if len(r) == 0 {
		return color.NRGBA{}
	}
	if t <= r[0].At {
		return r[0].Color
	}
	last := r[len(r)-1]
	if t >= last.At {
		return last.Color
	}

	i := sort.Search(len(r), func(i int) bool { return r[i].At >= t })
	lo, hi := r[i-1], r[i]
	f := (t - lo.At) / (hi.At - lo.At)

	return color.NRGBA{
		R: lerp(lo.Color.R, hi.Color.R, f),
		G: lerp(lo.Color.G, hi.Color.G, f),
		B: lerp(lo.Color.B, hi.Color.B, f),
		A: lerp(lo.Color.A, hi.Color.A, f),
	}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*f + 0.5)
}
