package heatmap

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRampAt(t *testing.T) {
	r := Ramp{
		{At: 0, Color: color.NRGBA{A: 0}},
		{At: 1, Color: color.NRGBA{R: 200, A: 255}},
	}

	assert.Equal(t, color.NRGBA{A: 0}, r.At(-1))
	assert.Equal(t, color.NRGBA{R: 200, A: 255}, r.At(2))
	assert.Equal(t, color.NRGBA{R: 100, A: 128}, r.At(0.5))
	assert.Equal(t, color.NRGBA{}, Ramp{}.At(0.5))
}

func TestDefaultRampIsMonotonicInAlpha(t *testing.T) {
	prev := uint8(0)
	for i := 0; i <= 255; i++ {
		a := DefaultRamp.At(float64(i) / 255).A
		assert.GreaterOrEqual(t, a, prev, "density %d", i)
		prev = a
	}
}
