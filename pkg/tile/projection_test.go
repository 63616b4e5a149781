package tile

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestPixelOf(t *testing.T) {
	root := Address{}

	x, y := root.PixelOf(orb.Point{0, 0})
	assert.InDelta(t, 128, x, 1e-9)
	assert.InDelta(t, 128, y, 1e-9)

	x, _ = root.PixelOf(orb.Point{-180, 0})
	assert.InDelta(t, 0, x, 1e-9)

	// The same point seen from the south-east quadrant at zoom 1
	se := Address{Z: 1, X: 1, Y: 1}
	x, y = se.PixelOf(orb.Point{0, 0})
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)
}

func TestPixelOfTileCorners(t *testing.T) {
	addr := Address{Z: 3, X: 4, Y: 2}
	b := addr.Bound(0)

	// North-west corner is the pixel origin, south-east the far edge
	x, y := addr.PixelOf(orb.Point{b.Min.Lon(), b.Max.Lat()})
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	x, y = addr.PixelOf(orb.Point{b.Max.Lon(), b.Min.Lat()})
	assert.InDelta(t, Size, x, 1e-6)
	assert.InDelta(t, Size, y, 1e-6)
}

func TestBoundPadding(t *testing.T) {
	addr := Address{Z: 3, X: 4, Y: 2}
	b := addr.Bound(0)

	padded := addr.Bound(0.5)
	assert.True(t, padded.Contains(b.Min))
	assert.True(t, padded.Contains(b.Max))
	assert.Less(t, padded.Min.Lon(), b.Min.Lon())
	assert.Greater(t, padded.Max.Lat(), b.Max.Lat())
}
