package tile

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// Bound returns the geographic bound of the tile, grown by buffer tile units on every side
func (a Address) Bound(buffer float64) orb.Bound {
	return a.mapTile().Bound(buffer)
}

// PixelOf projects a lon/lat point into the pixel space of the tile.
// Points outside the tile map to coordinates outside [0, Size).
func (a Address) PixelOf(p orb.Point) (float64, float64) {
	f := maptile.Fraction(p, maptile.Zoom(a.Z))
	return (f.X() - float64(a.X)) * Size, (f.Y() - float64(a.Y)) * Size
}

func (a Address) mapTile() maptile.Tile {
	return maptile.New(uint32(a.X), uint32(a.Y), maptile.Zoom(a.Z))
}
