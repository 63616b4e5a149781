package tile

import (
	"errors"
	"fmt"
)

// Size is the edge length of a tile in pixels
const Size = 256

// Channels is the number of bytes per pixel in a raw bitmap (RGBA)
const Channels = 4

// BitmapLen is the exact length of a raw tile bitmap
const BitmapLen = Size * Size * Channels

// MaxZoom is the deepest zoom level a tile address may use
const MaxZoom = 24

var (
	// ErrMalformedCoordinate is returned when a path segment is not a canonical non-negative integer
	ErrMalformedCoordinate = errors.New("malformed tile coordinate")

	// ErrOutOfRange is returned when a well-formed address lies outside the tile pyramid
	ErrOutOfRange = errors.New("tile address out of range")
)

// Address identifies one tile in the slippy-map pyramid
type Address struct {
	Z, X, Y int
}

// String renders the address as z/x/y
func (a Address) String() string {
	return fmt.Sprintf("%d/%d/%d", a.Z, a.X, a.Y)
}

// Valid reports whether the address lies inside the 2^z x 2^z grid
func (a Address) Valid() error {
	if a.Z < 0 || a.Z > MaxZoom {
		return fmt.Errorf("%w: zoom %d not in [0, %d]", ErrOutOfRange, a.Z, MaxZoom)
	}
	n := 1 << uint(a.Z)
	if a.X < 0 || a.X >= n || a.Y < 0 || a.Y >= n {
		return fmt.Errorf("%w: %s outside %dx%d grid", ErrOutOfRange, a, n, n)
	}
	return nil
}
