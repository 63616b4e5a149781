// Package encode turns raw tile bitmaps into PNG images.
package encode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/kiesman99/heattile/pkg/tile"
)

// ErrBitmapSize is returned when a raw bitmap is not exactly one RGBA tile
var ErrBitmapSize = errors.New("raw bitmap has wrong size")

// PNG encodes a 256x256 RGBA bitmap as a PNG image.
// The input is read only.
func PNG(raw []byte) ([]byte, error) {
	if len(raw) != tile.BitmapLen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrBitmapSize, len(raw), tile.BitmapLen)
	}

	img := &image.NRGBA{
		Pix:    raw,
		Stride: tile.Size * tile.Channels,
		Rect:   image.Rect(0, 0, tile.Size, tile.Size),
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
