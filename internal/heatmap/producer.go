// Package heatmap produces raw RGBA heatmap tiles from activity tracks.
//
// A Producer turns a tile address into a 256x256 RGBA bitmap. Renderer is the
// real implementation; Dedup, Limit and Breaker wrap any Producer to bound
// how much work concurrent tile requests can push into it.
package heatmap

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/kiesman99/heattile/pkg/tile"
)

// Producer renders the raw bitmap of one tile.
// Implementations must be safe for concurrent use and return a fresh
// buffer of tile.BitmapLen bytes on success.
type Producer interface {
	BitmapForTile(ctx context.Context, addr tile.Address) ([]byte, error)
}

// ProducerFunc adapts a function to the Producer interface
type ProducerFunc func(ctx context.Context, addr tile.Address) ([]byte, error)

// BitmapForTile calls f(ctx, addr)
func (f ProducerFunc) BitmapForTile(ctx context.Context, addr tile.Address) ([]byte, error) {
	return f(ctx, addr)
}

// Track is the recorded path of one activity, in lon/lat order.
// Each line is drawn on its own, so a pause in the recording leaves a gap.
type Track struct {
	ID    string
	Name  string
	Lines orb.MultiLineString
}

// Bound returns the bounding box of the track
func (t Track) Bound() orb.Bound {
	return t.Lines.Bound()
}

// NumPoints counts the points over all lines
func (t Track) NumPoints() int {
	n := 0
	for _, ls := range t.Lines {
		n += len(ls)
	}
	return n
}

// Source supplies the tracks that may cross a geographic bound.
// Returning tracks that do not cross it is allowed; they are clipped when drawn.
type Source interface {
	Tracks(ctx context.Context, bound orb.Bound) ([]Track, error)
}
