package heatmap

import (
	"context"
	"fmt"
	"image"

	"github.com/gogpu/gg"
	"github.com/paulmach/orb"

	"github.com/kiesman99/heattile/pkg/tile"
)

// Options tune how tracks are drawn
type Options struct {
	// LineWidth is the stroke width in pixels
	LineWidth float64

	// Opacity is the alpha each track adds where it passes
	Opacity float64

	// Ramp colours the accumulated density
	Ramp Ramp
}

// DefaultOptions returns the drawing settings used by the serve command
func DefaultOptions() Options {
	return Options{
		LineWidth: 2,
		Opacity:   0.15,
		Ramp:      DefaultRamp,
	}
}

// Renderer draws heatmap tiles from the tracks of a Source
type Renderer struct {
	src  Source
	opts Options
}

// NewRenderer creates a renderer. Zero fields in opts take their default.
func NewRenderer(src Source, opts Options) *Renderer {
	def := DefaultOptions()
	if opts.LineWidth <= 0 {
		opts.LineWidth = def.LineWidth
	}
	if opts.Opacity <= 0 || opts.Opacity > 1 {
		opts.Opacity = def.Opacity
	}
	if len(opts.Ramp) == 0 {
		opts.Ramp = def.Ramp
	}
	return &Renderer{src: src, opts: opts}
}

// BitmapForTile implements Producer
func (r *Renderer) BitmapForTile(ctx context.Context, addr tile.Address) ([]byte, error) {
	if err := addr.Valid(); err != nil {
		return nil, err
	}

	// Pad the query so strokes of tracks just outside the tile still bleed in
	buffer := r.opts.LineWidth / tile.Size
	tracks, err := r.src.Tracks(ctx, addr.Bound(buffer))
	if err != nil {
		return nil, fmt.Errorf("load tracks for tile %s: %w", addr, err)
	}

	out := make([]byte, tile.BitmapLen)
	if len(tracks) == 0 {
		return out, nil
	}

	density, err := r.draw(ctx, addr, tracks)
	if err != nil {
		return nil, err
	}

	r.colourise(density, out)
	return out, nil
}

// draw strokes every track once so that overlapping tracks stack up in the alpha channel
func (r *Renderer) draw(ctx context.Context, addr tile.Address, tracks []Track) (image.Image, error) {
	dc := gg.NewContext(tile.Size, tile.Size)
	defer dc.Close()

	dc.SetLineWidth(r.opts.LineWidth)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	dc.SetRGBA(1, 1, 1, r.opts.Opacity)

	for _, t := range tracks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.drawTrack(dc, addr, t); err != nil {
			return nil, fmt.Errorf("draw track %s: %w", t.ID, err)
		}
	}

	return dc.Image(), nil
}

// drawTrack strokes every line of t as its own subpath, so gaps between
// lines stay empty. Single-point lines become dots.
func (r *Renderer) drawTrack(dc *gg.Context, addr tile.Address, t Track) error {
	var dots []orb.Point
	stroke := false

	for _, ls := range t.Lines {
		switch len(ls) {
		case 0:
			continue
		case 1:
			dots = append(dots, ls[0])
			continue
		}

		for i, p := range ls {
			x, y := addr.PixelOf(p)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		stroke = true
	}

	if stroke {
		if err := dc.Stroke(); err != nil {
			return err
		}
	}

	for _, p := range dots {
		x, y := addr.PixelOf(p)
		dc.DrawCircle(x, y, r.opts.LineWidth/2)
		if err := dc.Fill(); err != nil {
			return err
		}
	}
	return nil
}

// colourise maps the alpha of every density pixel through the ramp into out
func (r *Renderer) colourise(density image.Image, out []byte) {
	rgba, ok := density.(*image.RGBA)
	for y := 0; y < tile.Size; y++ {
		for x := 0; x < tile.Size; x++ {
			var a uint8
			if ok {
				a = rgba.Pix[rgba.PixOffset(x, y)+3]
			} else {
				_, _, _, a32 := density.At(x, y).RGBA()
				a = uint8(a32 >> 8)
			}
			if a == 0 {
				continue
			}

			c := r.opts.Ramp.At(float64(a) / 255)
			i := (y*tile.Size + x) * tile.Channels
			out[i] = c.R
			out[i+1] = c.G
			out[i+2] = c.B
			out[i+3] = c.A
		}
	}
}
