package heatmap

import (
	"bytes"
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/kiesman99/heattile/internal/metrics"
	"github.com/kiesman99/heattile/pkg/tile"
)

type dedup struct {
	next  Producer
	group singleflight.Group
}

// Dedup collapses concurrent requests for the same tile into one call to next.
// The shared production is detached from the caller's cancellation so one
// client going away does not fail the others; each caller still stops
// waiting when its own context is done.
func Dedup(next Producer) Producer {
	return &dedup{next: next}
}

func (d *dedup) BitmapForTile(ctx context.Context, addr tile.Address) ([]byte, error) {
	detached := context.WithoutCancel(ctx)
	ch := d.group.DoChan(addr.String(), func() (interface{}, error) {
		return d.next.BitmapForTile(detached, addr)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		bitmap := res.Val.([]byte)
		if res.Shared {
			metrics.ProducerShared.Inc()
			// Callers own their buffer
			bitmap = bytes.Clone(bitmap)
		}
		return bitmap, nil
	}
}
