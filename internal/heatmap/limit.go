package heatmap

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/kiesman99/heattile/internal/metrics"
	"github.com/kiesman99/heattile/pkg/tile"
)

type limited struct {
	next Producer
	sem  *semaphore.Weighted
}

// Limit allows at most n concurrent calls into next. Callers over the limit
// wait for a slot or for their context to end. n <= 0 returns next unchanged.
func Limit(next Producer, n int64) Producer {
	if n <= 0 {
		return next
	}
	return &limited{next: next, sem: semaphore.NewWeighted(n)}
}

func (l *limited) BitmapForTile(ctx context.Context, addr tile.Address) ([]byte, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)

	metrics.ProducerInFlight.Inc()
	defer metrics.ProducerInFlight.Dec()

	return l.next.BitmapForTile(ctx, addr)
}
