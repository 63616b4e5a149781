package heatmap

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/kiesman99/heattile/internal/logging"
	"github.com/kiesman99/heattile/internal/metrics"
	"github.com/kiesman99/heattile/pkg/tile"
)

// BreakerConfig configures the circuit breaker in front of a producer
type BreakerConfig struct {
	Name string

	// Failures is the number of consecutive failures that opens the breaker
	Failures uint32

	// Timeout is how long the breaker stays open before probing again
	Timeout time.Duration
}

type breaker struct {
	next Producer
	cb   *gobreaker.CircuitBreaker[[]byte]
}

// Breaker fails requests fast once next has failed cfg.Failures times in a
// row, typically because the track store is unreachable. Out-of-range
// addresses and cancelled requests do not count as failures.
// cfg.Failures == 0 returns next unchanged.
func Breaker(next Producer, cfg BreakerConfig) Producer {
	if cfg.Failures == 0 {
		return next
	}
	if cfg.Name == "" {
		cfg.Name = "producer"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	metrics.BreakerState.WithLabelValues(cfg.Name).Set(float64(gobreaker.StateClosed))

	settings := gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, tile.ErrOutOfRange) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("producer circuit breaker changed state")
		},
	}

	return &breaker{next: next, cb: gobreaker.NewCircuitBreaker[[]byte](settings)}
}

func (b *breaker) BitmapForTile(ctx context.Context, addr tile.Address) ([]byte, error) {
	return b.cb.Execute(func() ([]byte, error) {
		return b.next.BitmapForTile(ctx, addr)
	})
}
