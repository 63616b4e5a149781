package heatmap

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiesman99/heattile/pkg/tile"
)

func TestDedup_CollapsesConcurrentRequests(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	next := ProducerFunc(func(ctx context.Context, addr tile.Address) ([]byte, error) {
		calls.Add(1)
		<-release
		return make([]byte, tile.BitmapLen), nil
	})
	p := Dedup(next)

	const n = 8
	results := make([][]byte, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := p.BitmapForTile(context.Background(), tile.Address{Z: 2, X: 1, Y: 1})
			assert.NoError(t, err)
			results[i] = b
		}(i)
	}

	// Give every goroutine time to join the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())

	// Each caller owns its own buffer
	results[0][0] = 0xFF
	for i := 1; i < n; i++ {
		require.Len(t, results[i], tile.BitmapLen)
		assert.Zero(t, results[i][0])
	}
}

func TestDedup_DistinctTilesAreNotShared(t *testing.T) {
	var calls atomic.Int32
	next := ProducerFunc(func(ctx context.Context, addr tile.Address) ([]byte, error) {
		calls.Add(1)
		return []byte(addr.String()), nil
	})
	p := Dedup(next)

	a, err := p.BitmapForTile(context.Background(), tile.Address{Z: 1, X: 0, Y: 1})
	require.NoError(t, err)
	b, err := p.BitmapForTile(context.Background(), tile.Address{Z: 1, X: 1, Y: 0})
	require.NoError(t, err)

	assert.Equal(t, "1/0/1", string(a))
	assert.Equal(t, "1/1/0", string(b))
	assert.Equal(t, int32(2), calls.Load())
}

func TestDedup_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	next := ProducerFunc(func(ctx context.Context, addr tile.Address) ([]byte, error) {
		<-release
		return nil, nil
	})
	p := Dedup(next)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.BitmapForTile(ctx, tile.Address{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimit_CapsConcurrency(t *testing.T) {
	var current, peak atomic.Int32
	next := ProducerFunc(func(ctx context.Context, addr tile.Address) ([]byte, error) {
		n := current.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		current.Add(-1)
		return nil, nil
	})
	p := Limit(next, 3)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := p.BitmapForTile(context.Background(), tile.Address{Z: 5, X: i, Y: i})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Greater(t, peak.Load(), int32(0))
}

func TestLimit_Disabled(t *testing.T) {
	next := ProducerFunc(func(ctx context.Context, addr tile.Address) ([]byte, error) { return nil, nil })
	_, isLimited := Limit(next, 0).(*limited)
	assert.False(t, isLimited)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("database is down")
	next := ProducerFunc(func(ctx context.Context, addr tile.Address) ([]byte, error) {
		calls.Add(1)
		return nil, boom
	})
	p := Breaker(next, BreakerConfig{Name: "test-open", Failures: 3, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := p.BitmapForTile(context.Background(), tile.Address{})
		assert.ErrorIs(t, err, boom)
	}

	_, err := p.BitmapForTile(context.Background(), tile.Address{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), calls.Load())
}

func TestBreaker_IgnoresOutOfRange(t *testing.T) {
	next := ProducerFunc(func(ctx context.Context, addr tile.Address) ([]byte, error) {
		return nil, addr.Valid()
	})
	p := Breaker(next, BreakerConfig{Name: "test-range", Failures: 1})

	for i := 0; i < 5; i++ {
		_, err := p.BitmapForTile(context.Background(), tile.Address{Z: 0, X: 9})
		assert.ErrorIs(t, err, tile.ErrOutOfRange)
	}
}

func TestBreakerUnderDedup_SharedFailureCountsOnce(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("database is down")
	release := make(chan struct{})
	next := ProducerFunc(func(ctx context.Context, addr tile.Address) ([]byte, error) {
		calls.Add(1)
		<-release
		return nil, boom
	})
	p := Dedup(Breaker(next, BreakerConfig{Name: "test-shared", Failures: 2, Timeout: time.Minute}))

	const n = 6
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.BitmapForTile(context.Background(), tile.Address{Z: 2, X: 1, Y: 1})
			assert.ErrorIs(t, err, boom)
		}()
	}

	// Let every caller join the flight before it fails
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())

	// One failure recorded, so the breaker is still closed for other tiles
	_, err := p.BitmapForTile(context.Background(), tile.Address{Z: 2, X: 3, Y: 3})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
}
