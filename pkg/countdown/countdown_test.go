package countdown

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTicker struct {
	mu    sync.Mutex
	ticks []time.Time
}

func (c *countingTicker) Tick(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = append(c.ticks, now)
	return 3
}

func (c *countingTicker) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ticks)
}

func TestStart_TicksImmediatelyAndRepeatedly(t *testing.T) {
	target := &countingTicker{}
	h := Start(context.Background(), target, 10*time.Millisecond)
	defer h.Stop()

	require.Eventually(t, func() bool { return target.count() >= 1 }, time.Second, time.Millisecond, "first tick is immediate")
	require.Eventually(t, func() bool { return target.count() >= 4 }, time.Second, 5*time.Millisecond)
}

func TestHandle_Stop(t *testing.T) {
	target := &countingTicker{}
	h := Start(context.Background(), target, 5*time.Millisecond)
	require.Eventually(t, func() bool { return target.count() >= 2 }, time.Second, time.Millisecond)

	h.Stop()
	select {
	case <-h.Done():
	default:
		t.Fatal("done must be closed after Stop returns")
	}

	stopped := target.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, target.count(), "no ticks after stop")

	assert.NotPanics(t, h.Stop, "second stop is a no-op")
}

func TestStart_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := Start(ctx, &countingTicker{}, 5*time.Millisecond)
	cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("countdown didn't stop on context cancel")
	}
}

func TestStart_Options(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	target := &countingTicker{}

	var calls int32
	var lastRows int32
	h := Start(context.Background(), target, 5*time.Millisecond,
		WithClock(func() time.Time { return fixed }),
		OnTick(func(now time.Time, rows int) {
			assert.Equal(t, fixed, now)
			atomic.StoreInt32(&lastRows, int32(rows))
			atomic.AddInt32(&calls, 1)
		}),
	)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 2 }, time.Second, time.Millisecond)
	h.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&lastRows))
	target.mu.Lock()
	defer target.mu.Unlock()
	for _, ts := range target.ticks {
		assert.Equal(t, fixed, ts)
	}
}

func TestStart_DefaultInterval(t *testing.T) {
	target := &countingTicker{}
	h := Start(context.Background(), target, 0)
	require.Eventually(t, func() bool { return target.count() == 1 }, time.Second, time.Millisecond)
	h.Stop()
}
