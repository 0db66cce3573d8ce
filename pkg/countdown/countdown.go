// Package countdown runs the recurring tick that repaints deadline cells.
package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
)

// Ticker is a display surface re-evaluating its rows at a given moment
type Ticker interface {
	Tick(now time.Time) int
}

// Option customizes a countdown
type Option func(*options)

type options struct {
	clock  func() time.Time
	onTick func(now time.Time, rows int)
}

// WithClock sets the clock used for tick timestamps
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// OnTick registers a callback invoked after every tick
func OnTick(fn func(now time.Time, rows int)) Option {
	return func(o *options) { o.onTick = fn }
}

// Handle owns a running countdown. Stop ends it deterministically.
type Handle struct {
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// Start ticks the target immediately and then every interval until the handle is
// stopped or ctx is canceled. Every tick touches all rows, changed or not.
func Start(ctx context.Context, target Ticker, interval time.Duration, opts ...Option) *Handle {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if interval <= 0 {
		interval = time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		tick := func() {
			now := o.clock()
			n := target.Tick(now)
			if o.onTick != nil {
				o.onTick(now, n)
			}
		}

		tick()
		for {
			select {
			case <-ctx.Done():
				lgr.Printf("[DEBUG] countdown stopped")
				return
			case <-ticker.C:
				tick()
			}
		}
	}()

	lgr.Printf("[DEBUG] countdown started with interval %v", interval)
	return h
}

// Stop ends the countdown and waits for the running tick to finish. Safe to call more than once.
func (h *Handle) Stop() {
	h.stopOnce.Do(h.cancel)
	<-h.done
}

// Done is closed once the countdown has stopped
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
