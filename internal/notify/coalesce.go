package notify

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultDebounceWindow is the default coalescing window. Events arriving
// within it collapse into one resynchronization pass.
const DefaultDebounceWindow = 400 * time.Millisecond

// Coalescer folds bursts of mutation events into single resync passes.
// The window restarts on every event, so a burst of N rapid changes
// triggers exactly one pass after the burst settles. While a pass is in
// flight, further events schedule one follow-up pass instead of starting
// overlapping passes.
type Coalescer struct {
	window time.Duration
	resync func(context.Context, []Event)
	fires  atomic.Int64
}

// NewCoalescer creates a coalescer that invokes resync with the batch of
// events accumulated since the previous pass.
func NewCoalescer(window time.Duration, resync func(context.Context, []Event)) *Coalescer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Coalescer{window: window, resync: resync}
}

// Fires returns how many resync passes have started.
func (c *Coalescer) Fires() int64 {
	return c.fires.Load()
}

// Run consumes events until the context is cancelled or the channel is
// closed. It blocks; callers run it in a goroutine.
func (c *Coalescer) Run(ctx context.Context, events <-chan Event) {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		batch   []Event
		pending []Event
		running bool
	)
	done := make(chan struct{}, 1)

	arm := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.NewTimer(c.window)
		timerC = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case e, ok := <-events:
			if !ok {
				return
			}
			if running {
				pending = append(pending, e)
				continue
			}
			batch = append(batch, e)
			arm()

		case <-timerC:
			timerC = nil
			running = true
			toSend := batch
			batch = nil
			c.fires.Add(1)
			go func() {
				defer func() { done <- struct{}{} }()
				c.resync(ctx, toSend)
			}()

		case <-done:
			running = false
			if len(pending) > 0 {
				batch = append(batch, pending...)
				pending = nil
				arm()
			}
		}
	}
}
