// Package task holds the small async building blocks the services use:
// a cancellable delay that stands in for network latency, and a debouncer
// that keeps only the most recent call.
//
// Both are driven by context.Context. Whoever starts the work owns the
// context, and cancelling it (a closed websocket, a finished request, a
// server shutdown) stops pending timers so nothing runs after its caller
// is gone.
package task

import (
	"context"
	"sync"
	"time"
)

// Delay waits for d or until ctx is done, whichever comes first.
//
// d <= 0 returns immediately, which is how tests run the services
// synchronously and deterministically. The returned error is ctx.Err()
// when the wait was cut short.
func Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Debouncer coalesces bursts of calls: only the last Trigger within the wait
// window runs. A new Trigger also cancels the context handed to a run that
// is still in flight, so a superseded lookup can abort early.
type Debouncer struct {
	parent context.Context
	wait   time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	cancel  context.CancelFunc
	stopped bool
}

// NewDebouncer returns a Debouncer whose runs inherit parent's cancellation.
func NewDebouncer(parent context.Context, wait time.Duration) *Debouncer {
	return &Debouncer{parent: parent, wait: wait}
}

// Trigger schedules fn to run after the wait window, replacing any call that
// is pending and cancelling any that is running. With a zero window fn runs
// synchronously on the caller's goroutine.
func (d *Debouncer) Trigger(fn func(ctx context.Context)) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.supersedeLocked()

	ctx, cancel := context.WithCancel(d.parent)
	d.cancel = cancel

	if d.wait <= 0 {
		d.mu.Unlock()
		fn(ctx)
		return
	}

	d.timer = time.AfterFunc(d.wait, func() {
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
	})
	d.mu.Unlock()
}

// Stop cancels the pending and in-flight calls. Later Triggers are ignored.
// Call it on teardown.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.supersedeLocked()
	d.stopped = true
}

func (d *Debouncer) supersedeLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
