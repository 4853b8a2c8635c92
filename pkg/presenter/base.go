// Package presenter contains the mediators between the event bus and the
// UI. Each presenter subscribes to the bus, calls domain services, and
// emits view commands; it never touches another presenter or the UI
// directly. Cross-presenter effects happen only by publishing new events.
package presenter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	perrors "github.com/odvcencio/perch/pkg/errors"
	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
	"github.com/odvcencio/perch/pkg/view"
)

// dispatchFunc handles one event. Unmatched variants are simply ignored.
type dispatchFunc func(ctx context.Context, ev event.AppEvent)

// Base carries the shared presenter lifecycle: one background goroutine
// while running, cooperative stop via flag, lag tolerated, bus closure
// terminal. Concrete presenters embed it and supply a dispatch function.
type Base struct {
	name     string
	bus      *event.Bus
	sink     view.Sink
	log      *logging.Logger
	dispatch dispatchFunc

	mu      sync.Mutex
	cur     *subscription
	running atomic.Bool
}

// subscription ties one loop goroutine to its own stop flag. The flag is
// per-loop so a Start after Stop cannot revive a loop from the previous
// run: a stale loop exits on its own flag regardless of what the
// presenter's lifecycle has done since.
type subscription struct {
	sub     *event.Subscriber
	stopped atomic.Bool
}

func newBase(name string, bus *event.Bus, sink view.Sink, log *logging.Logger) Base {
	return Base{name: name, bus: bus, sink: sink, log: log}
}

// Start spawns the receive loop. Idempotent: calling Start while running
// is a no-op. Restarting evicts a previous loop still parked in Recv by
// closing its subscription, so at most one loop dispatches at a time.
func (b *Base) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running.Load() {
		return
	}
	if b.cur != nil {
		b.cur.sub.Close()
	}
	cur := &subscription{sub: b.bus.Subscribe()}
	b.cur = cur
	b.running.Store(true)
	go b.loop(ctx, cur)
}

// Stop flips the loop's stop flag. The loop observes it on its next
// receive and exits; there is no forced cancellation. Closing the bus
// unblocks a loop waiting on an empty subscription.
func (b *Base) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.running.Store(false)
	if b.cur != nil {
		b.cur.stopped.Store(true)
	}
}

// IsRunning reports the lifecycle flag.
func (b *Base) IsRunning() bool {
	return b.running.Load()
}

func (b *Base) loop(ctx context.Context, cur *subscription) {
	defer func() {
		cur.sub.Close()
		b.mu.Lock()
		if b.cur == cur {
			b.running.Store(false)
		}
		b.mu.Unlock()
	}()

	for !cur.stopped.Load() {
		ev, err := cur.sub.Recv(ctx)
		if err != nil {
			var lag *event.LagError
			if errors.As(err, &lag) {
				b.log.Warn(logging.CategoryPresenter, "lagged", "subscriber fell behind, events skipped", map[string]any{
					"presenter": b.name,
					"skipped":   lag.Skipped,
				})
				metricLag.WithLabelValues(b.name).Add(float64(lag.Skipped))
				continue
			}
			// Bus closed or context cancelled: terminal either way.
			return
		}
		if cur.stopped.Load() {
			return
		}
		metricEventsDispatched.WithLabelValues(b.name).Inc()
		b.dispatch(ctx, ev)
	}
}

// send forwards one command to the UI, counting drops.
func (b *Base) send(cmd view.Command) {
	if !b.sink.Send(cmd) {
		metricCommandsDropped.WithLabelValues(b.name).Inc()
	}
}

// fail converts a service error into exactly one ShowError command. It is
// the only path by which service failures become user-visible; nothing is
// published back onto the bus and nothing panics.
func (b *Base) fail(title string, err error) {
	message := err.Error()
	var pe *perrors.Error
	if errors.As(err, &pe) {
		message = pe.DisplayMessage()
	}

	b.log.Error(logging.CategoryPresenter, "service_error", err.Error(), map[string]any{
		"presenter": b.name,
		"code":      string(perrors.GetCode(err)),
	})
	metricErrorsShown.WithLabelValues(b.name).Inc()

	b.send(view.ShowError{
		Title:    title,
		Message:  message,
		Severity: severityFor(err),
	})
}
