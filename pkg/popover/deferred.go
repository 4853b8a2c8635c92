// Package popover defers native popover mutations out of re-entrant
// callbacks. Toggling the popover from inside its own event-delivery call
// stack crashes some toolkits, so the request is parked in a single slot
// and applied once per frame after the toolkit callback has returned.
package popover

import "sync"

// Op is a deferred popover mutation.
type Op interface {
	isOp()
}

// Show opens the popover.
type Show struct {
	Focus bool
}

func (Show) isOp() {}

// Hide dismisses the popover.
type Hide struct{}

func (Hide) isOp() {}

// Deferred holds at most one pending operation. A new request overwrites
// any unconsumed previous one: only the latest desired open/closed state
// matters, not the history of toggles.
type Deferred struct {
	mu      sync.Mutex
	pending Op
}

// NewDeferred returns an empty deferred slot.
func NewDeferred() *Deferred {
	return &Deferred{}
}

// Request parks op for later application. Last write wins. Returns
// immediately; never executes op.
func (d *Deferred) Request(op Op) {
	d.mu.Lock()
	d.pending = op
	d.mu.Unlock()
}

// Take removes and returns the pending operation, if any.
func (d *Deferred) Take() (Op, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending == nil {
		return nil, false
	}
	op := d.pending
	d.pending = nil
	return op, true
}

// DrainAndApply executes the pending operation exactly once, if present.
// Call once per frame, strictly after the toolkit's own callback returns.
func (d *Deferred) DrainAndApply(apply func(Op)) {
	if op, ok := d.Take(); ok {
		apply(op)
	}
}
