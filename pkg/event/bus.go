package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNoSubscribers is returned by Publish when nobody is listening.
	// This is a signal, not necessarily an application error: services
	// may publish before any presenter has started.
	ErrNoSubscribers = errors.New("no subscribers registered")

	// ErrClosed is returned when the bus has been torn down. A receive
	// loop that sees it must terminate.
	ErrClosed = errors.New("bus closed")
)

// LagError reports that a subscriber fell behind the ring buffer and the
// oldest unread events were skipped. The subscription itself is still
// live; callers should log and keep receiving.
type LagError struct {
	Skipped uint64
}

func (e *LagError) Error() string {
	return fmt.Sprintf("subscriber lagged, skipped %d events", e.Skipped)
}

// Bus is a capacity-bounded broadcast channel of AppEvent. Every
// subscriber sees every event published after it subscribed, in publish
// order, independent of other subscribers. A slow subscriber never blocks
// Publish: once it trails by more than the ring capacity it skips the
// oldest unread events and observes a LagError instead.
type Bus struct {
	mu       sync.Mutex
	capacity uint64
	ring     []AppEvent
	next     uint64 // sequence number of the next event to publish
	subs     map[*Subscriber]struct{}
	closed   bool
}

// NewBus allocates a bus with the given ring-buffer capacity.
func NewBus(capacity int) *Bus {
	if capacity < 1 {
		capacity = 1
	}
	return &Bus{
		capacity: uint64(capacity),
		ring:     make([]AppEvent, capacity),
		subs:     make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new independent receive handle. History is not
// replayed: the subscriber sees only events published after this call.
func (b *Bus) Subscribe() *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &Subscriber{
		bus:    b,
		cursor: b.next,
		wake:   make(chan struct{}, 1),
	}
	b.subs[s] = struct{}{}
	return s
}

// Publish delivers ev to every live subscriber and returns how many there
// were. Fails with ErrNoSubscribers iff zero subscribers are registered.
// Never blocks on slow consumers.
func (b *Bus) Publish(ev AppEvent) (int, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return 0, ErrClosed
	}
	n := len(b.subs)
	if n == 0 {
		b.mu.Unlock()
		metricPublishNoSubscribers.Inc()
		return 0, ErrNoSubscribers
	}

	b.ring[b.next%b.capacity] = ev
	b.next++
	for s := range b.subs {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
	b.mu.Unlock()

	metricEventsPublished.Inc()
	return n, nil
}

// SubscriberCount returns the number of live subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close tears down the bus. Subscribers drain any events still buffered
// for them, then receive ErrClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

// Subscriber is an ordered, per-subscriber queue view over the bus.
type Subscriber struct {
	bus    *Bus
	cursor uint64
	wake   chan struct{}
	closed bool
}

// Recv blocks until an event is available, the subscriber has lagged, the
// bus is closed, or ctx is done.
//
// Returns (event, nil) on delivery; (nil, *LagError) when events were
// skipped — the subscription is still live and the caller should retry
// immediately; (nil, ErrClosed) when the bus is torn down.
func (s *Subscriber) Recv(ctx context.Context) (AppEvent, error) {
	for {
		s.bus.mu.Lock()
		if s.closed {
			s.bus.mu.Unlock()
			return nil, ErrClosed
		}

		if s.bus.next > s.cursor {
			var oldest uint64
			if s.bus.next > s.bus.capacity {
				oldest = s.bus.next - s.bus.capacity
			}
			if s.cursor < oldest {
				skipped := oldest - s.cursor
				s.cursor = oldest
				s.bus.mu.Unlock()
				metricEventsSkipped.Add(float64(skipped))
				return nil, &LagError{Skipped: skipped}
			}

			ev := s.bus.ring[s.cursor%s.bus.capacity]
			s.cursor++
			s.bus.mu.Unlock()
			return ev, nil
		}

		if s.bus.closed {
			s.bus.mu.Unlock()
			return nil, ErrClosed
		}
		s.bus.mu.Unlock()

		select {
		case <-s.wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close unregisters the subscriber. Safe to call more than once.
func (s *Subscriber) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	delete(s.bus.subs, s)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
