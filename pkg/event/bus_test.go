package event

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvWithTimeout(t *testing.T, sub *Subscriber, d time.Duration) (AppEvent, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return sub.Recv(ctx)
}

func TestBus_PublishReturnsSubscriberCount(t *testing.T) {
	bus := NewBus(16)
	defer bus.Close()

	subs := []*Subscriber{bus.Subscribe(), bus.Subscribe(), bus.Subscribe()}
	for _, s := range subs {
		defer s.Close()
	}

	ev := User{Event: SendMessage{Text: "hello"}}
	n, err := bus.Publish(ev)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, bus.SubscriberCount())

	for i, s := range subs {
		got, err := recvWithTimeout(t, s, time.Second)
		require.NoError(t, err, "subscriber %d", i)
		assert.Equal(t, ev, got, "subscriber %d should see the event unchanged", i)
	}
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewBus(16)
	defer bus.Close()

	n, err := bus.Publish(System{Event: Ready{}})
	assert.ErrorIs(t, err, ErrNoSubscribers)
	assert.Equal(t, 0, n)

	// A subscriber added afterwards never observes the failed publish.
	sub := bus.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = sub.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBus_ReceivesInPublishOrder(t *testing.T) {
	bus := NewBus(16)
	defer bus.Close()

	sub := bus.Subscribe()
	defer sub.Close()

	texts := []string{"First", "Second", "Third"}
	for _, text := range texts {
		_, err := bus.Publish(User{Event: SendMessage{Text: text}})
		require.NoError(t, err)
	}

	for _, want := range texts {
		got, err := recvWithTimeout(t, sub, time.Second)
		require.NoError(t, err)
		user, ok := got.(User)
		require.True(t, ok, "expected User event, got %T", got)
		msg, ok := user.Event.(SendMessage)
		require.True(t, ok, "expected SendMessage, got %T", user.Event)
		assert.Equal(t, want, msg.Text)
	}
}

func TestBus_SlowSubscriberLags(t *testing.T) {
	const capacity = 16
	bus := NewBus(capacity)
	defer bus.Close()

	slow := bus.Subscribe()
	defer slow.Close()
	fast := bus.Subscribe()
	defer fast.Close()

	// The fast subscriber gets the first event promptly no matter what
	// the slow one does.
	_, err := bus.Publish(User{Event: SendMessage{Text: "event-0"}})
	require.NoError(t, err)

	got, err := recvWithTimeout(t, fast, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, User{Event: SendMessage{Text: "event-0"}}, got)

	// Overrun the slow subscriber: 20 more events against capacity 16.
	const extra = 20
	for i := 1; i <= extra; i++ {
		_, err := bus.Publish(User{Event: SendMessage{Text: fmt.Sprintf("event-%d", i)}})
		require.NoError(t, err)
		// Keep the fast subscriber drained so only the slow one lags.
		_, err = recvWithTimeout(t, fast, time.Second)
		require.NoError(t, err)
	}

	// 21 events published, slow read none, ring holds the last 16:
	// the oldest 5 are gone.
	_, err = recvWithTimeout(t, slow, time.Second)
	var lag *LagError
	require.ErrorAs(t, err, &lag)
	assert.Equal(t, uint64(5), lag.Skipped)

	// After the lag the subscriber resumes with the oldest retained event
	// and receives the rest in order.
	for i := extra - capacity + 1; i <= extra; i++ {
		got, err := recvWithTimeout(t, slow, time.Second)
		require.NoError(t, err)
		assert.Equal(t, User{Event: SendMessage{Text: fmt.Sprintf("event-%d", i)}}, got)
	}
}

func TestBus_CloseDrainsThenTerminates(t *testing.T) {
	bus := NewBus(16)

	sub := bus.Subscribe()
	defer sub.Close()

	_, err := bus.Publish(System{Event: ShuttingDown{}})
	require.NoError(t, err)

	bus.Close()

	// Buffered event is still delivered.
	got, err := recvWithTimeout(t, sub, time.Second)
	require.NoError(t, err)
	assert.Equal(t, System{Event: ShuttingDown{}}, got)

	// Then the subscription terminates.
	_, err = recvWithTimeout(t, sub, time.Second)
	assert.ErrorIs(t, err, ErrClosed)

	// Publishing on a closed bus fails.
	_, err = bus.Publish(System{Event: Ready{}})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBus_SubscriberCloseUnregisters(t *testing.T) {
	bus := NewBus(16)
	defer bus.Close()

	a := bus.Subscribe()
	b := bus.Subscribe()
	require.Equal(t, 2, bus.SubscriberCount())

	a.Close()
	a.Close() // idempotent
	assert.Equal(t, 1, bus.SubscriberCount())

	_, err := a.Recv(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	n, err := bus.Publish(System{Event: Ready{}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	b.Close()
}

func TestBus_RecvHonorsContext(t *testing.T) {
	bus := NewBus(16)
	defer bus.Close()

	sub := bus.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := sub.Recv(ctx)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("Recv did not return after context cancellation")
	}
}

func TestBus_ConcurrentSubscribersSeeEverything(t *testing.T) {
	bus := NewBus(256)
	defer bus.Close()

	const nSubs = 4
	const nEvents = 100

	results := make(chan []string, nSubs)
	subs := make([]*Subscriber, nSubs)
	for i := range subs {
		subs[i] = bus.Subscribe()
	}

	for _, sub := range subs {
		go func(sub *Subscriber) {
			defer sub.Close()
			var seen []string
			for len(seen) < nEvents {
				ev, err := sub.Recv(context.Background())
				if err != nil {
					break
				}
				if user, ok := ev.(User); ok {
					if msg, ok := user.Event.(SendMessage); ok {
						seen = append(seen, msg.Text)
					}
				}
			}
			results <- seen
		}(sub)
	}

	for i := 0; i < nEvents; i++ {
		_, err := bus.Publish(User{Event: SendMessage{Text: fmt.Sprintf("e%03d", i)}})
		require.NoError(t, err)
	}

	for i := 0; i < nSubs; i++ {
		select {
		case seen := <-results:
			require.Len(t, seen, nEvents)
			for j, text := range seen {
				assert.Equal(t, fmt.Sprintf("e%03d", j), text)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for subscribers")
		}
	}
}
