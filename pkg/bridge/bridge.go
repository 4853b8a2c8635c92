// Package bridge ferries events and commands between the UI's cooperative
// render loop and the async core. Both directions are bounded and
// non-blocking: the render loop must never wait on the core, and the core
// must never wait on the render loop.
package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
	"github.com/odvcencio/perch/pkg/view"
)

const (
	defaultUserBuffer    = 64
	defaultCommandBuffer = 256
)

// Notifier wakes the UI render loop. It is invoked after every Send,
// including sends that dropped their command: the UI must still wake up
// and drain whatever is queued.
type Notifier func()

// Config sizes the bridge channels.
type Config struct {
	UserBuffer    int
	CommandBuffer int
	Notifier      Notifier
}

// Bridge owns the UserEvent channel (UI -> core) and the ViewCommand
// channel (core -> UI). It implements view.Sink for the presenters.
type Bridge struct {
	bus    *event.Bus
	log    *logging.Logger
	userCh chan event.UserEvent
	cmdCh  chan view.Command
	notify Notifier

	closed    atomic.Bool
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a bridge publishing user events onto bus.
func New(bus *event.Bus, log *logging.Logger, cfg Config) *Bridge {
	userBuf := cfg.UserBuffer
	if userBuf <= 0 {
		userBuf = defaultUserBuffer
	}
	cmdBuf := cfg.CommandBuffer
	if cmdBuf <= 0 {
		cmdBuf = defaultCommandBuffer
	}
	notify := cfg.Notifier
	if notify == nil {
		notify = func() {}
	}
	return &Bridge{
		bus:    bus,
		log:    log,
		userCh: make(chan event.UserEvent, userBuf),
		cmdCh:  make(chan view.Command, cmdBuf),
		notify: notify,
	}
}

// Start spawns the forwarder task that republishes user events onto the
// bus as event.User. The task exits when Close is called or ctx is done.
func (b *Bridge) Start(ctx context.Context) {
	b.wg.Add(1)
	go b.forward(ctx)
}

func (b *Bridge) forward(ctx context.Context) {
	defer b.wg.Done()

	for {
		select {
		case ev, ok := <-b.userCh:
			if !ok {
				return
			}
			if _, err := b.bus.Publish(event.User{Event: ev}); err != nil {
				if errors.Is(err, event.ErrClosed) {
					return
				}
				// No subscribers yet is benign: nothing wanted the event.
				b.log.Debug(logging.CategoryBridge, "publish_skipped", err.Error(), nil)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Emit sends a user event from the UI thread. Non-blocking: returns false
// when the channel is full or the bridge is closed, and the caller should
// drop the event rather than stall the render loop.
func (b *Bridge) Emit(ev event.UserEvent) bool {
	if b.closed.Load() {
		return false
	}
	select {
	case b.userCh <- ev:
		return true
	default:
		metricUserEventsDropped.Inc()
		return false
	}
}

// Send queues a command toward the UI. Non-blocking: on overflow the
// command is dropped and Send returns false. The notifier runs either
// way so the UI wakes up and drains what it can.
func (b *Bridge) Send(cmd view.Command) bool {
	var sent bool
	select {
	case b.cmdCh <- cmd:
		sent = true
	default:
		metricCommandsDropped.Inc()
		b.log.Warn(logging.CategoryBridge, "command_dropped", "", map[string]any{
			"command": commandName(cmd),
		})
	}
	b.notify()
	return sent
}

// DrainCommands returns every queued command in FIFO order, or an empty
// slice. Non-blocking; called once per UI frame.
func (b *Bridge) DrainCommands() []view.Command {
	var out []view.Command
	for {
		select {
		case cmd := <-b.cmdCh:
			out = append(out, cmd)
		default:
			return out
		}
	}
}

// HasPendingCommands reports whether a drain would return anything.
// O(1); used to decide whether a redraw is needed.
func (b *Bridge) HasPendingCommands() bool {
	return len(b.cmdCh) > 0
}

// Close stops accepting user events and waits for the forwarder to exit.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		close(b.userCh)
	})
	b.wg.Wait()
}
