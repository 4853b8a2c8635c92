package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/perch/pkg/conversation"
	perrors "github.com/odvcencio/perch/pkg/errors"
	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
)

func newScriptedHarness(t *testing.T, opts ...ScriptedOption) (*Scripted, *conversation.Store, *event.Bus) {
	t.Helper()

	bus := event.NewBus(256)
	t.Cleanup(func() { bus.Close() })

	store, err := conversation.NewStore(t.TempDir(), bus, logging.Discard())
	require.NoError(t, err)

	return NewScripted(bus, store, logging.Discard(), opts...), store, bus
}

func collectChatEvents(t *testing.T, sub *event.Subscriber, timeout time.Duration) []event.ChatEvent {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var out []event.ChatEvent
	for {
		ev, err := sub.Recv(ctx)
		if err != nil {
			return out
		}
		chat, ok := ev.(event.Chat)
		if !ok {
			continue
		}
		out = append(out, chat.Event)
		switch chat.Event.(type) {
		case event.StreamCompleted, event.StreamFailed:
			return out
		}
	}
}

func TestScripted_StreamsAndPersists(t *testing.T) {
	svc, store, bus := newScriptedHarness(t,
		WithDelay(time.Millisecond),
		WithReply(func(string) string { return "hello from the model" }),
	)
	ctx := context.Background()

	conv, err := store.Create(ctx)
	require.NoError(t, err)

	sub := bus.Subscribe()
	defer sub.Close()

	require.NoError(t, svc.SendMessage(ctx, conv.ID, "hi there"))

	events := collectChatEvents(t, sub, 5*time.Second)
	require.NotEmpty(t, events)
	assert.IsType(t, event.StreamStarted{}, events[0])

	var text strings.Builder
	for _, ev := range events {
		if delta, ok := ev.(event.StreamDelta); ok {
			text.WriteString(delta.Text)
		}
	}
	assert.Equal(t, "hello from the model", strings.TrimSpace(text.String()))

	completed, ok := events[len(events)-1].(event.StreamCompleted)
	require.True(t, ok, "stream should complete, got %T", events[len(events)-1])
	assert.Equal(t, conv.ID, completed.ConversationID)
	assert.NotEmpty(t, completed.MessageID)

	stored, err := store.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, conversation.RoleUser, stored.Messages[0].Role)
	assert.Equal(t, conversation.RoleAssistant, stored.Messages[1].Role)
	assert.Equal(t, "hello from the model", stored.Messages[1].Content)
	assert.Equal(t, completed.MessageID, stored.Messages[1].ID)
}

func TestScripted_SecondSendWhileStreamingIsBusy(t *testing.T) {
	svc, store, _ := newScriptedHarness(t, WithDelay(50*time.Millisecond))
	ctx := context.Background()

	conv, err := store.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.SendMessage(ctx, conv.ID, "first"))
	err = svc.SendMessage(ctx, conv.ID, "second")
	assert.True(t, perrors.IsCode(err, perrors.ErrCodeChatBusy))
}

func TestScripted_StopInterruptsStream(t *testing.T) {
	svc, store, bus := newScriptedHarness(t,
		WithDelay(20*time.Millisecond),
		WithReply(func(string) string { return strings.Repeat("word ", 200) }),
	)
	ctx := context.Background()

	conv, err := store.Create(ctx)
	require.NoError(t, err)

	sub := bus.Subscribe()
	defer sub.Close()

	require.NoError(t, svc.SendMessage(ctx, conv.ID, "long one please"))
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, svc.Stop(ctx, conv.ID))

	events := collectChatEvents(t, sub, 5*time.Second)
	require.NotEmpty(t, events)
	failed, ok := events[len(events)-1].(event.StreamFailed)
	require.True(t, ok, "interrupted stream should end with StreamFailed, got %T", events[len(events)-1])
	assert.Equal(t, "interrupted", failed.Reason)

	// No assistant message is persisted for an interrupted stream.
	stored, err := store.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, conversation.RoleUser, stored.Messages[0].Role)
}

func TestScripted_EmptyMessageRejected(t *testing.T) {
	svc, store, _ := newScriptedHarness(t)
	ctx := context.Background()

	conv, err := store.Create(ctx)
	require.NoError(t, err)

	err = svc.SendMessage(ctx, conv.ID, "   ")
	assert.True(t, perrors.IsCode(err, perrors.ErrCodeInvalidInput))
}

func TestScripted_StopWithoutStreamIsNoop(t *testing.T) {
	svc, store, _ := newScriptedHarness(t)
	ctx := context.Background()

	conv, err := store.Create(ctx)
	require.NoError(t, err)
	assert.NoError(t, svc.Stop(ctx, conv.ID))
}
