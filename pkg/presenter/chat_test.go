package presenter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/perch/pkg/conversation"
	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
	"github.com/odvcencio/perch/pkg/model"
	"github.com/odvcencio/perch/pkg/view"
)

type okChat struct{}

func (okChat) SendMessage(context.Context, uuid.UUID, string) error { return nil }
func (okChat) Stop(context.Context, uuid.UUID) error                { return nil }

func newChatHarness(t *testing.T) (*ChatPresenter, *recordingSink, *event.Bus, *conversation.Store) {
	t.Helper()

	bus := event.NewBus(64)
	t.Cleanup(func() { bus.Close() })
	sink := &recordingSink{}

	convs, err := conversation.NewStore(t.TempDir(), bus, logging.Discard())
	require.NoError(t, err)
	models, err := model.NewCatalog(filepath.Join(t.TempDir(), "models.json"), bus, logging.Discard())
	require.NoError(t, err)

	return NewChat(bus, sink, logging.Discard(), okChat{}, convs, models), sink, bus, convs
}

func publishChat(t *testing.T, bus *event.Bus, ev event.ChatEvent) {
	t.Helper()
	_, err := bus.Publish(event.Chat{Event: ev})
	require.NoError(t, err)
}

func TestChatPresenter_StreamCommandSequence(t *testing.T) {
	p, sink, bus, convs := newChatHarness(t)
	ctx := context.Background()

	conv, err := convs.Create(ctx)
	require.NoError(t, err)

	p.Start(ctx)
	defer p.Stop()

	publishChat(t, bus, event.StreamStarted{ConversationID: conv.ID})
	publishChat(t, bus, event.StreamDelta{ConversationID: conv.ID, Text: "Hel"})
	publishChat(t, bus, event.StreamDelta{ConversationID: conv.ID, Text: "lo"})
	publishChat(t, bus, event.StreamCompleted{ConversationID: conv.ID, MessageID: "01ABC"})

	cmds := sink.waitFor(t, func(cmds []view.Command) bool {
		for _, c := range cmds {
			if _, ok := c.(view.FinalizeStream); ok {
				return true
			}
		}
		return false
	})

	want := []view.Command{
		view.SetSending{Sending: true},
		view.ShowThinking{},
		view.HideThinking{},
		view.AppendStreamText{Text: "Hel"},
		view.AppendStreamText{Text: "lo"},
		view.SetSending{Sending: false},
		view.FinalizeStream{MessageID: "01ABC"},
	}
	assert.Equal(t, want, cmds)
}

func TestChatPresenter_IgnoresOtherConversationsStream(t *testing.T) {
	p, sink, bus, convs := newChatHarness(t)
	ctx := context.Background()

	conv, err := convs.Create(ctx)
	require.NoError(t, err)

	p.Start(ctx)
	defer p.Stop()

	publishChat(t, bus, event.StreamStarted{ConversationID: conv.ID})
	sink.waitFor(t, func(cmds []view.Command) bool { return len(cmds) >= 2 })

	other := uuid.New()
	publishChat(t, bus, event.StreamDelta{ConversationID: other, Text: "noise"})
	publishChat(t, bus, event.StreamDelta{ConversationID: conv.ID, Text: "signal"})

	cmds := sink.waitFor(t, func(cmds []view.Command) bool {
		for _, c := range cmds {
			if a, ok := c.(view.AppendStreamText); ok && a.Text == "signal" {
				return true
			}
		}
		return false
	})
	for _, c := range cmds {
		if a, ok := c.(view.AppendStreamText); ok {
			assert.NotEqual(t, "noise", a.Text)
		}
	}
}

func TestChatPresenter_ActiveConversationChangeResyncsTranscript(t *testing.T) {
	p, sink, bus, convs := newChatHarness(t)
	ctx := context.Background()

	conv, err := convs.Create(ctx)
	require.NoError(t, err)
	_, err = convs.AppendMessage(ctx, conv.ID, conversation.RoleUser, "what's the weather")
	require.NoError(t, err)

	p.Start(ctx)
	defer p.Stop()

	_, err = bus.Publish(event.Conversation{Event: event.ActiveConversationChanged{ID: conv.ID}})
	require.NoError(t, err)

	cmds := sink.waitFor(t, func(cmds []view.Command) bool {
		for _, c := range cmds {
			if _, ok := c.(view.SetMessages); ok {
				return true
			}
		}
		return false
	})

	var set view.SetMessages
	for _, c := range cmds {
		if sm, ok := c.(view.SetMessages); ok {
			set = sm
		}
	}
	assert.Equal(t, conv.ID.String(), set.ConversationID)
	require.Len(t, set.Messages, 1)
	assert.Equal(t, "what's the weather", set.Messages[0].Content)
	assert.Equal(t, "user", set.Messages[0].Role)
}

func TestChatPresenter_SendCreatesConversationWhenNoneActive(t *testing.T) {
	p, sink, bus, convs := newChatHarness(t)
	ctx := context.Background()

	p.Start(ctx)
	defer p.Stop()

	publishUser(t, bus, event.SendMessage{Text: "first ever message"})

	sink.waitFor(t, func(cmds []view.Command) bool {
		for _, c := range cmds {
			if s, ok := c.(view.SetSending); ok && s.Sending {
				return true
			}
		}
		return false
	})

	active, err := convs.Active(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, active)
}

func TestChatPresenter_InterruptedStreamShowsNoError(t *testing.T) {
	p, sink, bus, convs := newChatHarness(t)
	ctx := context.Background()

	conv, err := convs.Create(ctx)
	require.NoError(t, err)

	p.Start(ctx)
	defer p.Stop()

	publishChat(t, bus, event.StreamStarted{ConversationID: conv.ID})
	publishChat(t, bus, event.StreamFailed{ConversationID: conv.ID, Reason: "interrupted"})

	cmds := sink.waitFor(t, func(cmds []view.Command) bool {
		for _, c := range cmds {
			if s, ok := c.(view.SetSending); ok && !s.Sending {
				return true
			}
		}
		return false
	})
	assert.Zero(t, countShowErrors(cmds), "a user-requested stop is not an error")
}
