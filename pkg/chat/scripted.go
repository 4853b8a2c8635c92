package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/odvcencio/perch/pkg/conversation"
	perrors "github.com/odvcencio/perch/pkg/errors"
	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
)

// ReplyFunc produces the full response text for a prompt.
type ReplyFunc func(prompt string) string

// Scripted streams deterministic replies word by word. It exists for
// development builds and tests; it exercises the same event contract the
// real agent loop does, including Stop interruption.
type Scripted struct {
	bus    *event.Bus
	store  *conversation.Store
	log    *logging.Logger
	reply  ReplyFunc
	delay  time.Duration
	tracer trace.Tracer

	mu       sync.Mutex
	inflight map[uuid.UUID]*atomic.Bool
}

// ScriptedOption configures a Scripted service.
type ScriptedOption func(*Scripted)

// WithReply overrides the canned reply generator.
func WithReply(fn ReplyFunc) ScriptedOption {
	return func(s *Scripted) { s.reply = fn }
}

// WithDelay sets the pause between streamed chunks.
func WithDelay(d time.Duration) ScriptedOption {
	return func(s *Scripted) { s.delay = d }
}

// NewScripted builds a scripted chat service.
func NewScripted(bus *event.Bus, store *conversation.Store, log *logging.Logger, opts ...ScriptedOption) *Scripted {
	s := &Scripted{
		bus:      bus,
		store:    store,
		log:      log,
		reply:    defaultReply,
		delay:    25 * time.Millisecond,
		tracer:   otel.Tracer("perch/chat"),
		inflight: make(map[uuid.UUID]*atomic.Bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultReply(prompt string) string {
	return "You said: " + prompt + ". This is a scripted response used while the agent loop is stubbed out."
}

// SendMessage appends the user message, then streams the scripted reply
// on a background goroutine. A second send for the same conversation
// while one is streaming fails with CHAT_BUSY.
func (s *Scripted) SendMessage(ctx context.Context, conversationID uuid.UUID, text string) error {
	if strings.TrimSpace(text) == "" {
		return perrors.New(perrors.ErrCodeInvalidInput, "empty message")
	}

	s.mu.Lock()
	if _, busy := s.inflight[conversationID]; busy {
		s.mu.Unlock()
		return perrors.New(perrors.ErrCodeChatBusy, "response already streaming").
			WithContext("conversation_id", conversationID.String()).
			WithUserMessage("Wait for the current response to finish, or stop it first.")
	}
	stop := &atomic.Bool{}
	s.inflight[conversationID] = stop
	s.mu.Unlock()

	if _, err := s.store.AppendMessage(ctx, conversationID, conversation.RoleUser, text); err != nil {
		s.clear(conversationID)
		return perrors.Wrap(err, perrors.ErrCodeChatSend, "recording user message")
	}

	go s.stream(conversationID, text, stop)
	return nil
}

// Stop flags the conversation's stream for interruption. The stream
// notices at its next chunk boundary.
func (s *Scripted) Stop(ctx context.Context, conversationID uuid.UUID) error {
	s.mu.Lock()
	stop, ok := s.inflight[conversationID]
	s.mu.Unlock()
	if ok {
		stop.Store(true)
	}
	return nil
}

func (s *Scripted) stream(conversationID uuid.UUID, prompt string, stop *atomic.Bool) {
	defer s.clear(conversationID)

	ctx, span := s.tracer.Start(context.Background(), "chat.stream",
		trace.WithAttributes(attribute.String("conversation.id", conversationID.String())))
	defer span.End()

	s.publish(event.StreamStarted{ConversationID: conversationID})

	var b strings.Builder
	for _, word := range strings.Fields(s.reply(prompt)) {
		if stop.Load() {
			s.publish(event.StreamFailed{ConversationID: conversationID, Reason: "interrupted"})
			span.SetAttributes(attribute.Bool("chat.interrupted", true))
			return
		}
		chunk := word + " "
		b.WriteString(chunk)
		s.publish(event.StreamDelta{ConversationID: conversationID, Text: chunk})
		time.Sleep(s.delay)
	}

	msg, err := s.store.AppendMessage(ctx, conversationID, conversation.RoleAssistant, strings.TrimSpace(b.String()))
	if err != nil {
		s.log.Error(logging.CategoryChat, "persist_failed", err.Error(), map[string]any{
			"conversation_id": conversationID.String(),
		})
		s.publish(event.StreamFailed{ConversationID: conversationID, Reason: "failed to save response"})
		return
	}

	s.publish(event.StreamCompleted{ConversationID: conversationID, MessageID: msg.ID})
}

func (s *Scripted) clear(conversationID uuid.UUID) {
	s.mu.Lock()
	delete(s.inflight, conversationID)
	s.mu.Unlock()
}

func (s *Scripted) publish(ev event.ChatEvent) {
	if _, err := s.bus.Publish(event.Chat{Event: ev}); err != nil && !errors.Is(err, event.ErrNoSubscribers) {
		s.log.Warn(logging.CategoryChat, "publish_failed", err.Error(), nil)
	}
}
