package presenter

import (
	"context"

	"github.com/google/uuid"

	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
	"github.com/odvcencio/perch/pkg/view"
)

// ChatPresenter owns the main chat transcript: it sends user input to the
// chat service, mirrors stream progress into the transcript, and resyncs
// the visible messages when the active conversation changes.
type ChatPresenter struct {
	Base
	chat   ChatService
	convs  ConversationService
	models ModelService

	// Touched only from the presenter goroutine.
	active   uuid.UUID
	thinking bool
}

// NewChat builds the chat presenter.
func NewChat(bus *event.Bus, sink view.Sink, log *logging.Logger, chat ChatService, convs ConversationService, models ModelService) *ChatPresenter {
	p := &ChatPresenter{
		Base:   newBase("chat", bus, sink, log),
		chat:   chat,
		convs:  convs,
		models: models,
	}
	p.dispatch = p.handle
	return p
}

func (p *ChatPresenter) handle(ctx context.Context, ev event.AppEvent) {
	switch e := ev.(type) {
	case event.User:
		p.handleUser(ctx, e.Event)
	case event.Chat:
		p.handleChat(ctx, e.Event)
	case event.Conversation:
		if active, ok := e.Event.(event.ActiveConversationChanged); ok {
			p.active = active.ID
			p.showConversation(ctx, active.ID)
		}
	case event.Profile:
		if changed, ok := e.Event.(event.DefaultModelChanged); ok {
			p.send(view.SetActiveModel{ModelID: changed.ModelID})
		}
	}
}

func (p *ChatPresenter) handleUser(ctx context.Context, ev event.UserEvent) {
	switch e := ev.(type) {
	case event.SendMessage:
		p.sendMessage(ctx, e.Text)
	case event.StopGeneration:
		if p.active == uuid.Nil {
			return
		}
		if err := p.chat.Stop(ctx, p.active); err != nil {
			p.fail("Stop failed", err)
		}
	case event.NewConversation:
		if _, err := p.convs.Create(ctx); err != nil {
			p.fail("Could not start a conversation", err)
		}
		// ActiveConversationChanged follows on the bus and resyncs the view.
	}
}

func (p *ChatPresenter) sendMessage(ctx context.Context, text string) {
	id := p.active
	if id == uuid.Nil {
		current, err := p.convs.Active(ctx)
		if err != nil {
			p.fail("Could not send message", err)
			return
		}
		id = current
	}
	if id == uuid.Nil {
		conv, err := p.convs.Create(ctx)
		if err != nil {
			p.fail("Could not send message", err)
			return
		}
		id = conv.ID
	}
	p.active = id

	p.send(view.SetSending{Sending: true})
	if err := p.chat.SendMessage(ctx, id, text); err != nil {
		p.send(view.SetSending{Sending: false})
		p.fail("Could not send message", err)
	}
}

func (p *ChatPresenter) handleChat(ctx context.Context, ev event.ChatEvent) {
	switch e := ev.(type) {
	case event.StreamStarted:
		if p.active == uuid.Nil {
			p.active = e.ConversationID
		}
		if e.ConversationID != p.active {
			return
		}
		p.thinking = true
		p.send(view.SetSending{Sending: true})
		p.send(view.ShowThinking{})

	case event.StreamDelta:
		if e.ConversationID != p.active {
			return
		}
		if p.thinking {
			p.thinking = false
			p.send(view.HideThinking{})
		}
		p.send(view.AppendStreamText{Text: e.Text})

	case event.StreamCompleted:
		if e.ConversationID != p.active {
			return
		}
		p.endStream()
		p.send(view.FinalizeStream{MessageID: e.MessageID})

	case event.StreamFailed:
		if e.ConversationID != p.active {
			return
		}
		p.endStream()
		if e.Reason != "interrupted" {
			p.send(view.ShowError{
				Title:    "Response failed",
				Message:  e.Reason,
				Severity: view.SeverityWarning,
			})
		}
		// Resync from storage so a partial stream never lingers on screen.
		p.showConversation(ctx, p.active)

	case event.ToolCallStarted:
		p.send(view.SetToolActivity{Server: e.Server, Tool: e.Tool, Running: true})

	case event.ToolCallCompleted:
		p.send(view.SetToolActivity{Server: e.Server, Tool: e.Tool, Running: false})
	}
}

func (p *ChatPresenter) endStream() {
	if p.thinking {
		p.thinking = false
		p.send(view.HideThinking{})
	}
	p.send(view.SetSending{Sending: false})
}

func (p *ChatPresenter) showConversation(ctx context.Context, id uuid.UUID) {
	if id == uuid.Nil {
		p.send(view.SetMessages{})
		return
	}

	conv, err := p.convs.Get(ctx, id)
	if err != nil {
		p.fail("Could not load conversation", err)
		return
	}

	items := make([]view.MessageItem, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		items = append(items, view.MessageItem{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: m.CreatedAt,
		})
	}
	p.send(view.SetMessages{ConversationID: id.String(), Messages: items})
}
