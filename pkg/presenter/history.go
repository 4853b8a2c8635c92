package presenter

import (
	"context"

	"github.com/google/uuid"

	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
	"github.com/odvcencio/perch/pkg/nav"
	"github.com/odvcencio/perch/pkg/view"
)

// HistoryPresenter owns the conversation list: it opens the history view,
// switches and deletes conversations, and keeps the list fresh as store
// events arrive.
type HistoryPresenter struct {
	Base
	convs ConversationService
}

// NewHistory builds the history presenter.
func NewHistory(bus *event.Bus, sink view.Sink, log *logging.Logger, convs ConversationService) *HistoryPresenter {
	p := &HistoryPresenter{
		Base:  newBase("history", bus, sink, log),
		convs: convs,
	}
	p.dispatch = p.handle
	return p
}

func (p *HistoryPresenter) handle(ctx context.Context, ev event.AppEvent) {
	switch e := ev.(type) {
	case event.User:
		switch u := e.Event.(type) {
		case event.OpenHistory:
			if p.refresh(ctx) {
				p.send(view.Navigate{View: string(nav.ViewHistory)})
			}
		case event.SelectConversation:
			if err := p.convs.SetActive(ctx, u.ID); err != nil {
				p.fail("Could not open conversation", err)
				return
			}
			p.send(view.NavigateBack{})
		case event.DeleteConversation:
			if err := p.convs.Delete(ctx, u.ID); err != nil {
				p.fail("Could not delete conversation", err)
			}
			// ConversationDeleted arrives on the bus and refreshes the list.
		}

	case event.Conversation:
		p.refresh(ctx)
	}
}

func (p *HistoryPresenter) refresh(ctx context.Context) bool {
	summaries, err := p.convs.List(ctx)
	if err != nil {
		p.fail("Could not load history", err)
		return false
	}
	active, err := p.convs.Active(ctx)
	if err != nil {
		p.fail("Could not load history", err)
		return false
	}

	items := make([]view.ConversationItem, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, view.ConversationItem{
			ID:           s.ID.String(),
			Title:        s.Title,
			MessageCount: s.MessageCount,
			UpdatedAt:    s.UpdatedAt,
		})
	}

	activeID := ""
	if active != uuid.Nil {
		activeID = active.String()
	}
	p.send(view.SetConversations{Conversations: items, ActiveID: activeID})
	return true
}
