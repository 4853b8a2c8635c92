package presenter

import (
	"context"

	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
	"github.com/odvcencio/perch/pkg/nav"
	"github.com/odvcencio/perch/pkg/view"
)

// ModelSelectorPresenter owns the model picker.
type ModelSelectorPresenter struct {
	Base
	models ModelService
}

// NewModelSelector builds the model selector presenter.
func NewModelSelector(bus *event.Bus, sink view.Sink, log *logging.Logger, models ModelService) *ModelSelectorPresenter {
	p := &ModelSelectorPresenter{
		Base:   newBase("model_selector", bus, sink, log),
		models: models,
	}
	p.dispatch = p.handle
	return p
}

func (p *ModelSelectorPresenter) handle(ctx context.Context, ev event.AppEvent) {
	switch e := ev.(type) {
	case event.User:
		switch u := e.Event.(type) {
		case event.OpenModelSelector:
			if p.refresh(ctx) {
				p.send(view.Navigate{View: string(nav.ViewModelSelector)})
			}
		case event.SelectModel:
			if err := p.models.SetDefault(ctx, u.ModelID); err != nil {
				p.fail("Could not select model", err)
				return
			}
			p.send(view.NavigateBack{})
		}

	case event.Profile:
		if _, ok := e.Event.(event.DefaultModelChanged); ok {
			p.refresh(ctx)
		}
	}
}

func (p *ModelSelectorPresenter) refresh(ctx context.Context) bool {
	models, err := p.models.List(ctx)
	if err != nil {
		p.fail("Could not load models", err)
		return false
	}
	defaultID, err := p.models.Default(ctx)
	if err != nil {
		p.fail("Could not load models", err)
		return false
	}

	items := make([]view.ModelItem, 0, len(models))
	for _, m := range models {
		items = append(items, view.ModelItem{
			ID:            m.ID,
			Provider:      m.Provider,
			DisplayName:   m.DisplayName,
			ContextWindow: m.ContextWindow,
		})
	}
	p.send(view.SetModels{Models: items, DefaultID: defaultID})
	return true
}
