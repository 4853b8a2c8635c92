package presenter

import (
	"context"

	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
	"github.com/odvcencio/perch/pkg/nav"
	"github.com/odvcencio/perch/pkg/view"
)

// SettingsPresenter owns the settings form: it loads settings into the
// form on open and persists edits.
type SettingsPresenter struct {
	Base
	settings SettingsService
}

// NewSettings builds the settings presenter.
func NewSettings(bus *event.Bus, sink view.Sink, log *logging.Logger, settings SettingsService) *SettingsPresenter {
	p := &SettingsPresenter{
		Base:     newBase("settings", bus, sink, log),
		settings: settings,
	}
	p.dispatch = p.handle
	return p
}

func (p *SettingsPresenter) handle(ctx context.Context, ev event.AppEvent) {
	switch e := ev.(type) {
	case event.User:
		switch u := e.Event.(type) {
		case event.OpenSettings:
			if p.refresh(ctx) {
				p.send(view.Navigate{View: string(nav.ViewSettings)})
			}
		case event.UpdateSettings:
			p.update(ctx, u)
		}

	case event.System:
		if _, ok := e.Event.(event.SettingsChanged); ok {
			p.refresh(ctx)
		}
	}
}

func (p *SettingsPresenter) update(ctx context.Context, u event.UpdateSettings) {
	// Form edits only cover the visible fields; popover geometry and
	// anything else persisted is carried over unchanged.
	current, err := p.settings.Get(ctx)
	if err != nil {
		p.fail("Could not save settings", err)
		return
	}
	current.Theme = u.Theme
	current.LaunchAtLogin = u.LaunchAtLogin
	current.GlobalHotkey = u.GlobalHotkey

	if err := p.settings.Update(ctx, current); err != nil {
		p.fail("Could not save settings", err)
	}
}

func (p *SettingsPresenter) refresh(ctx context.Context) bool {
	s, err := p.settings.Get(ctx)
	if err != nil {
		p.fail("Could not load settings", err)
		return false
	}
	p.send(view.SetSettings{
		Theme:         s.Theme,
		LaunchAtLogin: s.LaunchAtLogin,
		GlobalHotkey:  s.GlobalHotkey,
	})
	return true
}
