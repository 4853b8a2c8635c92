package presenter

import (
	"context"

	"github.com/google/uuid"

	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
	"github.com/odvcencio/perch/pkg/nav"
	"github.com/odvcencio/perch/pkg/profile"
	"github.com/odvcencio/perch/pkg/view"
)

// ProfileEditorPresenter owns the profile list and editor form. API keys
// entered in the form go to the secrets store; the profile file never
// sees them.
type ProfileEditorPresenter struct {
	Base
	profiles ProfileService
	models   ModelService
	secrets  SecretsService
}

// NewProfileEditor builds the profile editor presenter.
func NewProfileEditor(bus *event.Bus, sink view.Sink, log *logging.Logger, profiles ProfileService, models ModelService, secrets SecretsService) *ProfileEditorPresenter {
	p := &ProfileEditorPresenter{
		Base:     newBase("profile_editor", bus, sink, log),
		profiles: profiles,
		models:   models,
		secrets:  secrets,
	}
	p.dispatch = p.handle
	return p
}

func (p *ProfileEditorPresenter) handle(ctx context.Context, ev event.AppEvent) {
	switch e := ev.(type) {
	case event.User:
		switch u := e.Event.(type) {
		case event.OpenProfileEditor:
			p.open(ctx, u.ID)
		case event.SaveProfile:
			p.save(ctx, u)
		case event.DeleteProfile:
			if err := p.profiles.Delete(ctx, u.ID); err != nil {
				p.fail("Could not delete profile", err)
			}
		case event.SelectProfile:
			if err := p.profiles.SetDefault(ctx, u.ID); err != nil {
				p.fail("Could not select profile", err)
			}
		}

	case event.Profile:
		switch e.Event.(type) {
		case event.ProfileSaved, event.ProfileDeleted, event.DefaultProfileChanged, event.ProfilesReloaded:
			p.refresh(ctx)
		}
	}
}

func (p *ProfileEditorPresenter) open(ctx context.Context, id uuid.UUID) {
	if id == uuid.Nil {
		modelID, err := p.models.Default(ctx)
		if err != nil {
			p.fail("Could not open profile editor", err)
			return
		}
		p.send(view.ShowProfileEditor{
			Profile: view.ProfileItem{ModelID: modelID, Temperature: 1.0},
			IsNew:   true,
		})
		p.send(view.Navigate{View: string(nav.ViewProfileEditor)})
		return
	}

	prof, err := p.profiles.Get(ctx, id)
	if err != nil {
		p.fail("Could not open profile", err)
		return
	}
	p.send(view.ShowProfileEditor{Profile: p.item(ctx, prof), IsNew: false})
	p.send(view.Navigate{View: string(nav.ViewProfileEditor)})
}

func (p *ProfileEditorPresenter) save(ctx context.Context, u event.SaveProfile) {
	_, err := p.profiles.Save(ctx, profile.Profile{
		ID:           u.ID,
		Name:         u.Name,
		Provider:     u.Provider,
		ModelID:      u.ModelID,
		SystemPrompt: u.SystemPrompt,
		Temperature:  u.Temperature,
	})
	if err != nil {
		p.fail("Could not save profile", err)
		return
	}

	if u.APIKey != "" {
		if err := p.secrets.Set(ctx, u.Provider, u.APIKey); err != nil {
			p.fail("Could not store API key", err)
			return
		}
	}

	p.send(view.NavigateBack{})
}

func (p *ProfileEditorPresenter) refresh(ctx context.Context) {
	profiles, err := p.profiles.List(ctx)
	if err != nil {
		p.fail("Could not load profiles", err)
		return
	}
	defaultID, err := p.profiles.Default(ctx)
	if err != nil {
		p.fail("Could not load profiles", err)
		return
	}

	items := make([]view.ProfileItem, 0, len(profiles))
	for _, prof := range profiles {
		items = append(items, p.item(ctx, prof))
	}

	id := ""
	if defaultID != uuid.Nil {
		id = defaultID.String()
	}
	p.send(view.SetProfiles{Profiles: items, DefaultID: id})
}

func (p *ProfileEditorPresenter) item(ctx context.Context, prof profile.Profile) view.ProfileItem {
	return view.ProfileItem{
		ID:           prof.ID.String(),
		Name:         prof.Name,
		Provider:     prof.Provider,
		ModelID:      prof.ModelID,
		SystemPrompt: prof.SystemPrompt,
		Temperature:  prof.Temperature,
		HasAPIKey:    p.secrets.Has(ctx, prof.Provider),
	}
}
