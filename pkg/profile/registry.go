// Package profile stores model profiles (provider, model, system prompt)
// in a single JSON file with a default-profile pointer. Mutations publish
// Profile events; an fsnotify watcher picks up external edits to the file.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	perrors "github.com/odvcencio/perch/pkg/errors"
	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
)

// Profile describes how to talk to a model: which provider, which model,
// and with what system prompt. API keys live in the secrets store, never
// here.
type Profile struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Provider     string    `json:"provider"`
	ModelID      string    `json:"model_id"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Temperature  float64   `json:"temperature"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type registryFile struct {
	Profiles  []Profile `json:"profiles"`
	DefaultID uuid.UUID `json:"default_id"`
}

// Registry is the profile store. Safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	path      string
	bus       *event.Bus
	log       *logging.Logger
	profiles  map[uuid.UUID]Profile
	defaultID uuid.UUID
	lastWrite time.Time
}

// NewRegistry opens (creating if needed) the profile registry at path.
func NewRegistry(path string, bus *event.Bus, log *logging.Logger) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStorageWrite, "creating profile directory")
	}

	r := &Registry{
		path:     path,
		bus:      bus,
		log:      log,
		profiles: make(map[uuid.UUID]Profile),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load() error {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return perrors.Wrap(err, perrors.ErrCodeStorageRead, "reading profiles")
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return perrors.Wrap(err, perrors.ErrCodeStorageCorrupt, "parsing profiles")
	}

	r.profiles = make(map[uuid.UUID]Profile, len(file.Profiles))
	for _, p := range file.Profiles {
		r.profiles[p.ID] = p
	}
	r.defaultID = file.DefaultID
	return nil
}

func (r *Registry) save() error {
	file := registryFile{
		Profiles:  make([]Profile, 0, len(r.profiles)),
		DefaultID: r.defaultID,
	}
	for _, p := range r.profiles {
		file.Profiles = append(file.Profiles, p)
	}
	sort.Slice(file.Profiles, func(i, j int) bool {
		return file.Profiles[i].Name < file.Profiles[j].Name
	})

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return perrors.Wrap(err, perrors.ErrCodeStorageWrite, "encoding profiles")
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return perrors.Wrap(err, perrors.ErrCodeStorageWrite, "writing profiles")
	}
	r.lastWrite = time.Now()
	return nil
}

// List returns all profiles sorted by name.
func (r *Registry) List(ctx context.Context) ([]Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns one profile.
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, perrors.New(perrors.ErrCodeProfileNotFound, "profile not found").
			WithContext("id", id.String())
	}
	return p, nil
}

// Save creates or updates a profile. A zero ID means create. The first
// saved profile becomes the default.
func (r *Registry) Save(ctx context.Context, p Profile) (Profile, error) {
	if p.Name == "" {
		return Profile{}, perrors.New(perrors.ErrCodeProfileInvalid, "profile name is required").
			WithUserMessage("Give the profile a name before saving.")
	}
	if p.ModelID == "" {
		return Profile{}, perrors.New(perrors.ErrCodeProfileInvalid, "profile model is required").
			WithUserMessage("Pick a model for the profile before saving.")
	}

	r.mu.Lock()
	now := time.Now()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
		p.CreatedAt = now
	} else if existing, ok := r.profiles[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.profiles[p.ID] = p

	becameDefault := false
	if r.defaultID == uuid.Nil {
		r.defaultID = p.ID
		becameDefault = true
	}

	if err := r.save(); err != nil {
		r.mu.Unlock()
		return Profile{}, err
	}
	r.mu.Unlock()

	r.publish(event.ProfileSaved{ID: p.ID})
	if becameDefault {
		r.publish(event.DefaultProfileChanged{ID: p.ID})
	}
	return p, nil
}

// Delete removes a profile. Deleting the default clears the default.
func (r *Registry) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	if _, ok := r.profiles[id]; !ok {
		r.mu.Unlock()
		return perrors.New(perrors.ErrCodeProfileNotFound, "profile not found").
			WithContext("id", id.String())
	}
	delete(r.profiles, id)

	clearedDefault := false
	if r.defaultID == id {
		r.defaultID = uuid.Nil
		clearedDefault = true
	}

	if err := r.save(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	r.publish(event.ProfileDeleted{ID: id})
	if clearedDefault {
		r.publish(event.DefaultProfileChanged{ID: uuid.Nil})
	}
	return nil
}

// SetDefault marks a profile as the default for new conversations.
func (r *Registry) SetDefault(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	if _, ok := r.profiles[id]; !ok {
		r.mu.Unlock()
		return perrors.New(perrors.ErrCodeProfileNotFound, "profile not found").
			WithContext("id", id.String())
	}
	if r.defaultID == id {
		r.mu.Unlock()
		return nil
	}
	r.defaultID = id
	if err := r.save(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	r.publish(event.DefaultProfileChanged{ID: id})
	return nil
}

// Default returns the default profile ID, uuid.Nil when unset.
func (r *Registry) Default(ctx context.Context) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defaultID, nil
}

// Reload re-reads the profiles file. Used by the watcher after external
// edits.
func (r *Registry) Reload(ctx context.Context) error {
	r.mu.Lock()
	if err := r.load(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	r.publish(event.ProfilesReloaded{})
	return nil
}

// writtenRecently reports whether the registry itself wrote the file
// within the window. The watcher uses it to skip events caused by our
// own saves.
func (r *Registry) writtenRecently(window time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Since(r.lastWrite) < window
}

func (r *Registry) publish(ev event.ProfileEvent) {
	if r.bus == nil {
		return
	}
	if _, err := r.bus.Publish(event.Profile{Event: ev}); err != nil && !errors.Is(err, event.ErrNoSubscribers) {
		r.log.Warn(logging.CategoryProfile, "publish_failed", err.Error(), nil)
	}
}
