// Package model holds the curated model catalog and the default-model
// pointer shown in the model selector.
package model

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	perrors "github.com/odvcencio/perch/pkg/errors"
	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
)

// Info describes one selectable model.
type Info struct {
	ID            string `json:"id"`
	Provider      string `json:"provider"`
	DisplayName   string `json:"display_name"`
	ContextWindow int    `json:"context_window"`
}

// curated is the built-in catalog. A future release may merge in models
// discovered from provider APIs.
var curated = []Info{
	{ID: "anthropic/claude-sonnet-4-5", Provider: "anthropic", DisplayName: "Claude Sonnet 4.5", ContextWindow: 200000},
	{ID: "anthropic/claude-haiku-4-5", Provider: "anthropic", DisplayName: "Claude Haiku 4.5", ContextWindow: 200000},
	{ID: "openai/gpt-5.2", Provider: "openai", DisplayName: "GPT-5.2", ContextWindow: 272000},
	{ID: "openai/gpt-5-mini", Provider: "openai", DisplayName: "GPT-5 Mini", ContextWindow: 272000},
	{ID: "google/gemini-3-pro", Provider: "google", DisplayName: "Gemini 3 Pro", ContextWindow: 1000000},
	{ID: "moonshotai/kimi-k2-thinking", Provider: "openrouter", DisplayName: "Kimi K2 Thinking", ContextWindow: 256000},
}

// DefaultModelID is used until the user picks something else.
const DefaultModelID = "anthropic/claude-sonnet-4-5"

type catalogState struct {
	DefaultID string `json:"default_id"`
}

// Catalog lists models and remembers the default.
type Catalog struct {
	mu        sync.Mutex
	path      string
	bus       *event.Bus
	log       *logging.Logger
	models    []Info
	byID      map[string]Info
	defaultID string
}

// NewCatalog opens the catalog, restoring the persisted default model.
func NewCatalog(path string, bus *event.Bus, log *logging.Logger) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStorageWrite, "creating model directory")
	}

	c := &Catalog{
		path:      path,
		bus:       bus,
		log:       log,
		models:    curated,
		byID:      make(map[string]Info, len(curated)),
		defaultID: DefaultModelID,
	}
	for _, m := range curated {
		c.byID[m.ID] = m
	}

	data, err := os.ReadFile(path)
	if err == nil {
		var st catalogState
		if json.Unmarshal(data, &st) == nil && st.DefaultID != "" {
			if _, ok := c.byID[st.DefaultID]; ok {
				c.defaultID = st.DefaultID
			}
		}
	}

	return c, nil
}

// List returns every selectable model.
func (c *Catalog) List(ctx context.Context) ([]Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Info, len(c.models))
	copy(out, c.models)
	return out, nil
}

// Get returns one model by ID.
func (c *Catalog) Get(ctx context.Context, id string) (Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.byID[id]
	if !ok {
		return Info{}, perrors.New(perrors.ErrCodeModelNotFound, "model not in catalog").
			WithContext("id", id)
	}
	return m, nil
}

// Default returns the current default model ID.
func (c *Catalog) Default(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.defaultID, nil
}

// SetDefault changes the default model and persists the choice.
func (c *Catalog) SetDefault(ctx context.Context, id string) error {
	c.mu.Lock()
	if _, ok := c.byID[id]; !ok {
		c.mu.Unlock()
		return perrors.New(perrors.ErrCodeModelNotFound, "model not in catalog").
			WithContext("id", id).
			WithUserMessage("That model is not available.")
	}
	if c.defaultID == id {
		c.mu.Unlock()
		return nil
	}
	c.defaultID = id

	data, err := json.Marshal(catalogState{DefaultID: id})
	if err != nil {
		c.mu.Unlock()
		return perrors.Wrap(err, perrors.ErrCodeStorageWrite, "encoding model state")
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		c.mu.Unlock()
		return perrors.Wrap(err, perrors.ErrCodeStorageWrite, "writing model state")
	}
	c.mu.Unlock()

	c.publish(event.DefaultModelChanged{ModelID: id})
	return nil
}

func (c *Catalog) publish(ev event.ProfileEvent) {
	if c.bus == nil {
		return
	}
	if _, err := c.bus.Publish(event.Profile{Event: ev}); err != nil && !errors.Is(err, event.ErrNoSubscribers) {
		c.log.Warn(logging.CategoryModel, "publish_failed", err.Error(), nil)
	}
}
