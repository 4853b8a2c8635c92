// Package settings persists app-level settings (theme, hotkey, launch at
// login) as a small JSON file and publishes SettingsChanged on save.
package settings

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

// Settings are the user-tweakable app preferences.
type Settings struct {
	Theme         string `json:"theme"`
	LaunchAtLogin bool   `json:"launch_at_login"`
	GlobalHotkey  string `json:"global_hotkey"`
	PopoverWidth  int    `json:"popover_width"`
	PopoverHeight int    `json:"popover_height"`
}

// Defaults returns the out-of-the-box settings.
func Defaults() Settings {
	return Settings{
		Theme:         "system",
		GlobalHotkey:  "cmd+shift+space",
		PopoverWidth:  420,
		PopoverHeight: 560,
	}
}

// Store reads and writes the settings file.
type Store struct {
	mu      sync.Mutex
	path    string
	bus     *event.Bus
	log     *logging.Logger
	current Settings
}

// NewStore opens the settings store, falling back to defaults when the
// file does not exist.
func NewStore(path string, bus *event.Bus, log *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStorageWrite, "creating settings directory")
	}

	s := &Store{path: path, bus: bus, log: log, current: Defaults()}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStorageRead, "reading settings")
	}
	if err := json.Unmarshal(data, &s.current); err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStorageCorrupt, "parsing settings")
	}
	return s, nil
}

// Get returns the current settings.
func (s *Store) Get(ctx context.Context) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, nil
}

// Update persists new settings and publishes SettingsChanged.
func (s *Store) Update(ctx context.Context, settings Settings) error {
	s.mu.Lock()
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		s.mu.Unlock()
		return perrors.Wrap(err, perrors.ErrCodeStorageWrite, "encoding settings")
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		s.mu.Unlock()
		return perrors.Wrap(err, perrors.ErrCodeStorageWrite, "writing settings")
	}
	s.current = settings
	s.mu.Unlock()

	if s.bus != nil {
		if _, err := s.bus.Publish(event.System{Event: event.SettingsChanged{}}); err != nil && !errors.Is(err, event.ErrNoSubscribers) {
			s.log.Warn(logging.CategorySettings, "publish_failed", err.Error(), nil)
		}
	}
	return nil
}
