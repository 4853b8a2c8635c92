// Package secrets stores provider API keys in a 0600 JSON file. A native
// keychain backend can replace the file later; callers only see the
// Store interface surface.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	perrors "github.com/odvcencio/perch/pkg/errors"
)

// Store maps provider names to API keys.
type Store struct {
	mu   sync.Mutex
	path string
	keys map[string]string
}

// NewStore opens the secrets file, creating the directory if needed.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStorageWrite, "creating secrets directory")
	}

	s := &Store{path: path, keys: make(map[string]string)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStorageRead, "reading secrets")
	}
	if err := json.Unmarshal(data, &s.keys); err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStorageCorrupt, "parsing secrets")
	}
	return s, nil
}

// Get returns the API key for a provider.
func (s *Store) Get(ctx context.Context, provider string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.keys[provider]
	if !ok || key == "" {
		return "", perrors.New(perrors.ErrCodeSecretNotFound, "no api key for provider").
			WithContext("provider", provider).
			WithUserMessage("Add an API key for " + provider + " in the profile editor.")
	}
	return key, nil
}

// Has reports whether a provider has a stored key.
func (s *Store) Has(ctx context.Context, provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[provider] != ""
}

// Set stores the API key for a provider.
func (s *Store) Set(ctx context.Context, provider, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[provider] = key
	return s.write()
}

// Delete removes a provider's key.
func (s *Store) Delete(ctx context.Context, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys, provider)
	return s.write()
}

func (s *Store) write() error {
	data, err := json.Marshal(s.keys)
	if err != nil {
		return perrors.Wrap(err, perrors.ErrCodeStorageWrite, "encoding secrets")
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return perrors.Wrap(err, perrors.ErrCodeStorageWrite, "writing secrets")
	}
	return nil
}
