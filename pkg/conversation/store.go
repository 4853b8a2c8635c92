package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/odvcencio/perch/pkg/event"
	perrors "github.com/odvcencio/perch/pkg/errors"
	"github.com/odvcencio/perch/pkg/logging"
)

// Store keeps one JSON file per conversation under baseDir, plus a small
// state file holding the active conversation ID. All mutations publish a
// Conversation event; presenters react to those rather than polling.
type Store struct {
	mu      sync.Mutex
	baseDir string
	bus     *event.Bus
	log     *logging.Logger
	active  uuid.UUID
}

const stateFile = "state.json"

type storeState struct {
	ActiveID uuid.UUID `json:"active_id"`
}

// NewStore opens (creating if needed) a conversation store at baseDir.
func NewStore(baseDir string, bus *event.Bus, log *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStorageWrite, "creating conversation directory")
	}

	s := &Store{baseDir: baseDir, bus: bus, log: log}

	data, err := os.ReadFile(filepath.Join(baseDir, stateFile))
	if err == nil {
		var st storeState
		if json.Unmarshal(data, &st) == nil {
			s.active = st.ActiveID
		}
	}

	return s, nil
}

// List returns summaries of every stored conversation, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStorageRead, "listing conversations")
	}

	var summaries []Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") || entry.Name() == stateFile {
			continue
		}
		conv, err := s.read(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			s.log.Warn(logging.CategoryConversation, "skip_corrupt", err.Error(), map[string]any{
				"file": entry.Name(),
			})
			continue
		}
		summaries = append(summaries, Summary{
			ID:           conv.ID,
			Title:        conv.Title,
			MessageCount: len(conv.Messages),
			UpdatedAt:    conv.UpdatedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// Get loads one conversation in full.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *Store) get(id uuid.UUID) (*Conversation, error) {
	conv, err := s.read(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, perrors.New(perrors.ErrCodeConversationNotFound, "conversation not found").
			WithContext("id", id.String())
	}
	return conv, err
}

// Create starts a new empty conversation and makes it active.
func (s *Store) Create(ctx context.Context) (*Conversation, error) {
	s.mu.Lock()
	now := time.Now()
	conv := &Conversation{
		ID:        uuid.New(),
		Title:     defaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.write(conv); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.active = conv.ID
	if err := s.writeState(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.publish(event.ConversationCreated{ID: conv.ID})
	s.publish(event.ActiveConversationChanged{ID: conv.ID})
	return conv, nil
}

// Delete removes a conversation. Deleting the active conversation clears
// the active pointer.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if err := os.Remove(s.path(id)); err != nil {
		s.mu.Unlock()
		if errors.Is(err, os.ErrNotExist) {
			return perrors.New(perrors.ErrCodeConversationNotFound, "conversation not found").
				WithContext("id", id.String())
		}
		return perrors.Wrap(err, perrors.ErrCodeStorageWrite, "deleting conversation")
	}
	cleared := false
	if s.active == id {
		s.active = uuid.Nil
		cleared = true
		if err := s.writeState(); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	s.publish(event.ConversationDeleted{ID: id})
	if cleared {
		s.publish(event.ActiveConversationChanged{ID: uuid.Nil})
	}
	return nil
}

// Rename changes a conversation's title.
func (s *Store) Rename(ctx context.Context, id uuid.UUID, title string) error {
	s.mu.Lock()
	conv, err := s.get(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	conv.Title = title
	conv.UpdatedAt = time.Now()
	if err := s.write(conv); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.publish(event.ConversationRenamed{ID: id, Title: title})
	return nil
}

// AppendMessage appends one message. The first user message also titles
// the conversation.
func (s *Store) AppendMessage(ctx context.Context, id uuid.UUID, role Role, content string) (Message, error) {
	s.mu.Lock()
	conv, err := s.get(id)
	if err != nil {
		s.mu.Unlock()
		return Message{}, err
	}

	msg := Message{
		ID:        ulid.Make().String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = msg.CreatedAt

	var renamed string
	if role == RoleUser && conv.Title == defaultTitle {
		conv.Title = titleFromText(content)
		renamed = conv.Title
	}

	if err := s.write(conv); err != nil {
		s.mu.Unlock()
		return Message{}, err
	}
	s.mu.Unlock()

	if renamed != "" {
		s.publish(event.ConversationRenamed{ID: id, Title: renamed})
	}
	return msg, nil
}

// SetActive marks a conversation as the one the chat view shows.
func (s *Store) SetActive(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if _, err := s.get(id); err != nil {
		s.mu.Unlock()
		return err
	}
	s.active = id
	if err := s.writeState(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.publish(event.ActiveConversationChanged{ID: id})
	return nil
}

// Active returns the active conversation ID, uuid.Nil when none.
func (s *Store) Active(ctx context.Context) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, nil
}

func (s *Store) path(id uuid.UUID) string {
	return filepath.Join(s.baseDir, id.String()+".json")
}

func (s *Store) read(path string) (*Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, perrors.Wrap(err, perrors.ErrCodeStorageRead, "reading conversation")
	}
	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStorageCorrupt, "parsing conversation")
	}
	return &conv, nil
}

func (s *Store) write(conv *Conversation) error {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return perrors.Wrap(err, perrors.ErrCodeStorageWrite, "encoding conversation")
	}
	if err := os.WriteFile(s.path(conv.ID), data, 0644); err != nil {
		return perrors.Wrap(err, perrors.ErrCodeStorageWrite, "writing conversation")
	}
	return nil
}

func (s *Store) writeState() error {
	data, err := json.Marshal(storeState{ActiveID: s.active})
	if err != nil {
		return perrors.Wrap(err, perrors.ErrCodeStorageWrite, "encoding store state")
	}
	if err := os.WriteFile(filepath.Join(s.baseDir, stateFile), data, 0644); err != nil {
		return perrors.Wrap(err, perrors.ErrCodeStorageWrite, "writing store state")
	}
	return nil
}

func (s *Store) publish(ev event.ConversationEvent) {
	if s.bus == nil {
		return
	}
	if _, err := s.bus.Publish(event.Conversation{Event: ev}); err != nil && !errors.Is(err, event.ErrNoSubscribers) {
		s.log.Warn(logging.CategoryConversation, "publish_failed", err.Error(), nil)
	}
}
