package presenter

import (
	"context"

	"github.com/google/uuid"

	"github.com/odvcencio/perch/pkg/conversation"
	"github.com/odvcencio/perch/pkg/mcp"
	"github.com/odvcencio/perch/pkg/model"
	"github.com/odvcencio/perch/pkg/profile"
	"github.com/odvcencio/perch/pkg/settings"
)

// Service interfaces are declared here, on the consumer side, so concrete
// stores can be swapped for fakes in tests. Presenters hold these handles
// shared; they never own a service exclusively.

// ConversationService is the slice of the conversation store presenters use.
type ConversationService interface {
	List(ctx context.Context) ([]conversation.Summary, error)
	Get(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error)
	Create(ctx context.Context) (*conversation.Conversation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID) error
	Active(ctx context.Context) (uuid.UUID, error)
}

// ChatService accepts chat input and interrupts in-flight responses.
type ChatService interface {
	SendMessage(ctx context.Context, conversationID uuid.UUID, text string) error
	Stop(ctx context.Context, conversationID uuid.UUID) error
}

// ProfileService is the slice of the profile registry presenters use.
type ProfileService interface {
	List(ctx context.Context) ([]profile.Profile, error)
	Get(ctx context.Context, id uuid.UUID) (profile.Profile, error)
	Save(ctx context.Context, p profile.Profile) (profile.Profile, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetDefault(ctx context.Context, id uuid.UUID) error
	Default(ctx context.Context) (uuid.UUID, error)
}

// ModelService is the slice of the model catalog presenters use.
type ModelService interface {
	List(ctx context.Context) ([]model.Info, error)
	Get(ctx context.Context, id string) (model.Info, error)
	Default(ctx context.Context) (string, error)
	SetDefault(ctx context.Context, id string) error
}

// McpService is the slice of the MCP registry presenters use.
type McpService interface {
	List(ctx context.Context) ([]mcp.Status, error)
	Get(ctx context.Context, name string) (mcp.Status, error)
	Add(ctx context.Context, cfg mcp.ServerConfig) error
	Remove(ctx context.Context, name string) error
	SetEnabled(ctx context.Context, name string, enabled bool) error
}

// SettingsService is the slice of the settings store presenters use.
type SettingsService interface {
	Get(ctx context.Context) (settings.Settings, error)
	Update(ctx context.Context, s settings.Settings) error
}

// SecretsService is the slice of the secrets store presenters use.
type SecretsService interface {
	Set(ctx context.Context, provider, key string) error
	Has(ctx context.Context, provider string) bool
}
