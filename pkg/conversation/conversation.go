// Package conversation persists chat conversations as JSON files, one per
// conversation, and publishes change events onto the application bus.
package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one transcript entry. IDs are ULIDs so messages sort by
// creation time lexically.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is a stored chat thread.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	ProfileID uuid.UUID `json:"profile_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// Summary is a list row for the history view.
type Summary struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const defaultTitle = "New conversation"

// titleFromText derives a conversation title from the first user message.
func titleFromText(text string) string {
	const maxTitle = 48

	title := text
	for i, r := range title {
		if r == '\n' {
			title = title[:i]
			break
		}
	}
	if len(title) > maxTitle {
		title = title[:maxTitle-3] + "..."
	}
	if title == "" {
		return defaultTitle
	}
	return title
}
