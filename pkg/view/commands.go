// Package view defines the UI-mutation commands produced by presenters and
// the render-ready item snapshots they carry. Commands are consumed only by
// the UI render loop; one command is one atomic UI effect, and commands
// never carry callbacks or service handles.
package view

import "time"

// Command represents a single UI mutation instruction.
type Command interface {
	isCommand()
}

// Sink accepts commands on their way to the UI. Send must never block;
// it returns false when the command was dropped.
type Sink interface {
	Send(Command) bool
}

// Severity classifies user-visible errors.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// AppendStreamText appends a chunk of streamed response text to the
// in-progress assistant message.
type AppendStreamText struct {
	Text string
}

func (AppendStreamText) isCommand() {}

// FinalizeStream closes out the in-progress assistant message. Loss of
// this command is recoverable: a later SetMessages resyncs the transcript.
type FinalizeStream struct {
	MessageID string
}

func (FinalizeStream) isCommand() {}

// ShowThinking displays the thinking indicator.
type ShowThinking struct{}

func (ShowThinking) isCommand() {}

// HideThinking hides the thinking indicator.
type HideThinking struct{}

func (HideThinking) isCommand() {}

// SetSending toggles the send button/input state while a response is
// in flight.
type SetSending struct {
	Sending bool
}

func (SetSending) isCommand() {}

// SetMessages replaces the visible transcript.
type SetMessages struct {
	ConversationID string
	Messages       []MessageItem
}

func (SetMessages) isCommand() {}

// SetConversations replaces the history list.
type SetConversations struct {
	Conversations []ConversationItem
	ActiveID      string
}

func (SetConversations) isCommand() {}

// SetProfiles replaces the profile list.
type SetProfiles struct {
	Profiles  []ProfileItem
	DefaultID string
}

func (SetProfiles) isCommand() {}

// ShowProfileEditor loads a profile draft into the editor form.
type ShowProfileEditor struct {
	Profile ProfileItem
	IsNew   bool
}

func (ShowProfileEditor) isCommand() {}

// SetModels replaces the model picker contents.
type SetModels struct {
	Models    []ModelItem
	DefaultID string
}

func (SetModels) isCommand() {}

// SetActiveModel updates the model name shown in the chat header.
type SetActiveModel struct {
	ModelID string
}

func (SetActiveModel) isCommand() {}

// SetMcpServers replaces the MCP server list.
type SetMcpServers struct {
	Servers []McpServerItem
}

func (SetMcpServers) isCommand() {}

// SetToolActivity updates the "running tool" badge in the chat view.
type SetToolActivity struct {
	Server  string
	Tool    string
	Running bool
}

func (SetToolActivity) isCommand() {}

// SetSettings loads settings values into the settings form.
type SetSettings struct {
	Theme         string
	LaunchAtLogin bool
	GlobalHotkey  string
}

func (SetSettings) isCommand() {}

// ShowError displays an error dialog or banner.
type ShowError struct {
	Title    string
	Message  string
	Severity Severity
}

func (ShowError) isCommand() {}

// ClearError dismisses the current error banner.
type ClearError struct{}

func (ClearError) isCommand() {}

// Navigate asks the router to push a view.
type Navigate struct {
	View string
}

func (Navigate) isCommand() {}

// NavigateBack asks the router to pop the current view.
type NavigateBack struct{}

func (NavigateBack) isCommand() {}

// ClosePopover asks the shell to dismiss the popover.
type ClosePopover struct{}

func (ClosePopover) isCommand() {}

// FocusInput moves keyboard focus to the chat input.
type FocusInput struct{}

func (FocusInput) isCommand() {}

// MessageItem is a render-ready transcript message.
type MessageItem struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationItem is a render-ready history row.
type ConversationItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"messageCount"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProfileItem is a render-ready profile row or editor draft.
type ProfileItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Provider     string  `json:"provider"`
	ModelID      string  `json:"modelId"`
	SystemPrompt string  `json:"systemPrompt,omitempty"`
	Temperature  float64 `json:"temperature"`
	HasAPIKey    bool    `json:"hasApiKey"`
}

// ModelItem is a render-ready model picker row.
type ModelItem struct {
	ID            string `json:"id"`
	Provider      string `json:"provider"`
	DisplayName   string `json:"displayName"`
	ContextWindow int    `json:"contextWindow"`
}

// McpServerItem is a render-ready MCP server row.
type McpServerItem struct {
	Name      string `json:"name"`
	Transport string `json:"transport"`
	Command   string `json:"command,omitempty"`
	URL       string `json:"url,omitempty"`
	Enabled   bool   `json:"enabled"`
	State     string `json:"state"`
	ToolCount int    `json:"toolCount"`
}
