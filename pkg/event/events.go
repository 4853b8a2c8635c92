// Package event defines the application event union and the broadcast bus
// that carries it. Events are immutable, cheaply copyable values: payloads
// are small scalars, strings, and IDs, never service handles or callbacks.
package event

import "github.com/google/uuid"

// AppEvent is the closed union of everything that flows through the bus.
// It is a union of sub-unions, one per domain.
type AppEvent interface {
	isAppEvent()
}

// User wraps an event originating from the UI.
type User struct{ Event UserEvent }

func (User) isAppEvent() {}

// Chat wraps a streaming/agent event.
type Chat struct{ Event ChatEvent }

func (Chat) isAppEvent() {}

// Mcp wraps an MCP server lifecycle event.
type Mcp struct{ Event McpEvent }

func (Mcp) isAppEvent() {}

// Profile wraps a model-profile event.
type Profile struct{ Event ProfileEvent }

func (Profile) isAppEvent() {}

// Conversation wraps a conversation store event.
type Conversation struct{ Event ConversationEvent }

func (Conversation) isAppEvent() {}

// Navigation wraps a navigation request event.
type Navigation struct{ Event NavigationEvent }

func (Navigation) isAppEvent() {}

// System wraps an application-level event.
type System struct{ Event SystemEvent }

func (System) isAppEvent() {}

// UserEvent is an action the user took in the UI.
// The UI emits these through the bridge; it never touches the bus directly.
type UserEvent interface {
	isUserEvent()
}

// SendMessage submits chat input for the active conversation.
type SendMessage struct {
	Text string
}

func (SendMessage) isUserEvent() {}

// StopGeneration interrupts the in-flight model response.
type StopGeneration struct{}

func (StopGeneration) isUserEvent() {}

// NewConversation starts a fresh conversation and makes it active.
type NewConversation struct{}

func (NewConversation) isUserEvent() {}

// SelectConversation makes an existing conversation active.
type SelectConversation struct {
	ID uuid.UUID
}

func (SelectConversation) isUserEvent() {}

// DeleteConversation removes a conversation from history.
type DeleteConversation struct {
	ID uuid.UUID
}

func (DeleteConversation) isUserEvent() {}

// OpenHistory opens the conversation history view.
type OpenHistory struct{}

func (OpenHistory) isUserEvent() {}

// OpenSettings opens the settings view.
type OpenSettings struct{}

func (OpenSettings) isUserEvent() {}

// UpdateSettings persists edited settings values.
type UpdateSettings struct {
	Theme         string
	LaunchAtLogin bool
	GlobalHotkey  string
}

func (UpdateSettings) isUserEvent() {}

// OpenProfileEditor opens the profile editor. A nil ID means "new profile".
type OpenProfileEditor struct {
	ID uuid.UUID
}

func (OpenProfileEditor) isUserEvent() {}

// SaveProfile persists a profile draft from the editor. APIKey is stored
// in the secrets store, never in the profile file.
type SaveProfile struct {
	ID           uuid.UUID
	Name         string
	Provider     string
	ModelID      string
	SystemPrompt string
	Temperature  float64
	APIKey       string
}

func (SaveProfile) isUserEvent() {}

// DeleteProfile removes a profile.
type DeleteProfile struct {
	ID uuid.UUID
}

func (DeleteProfile) isUserEvent() {}

// SelectProfile makes a profile the default for new conversations.
type SelectProfile struct {
	ID uuid.UUID
}

func (SelectProfile) isUserEvent() {}

// OpenModelSelector opens the model picker.
type OpenModelSelector struct{}

func (OpenModelSelector) isUserEvent() {}

// SelectModel makes a model the default.
type SelectModel struct {
	ModelID string
}

func (SelectModel) isUserEvent() {}

// OpenMcpAdd opens the add-server form.
type OpenMcpAdd struct{}

func (OpenMcpAdd) isUserEvent() {}

// AddMcpServer registers a new MCP server.
type AddMcpServer struct {
	Name      string
	Transport string
	Command   string
	Args      []string
	URL       string
}

func (AddMcpServer) isUserEvent() {}

// OpenMcpConfigure opens the configure view for one server.
type OpenMcpConfigure struct {
	Name string
}

func (OpenMcpConfigure) isUserEvent() {}

// ToggleMcpServer enables or disables a registered server.
type ToggleMcpServer struct {
	Name    string
	Enabled bool
}

func (ToggleMcpServer) isUserEvent() {}

// RemoveMcpServer unregisters a server.
type RemoveMcpServer struct {
	Name string
}

func (RemoveMcpServer) isUserEvent() {}

// NavigateBack pops the current view.
type NavigateBack struct{}

func (NavigateBack) isUserEvent() {}

// ClearError dismisses the current error banner.
type ClearError struct{}

func (ClearError) isUserEvent() {}

// ChatEvent is produced by the agent loop while streaming a response.
type ChatEvent interface {
	isChatEvent()
}

// StreamStarted marks the beginning of a model response.
type StreamStarted struct {
	ConversationID uuid.UUID
}

func (StreamStarted) isChatEvent() {}

// StreamDelta carries one chunk of streamed response text.
type StreamDelta struct {
	ConversationID uuid.UUID
	Text           string
}

func (StreamDelta) isChatEvent() {}

// StreamCompleted marks the end of a successful response.
type StreamCompleted struct {
	ConversationID uuid.UUID
	MessageID      string
}

func (StreamCompleted) isChatEvent() {}

// StreamFailed marks an aborted response.
type StreamFailed struct {
	ConversationID uuid.UUID
	Reason         string
}

func (StreamFailed) isChatEvent() {}

// ToolCallStarted reports that the agent invoked a tool.
type ToolCallStarted struct {
	ConversationID uuid.UUID
	Server         string
	Tool           string
}

func (ToolCallStarted) isChatEvent() {}

// ToolCallCompleted reports a finished tool invocation.
type ToolCallCompleted struct {
	ConversationID uuid.UUID
	Server         string
	Tool           string
	OK             bool
}

func (ToolCallCompleted) isChatEvent() {}

// McpEvent is produced by the MCP registry and connector.
type McpEvent interface {
	isMcpEvent()
}

// McpServerAdded reports a newly registered server.
type McpServerAdded struct {
	Name string
}

func (McpServerAdded) isMcpEvent() {}

// McpServerRemoved reports an unregistered server.
type McpServerRemoved struct {
	Name string
}

func (McpServerRemoved) isMcpEvent() {}

// McpServerStateChanged reports a connection state transition.
type McpServerStateChanged struct {
	Name  string
	State string
}

func (McpServerStateChanged) isMcpEvent() {}

// McpServerToggled reports an enable/disable flip.
type McpServerToggled struct {
	Name    string
	Enabled bool
}

func (McpServerToggled) isMcpEvent() {}

// ProfileEvent is produced by the profile registry.
type ProfileEvent interface {
	isProfileEvent()
}

// ProfileSaved reports a created or updated profile.
type ProfileSaved struct {
	ID uuid.UUID
}

func (ProfileSaved) isProfileEvent() {}

// ProfileDeleted reports a removed profile.
type ProfileDeleted struct {
	ID uuid.UUID
}

func (ProfileDeleted) isProfileEvent() {}

// DefaultProfileChanged reports a new default profile.
type DefaultProfileChanged struct {
	ID uuid.UUID
}

func (DefaultProfileChanged) isProfileEvent() {}

// ProfilesReloaded reports an out-of-band change to the profiles file.
type ProfilesReloaded struct{}

func (ProfilesReloaded) isProfileEvent() {}

// DefaultModelChanged reports a new default model.
type DefaultModelChanged struct {
	ModelID string
}

func (DefaultModelChanged) isProfileEvent() {}

// ConversationEvent is produced by the conversation store.
type ConversationEvent interface {
	isConversationEvent()
}

// ConversationCreated reports a new conversation.
type ConversationCreated struct {
	ID uuid.UUID
}

func (ConversationCreated) isConversationEvent() {}

// ConversationDeleted reports a removed conversation.
type ConversationDeleted struct {
	ID uuid.UUID
}

func (ConversationDeleted) isConversationEvent() {}

// ConversationRenamed reports a title change.
type ConversationRenamed struct {
	ID    uuid.UUID
	Title string
}

func (ConversationRenamed) isConversationEvent() {}

// ActiveConversationChanged reports a new active conversation.
type ActiveConversationChanged struct {
	ID uuid.UUID
}

func (ActiveConversationChanged) isConversationEvent() {}

// NavigationEvent requests a view change from whichever presenter owns
// the destination view.
type NavigationEvent interface {
	isNavigationEvent()
}

// NavigateTo requests a specific view.
type NavigateTo struct {
	View string
}

func (NavigateTo) isNavigationEvent() {}

// NavigatedBack reports that the router popped a view.
type NavigatedBack struct{}

func (NavigatedBack) isNavigationEvent() {}

// SystemEvent is an application-level notification.
type SystemEvent interface {
	isSystemEvent()
}

// Ready reports that all services finished starting.
type Ready struct{}

func (Ready) isSystemEvent() {}

// ShuttingDown reports that the application is tearing down.
type ShuttingDown struct{}

func (ShuttingDown) isSystemEvent() {}

// SettingsChanged reports persisted settings changes.
type SettingsChanged struct{}

func (SettingsChanged) isSystemEvent() {}

// SystemError reports a failure outside any presenter's dispatch, e.g.
// a background service crash.
type SystemError struct {
	Source  string
	Message string
}

func (SystemError) isSystemEvent() {}
