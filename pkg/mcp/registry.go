// Package mcp manages the registry of configured MCP tool servers. Process
// lifecycle (spawning, JSON-RPC, health checks) belongs to the Connector
// implementation injected by the application; this package owns the
// persisted configuration, enable/disable state, and the events the UI
// reacts to.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	perrors "github.com/odvcencio/perch/pkg/errors"
	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
)

// Transport identifies how a server is reached.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
)

// ServerConfig describes one registered MCP server.
type ServerConfig struct {
	Name      string            `json:"name"`
	Transport Transport         `json:"transport"`
	Command   string            `json:"command,omitempty"`
	Args      []string          `json:"args,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	URL       string            `json:"url,omitempty"`
	Enabled   bool              `json:"enabled"`
}

// ConnState is the connection state reported by the Connector.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateFailed       ConnState = "failed"
)

// Status is the live view of one server.
type Status struct {
	Config    ServerConfig
	State     ConnState
	ToolCount int
}

// Connector abstracts the MCP process/connection lifecycle. The concrete
// implementation spawns subprocesses and speaks JSON-RPC; tests use a fake.
type Connector interface {
	// Connect starts or attaches to the server. Blocking with its own
	// timeout; returns the number of tools the server advertises.
	Connect(ctx context.Context, cfg ServerConfig) (int, error)

	// Disconnect tears the server connection down.
	Disconnect(ctx context.Context, name string) error
}

// Registry persists MCP server configs as JSON and mediates connect /
// disconnect through the Connector, publishing Mcp events as state moves.
type Registry struct {
	mu        sync.Mutex
	path      string
	bus       *event.Bus
	log       *logging.Logger
	connector Connector
	servers   map[string]ServerConfig
	states    map[string]ConnState
	toolCount map[string]int
}

// NewRegistry opens (creating if needed) the server registry at path.
func NewRegistry(path string, connector Connector, bus *event.Bus, log *logging.Logger) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStorageWrite, "creating mcp directory")
	}

	r := &Registry{
		path:      path,
		bus:       bus,
		log:       log,
		connector: connector,
		servers:   make(map[string]ServerConfig),
		states:    make(map[string]ConnState),
		toolCount: make(map[string]int),
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
		return perrors.Wrap(err, perrors.ErrCodeStorageRead, "reading mcp servers")
	}

	var servers []ServerConfig
	if err := json.Unmarshal(data, &servers); err != nil {
		return perrors.Wrap(err, perrors.ErrCodeStorageCorrupt, "parsing mcp servers")
	}
	for _, cfg := range servers {
		r.servers[cfg.Name] = cfg
		r.states[cfg.Name] = StateDisconnected
	}
	return nil
}

func (r *Registry) save() error {
	servers := make([]ServerConfig, 0, len(r.servers))
	for _, cfg := range r.servers {
		servers = append(servers, cfg)
	}
	sort.Slice(servers, func(i, j int) bool { return servers[i].Name < servers[j].Name })

	data, err := json.MarshalIndent(servers, "", "  ")
	if err != nil {
		return perrors.Wrap(err, perrors.ErrCodeStorageWrite, "encoding mcp servers")
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return perrors.Wrap(err, perrors.ErrCodeStorageWrite, "writing mcp servers")
	}
	return nil
}

// Validate checks a config before registration.
func Validate(cfg ServerConfig) error {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return perrors.New(perrors.ErrCodeMCPInvalid, "server name is required").
			WithUserMessage("Give the server a name.")
	}
	switch cfg.Transport {
	case TransportStdio:
		if strings.TrimSpace(cfg.Command) == "" {
			return perrors.New(perrors.ErrCodeMCPInvalid, "stdio server requires a command").
				WithContext("name", name).
				WithUserMessage("A stdio server needs a command to launch.")
		}
	case TransportHTTP:
		if strings.TrimSpace(cfg.URL) == "" {
			return perrors.New(perrors.ErrCodeMCPInvalid, "http server requires a url").
				WithContext("name", name).
				WithUserMessage("An HTTP server needs a URL.")
		}
	default:
		return perrors.New(perrors.ErrCodeMCPInvalid, "unknown transport").
			WithContext("transport", string(cfg.Transport))
	}
	return nil
}

// Add registers a new server. Names are unique.
func (r *Registry) Add(ctx context.Context, cfg ServerConfig) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	r.mu.Lock()
	if _, exists := r.servers[cfg.Name]; exists {
		r.mu.Unlock()
		return perrors.New(perrors.ErrCodeMCPDuplicate, "server already registered").
			WithContext("name", cfg.Name).
			WithUserMessage("A server with that name already exists.")
	}
	r.servers[cfg.Name] = cfg
	r.states[cfg.Name] = StateDisconnected
	if err := r.save(); err != nil {
		delete(r.servers, cfg.Name)
		delete(r.states, cfg.Name)
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	r.publish(event.McpServerAdded{Name: cfg.Name})
	return nil
}

// Remove unregisters a server, disconnecting it first when connected.
func (r *Registry) Remove(ctx context.Context, name string) error {
	r.mu.Lock()
	if _, ok := r.servers[name]; !ok {
		r.mu.Unlock()
		return perrors.New(perrors.ErrCodeMCPNotFound, "server not registered").
			WithContext("name", name)
	}
	connected := r.states[name] == StateConnected
	r.mu.Unlock()

	if connected {
		if err := r.disconnect(ctx, name); err != nil {
			return err
		}
	}

	r.mu.Lock()
	delete(r.servers, name)
	delete(r.states, name)
	delete(r.toolCount, name)
	if err := r.save(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	r.publish(event.McpServerRemoved{Name: name})
	return nil
}

// SetEnabled flips the enabled flag and connects or disconnects to match.
func (r *Registry) SetEnabled(ctx context.Context, name string, enabled bool) error {
	r.mu.Lock()
	cfg, ok := r.servers[name]
	if !ok {
		r.mu.Unlock()
		return perrors.New(perrors.ErrCodeMCPNotFound, "server not registered").
			WithContext("name", name)
	}
	if cfg.Enabled == enabled {
		r.mu.Unlock()
		return nil
	}
	cfg.Enabled = enabled
	r.servers[name] = cfg
	if err := r.save(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	r.publish(event.McpServerToggled{Name: name, Enabled: enabled})

	if enabled {
		return r.connect(ctx, cfg)
	}
	return r.disconnect(ctx, name)
}

// ConnectEnabled connects every enabled server. Individual failures are
// reported per server through events; the first error is returned.
func (r *Registry) ConnectEnabled(ctx context.Context) error {
	r.mu.Lock()
	var toConnect []ServerConfig
	for _, cfg := range r.servers {
		if cfg.Enabled && r.states[cfg.Name] != StateConnected {
			toConnect = append(toConnect, cfg)
		}
	}
	r.mu.Unlock()

	var firstErr error
	for _, cfg := range toConnect {
		if err := r.connect(ctx, cfg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DisconnectAll tears down every connected server. Used at shutdown.
func (r *Registry) DisconnectAll(ctx context.Context) {
	r.mu.Lock()
	var connected []string
	for name, state := range r.states {
		if state == StateConnected {
			connected = append(connected, name)
		}
	}
	r.mu.Unlock()

	for _, name := range connected {
		if err := r.disconnect(ctx, name); err != nil {
			r.log.Warn(logging.CategoryMCP, "disconnect_failed", err.Error(), map[string]any{
				"server": name,
			})
		}
	}
}

func (r *Registry) connect(ctx context.Context, cfg ServerConfig) error {
	if r.connector == nil {
		return nil
	}

	r.setState(cfg.Name, StateConnecting, 0)

	tools, err := r.connector.Connect(ctx, cfg)
	if err != nil {
		r.setState(cfg.Name, StateFailed, 0)
		return perrors.Wrap(err, perrors.ErrCodeMCPConnect, "connecting to mcp server").
			WithContext("server", cfg.Name).
			WithRetryable(true).
			WithUserMessage("Could not reach " + cfg.Name + ". Check its command and try again.")
	}

	r.setState(cfg.Name, StateConnected, tools)
	return nil
}

func (r *Registry) disconnect(ctx context.Context, name string) error {
	if r.connector == nil {
		return nil
	}
	if err := r.connector.Disconnect(ctx, name); err != nil {
		return perrors.Wrap(err, perrors.ErrCodeMCPConnect, "disconnecting mcp server").
			WithContext("server", name)
	}
	r.setState(name, StateDisconnected, 0)
	return nil
}

func (r *Registry) setState(name string, state ConnState, tools int) {
	r.mu.Lock()
	r.states[name] = state
	r.toolCount[name] = tools
	r.mu.Unlock()

	r.publish(event.McpServerStateChanged{Name: name, State: string(state)})
}

// List returns the status of every registered server, sorted by name.
func (r *Registry) List(ctx context.Context) ([]Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Status, 0, len(r.servers))
	for name, cfg := range r.servers {
		out = append(out, Status{
			Config:    cfg,
			State:     r.states[name],
			ToolCount: r.toolCount[name],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Config.Name < out[j].Config.Name })
	return out, nil
}

// Get returns the status of one server.
func (r *Registry) Get(ctx context.Context, name string) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, ok := r.servers[name]
	if !ok {
		return Status{}, perrors.New(perrors.ErrCodeMCPNotFound, "server not registered").
			WithContext("name", name)
	}
	return Status{Config: cfg, State: r.states[name], ToolCount: r.toolCount[name]}, nil
}

func (r *Registry) publish(ev event.McpEvent) {
	if r.bus == nil {
		return
	}
	if _, err := r.bus.Publish(event.Mcp{Event: ev}); err != nil && !errors.Is(err, event.ErrNoSubscribers) {
		r.log.Warn(logging.CategoryMCP, "publish_failed", err.Error(), nil)
	}
}
