package presenter

import (
	"context"

	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
	"github.com/odvcencio/perch/pkg/nav"
	"github.com/odvcencio/perch/pkg/view"
)

// McpConfigurePresenter owns the server list and per-server configure
// view: toggling, removing, and reflecting connection state changes.
type McpConfigurePresenter struct {
	Base
	servers McpService
}

// NewMcpConfigure builds the configure presenter.
func NewMcpConfigure(bus *event.Bus, sink view.Sink, log *logging.Logger, servers McpService) *McpConfigurePresenter {
	p := &McpConfigurePresenter{
		Base:    newBase("mcp_configure", bus, sink, log),
		servers: servers,
	}
	p.dispatch = p.handle
	return p
}

func (p *McpConfigurePresenter) handle(ctx context.Context, ev event.AppEvent) {
	switch e := ev.(type) {
	case event.User:
		switch u := e.Event.(type) {
		case event.OpenMcpConfigure:
			if _, err := p.servers.Get(ctx, u.Name); err != nil {
				p.fail("Could not open server", err)
				return
			}
			if p.refresh(ctx) {
				p.send(view.Navigate{View: string(nav.ViewMcpConfigure)})
			}
		case event.ToggleMcpServer:
			if err := p.servers.SetEnabled(ctx, u.Name, u.Enabled); err != nil {
				p.fail("Could not toggle server", err)
			}
		case event.RemoveMcpServer:
			if err := p.servers.Remove(ctx, u.Name); err != nil {
				p.fail("Could not remove server", err)
				return
			}
			p.send(view.NavigateBack{})
		}

	case event.Mcp:
		p.refresh(ctx)
	}
}

func (p *McpConfigurePresenter) refresh(ctx context.Context) bool {
	statuses, err := p.servers.List(ctx)
	if err != nil {
		p.fail("Could not load servers", err)
		return false
	}

	items := make([]view.McpServerItem, 0, len(statuses))
	for _, s := range statuses {
		items = append(items, view.McpServerItem{
			Name:      s.Config.Name,
			Transport: string(s.Config.Transport),
			Command:   s.Config.Command,
			URL:       s.Config.URL,
			Enabled:   s.Config.Enabled,
			State:     string(s.State),
			ToolCount: s.ToolCount,
		})
	}
	p.send(view.SetMcpServers{Servers: items})
	return true
}
