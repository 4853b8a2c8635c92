package presenter

import (
	"context"

	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
	"github.com/odvcencio/perch/pkg/mcp"
	"github.com/odvcencio/perch/pkg/nav"
	"github.com/odvcencio/perch/pkg/view"
)

// McpAddPresenter owns the add-server form.
type McpAddPresenter struct {
	Base
	servers McpService
}

// NewMcpAdd builds the add-server presenter.
func NewMcpAdd(bus *event.Bus, sink view.Sink, log *logging.Logger, servers McpService) *McpAddPresenter {
	p := &McpAddPresenter{
		Base:    newBase("mcp_add", bus, sink, log),
		servers: servers,
	}
	p.dispatch = p.handle
	return p
}

func (p *McpAddPresenter) handle(ctx context.Context, ev event.AppEvent) {
	user, ok := ev.(event.User)
	if !ok {
		return
	}

	switch u := user.Event.(type) {
	case event.OpenMcpAdd:
		p.send(view.Navigate{View: string(nav.ViewMcpAdd)})

	case event.AddMcpServer:
		cfg := mcp.ServerConfig{
			Name:      u.Name,
			Transport: mcp.Transport(u.Transport),
			Command:   u.Command,
			Args:      u.Args,
			URL:       u.URL,
			Enabled:   true,
		}
		if err := p.servers.Add(ctx, cfg); err != nil {
			p.fail("Could not add server", err)
			return
		}
		p.send(view.NavigateBack{})
	}
}
