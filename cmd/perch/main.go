// Command perch runs the presentation core headless: the full event bus,
// services, bridge, and presenter set, with a frame loop standing in for
// the native popover shell. The native UI links against the same wiring
// and replaces only the frame loop.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/perch/pkg/bridge"
	"github.com/odvcencio/perch/pkg/chat"
	"github.com/odvcencio/perch/pkg/config"
	"github.com/odvcencio/perch/pkg/conversation"
	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
	"github.com/odvcencio/perch/pkg/mcp"
	"github.com/odvcencio/perch/pkg/model"
	"github.com/odvcencio/perch/pkg/nav"
	"github.com/odvcencio/perch/pkg/popover"
	"github.com/odvcencio/perch/pkg/presenter"
	"github.com/odvcencio/perch/pkg/profile"
	"github.com/odvcencio/perch/pkg/secrets"
	"github.com/odvcencio/perch/pkg/settings"
	"github.com/odvcencio/perch/pkg/telemetry"
	"github.com/odvcencio/perch/pkg/view"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default ~/.perch/config.yaml)")
	demo := flag.Bool("demo", false, "send one scripted message after startup")
	flag.Parse()

	if err := run(*configPath, *demo); err != nil {
		fmt.Fprintln(os.Stderr, "perch:", err)
		os.Exit(1)
	}
}

// stubConnector stands in for the MCP client until the agent loop lands.
// TODO: replace with the stdio JSON-RPC connector from the agent runtime.
type stubConnector struct{}

func (stubConnector) Connect(context.Context, mcp.ServerConfig) (int, error) { return 0, nil }
func (stubConnector) Disconnect(context.Context, string) error               { return nil }

func run(configPath string, demo bool) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	sessionID := time.Now().UTC().Format("20060102-150405") + "-" + uuid.NewString()[:8]
	log, err := logging.NewLogger(cfg.LogDir, sessionID)
	if err != nil {
		return err
	}
	defer log.Close()
	log.SetMinLevel(logging.Level(cfg.LogLevel))

	var tracer *telemetry.TracerProvider
	traceOut := io.Writer(io.Discard)
	if cfg.Telemetry.TracingEnabled {
		traceOut = os.Stdout
	}
	tracer, err = telemetry.NewTracerProvider("perch", version, traceOut)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			log.Warn(logging.CategoryUI, "tracer_shutdown_failed", err.Error(), nil)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := event.NewBus(cfg.Bus.Capacity)

	convs, err := conversation.NewStore(cfg.ConversationsDir(), bus, log)
	if err != nil {
		return err
	}
	profiles, err := profile.NewRegistry(cfg.ProfilesPath(), bus, log)
	if err != nil {
		return err
	}
	servers, err := mcp.NewRegistry(cfg.McpServersPath(), stubConnector{}, bus, log)
	if err != nil {
		return err
	}
	models, err := model.NewCatalog(cfg.ModelsPath(), bus, log)
	if err != nil {
		return err
	}
	appSettings, err := settings.NewStore(cfg.SettingsPath(), bus, log)
	if err != nil {
		return err
	}
	keys, err := secrets.NewStore(cfg.SecretsPath())
	if err != nil {
		return err
	}

	chatSvc := chat.NewScripted(bus, convs, log)

	// The notifier nudges the frame loop so a command never waits a full
	// frame interval before being drained.
	wake := make(chan struct{}, 1)
	br := bridge.New(bus, log, bridge.Config{
		UserBuffer:    cfg.Bridge.UserEventBuffer,
		CommandBuffer: cfg.Bridge.CommandBuffer,
		Notifier: func() {
			select {
			case wake <- struct{}{}:
			default:
			}
		},
	})
	br.Start(ctx)

	presenters := []interface {
		Start(context.Context)
		Stop()
	}{
		presenter.NewChat(bus, br, log, chatSvc, convs, models),
		presenter.NewHistory(bus, br, log, convs),
		presenter.NewSettings(bus, br, log, appSettings),
		presenter.NewProfileEditor(bus, br, log, profiles, models, keys),
		presenter.NewMcpAdd(bus, br, log, servers),
		presenter.NewMcpConfigure(bus, br, log, servers),
		presenter.NewModelSelector(bus, br, log, models),
		presenter.NewError(bus, br, log),
	}
	// Presenters run on the background context, not the signal context:
	// teardown publishes ShuttingDown before closing the bus, and a
	// signal-cancelled loop would exit before it could observe it.
	for _, p := range presenters {
		p.Start(context.Background())
	}

	var watcher *profile.Watcher
	if cfg.Profiles.WatchEnabled {
		watcher, err = profile.NewWatcher(profiles, log)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
	}

	if err := servers.ConnectEnabled(ctx); err != nil {
		log.Warn(logging.CategoryMCP, "connect_enabled_failed", err.Error(), nil)
	}

	if _, err := bus.Publish(event.System{Event: event.Ready{}}); err != nil && !errors.Is(err, event.ErrNoSubscribers) {
		log.Warn(logging.CategoryBus, "publish_failed", err.Error(), nil)
	}
	log.Info(logging.CategoryUI, "started", "perch core running", map[string]any{
		"session": sessionID,
		"version": version,
	})

	if demo {
		br.Emit(event.SendMessage{Text: "Hello from the demo flag"})
	}

	navState := nav.NewState()
	deferred := popover.NewDeferred()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return frameLoop(ctx, cfg.UI.FrameInterval, br, wake, navState, deferred, log)
	})

	err = g.Wait()

	// Teardown order: announce shutdown while presenter loops are still
	// subscribed, then close the transports. A closed bus drains buffered
	// events first, so every loop dispatches the notice before ErrClosed.
	if _, pubErr := bus.Publish(event.System{Event: event.ShuttingDown{}}); pubErr != nil && !errors.Is(pubErr, event.ErrNoSubscribers) {
		log.Warn(logging.CategoryBus, "publish_failed", pubErr.Error(), nil)
	}
	if watcher != nil {
		if stopErr := watcher.Stop(); stopErr != nil {
			log.Warn(logging.CategoryProfile, "watcher_stop_failed", stopErr.Error(), nil)
		}
	}
	servers.DisconnectAll(context.Background())
	br.Close()
	bus.Close()
	for _, p := range presenters {
		p.Stop()
	}

	log.Info(logging.CategoryUI, "stopped", "perch core shut down", nil)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// frameLoop is the headless stand-in for the popover render loop: once per
// frame (or when the notifier fires) it drains commands, applies the
// navigation ones, and flushes the deferred popover operation.
func frameLoop(ctx context.Context, interval time.Duration, br *bridge.Bridge, wake <-chan struct{}, navState *nav.State, deferred *popover.Deferred, log *logging.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-wake:
		}

		if !br.HasPendingCommands() {
			deferred.DrainAndApply(func(op popover.Op) {
				applyPopover(op, log)
			})
			continue
		}

		for _, cmd := range br.DrainCommands() {
			applyCommand(cmd, navState, deferred, log)
		}
		deferred.DrainAndApply(func(op popover.Op) {
			applyPopover(op, log)
		})
	}
}

func applyCommand(cmd view.Command, navState *nav.State, deferred *popover.Deferred, log *logging.Logger) {
	switch c := cmd.(type) {
	case view.Navigate:
		navState.Navigate(nav.ViewID(c.View))
		log.Debug(logging.CategoryUI, "navigate", c.View, map[string]any{"depth": navState.Depth()})
	case view.NavigateBack:
		if navState.NavigateBack() {
			log.Debug(logging.CategoryUI, "navigate_back", string(navState.Current()), map[string]any{"depth": navState.Depth()})
		}
	case view.ClosePopover:
		deferred.Request(popover.Hide{})
	case view.ShowError:
		log.Warn(logging.CategoryUI, "error_banner", c.Message, map[string]any{
			"title":    c.Title,
			"severity": string(c.Severity),
		})
	case view.AppendStreamText:
		fmt.Print(c.Text)
	case view.FinalizeStream:
		fmt.Println()
	default:
		// Everything else is a widget-state mutation the headless shell
		// has no widgets for.
		log.Debug(logging.CategoryUI, "command", fmt.Sprintf("%T", cmd), nil)
	}
}

func applyPopover(op popover.Op, log *logging.Logger) {
	switch op.(type) {
	case popover.Show:
		log.Debug(logging.CategoryUI, "popover_show", "", nil)
	case popover.Hide:
		log.Debug(logging.CategoryUI, "popover_hide", "", nil)
	}
}
