package settings

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/perch/pkg/event"
	"github.com/odvcencio/perch/pkg/logging"
)

func TestStore_DefaultsWhenMissing(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "settings.json"), nil, logging.Discard())
	require.NoError(t, err)

	got, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
	assert.Equal(t, "system", got.Theme)
	assert.Equal(t, 420, got.PopoverWidth)
}

func TestStore_UpdatePersistsAndPublishes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	ctx := context.Background()

	bus := event.NewBus(16)
	defer bus.Close()
	sub := bus.Subscribe()
	defer sub.Close()

	s, err := NewStore(path, bus, logging.Discard())
	require.NoError(t, err)

	want := Defaults()
	want.Theme = "dark"
	want.LaunchAtLogin = true
	require.NoError(t, s.Update(ctx, want))

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	recvCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	ev, err := sub.Recv(recvCtx)
	require.NoError(t, err)
	sys, ok := ev.(event.System)
	require.True(t, ok)
	assert.IsType(t, event.SettingsChanged{}, sys.Event)

	reopened, err := NewStore(path, nil, logging.Discard())
	require.NoError(t, err)
	got, err = reopened.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
