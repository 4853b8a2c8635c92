package model

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/odvcencio/perch/pkg/errors"
	"github.com/odvcencio/perch/pkg/logging"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(filepath.Join(t.TempDir(), "models.json"), nil, logging.Discard())
	require.NoError(t, err)
	return c
}

func TestCatalog_ListAndGet(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	models, err := c.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, models)

	got, err := c.Get(ctx, DefaultModelID)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", got.Provider)

	_, err = c.Get(ctx, "acme/imaginary-1")
	assert.True(t, perrors.IsCode(err, perrors.ErrCodeModelNotFound))
}

func TestCatalog_SetDefault(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	def, err := c.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultModelID, def)

	require.NoError(t, c.SetDefault(ctx, "openai/gpt-5.2"))

	def, err = c.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-5.2", def)

	err = c.SetDefault(ctx, "acme/imaginary-1")
	assert.True(t, perrors.IsCode(err, perrors.ErrCodeModelNotFound))
}

func TestCatalog_DefaultSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.json")
	ctx := context.Background()

	c, err := NewCatalog(path, nil, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, c.SetDefault(ctx, "google/gemini-3-pro"))

	reopened, err := NewCatalog(path, nil, logging.Discard())
	require.NoError(t, err)
	def, err := reopened.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-3-pro", def)
}
