package conversation

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/odvcencio/perch/pkg/errors"
	"github.com/odvcencio/perch/pkg/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), nil, logging.Discard())
	require.NoError(t, err)
	return store
}

func TestStore_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, err := store.Create(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, conv.ID)
	assert.Equal(t, "New conversation", conv.Title)

	got, err := store.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
	assert.Empty(t, got.Messages)

	active, err := store.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, active, "Create should make the conversation active")
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, perrors.IsCode(err, perrors.ErrCodeConversationNotFound))
}

func TestStore_AppendMessageTitlesConversation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, err := store.Create(ctx)
	require.NoError(t, err)

	msg, err := store.AppendMessage(ctx, conv.ID, RoleUser, "What is the capital of France?")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)

	got, err := store.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "What is the capital of France?", got.Title)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, RoleUser, got.Messages[0].Role)
}

func TestStore_TitleTruncation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, err := store.Create(ctx)
	require.NoError(t, err)

	long := strings.Repeat("x", 200)
	_, err = store.AppendMessage(ctx, conv.ID, RoleUser, long)
	require.NoError(t, err)

	got, err := store.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got.Title), 48)
	assert.True(t, strings.HasSuffix(got.Title, "..."))
}

func TestStore_MessageIDsSortByCreation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, err := store.Create(ctx)
	require.NoError(t, err)

	first, err := store.AppendMessage(ctx, conv.ID, RoleUser, "one")
	require.NoError(t, err)
	second, err := store.AppendMessage(ctx, conv.ID, RoleAssistant, "two")
	require.NoError(t, err)

	assert.Less(t, first.ID, second.ID, "ULIDs should order by creation time")
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, err := store.Create(ctx)
	require.NoError(t, err)
	b, err := store.Create(ctx)
	require.NoError(t, err)

	// Touch a so it becomes the most recent.
	_, err = store.AppendMessage(ctx, a.ID, RoleUser, "bump")
	require.NoError(t, err)

	summaries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, a.ID, summaries[0].ID)
	assert.Equal(t, b.ID, summaries[1].ID)
	assert.Equal(t, 1, summaries[0].MessageCount)
}

func TestStore_DeleteClearsActive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, err := store.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, conv.ID))

	active, err := store.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, active)

	err = store.Delete(ctx, conv.ID)
	assert.True(t, perrors.IsCode(err, perrors.ErrCodeConversationNotFound))
}

func TestStore_ActiveSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir, nil, logging.Discard())
	require.NoError(t, err)
	conv, err := store.Create(ctx)
	require.NoError(t, err)

	reopened, err := NewStore(dir, nil, logging.Discard())
	require.NoError(t, err)
	active, err := reopened.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, active)
}
