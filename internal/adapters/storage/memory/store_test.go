package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/englishmaster/internal/adapters/storage/memory"
	"github.com/PabloGalante/englishmaster/internal/domain"
)

func TestStoreGetMissingPath(t *testing.T) {
	s := memory.NewStore()

	raw, err := s.Get(context.Background(), "sessions")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestStorePutAndReadParent(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	require.NoError(t, s.Put(ctx, "sessions/a", map[string]any{"id": "a", "title": "Halo"}))
	require.NoError(t, s.Put(ctx, "sessions/b", map[string]any{"id": "b", "title": "Pagi"}))

	raw, err := s.Get(ctx, "sessions")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"id":"a","title":"Halo"},"b":{"id":"b","title":"Pagi"}}`, string(raw))

	raw, err = s.Get(ctx, "sessions/a/title")
	require.NoError(t, err)
	assert.JSONEq(t, `"Halo"`, string(raw))
}

func TestStorePutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	require.NoError(t, s.Put(ctx, "sessions/a", map[string]any{"id": "a", "title": "first"}))
	require.NoError(t, s.Put(ctx, "sessions/a", map[string]any{"id": "a"}))

	raw, err := s.Get(ctx, "sessions/a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a"}`, string(raw))
}

func TestStorePostGeneratesDistinctKeys(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	k1, err := s.Post(ctx, "chats/x/messages", map[string]any{"content": "one"})
	require.NoError(t, err)
	k2, err := s.Post(ctx, "chats/x/messages", map[string]any{"content": "two"})
	require.NoError(t, err)

	assert.NotEmpty(t, k1)
	assert.NotEqual(t, k1, k2)

	raw, err := s.Get(ctx, "chats/x/messages/"+k2+"/content")
	require.NoError(t, err)
	assert.JSONEq(t, `"two"`, string(raw))
}

func TestStoreDeleteSubtreeAndPrune(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	_, err := s.Post(ctx, "chats/x/messages", map[string]any{"content": "one"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "chats/x"))

	raw, err := s.Get(ctx, "chats/x/messages")
	require.NoError(t, err)
	assert.Nil(t, raw)

	raw, err = s.Get(ctx, "chats")
	require.NoError(t, err)
	assert.Nil(t, raw, "empty parents are pruned")
}

func TestStoreRejectsInvalidPath(t *testing.T) {
	s := memory.NewStore()

	err := s.Put(context.Background(), "sessions/../x", "v")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidPath)

	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "put", storeErr.Op)
}
