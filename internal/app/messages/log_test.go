package messages_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/englishmaster/internal/adapters/storage/memory"
	"github.com/PabloGalante/englishmaster/internal/app/messages"
	"github.com/PabloGalante/englishmaster/internal/app/remote"
	"github.com/PabloGalante/englishmaster/internal/domain"
)

func msg(id string, role domain.Role, content string, ts time.Time) *domain.Message {
	return &domain.Message{ID: domain.MessageID(id), Role: role, Content: content, Timestamp: ts}
}

func TestAppendThenLoad(t *testing.T) {
	ctx := context.Background()
	log := messages.NewLog(remote.NewClient(memory.NewStore(), nil))
	id := domain.NewSessionID()

	now := time.UnixMilli(1_700_000_000_000)
	formal := domain.StyleFormal
	reply := msg("m2", domain.RoleAssistant, "Good morning", now.Add(time.Second))
	reply.Translation = &domain.TranslationResult{OriginalText: "Selamat pagi", TranslatedText: "Good morning"}
	reply.Style = &formal

	log.Append(ctx, id, msg("m1", domain.RoleUser, "Selamat pagi", now))
	log.Append(ctx, id, reply)
	log.Wait()

	history := log.Load(ctx, id)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "Selamat pagi", history[0].Content)
	assert.Nil(t, history[0].Translation)

	assert.Equal(t, domain.RoleAssistant, history[1].Role)
	require.NotNil(t, history[1].Translation)
	assert.Equal(t, "Good morning", history[1].Translation.TranslatedText)
	require.NotNil(t, history[1].Style)
	assert.Equal(t, domain.StyleFormal, *history[1].Style)
	assert.True(t, history[1].Timestamp.Equal(now.Add(time.Second)))
}

func TestLoadSortsRegardlessOfStorageOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	log := messages.NewLog(remote.NewClient(store, nil))
	id := domain.SessionID("s1")

	base := time.UnixMilli(1_700_000_000_000)
	// keys sort opposite to timestamps
	require.NoError(t, store.Put(ctx, "chats/s1/messages/a", msg("x3", domain.RoleAssistant, "third", base.Add(2*time.Second))))
	require.NoError(t, store.Put(ctx, "chats/s1/messages/b", msg("x2", domain.RoleUser, "second", base.Add(time.Second))))
	require.NoError(t, store.Put(ctx, "chats/s1/messages/c", msg("x1", domain.RoleUser, "first", base)))

	history := log.Load(ctx, id)
	require.Len(t, history, 3)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[1].Content)
	assert.Equal(t, "third", history[2].Content)
}

func TestLoadMissingLog(t *testing.T) {
	log := messages.NewLog(remote.NewClient(memory.NewStore(), nil))

	history := log.Load(context.Background(), "nobody")
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestSortByTimestampBreaksTiesByID(t *testing.T) {
	ts := time.UnixMilli(5)
	msgs := []*domain.Message{
		msg("b", domain.RoleUser, "", ts),
		msg("a", domain.RoleUser, "", ts),
	}

	messages.SortByTimestamp(msgs)
	assert.Equal(t, domain.MessageID("a"), msgs[0].ID)
}
