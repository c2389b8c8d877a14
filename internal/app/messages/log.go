// Package messages stores and reloads the per-session message logs.
package messages

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/PabloGalante/englishmaster/internal/app/remote"
	"github.com/PabloGalante/englishmaster/internal/domain"
	"github.com/PabloGalante/englishmaster/internal/observability"
)

// Log appends to and reads chats/{id}/messages.
type Log struct {
	remote  *remote.Client
	pending sync.WaitGroup
}

func NewLog(c *remote.Client) *Log {
	return &Log{remote: c}
}

func collectionPath(id domain.SessionID) string {
	return "chats/" + string(id) + "/messages"
}

// Append stores msg in the background. The caller never waits for, or learns
// about, the outcome.
func (l *Log) Append(ctx context.Context, id domain.SessionID, msg *domain.Message) {
	// The write belongs to the session, not to the request that triggered it.
	ctx = context.WithoutCancel(ctx)

	l.pending.Add(1)
	go func() {
		defer l.pending.Done()
		l.remote.Append(ctx, collectionPath(id), msg)
	}()
}

// Wait blocks until every pending append has finished.
func (l *Log) Wait() {
	l.pending.Wait()
}

// Load returns the session's messages in conversation order. A missing or
// failed read yields an empty history.
func (l *Log) Load(ctx context.Context, id domain.SessionID) []*domain.Message {
	out := []*domain.Message{}

	raw := l.remote.Read(ctx, collectionPath(id))
	if raw == nil {
		return out
	}

	log := observability.LoggerFromContext(ctx).With("session_id", id)

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Error("failed to decode message log", "error", err)
		return out
	}

	for key, entry := range entries {
		var m domain.Message
		if err := json.Unmarshal(entry, &m); err != nil {
			log.Warn("skipping undecodable message", "key", key, "error", err)
			continue
		}
		out = append(out, &m)
	}

	SortByTimestamp(out)
	return out
}

// SortByTimestamp orders msgs ascending by timestamp, ties broken by id.
func SortByTimestamp(msgs []*domain.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		}
		return msgs[i].ID < msgs[j].ID
	})
}
