// Package sessions keeps the session metadata records: the list shown to the
// user, the title derived from the first message, and deletion.
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PabloGalante/englishmaster/internal/app/remote"
	"github.com/PabloGalante/englishmaster/internal/domain"
	"github.com/PabloGalante/englishmaster/internal/observability"
)

const (
	collectionPath = "sessions"
	titleMaxRunes  = 30
	titleEllipsis  = "..."
)

// Directory is the only writer of session records.
type Directory struct {
	remote *remote.Client
	now    func() time.Time
}

func NewDirectory(c *remote.Client) *Directory {
	return &Directory{remote: c, now: time.Now}
}

// RecordPath returns the store path of a session record.
func RecordPath(id domain.SessionID) string {
	return collectionPath + "/" + string(id)
}

// LogPath returns the store path holding a session's message log.
func LogPath(id domain.SessionID) string {
	return "chats/" + string(id)
}

// Title derives a session title from its first message.
func Title(text string) string {
	runes := []rune(text)
	if len(runes) <= titleMaxRunes {
		return text
	}
	return string(runes[:titleMaxRunes]) + titleEllipsis
}

// List returns all sessions, most recently active first. A missing or
// unreadable collection yields an empty list.
func (d *Directory) List(ctx context.Context) []*domain.Session {
	log := observability.LoggerFromContext(ctx)

	raw := d.remote.Read(ctx, collectionPath)
	if raw == nil {
		return []*domain.Session{}
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Error("failed to decode sessions", "error", err)
		return []*domain.Session{}
	}

	out := make([]*domain.Session, 0, len(entries))
	for key, entry := range entries {
		var s domain.Session
		if err := json.Unmarshal(entry, &s); err != nil {
			log.Warn("skipping undecodable session", "key", key, "error", err)
			continue
		}
		if s.ID == "" {
			s.ID = domain.SessionID(key)
		}
		out = append(out, &s)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActivity.Equal(out[j].LastActivity) {
			return out[i].LastActivity.After(out[j].LastActivity)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get returns the session record for id, or nil when there is none.
func (d *Directory) Get(ctx context.Context, id domain.SessionID) *domain.Session {
	raw := d.remote.Read(ctx, RecordPath(id))
	if raw == nil {
		return nil
	}

	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		observability.LoggerFromContext(ctx).Warn("undecodable session record", "session_id", id, "error", err)
		return nil
	}
	return &s
}

// RecordFirstMessage writes the session record for id, titled after text.
// It overwrites any existing record.
func (d *Directory) RecordFirstMessage(ctx context.Context, id domain.SessionID, text string) *domain.Session {
	s := &domain.Session{
		ID:           id,
		Title:        Title(text),
		LastActivity: d.now(),
	}
	d.remote.Write(ctx, RecordPath(id), s)

	observability.LoggerFromContext(ctx).Info("session recorded", "session_id", id, "title", s.Title)
	return s
}

// Delete removes the session record and its message log. The two deletes run
// concurrently and independently; a log may outlive its record if one fails.
// The first failure is returned.
func (d *Directory) Delete(ctx context.Context, id domain.SessionID) error {
	var g errgroup.Group
	g.Go(func() error {
		return d.remote.Delete(ctx, RecordPath(id))
	})
	g.Go(func() error {
		return d.remote.Delete(ctx, LogPath(id))
	})

	log := observability.LoggerFromContext(ctx)
	if err := g.Wait(); err != nil {
		log.Warn("session only partially deleted", "session_id", id, "error", err)
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	log.Info("session deleted", "session_id", id)
	return nil
}
