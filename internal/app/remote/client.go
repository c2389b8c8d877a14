// Package remote wraps a document store so that persistence failures never
// reach the caller: every error is logged and replaced by a safe default.
package remote

import (
	"context"
	"encoding/json"

	"github.com/PabloGalante/englishmaster/internal/domain"
	"github.com/PabloGalante/englishmaster/internal/metrics"
	"github.com/PabloGalante/englishmaster/internal/observability"
)

// Client issues read/write/append/delete calls against a path-addressed store.
// Callers must not assume that a write succeeded.
type Client struct {
	store   domain.DocumentStore
	metrics *metrics.Collector
}

// NewClient creates a Client. m may be nil.
func NewClient(store domain.DocumentStore, m *metrics.Collector) *Client {
	return &Client{store: store, metrics: m}
}

// Read returns the JSON at path, or nil when it is missing or the read failed.
func (c *Client) Read(ctx context.Context, path string) json.RawMessage {
	done := c.metrics.Track(metrics.OpStoreRead)
	raw, err := c.store.Get(ctx, path)
	done(err)

	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to read from store", "path", path, "error", err)
		return nil
	}
	return raw
}

// Write replaces the value at path.
func (c *Client) Write(ctx context.Context, path string, value any) {
	done := c.metrics.Track(metrics.OpStoreWrite)
	err := c.store.Put(ctx, path, value)
	done(err)

	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to write to store", "path", path, "error", err)
	}
}

// Append adds value under a generated key and returns it, or "" on failure.
func (c *Client) Append(ctx context.Context, path string, value any) string {
	done := c.metrics.Track(metrics.OpStoreAppend)
	key, err := c.store.Post(ctx, path, value)
	done(err)

	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to append to store", "path", path, "error", err)
		return ""
	}
	return key
}

// Delete removes path and everything below it. A failure is logged and also
// returned so a caller fanning out several deletes can report it.
func (c *Client) Delete(ctx context.Context, path string) error {
	done := c.metrics.Track(metrics.OpStoreDelete)
	err := c.store.Delete(ctx, path)
	done(err)

	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to delete from store", "path", path, "error", err)
	}
	return err
}
