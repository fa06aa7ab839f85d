// Package cache keeps the offerable-event listing in Redis so
// repeated `view` invocations skip the database. Caching is strictly
// best-effort: a nil client or any Redis error degrades to a live
// query and is never surfaced to the user.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spectacole/ticketctl/internal/model"
)

// Events caches the offerable-event list under a single prefixed key
// with a TTL. Reservation and cancellation invalidate it so stale
// seat counts never outlive the mutation by more than one read.
type Events struct {
	client *redis.Client
	log    *zap.Logger
	key    string
	ttl    time.Duration
}

// NewEvents returns an Events cache. client may be nil, which
// disables caching entirely.
func NewEvents(client *redis.Client, log *zap.Logger, prefix string, ttl time.Duration) *Events {
	return &Events{client: client, log: log, key: prefix + ":events:offerable", ttl: ttl}
}

// Get returns the cached listing and true on a hit.
func (c *Events) Get(ctx context.Context) ([]model.Event, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("event cache read failed", zap.Error(err))
		return nil, false
	}
	var events []model.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		c.log.Warn("event cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return events, true
}

// Set stores the listing with the configured TTL.
func (c *Events) Set(ctx context.Context, events []model.Event) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(events)
	if err != nil {
		c.log.Warn("event cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("event cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached listing.
func (c *Events) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		c.log.Warn("event cache invalidation failed", zap.Error(err))
	}
}
