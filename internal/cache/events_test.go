package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spectacole/ticketctl/internal/model"
)

// Without a configured Redis client the cache must be a transparent
// no-op: always a miss, never a panic.
func TestEventsWithoutClient(t *testing.T) {
	ctx := context.Background()
	c := NewEvents(nil, zap.NewNop(), "ticketctl", 30*time.Second)

	events, ok := c.Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, events)

	c.Set(ctx, []model.Event{{ID: 1, Name: "Concert"}})
	c.Invalidate(ctx)

	_, ok = c.Get(ctx)
	assert.False(t, ok)
}

func TestEventsKeyIsPrefixed(t *testing.T) {
	c := NewEvents(nil, zap.NewNop(), "ticketctl", time.Second)
	assert.Equal(t, "ticketctl:events:offerable", c.key)
}
