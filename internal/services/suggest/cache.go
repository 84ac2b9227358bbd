package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

// DefaultCacheTTL bounds how long computed suggestions stay around.
// Suggestions are ephemeral session data, not durable state.
const DefaultCacheTTL = 30 * time.Minute

const cacheKeyPrefix = "suggestions:"

// Cache holds each user's latest suggestion batch in Redis. The worker
// writes it after a sync job; the API reads it until it expires.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a suggestion cache. A zero ttl uses the default.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Put stores a user's suggestion batch, replacing any previous one
func (c *Cache) Put(ctx context.Context, userID uuid.UUID, suggestions []models.SuggestedTask) error {
	payload, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+userID.String(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache suggestions: %w", err)
	}
	return nil
}

// Get returns a user's cached suggestions. found is false when no batch is
// cached or the previous one expired.
func (c *Cache) Get(ctx context.Context, userID uuid.UUID) ([]models.SuggestedTask, bool, error) {
	payload, err := c.client.Get(ctx, cacheKeyPrefix+userID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached suggestions: %w", err)
	}

	var suggestions []models.SuggestedTask
	if err := json.Unmarshal(payload, &suggestions); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached suggestions: %w", err)
	}
	return suggestions, true, nil
}

// Drop removes a user's cached batch, typically after accept or dismiss
func (c *Cache) Drop(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, cacheKeyPrefix+userID.String()).Err(); err != nil {
		return fmt.Errorf("failed to drop cached suggestions: %w", err)
	}
	return nil
}
