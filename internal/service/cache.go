package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const completionTTL = 24 * time.Hour

// CompletionCache keeps successful LLM completions in Redis. A nil client
// turns every call into a miss so the service runs without Redis.
type CompletionCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCompletionCache creates a cache with the default 24h expiry
func NewCompletionCache(client *redis.Client) *CompletionCache {
	return &CompletionCache{redis: client, ttl: completionTTL}
}

// CompletionKey derives the cache key for one feature call of a user
func CompletionKey(feature string, userID uuid.UUID, messages []Message) string {
	data, _ := json.Marshal(messages)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("ai:%s:%s:%s", feature, userID, hex.EncodeToString(sum[:12]))
}

// Get returns the cached completion for key and whether it was found
func (c *CompletionCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c == nil || c.redis == nil {
		return "", false, nil
	}
	data, err := c.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get completion from Redis: %w", err)
	}
	return data, true, nil
}

// Set stores a completion under key
func (c *CompletionCache) Set(ctx context.Context, key, content string) error {
	if c == nil || c.redis == nil {
		return nil
	}
	if err := c.redis.Set(ctx, key, content, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save completion to Redis: %w", err)
	}
	return nil
}
