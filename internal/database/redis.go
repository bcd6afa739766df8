package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pageza/foodflow/backend/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to REDIS_URL. Redis is optional: with no URL it
// returns a nil client and the AI cache and rate limiter are disabled.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		log.Printf("REDIS_URL not set, AI cache and rate limiting disabled")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("Successfully connected to Redis at %s", opts.Addr)
	return client, nil
}
