package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// RateLimiter handles rate limiting using Redis. A limiter without a Redis
// client lets every request through.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
	}
}

// NewAIRateLimiter limits the AI endpoints to 30 requests per hour per user
func NewAIRateLimiter(redisClient *redis.Client) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    time.Hour,
		Limit:     30,
		KeyPrefix: "rate_limit:ai",
	})
}

// Enabled reports whether requests are actually counted
func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.redis != nil
}

// Config returns the limiter settings
func (rl *RateLimiter) Config() RateLimitConfig {
	return rl.config
}

// RateLimitMiddleware returns a Gin middleware that enforces rate limiting.
// It must run after AuthMiddleware.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Enabled() {
			c.Next()
			return
		}

		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}

		allowed, remaining, resetTime, err := rl.IsAllowed(c.Request.Context(), userID.String())
		if err != nil {
			// Log error but don't fail the request
			log.Printf("Rate limit check failed: %v", err)
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		// Set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":                "rate limit exceeded",
				"message":              fmt.Sprintf("You have exceeded the rate limit of %d requests per %v", rl.config.Limit, rl.config.Window),
				"rate_limit_remaining": remaining,
				"rate_limit_reset":     resetTime.Unix(),
				"retry_after":          int(time.Until(resetTime).Seconds()),
			})
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) key(userID string, windowStart time.Time) string {
	return fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, userID, windowStart.Unix())
}

// IsAllowed checks if a request from the given user is allowed
// Returns: allowed, remaining requests, reset time, error
func (rl *RateLimiter) IsAllowed(ctx context.Context, userID string) (bool, int, time.Time, error) {
	windowStart := time.Now().Truncate(rl.config.Window)
	key := rl.key(userID, windowStart)

	// Use Redis pipeline for atomic operations
	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.config.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(incrCmd.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	resetTime := windowStart.Add(rl.config.Window)
	return count <= rl.config.Limit, remaining, resetTime, nil
}

// GetRemainingRequests returns the number of remaining requests for a user
func (rl *RateLimiter) GetRemainingRequests(ctx context.Context, userID string) (int, time.Time, error) {
	windowStart := time.Now().Truncate(rl.config.Window)
	resetTime := windowStart.Add(rl.config.Window)
	if !rl.Enabled() {
		return rl.config.Limit, resetTime, nil
	}

	count, err := rl.redis.Get(ctx, rl.key(userID, windowStart)).Int()
	if errors.Is(err, redis.Nil) {
		// No requests yet in this window
		return rl.config.Limit, resetTime, nil
	}
	if err != nil {
		return 0, time.Time{}, err
	}

	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, resetTime, nil
}
