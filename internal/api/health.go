package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodflow/backend/internal/database"
)

// HealthHandler reports the state of the database and Redis
type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewHealthHandler(db *gorm.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// Health answers 200 while the database responds. Redis is optional and
// only reported.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":    "ok",
		"database":  "ok",
		"redis":     "disabled",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := database.HealthCheck(ctx, h.db); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
		body["database"] = err.Error()
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			body["redis"] = err.Error()
		} else {
			body["redis"] = "ok"
		}
	}

	c.JSON(status, body)
}
