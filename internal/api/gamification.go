package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodflow/backend/internal/service"
)

// GamificationHandler exposes points, badges and the leaderboard
type GamificationHandler struct {
	gamification *service.GamificationService
}

func NewGamificationHandler(gamification *service.GamificationService) *GamificationHandler {
	return &GamificationHandler{gamification: gamification}
}

func (h *GamificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	gamification := router.Group("/gamification")
	{
		gamification.GET("/stats", h.Stats)
		gamification.GET("/badges", h.Badges)
		gamification.GET("/leaderboard", h.Leaderboard)
	}
}

func (h *GamificationHandler) Stats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.gamification.GetStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *GamificationHandler) Badges(c *gin.Context) {
	badges, err := h.gamification.ListBadges(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

// Leaderboard accepts ?metric=points|waste_reduction|products_added,
// ?timeframe=week|month|all and ?limit
func (h *GamificationHandler) Leaderboard(c *gin.Context) {
	metric := c.DefaultQuery("metric", "points")
	timeframe := c.DefaultQuery("timeframe", "all")
	limit := queryInt(c, "limit", 10)
	if limit > 100 {
		limit = 100
	}

	entries, err := h.gamification.Leaderboard(c.Request.Context(), metric, timeframe, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"metric":      metric,
		"timeframe":   timeframe,
		"leaderboard": entries,
	})
}
