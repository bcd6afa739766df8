package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodflow/backend/internal/middleware"
	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/types"
)

// AIHandler serves the assistant features. Every endpoint answers 200 with
// either model output or the deterministic fallback, marked by "source".
type AIHandler struct {
	ai      service.IAIService
	limiter *middleware.RateLimiter
}

func NewAIHandler(ai service.IAIService, limiter *middleware.RateLimiter) *AIHandler {
	return &AIHandler{ai: ai, limiter: limiter}
}

// RegisterRoutes registers the AI routes. Everything but the quota status
// counts against the hourly limit.
func (h *AIHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ai/rate-limit", h.RateLimitStatus)

	ai := router.Group("/ai", h.limiter.RateLimitMiddleware())
	{
		ai.GET("/recipes", h.Recipes)
		ai.GET("/meal-plan", h.MealPlan)
		ai.GET("/shopping-suggestions", h.ShoppingSuggestions)
		ai.GET("/recycling", h.Recycling)
		ai.POST("/chat", h.Chat)
	}
}

// Recipes returns recipes from the whole pantry and recipes built on what
// expires this week. Accepts ?max and ?servings.
func (h *AIHandler) Recipes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	ingredients := h.ai.SuggestRecipes(ctx, userID, queryInt(c, "max", 5), queryInt(c, "servings", 0))
	expiring := h.ai.ExpiringRecipes(ctx, userID, 3)
	c.JSON(http.StatusOK, gin.H{
		"ingredients_based": ingredients,
		"expiring_based":    expiring,
	})
}

func (h *AIHandler) MealPlan(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.ai.PlanMeals(c.Request.Context(), userID, queryInt(c, "days", 7)))
}

func (h *AIHandler) ShoppingSuggestions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.ai.SuggestShopping(c.Request.Context(), userID))
}

func (h *AIHandler) Recycling(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.ai.RecyclingIdeas(c.Request.Context(), userID))
}

func (h *AIHandler) Chat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.ai.Chat(c.Request.Context(), userID, req.Message))
}

// RateLimitStatus reports the remaining AI requests of the current window
func (h *AIHandler) RateLimitStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	cfg := h.limiter.Config()
	remaining, resetTime, err := h.limiter.GetRemainingRequests(c.Request.Context(), userID.String())
	if err != nil {
		log.Printf("Failed to read AI rate limit for user %s: %v", userID, err)
		remaining = cfg.Limit
	}

	c.JSON(http.StatusOK, gin.H{
		"enabled":    h.limiter.Enabled(),
		"limit":      cfg.Limit,
		"remaining":  remaining,
		"reset_time": resetTime.Unix(),
		"window":     cfg.Window.String(),
	})
}
