package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/types"
)

// NutritionHandler handles the nutritional profile and the daily log
type NutritionHandler struct {
	nutrition *service.NutritionService
}

func NewNutritionHandler(nutrition *service.NutritionService) *NutritionHandler {
	return &NutritionHandler{nutrition: nutrition}
}

func (h *NutritionHandler) RegisterRoutes(router *gin.RouterGroup) {
	nutrition := router.Group("/nutrition")
	{
		nutrition.GET("/profile", h.GetProfile)
		nutrition.PUT("/profile", h.SaveProfile)
		nutrition.GET("/daily", h.DailyLog)
		nutrition.POST("/daily/recompute", h.Recompute)
	}
}

func (h *NutritionHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	profile, goal, err := h.nutrition.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile, "goal": goal})
}

// SaveProfile stores the profile and answers with the recomputed targets
func (h *NutritionHandler) SaveProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.ProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, goals, err := h.nutrition.SaveProfile(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile, "goals": goals})
}

// DailyLog returns the log between ?from and ?to, the last 7 days by default
func (h *NutritionHandler) DailyLog(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	today := models.DateOnly(time.Now())
	from, ok := queryDate(c, "from", today.AddDate(0, 0, -6))
	if !ok {
		return
	}
	to, ok := queryDate(c, "to", today)
	if !ok {
		return
	}

	rows, err := h.nutrition.DailyLog(c.Request.Context(), userID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"from": from.Format(service.DateLayout),
		"to":   to.Format(service.DateLayout),
		"days": rows,
	})
}

// Recompute rebuilds the log of ?date, today by default
func (h *NutritionHandler) Recompute(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	date, ok := queryDate(c, "date", models.DateOnly(time.Now()))
	if !ok {
		return
	}

	daily, award, err := h.nutrition.RecomputeDaily(c.Request.Context(), userID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"daily": daily, "award": award})
}
