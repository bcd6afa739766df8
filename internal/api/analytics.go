package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodflow/backend/internal/service"
)

// AnalyticsHandler serves waste scores, the analytics dashboard and the
// weekly report
type AnalyticsHandler struct {
	analytics     *service.AnalyticsService
	notifications *service.NotificationService
}

func NewAnalyticsHandler(analytics *service.AnalyticsService, notifications *service.NotificationService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, notifications: notifications}
}

func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	analytics := router.Group("/analytics")
	{
		analytics.GET("", h.Comprehensive)
		analytics.GET("/waste-score", h.WasteScore)
		analytics.GET("/weekly", h.Weekly)
		analytics.POST("/weekly/export", h.Export)
	}
	router.GET("/notifications", h.Notifications)
}

// Comprehensive accepts ?days, 30 by default and at most 365
func (h *AnalyticsHandler) Comprehensive(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	days := queryInt(c, "days", 30)
	if days > 365 {
		days = 365
	}

	out, err := h.analytics.Comprehensive(c.Request.Context(), userID, days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) WasteScore(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	score, err := h.analytics.WasteScore(c.Request.Context(), userID, queryInt(c, "days", 30))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, score)
}

func (h *AnalyticsHandler) Weekly(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	report, err := h.analytics.WeeklyReport(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Export answers 503 when no object storage is configured
func (h *AnalyticsHandler) Export(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	export, err := h.analytics.ExportWeeklyReport(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, export)
}

func (h *AnalyticsHandler) Notifications(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	notifications, err := h.notifications.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}
