package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodflow/backend/internal/app"
	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/service"
)

// DashboardHandler aggregates the home screen of a user
type DashboardHandler struct {
	app *app.App
}

func NewDashboardHandler(a *app.App) *DashboardHandler {
	return &DashboardHandler{app: a}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard", h.GetDashboard)
}

// Dashboard is the home screen payload
type Dashboard struct {
	Expiring      []models.Product       `json:"expiring"`
	LowStock      []models.Product       `json:"low_stock"`
	Stats         *service.StatsSummary  `json:"stats"`
	WasteScore    *service.WasteScore    `json:"waste_score"`
	Notifications []service.Notification `json:"notifications"`
	OpenLists     []models.ShoppingList  `json:"open_lists"`
}

// GetDashboard returns the products expiring this week, low stock, points,
// waste score, notifications and open shopping lists
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var dashboard Dashboard
	var err error

	if dashboard.Expiring, err = h.app.Pantry.Expiring(ctx, userID, 7); err != nil {
		respondError(c, err)
		return
	}
	if dashboard.LowStock, err = h.app.Pantry.LowStock(ctx, userID); err != nil {
		respondError(c, err)
		return
	}
	if dashboard.Stats, err = h.app.Gamification.GetStats(ctx, userID); err != nil {
		respondError(c, err)
		return
	}
	if dashboard.WasteScore, err = h.app.Analytics.WasteScore(ctx, userID, 30); err != nil {
		respondError(c, err)
		return
	}
	if dashboard.Notifications, err = h.app.Notifications.List(ctx, userID); err != nil {
		respondError(c, err)
		return
	}
	if dashboard.OpenLists, err = h.app.Shopping.Lists(ctx, userID, false); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
