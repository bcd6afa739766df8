package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/foodflow/backend/internal/app"
	"github.com/pageza/foodflow/backend/internal/middleware"
)

// RegisterRoutes mounts every endpoint on router. /auth and the health
// checks are public, everything else requires a session.
func RegisterRoutes(router *gin.Engine, a *app.App) {
	health := NewHealthHandler(a.DB, a.Redis)
	router.GET("/health", health.Health)

	apiGroup := router.Group("/api")
	apiGroup.GET("/health", health.Health)

	authHandler := NewAuthHandler(a.Auth, a.Config.Env.SecureCookies())
	authHandler.RegisterRoutes(apiGroup)

	protected := apiGroup.Group("", middleware.AuthMiddleware(a.Auth))

	NewPantryHandler(a.Pantry, a.Family).RegisterRoutes(protected)
	NewShoppingHandler(a.Shopping).RegisterRoutes(protected)
	NewGamificationHandler(a.Gamification).RegisterRoutes(protected)
	NewNutritionHandler(a.Nutrition).RegisterRoutes(protected)
	NewMealPlanHandler(a.MealPlans).RegisterRoutes(protected)
	NewFamilyHandler(a.Family).RegisterRoutes(protected)
	NewAnalyticsHandler(a.Analytics, a.Notifications).RegisterRoutes(protected)
	NewAIHandler(a.AI, middleware.NewAIRateLimiter(a.Redis)).RegisterRoutes(protected)
	NewDashboardHandler(a).RegisterRoutes(protected)
}
