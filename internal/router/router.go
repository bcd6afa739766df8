package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/foodflow/backend/internal/api"
	"github.com/pageza/foodflow/backend/internal/app"
	"github.com/pageza/foodflow/backend/internal/middleware"
)

// SetupRouter builds the engine with logging, panic recovery, CORS and
// every route of the application
func SetupRouter(a *app.App) *gin.Engine {
	if mode := a.Config.Env.GinMode(); mode != "" {
		gin.SetMode(mode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(a.Config.CORSOrigins))

	api.RegisterRoutes(router, a)

	return router
}
