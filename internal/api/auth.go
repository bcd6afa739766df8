package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodflow/backend/internal/middleware"
	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/types"
)

// AuthHandler handles registration and sessions
type AuthHandler struct {
	authService   service.IAuthService
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler. secureCookies marks the session
// cookie Secure, which production deployments behind TLS want.
func NewAuthHandler(authService service.IAuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		secureCookies: secureCookies,
	}
}

// RegisterRoutes registers the auth routes
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", middleware.AuthMiddleware(h.authService), h.Me)
	}
}

func (h *AuthHandler) setSession(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", h.secureCookies, true)
}

// Register creates an account and opens a session
func (h *AuthHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSession(c, token, int(h.authService.SessionTTL().Seconds()))
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

// Login accepts a username or an email and opens a session
func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSession(c, token, int(h.authService.SessionTTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSession(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
