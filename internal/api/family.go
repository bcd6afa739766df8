package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/types"
)

// FamilyHandler handles family groups
type FamilyHandler struct {
	family *service.FamilyService
}

func NewFamilyHandler(family *service.FamilyService) *FamilyHandler {
	return &FamilyHandler{family: family}
}

func (h *FamilyHandler) RegisterRoutes(router *gin.RouterGroup) {
	family := router.Group("/family")
	{
		family.GET("", h.Get)
		family.POST("", h.Create)
		family.POST("/join", h.Join)
		family.POST("/leave", h.Leave)
		family.GET("/members/count", h.MemberCount)
	}
}

func (h *FamilyHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	family, err := h.family.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, family)
}

func (h *FamilyHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.FamilyRequest
	if !bindJSON(c, &req) {
		return
	}

	family, err := h.family.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, family)
}

func (h *FamilyHandler) Join(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.JoinFamilyRequest
	if !bindJSON(c, &req) {
		return
	}

	family, err := h.family.Join(c.Request.Context(), userID, req.FamilyCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, family)
}

func (h *FamilyHandler) Leave(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.family.Leave(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left family"})
}

// MemberCount answers 1 for users without a family
func (h *FamilyHandler) MemberCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := h.family.MemberCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
