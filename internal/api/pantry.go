package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/types"
)

// PantryHandler handles the product endpoints
type PantryHandler struct {
	pantry *service.PantryService
	family *service.FamilyService
}

func NewPantryHandler(pantry *service.PantryService, family *service.FamilyService) *PantryHandler {
	return &PantryHandler{pantry: pantry, family: family}
}

// RegisterRoutes registers the pantry routes on an authenticated group
func (h *PantryHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.GET("", h.List)
		products.POST("", h.Add)
		products.GET("/expiring", h.Expiring)
		products.GET("/low-stock", h.LowStock)
		products.GET("/by-category", h.ByCategory)
		products.GET("/shared", h.Shared)
		products.GET("/:id", h.Get)
		products.PUT("/:id", h.Update)
		products.DELETE("/:id", h.Delete)
		products.POST("/:id/waste", h.Waste)
		products.POST("/:id/recycle", h.Recycle)
	}
}

func (h *PantryHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	products, err := h.pantry.List(c.Request.Context(), userID, service.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *PantryHandler) Add(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.pantry.Add(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *PantryHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.pantry.Get(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *PantryHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.pantry.Update(c.Request.Context(), userID, productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *PantryHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.pantry.Delete(c.Request.Context(), userID, productID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// Waste records a thrown away share of a product. The body is optional and
// defaults to the whole product.
func (h *PantryHandler) Waste(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	pct := 100.0
	var req types.WasteRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req) {
			return
		}
		if req.WastePercentage != nil {
			pct = *req.WastePercentage
		}
	}

	product, award, err := h.pantry.Waste(c.Request.Context(), userID, productID, pct)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product, "award": award})
}

func (h *PantryHandler) Recycle(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	award, err := h.pantry.Recycle(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product recycled", "award": award})
}

func (h *PantryHandler) Expiring(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	days := queryInt(c, "days", 7)
	products, err := h.pantry.Expiring(c.Request.Context(), userID, days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "days": days})
}

func (h *PantryHandler) LowStock(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	products, err := h.pantry.LowStock(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *PantryHandler) ByCategory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	grouped, err := h.pantry.ByCategory(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": grouped})
}

// Shared lists the products family members share with the user
func (h *PantryHandler) Shared(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	products, err := h.family.SharedProducts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}
