package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/types"
)

// ShoppingHandler handles shopping list requests
type ShoppingHandler struct {
	shopping *service.ShoppingService
}

func NewShoppingHandler(shopping *service.ShoppingService) *ShoppingHandler {
	return &ShoppingHandler{shopping: shopping}
}

// RegisterRoutes registers the shopping routes
func (h *ShoppingHandler) RegisterRoutes(router *gin.RouterGroup) {
	lists := router.Group("/shopping-lists")
	{
		lists.GET("", h.Lists)
		lists.POST("", h.CreateList)
		lists.GET("/smart", h.SmartList)
		lists.POST("/smart", h.CreateSmartList)
		lists.GET("/suggestions", h.Suggestions)
		lists.GET("/frequency", h.Frequency)
		lists.GET("/:id", h.GetList)
		lists.PUT("/:id", h.UpdateList)
		lists.DELETE("/:id", h.DeleteList)
		lists.POST("/:id/items", h.AddItem)
		lists.POST("/:id/complete", h.CompleteList)
	}

	items := router.Group("/shopping-items")
	{
		items.PATCH("/:id/toggle", h.ToggleItem)
		items.DELETE("/:id", h.DeleteItem)
	}
}

// listView adds the derived figures of a list to its JSON form
type listView struct {
	*models.ShoppingList
	Progress       float64 `json:"progress"`
	EstimatedTotal float64 `json:"estimated_total"`
	OverBudget     bool    `json:"over_budget"`
}

func newListView(list *models.ShoppingList) listView {
	return listView{
		ShoppingList:   list,
		Progress:       list.Progress(),
		EstimatedTotal: list.EstimatedTotal(),
		OverBudget:     list.IsOverBudget(),
	}
}

// Lists returns the open lists, completed ones too with ?completed=true
func (h *ShoppingHandler) Lists(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	lists, err := h.shopping.Lists(c.Request.Context(), userID, c.Query("completed") == "true")
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]listView, 0, len(lists))
	for i := range lists {
		views = append(views, newListView(&lists[i]))
	}
	c.JSON(http.StatusOK, gin.H{"lists": views})
}

func (h *ShoppingHandler) CreateList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.ShoppingListRequest
	if !bindJSON(c, &req) {
		return
	}

	list, award, err := h.shopping.CreateList(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"list": newListView(list), "award": award})
}

func (h *ShoppingHandler) GetList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}

	list, err := h.shopping.GetList(c.Request.Context(), userID, listID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListView(list))
}

func (h *ShoppingHandler) UpdateList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.ShoppingListRequest
	if !bindJSON(c, &req) {
		return
	}

	list, err := h.shopping.UpdateList(c.Request.Context(), userID, listID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListView(list))
}

func (h *ShoppingHandler) DeleteList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.shopping.DeleteList(c.Request.Context(), userID, listID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "shopping list deleted"})
}

// AddItem answers 201 for a new item and 200 when it merged into an
// existing one
func (h *ShoppingHandler) AddItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.ShoppingItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, merged, err := h.shopping.AddItem(c.Request.Context(), userID, listID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if merged {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"item": item, "merged": merged})
}

func (h *ShoppingHandler) ToggleItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}

	item, err := h.shopping.ToggleItem(c.Request.Context(), userID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ShoppingHandler) DeleteItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.shopping.DeleteItem(c.Request.Context(), userID, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item deleted"})
}

// CompleteList moves the completed items of a list into the pantry
func (h *ShoppingHandler) CompleteList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req types.CompleteListRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req) {
			return
		}
	}

	result, err := h.shopping.CompleteList(c.Request.Context(), userID, listID, req.ActualSpent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ShoppingHandler) SmartList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := h.shopping.SmartList(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ShoppingHandler) CreateSmartList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := h.shopping.CreateSmartList(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newListView(list))
}

func (h *ShoppingHandler) Suggestions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.shopping.SuggestFromPantry(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": items})
}

// Frequency returns the average days between completed lists, null with
// fewer than two completions
func (h *ShoppingHandler) Frequency(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	days, err := h.shopping.Frequency(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"average_days": days})
}
