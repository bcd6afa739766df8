package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/types"
)

// MealPlanHandler handles planned meals
type MealPlanHandler struct {
	meals *service.MealPlanService
}

func NewMealPlanHandler(meals *service.MealPlanService) *MealPlanHandler {
	return &MealPlanHandler{meals: meals}
}

func (h *MealPlanHandler) RegisterRoutes(router *gin.RouterGroup) {
	meals := router.Group("/meal-plans")
	{
		meals.GET("", h.List)
		meals.POST("", h.Create)
		meals.GET("/:id", h.Get)
		meals.PUT("/:id", h.Update)
		meals.DELETE("/:id", h.Delete)
		meals.GET("/:id/availability", h.Availability)
		meals.GET("/:id/nutrition", h.Nutrition)
		meals.POST("/:id/shopping-list", h.ToShoppingList)
		meals.POST("/:id/consume", h.Consume)
	}
}

// List returns meals between ?from and ?to, the next 7 days by default
func (h *MealPlanHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	today := models.DateOnly(time.Now())
	from, ok := queryDate(c, "from", today)
	if !ok {
		return
	}
	to, ok := queryDate(c, "to", today.AddDate(0, 0, 6))
	if !ok {
		return
	}

	meals, err := h.meals.List(c.Request.Context(), userID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal_plans": meals})
}

func (h *MealPlanHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.MealPlanRequest
	if !bindJSON(c, &req) {
		return
	}

	meal, award, err := h.meals.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"meal_plan": meal, "award": award})
}

func (h *MealPlanHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	mealID, ok := pathID(c, "id")
	if !ok {
		return
	}

	meal, err := h.meals.Get(c.Request.Context(), userID, mealID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (h *MealPlanHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	mealID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.MealPlanRequest
	if !bindJSON(c, &req) {
		return
	}

	meal, err := h.meals.Update(c.Request.Context(), userID, mealID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (h *MealPlanHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	mealID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.meals.Delete(c.Request.Context(), userID, mealID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "meal plan deleted"})
}

func (h *MealPlanHandler) Availability(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	mealID, ok := pathID(c, "id")
	if !ok {
		return
	}

	availability, err := h.meals.Availability(c.Request.Context(), userID, mealID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

func (h *MealPlanHandler) Nutrition(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	mealID, ok := pathID(c, "id")
	if !ok {
		return
	}

	meal, err := h.meals.Get(c.Request.Context(), userID, mealID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.AnalyzeNutrition(meal))
}

// ToShoppingList writes the missing ingredients into the list named in the
// body, or the newest open list
func (h *MealPlanHandler) ToShoppingList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	mealID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req types.ToShoppingListRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req) {
			return
		}
	}

	result, err := h.meals.ToShoppingList(c.Request.Context(), userID, mealID, req.ShoppingListID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Consume subtracts the meal's ingredients from the pantry
func (h *MealPlanHandler) Consume(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	mealID, ok := pathID(c, "id")
	if !ok {
		return
	}

	used, err := h.meals.Consume(c.Request.Context(), userID, mealID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"consumed": used})
}
