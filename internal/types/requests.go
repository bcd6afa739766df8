package types

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Auth API types
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest accepts a username or an email as identifier
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// ProductRequest is the body of product create and update. ExpiryDate uses
// the YYYY-MM-DD layout.
type ProductRequest struct {
	Name        string   `json:"name" binding:"required"`
	Quantity    float64  `json:"quantity"`
	Unit        string   `json:"unit" binding:"required"`
	ExpiryDate  string   `json:"expiry_date" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	MinQuantity *float64 `json:"min_quantity"`
	IsShared    bool     `json:"is_shared"`
	Allergens   string   `json:"allergens"`
	Notes       string   `json:"notes"`
}

type WasteRequest struct {
	WastePercentage *float64 `json:"waste_percentage"`
}

// Shopping API types
type ShoppingListRequest struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description"`
	StoreName   string   `json:"store_name"`
	Budget      *float64 `json:"budget"`
	IsTemplate  bool     `json:"is_template"`
}

type ShoppingItemRequest struct {
	Name           string   `json:"name" binding:"required,max=100"`
	Quantity       float64  `json:"quantity"`
	Unit           string   `json:"unit"`
	Category       string   `json:"category"`
	Priority       string   `json:"priority" binding:"omitempty,oneof=low medium high"`
	EstimatedPrice *float64 `json:"estimated_price"`
	Notes          string   `json:"notes"`
}

type CompleteListRequest struct {
	ActualSpent *float64 `json:"actual_spent"`
}

// ProfileRequest is the nutritional profile form
type ProfileRequest struct {
	Age                 int        `json:"age"`
	Weight              float64    `json:"weight"`
	Height              float64    `json:"height"`
	Gender              string     `json:"gender"`
	ActivityLevel       string     `json:"activity_level"`
	Goal                string     `json:"goal"`
	DietaryRestrictions StringList `json:"dietary_restrictions"`
	Allergies           StringList `json:"allergies"`
}

// MealPlanRequest creates or updates a planned meal. When Ingredients is set
// it is stored as the structured ingredient document of the meal.
type MealPlanRequest struct {
	Date        string       `json:"date" binding:"required"`
	MealType    string       `json:"meal_type" binding:"required,oneof=breakfast lunch dinner snack"`
	CustomMeal  string       `json:"custom_meal"`
	Ingredients []Ingredient `json:"ingredients"`
	IsShared    bool         `json:"is_shared"`
	Calories    *float64     `json:"calories"`
	Protein     *float64     `json:"protein"`
	Carbs       *float64     `json:"carbs"`
	Fat         *float64     `json:"fat"`
	Fiber       *float64     `json:"fiber"`
	Servings    int          `json:"servings"`
}

type ToShoppingListRequest struct {
	ShoppingListID *uuid.UUID `json:"shopping_list_id"`
}

// Family API types
type FamilyRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type JoinFamilyRequest struct {
	FamilyCode string `json:"family_code" binding:"required"`
}

// AI API types
type ChatRequest struct {
	Message string `json:"message" binding:"required,max=1000"`
}

// StringList decodes a JSON array of strings or a single string holding a
// comma separated, newline separated or JSON encoded list
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = cleanList(list)
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = nil
		return nil
	}
	*l = ParseList(raw)
	return nil
}

// ParseList splits free text into trimmed non-empty entries
func ParseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	if strings.HasPrefix(raw, "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			return cleanList(list)
		}
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})
	return cleanList(parts)
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
