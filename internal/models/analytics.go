package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WasteAnalytics is the per-day waste rollup of one user
type WasteAnalytics struct {
	Base
	UserID             uuid.UUID      `gorm:"type:varchar(36);not null;uniqueIndex:idx_waste_user_date" json:"user_id"`
	Date               time.Time      `gorm:"not null;uniqueIndex:idx_waste_user_date" json:"date"`
	ProductsWasted     int            `json:"products_wasted"`
	KgWasted           float64        `json:"kg_wasted"`
	EstimatedCost      float64        `json:"estimated_cost"`
	CategoryBreakdown  datatypes.JSON `json:"category_breakdown"`
	MostWastedCategory string         `gorm:"size:50" json:"most_wasted_category,omitempty"`
}

// ShoppingAnalytics is the per-day purchasing rollup of one user
type ShoppingAnalytics struct {
	Base
	UserID                uuid.UUID      `gorm:"type:varchar(36);not null;uniqueIndex:idx_shopping_user_date" json:"user_id"`
	Date                  time.Time      `gorm:"not null;uniqueIndex:idx_shopping_user_date" json:"date"`
	ItemsPurchased        int            `json:"items_purchased"`
	EstimatedCost         float64        `json:"estimated_cost"`
	CategoryBreakdown     datatypes.JSON `json:"category_breakdown"`
	AISuggestionsUsed     int            `json:"ai_suggestions_used"`
	MostPurchasedCategory string         `gorm:"size:50" json:"most_purchased_category,omitempty"`
	ShoppingFrequencyDays float64        `json:"shopping_frequency_days"`
}

// Breakdown decodes a category → amount JSON column; malformed data yields nil
func Breakdown(raw datatypes.JSON) map[string]float64 {
	if len(raw) == 0 {
		return nil
	}
	var out map[string]float64
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// BreakdownJSON encodes a category → amount map
func BreakdownJSON(m map[string]float64) datatypes.JSON {
	if m == nil {
		m = map[string]float64{}
	}
	data, _ := json.Marshal(m)
	return datatypes.JSON(data)
}

// All lists every model for migrations
func All() []interface{} {
	return []interface{}{
		&User{},
		&Family{},
		&FamilyMember{},
		&Product{},
		&ShoppingList{},
		&ShoppingItem{},
		&UserStats{},
		&Badge{},
		&UserBadge{},
		&RewardHistory{},
		&NutritionalProfile{},
		&NutritionalGoal{},
		&MealPlan{},
		&DailyNutrition{},
		&WasteAnalytics{},
		&ShoppingAnalytics{},
	}
}
