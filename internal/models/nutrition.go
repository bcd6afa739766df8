package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NutritionalProfile struct {
	Base
	UserID              uuid.UUID      `gorm:"type:varchar(36);not null;uniqueIndex" json:"user_id"`
	Age                 int            `json:"age"`
	Weight              float64        `json:"weight"`
	Height              float64        `json:"height"`
	Gender              string         `gorm:"size:10" json:"gender"`
	ActivityLevel       string         `gorm:"size:20" json:"activity_level"`
	Goal                string         `gorm:"size:20" json:"goal"`
	DietaryRestrictions datatypes.JSON `json:"dietary_restrictions"`
	Allergies           datatypes.JSON `json:"allergies"`
}

// RestrictionList decodes DietaryRestrictions, ignoring malformed data
func (p *NutritionalProfile) RestrictionList() []string {
	return decodeStrings(p.DietaryRestrictions)
}

// AllergyList decodes Allergies, ignoring malformed data
func (p *NutritionalProfile) AllergyList() []string {
	return decodeStrings(p.Allergies)
}

// StringsJSON encodes values as a JSON array column
func StringsJSON(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	data, _ := json.Marshal(values)
	return datatypes.JSON(data)
}

func decodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

type NutritionalGoal struct {
	Base
	UserID        uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex" json:"user_id"`
	DailyCalories float64   `gorm:"not null" json:"daily_calories"`
	DailyProtein  float64   `gorm:"not null" json:"daily_protein"`
	DailyCarbs    float64   `gorm:"not null" json:"daily_carbs"`
	DailyFat      float64   `gorm:"not null" json:"daily_fat"`
	DailyFiber    float64   `gorm:"not null" json:"daily_fiber"`
}

// MealPlan is one planned meal. CustomMeal is either free text or a JSON
// document with an "ingredients" array.
type MealPlan struct {
	Base
	UserID     uuid.UUID `gorm:"type:varchar(36);not null;index:idx_meal_user_date" json:"user_id"`
	Date       time.Time `gorm:"not null;index:idx_meal_user_date" json:"date"`
	MealType   string    `gorm:"size:20;not null" json:"meal_type"`
	CustomMeal string    `gorm:"type:text" json:"custom_meal,omitempty"`
	IsShared   bool      `gorm:"index" json:"is_shared"`
	Calories   *float64  `json:"calories,omitempty"`
	Protein    *float64  `json:"protein,omitempty"`
	Carbs      *float64  `json:"carbs,omitempty"`
	Fat        *float64  `json:"fat,omitempty"`
	Fiber      *float64  `json:"fiber,omitempty"`
	Servings   int       `gorm:"default:2" json:"servings"`
}

// Daily goal defaults used when the user has no computed goals
const (
	DefaultCaloriesGoal = 2000.0
	DefaultProteinGoal  = 150.0
	DefaultCarbsGoal    = 250.0
	DefaultFatGoal      = 65.0
	DefaultFiberGoal    = 25.0
)

type DailyNutrition struct {
	Base
	UserID                   uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_daily_nutrition" json:"user_id"`
	Date                     time.Time `gorm:"not null;uniqueIndex:idx_daily_nutrition" json:"date"`
	CaloriesConsumed         float64   `json:"calories_consumed"`
	ProteinConsumed          float64   `json:"protein_consumed"`
	CarbsConsumed            float64   `json:"carbs_consumed"`
	FatConsumed              float64   `json:"fat_consumed"`
	FiberConsumed            float64   `json:"fiber_consumed"`
	CaloriesGoal             float64   `gorm:"default:2000" json:"calories_goal"`
	ProteinGoal              float64   `gorm:"default:150" json:"protein_goal"`
	CarbsGoal                float64   `gorm:"default:250" json:"carbs_goal"`
	FatGoal                  float64   `gorm:"default:65" json:"fat_goal"`
	FiberGoal                float64   `gorm:"default:25" json:"fiber_goal"`
	GoalCompletionPercentage float64   `json:"goal_completion_percentage"`
	ConsistencyScore         float64   `json:"consistency_score"`
	GoalAwarded              bool      `json:"goal_awarded"`
}
