package types

// Source tells where an AI-backed result came from
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
	SourceCache    Source = "cache"
)

// RecipeList is the result of a recipe suggestion request
type RecipeList struct {
	Recipes []Recipe `json:"recipes"`
	Source  Source   `json:"source"`
}

// PlannedMeal is one slot of a generated meal plan
type PlannedMeal struct {
	Meal        string   `json:"meal"`
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients,omitempty"`
	Calories    FlexInt  `json:"calories,omitempty"`
}

// MealPlanByDay maps a weekday (monday..sunday) to its meals
type MealPlanByDay struct {
	Days   map[string][]PlannedMeal `json:"meal_plan"`
	Source Source                   `json:"source"`
}

// Suggestion is a shopping or recycling suggestion
type Suggestion struct {
	Name     string    `json:"name"`
	Quantity FlexFloat `json:"quantity,omitempty"`
	Unit     string    `json:"unit,omitempty"`
	Category string    `json:"category,omitempty"`
	Priority string    `json:"priority,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}

// SuggestionList is the result of shopping and recycling suggestion requests
type SuggestionList struct {
	Suggestions []Suggestion `json:"suggestions"`
	Source      Source       `json:"source"`
}

// ChatReply is the assistant answer to a chat message
type ChatReply struct {
	Response    string                 `json:"response"`
	Type        string                 `json:"type"`
	Suggestions []string               `json:"suggestions"`
	Data        map[string]interface{} `json:"data,omitempty"`
	Source      Source                 `json:"source"`
}
