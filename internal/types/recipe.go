package types

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexFloat accepts a JSON number, a numeric string ("1,5" included) or null.
// Anything unparseable decodes to 0 instead of failing the whole document.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexFloat(num)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		str = strings.ReplaceAll(strings.TrimSpace(str), ",", ".")
		if v, err := strconv.ParseFloat(str, 64); err == nil {
			*f = FlexFloat(v)
			return nil
		}
	}

	*f = 0
	return nil
}

// FlexInt accepts a JSON number or a string starting with digits ("4 persone")
type FlexInt int

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*i = FlexInt(int(num))
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		str = strings.TrimSpace(str)
		end := 0
		for end < len(str) && str[end] >= '0' && str[end] <= '9' {
			end++
		}
		if v, err := strconv.Atoi(str[:end]); err == nil {
			*i = FlexInt(v)
			return nil
		}
	}

	*i = 0
	return nil
}

// Ingredient is one line of a recipe
type Ingredient struct {
	Item     string    `json:"item"`
	Quantity FlexFloat `json:"quantity"`
	Unit     string    `json:"unit"`
}

// Macros holds calories and macronutrients in grams
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

type NutritionalInfo struct {
	PerServing Macros `json:"per_serving"`
}

// Recipe is a suggested recipe, AI generated or produced by the fallback
type Recipe struct {
	Name            string           `json:"name"`
	Ingredients     []Ingredient     `json:"ingredients"`
	Instructions    []string         `json:"instructions"`
	PrepTime        FlexInt          `json:"prep_time"`
	CookingTime     FlexInt          `json:"cooking_time"`
	Difficulty      string           `json:"difficulty"`
	Servings        FlexInt          `json:"servings"`
	NutritionalInfo *NutritionalInfo `json:"nutritional_info,omitempty"`
	DietaryTags     []string         `json:"dietary_tags"`
	Tips            []string         `json:"tips"`
}
