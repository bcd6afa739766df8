// Package units normalizes ingredient units and rescales recipes.
//
// Every quantity is reduced to one of the canonical units g, ml or pz before
// comparison. kg and l are canonical names too, but ToCanonical folds them
// into g and ml.
package units

import (
	"math"
	"strings"

	"github.com/pageza/foodflow/backend/internal/types"
)

const (
	Gram       = "g"
	Kilogram   = "kg"
	Millilitre = "ml"
	Litre      = "l"
	Piece      = "pz"
)

var aliases = map[string]string{
	"g":           Gram,
	"gr":          Gram,
	"grammo":      Gram,
	"grammi":      Gram,
	"kg":          Kilogram,
	"chilo":       Kilogram,
	"chilogrammo": Kilogram,
	"chilogrammi": Kilogram,
	"ml":          Millilitre,
	"millilitro":  Millilitre,
	"millilitri":  Millilitre,
	"l":           Litre,
	"lt":          Litre,
	"litro":       Litre,
	"litri":       Litre,
	"pz":          Piece,
	"pezzo":       Piece,
	"pezzi":       Piece,
	"unit":        Piece,
	"unita":       Piece,
	"unità":       Piece,
}

// millilitres per spoon measure
var spoons = map[string]float64{
	"cucchiaino":   5,
	"cucchiaini":   5,
	"cucchiaino/i": 5,
	"tsp":          5,
	"cucchiaio":    15,
	"cucchiai":     15,
	"cucchiaio/i":  15,
	"tbsp":         15,
}

// Normalize maps a unit alias to its canonical name. Spoon measures keep their
// own lowercase name and unknown units are returned trimmed and lowercased.
func Normalize(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if canon, ok := aliases[u]; ok {
		return canon
	}
	return u
}

// ToCanonical converts a quantity into g, ml or pz where a conversion is known
func ToCanonical(quantity float64, unit string) (float64, string) {
	u := Normalize(unit)
	if ml, ok := spoons[u]; ok {
		return quantity * ml, Millilitre
	}
	switch u {
	case Kilogram:
		return quantity * 1000, Gram
	case Litre:
		return quantity * 1000, Millilitre
	}
	return quantity, u
}

// Convert expresses quantity in unit to. Only identity, g↔kg and ml↔l are
// supported; anything else reports false.
func Convert(quantity float64, from, to string) (float64, bool) {
	from, to = Normalize(from), Normalize(to)
	switch {
	case from == to:
		return quantity, true
	case from == Kilogram && to == Gram, from == Litre && to == Millilitre:
		return quantity * 1000, true
	case from == Gram && to == Kilogram, from == Millilitre && to == Litre:
		return quantity / 1000, true
	}
	return 0, false
}

// Round2 rounds to two decimals
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ScaleRecipe rescales every ingredient to target servings. Both the current
// and the target servings are clamped to at least 1.
func ScaleRecipe(recipe *types.Recipe, target int) {
	servings := int(recipe.Servings)
	if servings < 1 {
		servings = 1
	}
	if target < 1 {
		target = 1
	}
	if target == servings {
		recipe.Servings = types.FlexInt(servings)
		return
	}

	ratio := float64(target) / float64(servings)
	for i := range recipe.Ingredients {
		q := float64(recipe.Ingredients[i].Quantity)
		recipe.Ingredients[i].Quantity = types.FlexFloat(Round2(q * ratio))
	}
	recipe.Servings = types.FlexInt(target)
}

// NormalizeRecipe rewrites every ingredient into canonical units
func NormalizeRecipe(recipe *types.Recipe) {
	for i := range recipe.Ingredients {
		ing := &recipe.Ingredients[i]
		q, u := ToCanonical(float64(ing.Quantity), ing.Unit)
		ing.Quantity = types.FlexFloat(Round2(q))
		ing.Unit = u
	}
}

// RemapToPantry aligns ingredient units with the unit the pantry uses for a
// product of the same name (case-insensitive). pantryUnits is keyed by the
// lowercased product name. Incompatible pairs such as g and ml are left in
// canonical form.
func RemapToPantry(recipes []types.Recipe, pantryUnits map[string]string) {
	for r := range recipes {
		for i := range recipes[r].Ingredients {
			ing := &recipes[r].Ingredients[i]
			key := strings.ToLower(strings.TrimSpace(ing.Item))
			if key == "" {
				continue
			}
			pantryUnit, ok := pantryUnits[key]
			if !ok || pantryUnit == "" {
				continue
			}

			q, u := ToCanonical(float64(ing.Quantity), ing.Unit)
			if converted, ok := Convert(q, u, pantryUnit); ok {
				ing.Quantity = types.FlexFloat(Round2(converted))
				ing.Unit = Normalize(pantryUnit)
				continue
			}
			ing.Quantity = types.FlexFloat(Round2(q))
			ing.Unit = u
		}
	}
}
