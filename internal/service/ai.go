package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/types"
	"github.com/pageza/foodflow/backend/internal/units"
	"gorm.io/gorm"
)

const (
	defaultMaxRecipes    = 5
	maxRecipesLimit      = 10
	expiringRecipesMax   = 3
	expiringRecipeWindow = 7
	recyclingWindow      = 3
	fallbackRecipeLimit  = 3
	fallbackProductLimit = 5
)

// Weekdays in meal plan order
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var mealTemplates = map[string][]string{
	"breakfast": {"Omelette", "Porridge", "Pancakes", "Yogurt con frutta"},
	"lunch":     {"Insalata di pollo", "Pasta integrale", "Riso con verdure", "Zuppa di legumi"},
	"dinner":    {"Pesce al forno", "Pollo alla griglia", "Burger vegetariano", "Salmone"},
}

var goalLabels = map[string]string{
	"lose_weight": "Perdita peso",
	"gain_weight": "Aumento peso",
	"maintain":    "Mantenimento",
	"muscle_gain": "Aumento massa muscolare",
}

var recyclingTemplates = map[string]string{
	"frutta":    "Prepara una macedonia, un frullato o una marmellata con %s",
	"verdura":   "Usa %s in una minestra, una frittata o un sugo",
	"latticini": "Usa %s in una torta salata o in una besciamella",
	"carne":     "Cuoci subito %s e congelalo in porzioni",
	"pesce":     "Cuoci subito %s e congelalo in porzioni",
	"pane":      "Trasforma %s in pangrattato o crostini",
	"pasta":     "Prepara una pasta al forno con %s",
}

const defaultRecyclingIdea = "Congela %s oppure usalo oggi in una ricetta veloce"

const recipeSystemPrompt = `Sei uno chef esperto. Genera ricette in formato JSON valido.
Formato richiesto:
{
  "recipes": [
    {
      "name": "Nome Ricetta",
      "ingredients": [
        {"item": "ingrediente", "quantity": 100, "unit": "g"}
      ],
      "instructions": ["passo 1", "passo 2"],
      "prep_time": 15,
      "cooking_time": 30,
      "difficulty": "easy",
      "servings": 2,
      "nutritional_info": {
        "per_serving": {"calories": 350, "protein": 20, "carbs": 40, "fat": 12, "fiber": 8}
      },
      "dietary_tags": ["vegetarian"],
      "tips": ["consiglio utile"]
    }
  ]
}`

const mealPlanSystemPrompt = `Sei un nutrizionista. Genera un piano pasti in formato JSON valido.
Formato richiesto:
{
  "meal_plan": {
    "monday": [
      {"meal": "breakfast", "name": "Nome piatto", "ingredients": ["ingrediente"], "calories": 400}
    ]
  }
}
Usa come chiavi i giorni in inglese minuscolo e per ogni giorno i pasti breakfast, lunch e dinner.`

const shoppingSystemPrompt = `Sei un assistente per la spesa. Rispondi in formato JSON valido.
Formato richiesto:
{
  "suggestions": [
    {"name": "prodotto", "quantity": 1, "unit": "pz", "category": "categoria", "priority": "high", "reason": "motivo"}
  ]
}
priority deve essere high, medium o low.`

const recyclingSystemPrompt = `Sei un esperto di cucina antispreco. Rispondi in formato JSON valido.
Formato richiesto:
{
  "ideas": [
    {"name": "prodotto", "category": "categoria", "priority": "high", "reason": "idea per riutilizzarlo"}
  ]
}`

const chatSystemPrompt = `Sei FoodFlow, un assistente per la gestione della dispensa, della spesa e dei pasti.
Rispondi in italiano in formato JSON valido:
{"response": "testo della risposta", "type": "general", "suggestions": ["domanda successiva"]}
type deve essere recipes, expiring, shopping o general.`

// AIService implements IAIService on top of a ChatCompleter. Every feature
// goes through WithFallback so callers always get a usable value.
type AIService struct {
	db    *gorm.DB
	llm   ChatCompleter
	cache *CompletionCache
}

func NewAIService(db *gorm.DB, llm ChatCompleter, cache *CompletionCache) *AIService {
	return &AIService{db: db, llm: llm, cache: cache}
}

// complete asks the model, or the cache, and hands the content to decode.
// Only content that decodes is cached.
func (s *AIService) complete(ctx context.Context, feature string, userID uuid.UUID, messages []Message, decode func(string) error) (types.Source, error) {
	key := CompletionKey(feature, userID, messages)

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Printf("Failed to read AI cache: %v", err)
	}
	if ok {
		if err := decode(cached); err == nil {
			return types.SourceCache, nil
		}
	}

	content, err := s.llm.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	if err := decode(content); err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, key, content); err != nil {
		log.Printf("Failed to write AI cache: %v", err)
	}
	return types.SourceAI, nil
}

// preferences holds the lowercased restrictions and allergies of a user
type preferences struct {
	restrictions []string
	allergies    []string
	description  string
}

func (s *AIService) loadPreferences(db *gorm.DB, userID uuid.UUID) (preferences, *models.NutritionalProfile, error) {
	profile, err := loadProfile(db, userID)
	if err != nil {
		return preferences{}, nil, err
	}
	if profile == nil {
		return preferences{description: "Nessuna preferenza specificata"}, nil, nil
	}

	prefs := preferences{
		restrictions: normalizeTokens(profile.RestrictionList()),
		allergies:    normalizeTokens(profile.AllergyList()),
	}

	var parts []string
	if profile.Goal != "" {
		label, ok := goalLabels[profile.Goal]
		if !ok {
			label = profile.Goal
		}
		parts = append(parts, "Obiettivo: "+label)
	}
	if profile.ActivityLevel != "" {
		parts = append(parts, "Attività: "+profile.ActivityLevel)
	}
	if r := profile.RestrictionList(); len(r) > 0 {
		parts = append(parts, "Restrizioni: "+strings.Join(r, ", "))
	}
	if a := profile.AllergyList(); len(a) > 0 {
		parts = append(parts, "Allergie: "+strings.Join(a, ", "))
	}
	prefs.description = "Nessuna preferenza specificata"
	if len(parts) > 0 {
		prefs.description = strings.Join(parts, "\n")
	}
	return prefs, profile, nil
}

func normalizeTokens(values []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "nessuna"
	}
	return strings.Join(values, ", ")
}

// ViolatesPreferences reports whether a recipe must be hidden from a user.
// Any ingredient containing an allergen rejects the recipe. Restrictions
// only apply to recipes that carry dietary tags: every restriction must
// then appear among them.
func ViolatesPreferences(recipe types.Recipe, restrictions, allergies []string) bool {
	for _, ing := range recipe.Ingredients {
		item := strings.ToLower(strings.TrimSpace(ing.Item))
		if item == "" {
			continue
		}
		for _, allergen := range allergies {
			if allergen != "" && strings.Contains(item, allergen) {
				return true
			}
		}
	}

	if len(restrictions) == 0 || len(recipe.DietaryTags) == 0 {
		return false
	}
	tags := make(map[string]bool, len(recipe.DietaryTags))
	for _, tag := range recipe.DietaryTags {
		tags[strings.ToLower(strings.TrimSpace(tag))] = true
	}
	for _, r := range restrictions {
		if !tags[r] {
			return true
		}
	}
	return false
}

func containsAllergen(name string, allergies []string) bool {
	name = strings.ToLower(name)
	for _, allergen := range allergies {
		if allergen != "" && strings.Contains(name, allergen) {
			return true
		}
	}
	return false
}

// FallbackRecipes builds up to three template recipes, one per product,
// each using that product and the next two
func FallbackRecipes(products []models.Product, maxRecipes int) []types.Recipe {
	n := maxRecipes
	if len(products) < n {
		n = len(products)
	}
	if n > fallbackRecipeLimit {
		n = fallbackRecipeLimit
	}

	recipes := make([]types.Recipe, 0, n)
	for i := 0; i < n; i++ {
		end := i + 3
		if end > len(products) {
			end = len(products)
		}
		var ingredients []types.Ingredient
		for _, p := range products[i:end] {
			ingredients = append(ingredients, types.Ingredient{Item: p.Name, Quantity: types.FlexFloat(p.Quantity), Unit: p.Unit})
		}
		recipes = append(recipes, types.Recipe{
			Name:        "Ricetta con " + products[i].Name,
			Ingredients: ingredients,
			Instructions: []string{
				"Prepara gli ingredienti",
				"Combina secondo preferenza",
				"Cuoci a temperatura media",
				"Servi caldo",
			},
			PrepTime:        15,
			CookingTime:     30,
			Difficulty:      "easy",
			Servings:        2,
			NutritionalInfo: estimatedNutrition(),
			DietaryTags:     []string{},
			Tips:            []string{"Ricetta generata automaticamente"},
		})
	}
	return recipes
}

func estimatedNutrition() *types.NutritionalInfo {
	return &types.NutritionalInfo{PerServing: types.Macros{Calories: 350, Protein: 20, Carbs: 45, Fat: 12, Fiber: 8}}
}

// BasicMealPlan is the template week used without a profile or when the
// model fails
func BasicMealPlan(days int) map[string][]types.PlannedMeal {
	days = clampDays(days)
	plan := make(map[string][]types.PlannedMeal, days)
	for i, day := range Weekdays[:days] {
		plan[day] = []types.PlannedMeal{
			{Meal: "breakfast", Name: mealTemplates["breakfast"][i%4]},
			{Meal: "lunch", Name: mealTemplates["lunch"][i%4]},
			{Meal: "dinner", Name: mealTemplates["dinner"][i%4]},
		}
	}
	return plan
}

func clampDays(days int) int {
	if days < 1 || days > len(Weekdays) {
		return len(Weekdays)
	}
	return days
}

func ingredientLines(products []models.Product) string {
	lines := make([]string, len(products))
	for i, p := range products {
		lines[i] = fmt.Sprintf("- %g %s di %s", p.Quantity, p.Unit, p.Name)
	}
	return strings.Join(lines, "\n")
}

// SuggestRecipes proposes recipes from the non-wasted pantry. An empty
// pantry yields no recipes. servings > 0 rescales the ingredients.
func (s *AIService) SuggestRecipes(ctx context.Context, userID uuid.UUID, maxRecipes, servings int) types.RecipeList {
	var products []models.Product
	err := s.db.WithContext(ctx).Where("user_id = ? AND wasted = ?", userID, false).Order("expiry_date").Find(&products).Error
	if err != nil {
		log.Printf("Failed to load pantry for recipes: %v", err)
	}
	return s.recipesFor(ctx, "recipes", userID, products, maxRecipes, servings)
}

// ExpiringRecipes proposes up to three recipes built on products expiring
// within the next week
func (s *AIService) ExpiringRecipes(ctx context.Context, userID uuid.UUID, maxRecipes int) types.RecipeList {
	if maxRecipes <= 0 || maxRecipes > expiringRecipesMax {
		maxRecipes = expiringRecipesMax
	}
	products, err := expiringProducts(s.db.WithContext(ctx), userID, expiringRecipeWindow, time.Now())
	if err != nil {
		log.Printf("Failed to load expiring products for recipes: %v", err)
	}
	return s.recipesFor(ctx, "expiring_recipes", userID, products, maxRecipes, 0)
}

func (s *AIService) recipesFor(ctx context.Context, feature string, userID uuid.UUID, products []models.Product, maxRecipes, servings int) types.RecipeList {
	if len(products) == 0 {
		return types.RecipeList{Recipes: []types.Recipe{}, Source: types.SourceFallback}
	}
	if maxRecipes <= 0 {
		maxRecipes = defaultMaxRecipes
	}
	if maxRecipes > maxRecipesLimit {
		maxRecipes = maxRecipesLimit
	}

	db := s.db.WithContext(ctx)
	prefs, _, err := s.loadPreferences(db, userID)
	if err != nil {
		log.Printf("Failed to load preferences: %v", err)
	}

	pantryUnits := make(map[string]string, len(products))
	for _, p := range products {
		pantryUnits[strings.ToLower(strings.TrimSpace(p.Name))] = p.Unit
	}

	compute := func(ctx context.Context) ([]types.Recipe, types.Source, error) {
		messages := []Message{
			{Role: "system", Content: recipeSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(`Ingredienti disponibili:
%s

Preferenze utente:
%s

Genera %d ricette creative che:
1. Usano principalmente questi ingredienti
2. Rispettano le preferenze dietetiche
3. Sono bilanciate nutrizionalmente
4. Hanno istruzioni chiare e dettagliate

CONSTRAINT IMPORTANTI:
- Evita QUALSIASI ingrediente che corrisponda a queste allergie (case-insensitive, sinonimi comuni): %s
- Rispetta queste restrizioni dietetiche e includile in dietary_tags: %s

Rispondi SOLO con JSON valido.`, ingredientLines(products), prefs.description, maxRecipes, joinOrNone(prefs.allergies), joinOrNone(prefs.restrictions))},
		}

		var recipes []types.Recipe
		source, err := s.complete(ctx, feature, userID, messages, func(content string) error {
			var err error
			recipes, err = decodeRecipes(content)
			return err
		})
		if err != nil {
			return nil, "", err
		}

		kept := make([]types.Recipe, 0, len(recipes))
		for _, r := range recipes {
			if ViolatesPreferences(r, prefs.restrictions, prefs.allergies) {
				continue
			}
			if r.NutritionalInfo == nil {
				r.NutritionalInfo = estimatedNutrition()
			}
			if r.Tips == nil {
				r.Tips = []string{"Segui le istruzioni con attenzione"}
			}
			if r.DietaryTags == nil {
				r.DietaryTags = []string{}
			}
			if servings > 0 {
				units.ScaleRecipe(&r, servings)
			}
			units.NormalizeRecipe(&r)
			kept = append(kept, r)
		}
		if len(kept) > maxRecipes {
			kept = kept[:maxRecipes]
		}
		units.RemapToPantry(kept, pantryUnits)
		return kept, source, nil
	}

	fallback := func() []types.Recipe {
		var safe []models.Product
		for _, p := range products {
			if containsAllergen(p.Name, prefs.allergies) {
				continue
			}
			safe = append(safe, p)
			if len(safe) == fallbackProductLimit {
				break
			}
		}
		return FallbackRecipes(safe, maxRecipes)
	}

	res := WithFallback(ctx, feature, compute, fallback)
	return types.RecipeList{Recipes: res.Value, Source: res.Source}
}

// decodeRecipes accepts {"recipes": [...]} or a bare array
func decodeRecipes(content string) ([]types.Recipe, error) {
	var wrapped struct {
		Recipes []types.Recipe `json:"recipes"`
	}
	if err := ExtractJSON(content, &wrapped); err == nil && len(wrapped.Recipes) > 0 {
		return wrapped.Recipes, nil
	}

	var list []types.Recipe
	if err := json.Unmarshal([]byte(stripFences(content)), &list); err == nil && len(list) > 0 {
		return list, nil
	}
	return nil, ErrUnexpectedShape
}

// PlanMeals proposes a meal plan for the first days of the week. Users
// without a nutritional profile get the template week.
func (s *AIService) PlanMeals(ctx context.Context, userID uuid.UUID, days int) types.MealPlanByDay {
	days = clampDays(days)
	db := s.db.WithContext(ctx)

	prefs, profile, err := s.loadPreferences(db, userID)
	if err != nil {
		log.Printf("Failed to load preferences: %v", err)
	}
	if profile == nil {
		return types.MealPlanByDay{Days: BasicMealPlan(days), Source: types.SourceFallback}
	}

	goalText := "Obiettivi non calcolati"
	if goal, err := loadGoals(db, userID); err == nil && goal != nil {
		goalText = fmt.Sprintf("%.0f kcal, proteine %.1f g, carboidrati %.1f g, grassi %.1f g, fibre %.1f g",
			goal.DailyCalories, goal.DailyProtein, goal.DailyCarbs, goal.DailyFat, goal.DailyFiber)
	}

	compute := func(ctx context.Context) (map[string][]types.PlannedMeal, types.Source, error) {
		messages := []Message{
			{Role: "system", Content: mealPlanSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(`Giorni da pianificare: %s

Preferenze utente:
%s

Obiettivi giornalieri: %s

Evita questi allergeni: %s

Rispondi SOLO con JSON valido.`, strings.Join(Weekdays[:days], ", "), prefs.description, goalText, joinOrNone(prefs.allergies))},
		}

		var plan map[string][]types.PlannedMeal
		source, err := s.complete(ctx, "meal_plan", userID, messages, func(content string) error {
			var doc struct {
				MealPlan map[string][]types.PlannedMeal `json:"meal_plan"`
			}
			if err := ExtractJSON(content, &doc); err != nil {
				return err
			}
			plan = make(map[string][]types.PlannedMeal, days)
			for _, day := range Weekdays[:days] {
				if meals := doc.MealPlan[day]; len(meals) > 0 {
					plan[day] = meals
				}
			}
			if len(plan) == 0 {
				return ErrUnexpectedShape
			}
			return nil
		})
		return plan, source, err
	}

	res := WithFallback(ctx, "meal_plan", compute, func() map[string][]types.PlannedMeal {
		return BasicMealPlan(days)
	})
	return types.MealPlanByDay{Days: res.Value, Source: res.Source}
}

// SuggestShopping proposes purchases. The fallback is the expiring and low
// stock part of the smart list.
func (s *AIService) SuggestShopping(ctx context.Context, userID uuid.UUID) types.SuggestionList {
	db := s.db.WithContext(ctx)
	now := time.Now()

	pantry, err := pantrySuggestions(db, userID, now)
	if err != nil {
		log.Printf("Failed to load pantry suggestions: %v", err)
	}
	var products []models.Product
	if err := db.Where("user_id = ? AND wasted = ?", userID, false).Order("name").Find(&products).Error; err != nil {
		log.Printf("Failed to load pantry: %v", err)
	}
	prefs, _, err := s.loadPreferences(db, userID)
	if err != nil {
		log.Printf("Failed to load preferences: %v", err)
	}

	compute := func(ctx context.Context) ([]types.Suggestion, types.Source, error) {
		needs := make([]string, len(pantry))
		for i, item := range pantry {
			needs[i] = fmt.Sprintf("- %s (%s)", item.Name, item.Reason)
		}
		messages := []Message{
			{Role: "system", Content: shoppingSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(`Dispensa attuale:
%s

Prodotti da riacquistare:
%s

Preferenze utente:
%s

Suggerisci cosa comprare per la prossima spesa, evitando questi allergeni: %s
Rispondi SOLO con JSON valido.`, ingredientLines(products), strings.Join(needs, "\n"), prefs.description, joinOrNone(prefs.allergies))},
		}

		var suggestions []types.Suggestion
		source, err := s.complete(ctx, "shopping", userID, messages, func(content string) error {
			var doc struct {
				Suggestions []types.Suggestion `json:"suggestions"`
			}
			if err := ExtractJSON(content, &doc); err != nil {
				return err
			}
			if len(doc.Suggestions) == 0 {
				return ErrUnexpectedShape
			}
			suggestions = doc.Suggestions
			return nil
		})
		if err != nil {
			return nil, "", err
		}

		kept := make([]types.Suggestion, 0, len(suggestions))
		for _, sug := range suggestions {
			sug.Name = strings.TrimSpace(sug.Name)
			if sug.Name == "" || containsAllergen(sug.Name, prefs.allergies) {
				continue
			}
			if _, ok := PriorityLevels[sug.Priority]; !ok {
				sug.Priority = "medium"
			}
			kept = append(kept, sug)
		}
		return kept, source, nil
	}

	res := WithFallback(ctx, "shopping", compute, func() []types.Suggestion {
		return smartItemsToSuggestions(pantry)
	})
	return types.SuggestionList{Suggestions: res.Value, Source: res.Source}
}

func smartItemsToSuggestions(items []SmartItem) []types.Suggestion {
	out := make([]types.Suggestion, 0, len(items))
	for _, item := range items {
		out = append(out, types.Suggestion{
			Name:     item.Name,
			Quantity: types.FlexFloat(item.Quantity),
			Unit:     item.Unit,
			Category: item.Category,
			Priority: item.Priority,
			Reason:   item.Reason,
		})
	}
	return out
}

// RecyclingIdeas proposes ways to use products expiring within three days
// before they go to waste
func (s *AIService) RecyclingIdeas(ctx context.Context, userID uuid.UUID) types.SuggestionList {
	db := s.db.WithContext(ctx)
	now := time.Now()

	products, err := expiringProducts(db, userID, recyclingWindow, now)
	if err != nil {
		log.Printf("Failed to load expiring products for recycling: %v", err)
	}
	if len(products) == 0 {
		return types.SuggestionList{Suggestions: []types.Suggestion{}, Source: types.SourceFallback}
	}

	compute := func(ctx context.Context) ([]types.Suggestion, types.Source, error) {
		lines := make([]string, len(products))
		for i, p := range products {
			lines[i] = fmt.Sprintf("- %s (%s), %g %s, scade il %s", p.Name, p.Category, p.Quantity, p.Unit, p.ExpiryDate.Format("02/01/2006"))
		}
		messages := []Message{
			{Role: "system", Content: recyclingSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(`Prodotti in scadenza:
%s

Suggerisci un'idea concreta per riutilizzare ciascun prodotto prima che vada sprecato.
Rispondi SOLO con JSON valido.`, strings.Join(lines, "\n"))},
		}

		var ideas []types.Suggestion
		source, err := s.complete(ctx, "recycling", userID, messages, func(content string) error {
			var doc struct {
				Ideas []types.Suggestion `json:"ideas"`
			}
			if err := ExtractJSON(content, &doc); err != nil {
				return err
			}
			if len(doc.Ideas) == 0 {
				return ErrUnexpectedShape
			}
			ideas = doc.Ideas
			return nil
		})
		return ideas, source, err
	}

	res := WithFallback(ctx, "recycling", compute, func() []types.Suggestion {
		return RecyclingFallback(products, now)
	})
	return types.SuggestionList{Suggestions: res.Value, Source: res.Source}
}

// RecyclingFallback gives every product a category based idea. Products
// expiring within a day are high priority.
func RecyclingFallback(products []models.Product, now time.Time) []types.Suggestion {
	out := make([]types.Suggestion, 0, len(products))
	for _, p := range products {
		template, ok := recyclingTemplates[strings.ToLower(strings.TrimSpace(p.Category))]
		if !ok {
			template = defaultRecyclingIdea
		}
		priority := "medium"
		if p.DaysUntilExpiry(now) <= 1 {
			priority = "high"
		}
		out = append(out, types.Suggestion{
			Name:     p.Name,
			Quantity: types.FlexFloat(p.Quantity),
			Unit:     p.Unit,
			Category: p.Category,
			Priority: priority,
			Reason:   fmt.Sprintf(template, strings.ToLower(p.Name)),
		})
	}
	return out
}

// Chat answers a free text message. The fallback routes by keyword.
func (s *AIService) Chat(ctx context.Context, userID uuid.UUID, message string) types.ChatReply {
	db := s.db.WithContext(ctx)
	message = strings.TrimSpace(message)

	var products []models.Product
	if err := db.Where("user_id = ? AND wasted = ?", userID, false).Order("expiry_date").Find(&products).Error; err != nil {
		log.Printf("Failed to load pantry for chat: %v", err)
	}

	compute := func(ctx context.Context) (types.ChatReply, types.Source, error) {
		messages := []Message{
			{Role: "system", Content: chatSystemPrompt},
			{Role: "system", Content: "Dispensa dell'utente:\n" + ingredientLines(products)},
			{Role: "user", Content: message},
		}

		var reply types.ChatReply
		source, err := s.complete(ctx, "chat", userID, messages, func(content string) error {
			reply = types.ChatReply{}
			if err := ExtractJSON(content, &reply); err != nil || strings.TrimSpace(reply.Response) == "" {
				reply = types.ChatReply{Response: strings.TrimSpace(content), Type: "general"}
			}
			if reply.Response == "" {
				return ErrEmptyCompletion
			}
			if reply.Type == "" {
				reply.Type = "general"
			}
			if reply.Suggestions == nil {
				reply.Suggestions = []string{}
			}
			return nil
		})
		return reply, source, err
	}

	res := WithFallback(ctx, "chat", compute, func() types.ChatReply {
		return s.routeChat(ctx, userID, message, products)
	})
	reply := res.Value
	reply.Source = res.Source
	return reply
}

var chatFollowUps = []string{"Cosa posso cucinare?", "Cosa sta per scadere?", "Cosa devo comprare?"}

// routeChat answers without the model by matching keywords
func (s *AIService) routeChat(ctx context.Context, userID uuid.UUID, message string, products []models.Product) types.ChatReply {
	text := strings.ToLower(message)
	switch {
	case strings.Contains(text, "ricett") || strings.Contains(text, "recipe") || strings.Contains(text, "cucin"):
		limit := len(products)
		if limit > fallbackProductLimit {
			limit = fallbackProductLimit
		}
		recipes := FallbackRecipes(products[:limit], fallbackRecipeLimit)
		response := "Ecco alcune idee con quello che hai in dispensa."
		if len(recipes) == 0 {
			response = "La dispensa è vuota: aggiungi qualche prodotto per ricevere ricette."
		}
		return types.ChatReply{
			Response:    response,
			Type:        "recipes",
			Suggestions: []string{"Cosa sta per scadere?"},
			Data:        map[string]interface{}{"recipes": recipes},
		}

	case strings.Contains(text, "scad") || strings.Contains(text, "expir"):
		expiring, err := expiringProducts(s.db.WithContext(ctx), userID, expiringRecipeWindow, time.Now())
		if err != nil {
			log.Printf("Failed to load expiring products for chat: %v", err)
		}
		names := make([]string, len(expiring))
		for i, p := range expiring {
			names[i] = p.Name
		}
		response := "Nessun prodotto in scadenza nei prossimi 7 giorni."
		if len(names) > 0 {
			response = fmt.Sprintf("Hai %d prodotti in scadenza nei prossimi 7 giorni: %s.", len(names), strings.Join(names, ", "))
		}
		return types.ChatReply{
			Response:    response,
			Type:        "expiring",
			Suggestions: []string{"Cosa posso cucinare?"},
			Data:        map[string]interface{}{"products": names},
		}

	case strings.Contains(text, "spesa") || strings.Contains(text, "shopping") || strings.Contains(text, "compr"):
		items, err := pantrySuggestions(s.db.WithContext(ctx), userID, time.Now())
		if err != nil {
			log.Printf("Failed to load shopping suggestions for chat: %v", err)
		}
		response := "Per ora non manca nulla in dispensa."
		if len(items) > 0 {
			response = fmt.Sprintf("Ti suggerisco di comprare %d prodotti.", len(items))
		}
		return types.ChatReply{
			Response:    response,
			Type:        "shopping",
			Suggestions: []string{"Crea una lista intelligente"},
			Data:        map[string]interface{}{"suggestions": smartItemsToSuggestions(items)},
		}
	}

	return types.ChatReply{
		Response:    "Posso aiutarti con ricette, prodotti in scadenza e lista della spesa.",
		Type:        "help",
		Suggestions: chatFollowUps,
	}
}
