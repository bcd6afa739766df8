package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/types"
	"github.com/pageza/foodflow/backend/internal/units"
	"gorm.io/gorm"
)

const (
	defaultIngredientUnit = "unit"
	mealPlanListName      = "Lista spesa"
)

// IngredientNeed is one parsed ingredient of a planned meal
type IngredientNeed struct {
	Item     string  `json:"item"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Availability splits the ingredients of a meal into those the pantry
// covers and those it lacks
type Availability struct {
	Missing   []IngredientNeed `json:"missing_ingredients"`
	Available []IngredientNeed `json:"already_available"`
}

// TransferResult reports the items written to a shopping list
type TransferResult struct {
	ShoppingListID *uuid.UUID       `json:"shopping_list_id,omitempty"`
	Updated        int              `json:"updated"`
	Items          []IngredientNeed `json:"items"`
}

// MealNutrition is the macro analysis of one meal. Estimated is set when
// the meal lacks macros and the default estimate is returned.
type MealNutrition struct {
	types.Macros
	BalanceScore float64 `json:"balance_score"`
	Estimated    bool    `json:"estimated"`
}

type mealDocument struct {
	Name        string             `json:"name,omitempty"`
	Ingredients []types.Ingredient `json:"ingredients"`
}

// ParseMealIngredients reads the ingredient document stored in custom_meal.
// Free text yields no ingredients. Entries without a name or a positive
// quantity are skipped and a missing unit becomes "unit".
func ParseMealIngredients(customMeal string) []IngredientNeed {
	text := strings.TrimSpace(customMeal)
	if !strings.HasPrefix(text, "{") {
		return nil
	}
	var doc mealDocument
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil
	}

	var out []IngredientNeed
	for _, ing := range doc.Ingredients {
		name := strings.TrimSpace(ing.Item)
		qty := float64(ing.Quantity)
		if name == "" || qty <= 0 {
			continue
		}
		unit := strings.TrimSpace(ing.Unit)
		if unit == "" {
			unit = defaultIngredientUnit
		}
		out = append(out, IngredientNeed{Item: name, Quantity: qty, Unit: unit})
	}
	return out
}

// MealTitle is the display name of a meal: the document name or the free text
func MealTitle(customMeal string) string {
	text := strings.TrimSpace(customMeal)
	if strings.HasPrefix(text, "{") {
		var doc mealDocument
		if err := json.Unmarshal([]byte(text), &doc); err == nil {
			return doc.Name
		}
	}
	return text
}

// BalanceScore rates how close the calorie split is to 30% protein, 50%
// carbs and 20% fat. A meal missing any of the three scores 0.
func BalanceScore(protein, carbs, fat *float64) float64 {
	if protein == nil || carbs == nil || fat == nil || *protein == 0 || *carbs == 0 || *fat == 0 {
		return 0
	}
	total := *protein*4 + *carbs*4 + *fat*9
	if total == 0 {
		return 0
	}
	dev := math.Abs(*protein*4/total*100-30) +
		math.Abs(*carbs*4/total*100-50) +
		math.Abs(*fat*9/total*100-20)
	return math.Round(math.Max(0, 100-dev))
}

// AnalyzeNutrition returns the macros of a meal with its balance score, or
// a fixed estimate when calories, protein, carbs or fat are missing
func AnalyzeNutrition(meal *models.MealPlan) MealNutrition {
	if deref(meal.Calories) == 0 || deref(meal.Protein) == 0 || deref(meal.Carbs) == 0 || deref(meal.Fat) == 0 {
		return MealNutrition{
			Macros:       types.Macros{Calories: 500, Protein: 30, Carbs: 60, Fat: 20, Fiber: 10},
			BalanceScore: 75,
			Estimated:    true,
		}
	}
	return MealNutrition{
		Macros: types.Macros{
			Calories: *meal.Calories,
			Protein:  *meal.Protein,
			Carbs:    *meal.Carbs,
			Fat:      *meal.Fat,
			Fiber:    deref(meal.Fiber),
		},
		BalanceScore: BalanceScore(meal.Protein, meal.Carbs, meal.Fat),
	}
}

type MealPlanService struct {
	db           *gorm.DB
	gamification *GamificationService
	nutrition    *NutritionService
}

func NewMealPlanService(db *gorm.DB, gamification *GamificationService, nutrition *NutritionService) *MealPlanService {
	return &MealPlanService{db: db, gamification: gamification, nutrition: nutrition}
}

func buildMealPlan(req *types.MealPlanRequest) (*models.MealPlan, error) {
	date, err := ParseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	for field, v := range map[string]*float64{
		"calories": req.Calories, "protein": req.Protein, "carbs": req.Carbs, "fat": req.Fat, "fiber": req.Fiber,
	} {
		if v != nil && *v < 0 {
			return nil, invalid(field, "must not be negative")
		}
	}
	if req.Servings < 0 {
		return nil, invalid("servings", "must not be negative")
	}

	meal := &models.MealPlan{
		Date:       date,
		MealType:   req.MealType,
		CustomMeal: strings.TrimSpace(req.CustomMeal),
		IsShared:   req.IsShared,
		Calories:   req.Calories,
		Protein:    req.Protein,
		Carbs:      req.Carbs,
		Fat:        req.Fat,
		Fiber:      req.Fiber,
		Servings:   req.Servings,
	}
	if meal.Servings == 0 {
		meal.Servings = 2
	}
	if len(req.Ingredients) > 0 {
		data, err := json.Marshal(mealDocument{Name: meal.CustomMeal, Ingredients: req.Ingredients})
		if err != nil {
			return nil, fmt.Errorf("failed to encode ingredients: %w", err)
		}
		meal.CustomMeal = string(data)
	}
	return meal, nil
}

func loadOwnedMeal(tx *gorm.DB, userID, mealID uuid.UUID) (*models.MealPlan, error) {
	var meal models.MealPlan
	if err := tx.First(&meal, "id = ?", mealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load meal plan: %w", err)
	}
	if meal.UserID != userID {
		return nil, ErrForbidden
	}
	return &meal, nil
}

// Create stores a planned meal and refreshes the nutrition log of its day.
// A meal with structured ingredients counts as a created recipe.
func (s *MealPlanService) Create(ctx context.Context, userID uuid.UUID, req *types.MealPlanRequest) (*models.MealPlan, *AwardResult, error) {
	meal, err := buildMealPlan(req)
	if err != nil {
		return nil, nil, err
	}
	meal.UserID = userID

	var award *AwardResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(meal).Error; err != nil {
			return fmt.Errorf("failed to create meal plan: %w", err)
		}

		if len(ParseMealIngredients(meal.CustomMeal)) > 0 {
			if err := s.gamification.IncrementStat(tx, userID, "total_recipes_created", 1); err != nil {
				return err
			}
			recipeAward, err := s.gamification.AwardPointsTx(tx, userID, ActionCreateRecipe, nil)
			if err != nil {
				return err
			}
			award = recipeAward
		}

		_, goalAward, err := s.nutrition.RecomputeDailyTx(tx, userID, meal.Date)
		if err != nil {
			return err
		}
		award = mergeAwards(award, goalAward)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return meal, award, nil
}

// List returns the meals of a user between from and to, newest first. Zero
// bounds are open.
func (s *MealPlanService) List(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.MealPlan, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if !from.IsZero() {
		query = query.Where("date >= ?", models.DateOnly(from))
	}
	if !to.IsZero() {
		query = query.Where("date <= ?", models.DateOnly(to))
	}
	var meals []models.MealPlan
	if err := query.Order("date DESC").Order("meal_type").Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("failed to list meal plans: %w", err)
	}
	return meals, nil
}

func (s *MealPlanService) Get(ctx context.Context, userID, mealID uuid.UUID) (*models.MealPlan, error) {
	return loadOwnedMeal(s.db.WithContext(ctx), userID, mealID)
}

// Update replaces a meal and refreshes the nutrition log of the old and new day
func (s *MealPlanService) Update(ctx context.Context, userID, mealID uuid.UUID, req *types.MealPlanRequest) (*models.MealPlan, error) {
	updated, err := buildMealPlan(req)
	if err != nil {
		return nil, err
	}

	var meal *models.MealPlan
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meal, err = loadOwnedMeal(tx, userID, mealID)
		if err != nil {
			return err
		}
		oldDate := meal.Date

		meal.Date = updated.Date
		meal.MealType = updated.MealType
		meal.CustomMeal = updated.CustomMeal
		meal.IsShared = updated.IsShared
		meal.Calories = updated.Calories
		meal.Protein = updated.Protein
		meal.Carbs = updated.Carbs
		meal.Fat = updated.Fat
		meal.Fiber = updated.Fiber
		meal.Servings = updated.Servings
		if err := tx.Save(meal).Error; err != nil {
			return fmt.Errorf("failed to update meal plan: %w", err)
		}

		if _, _, err := s.nutrition.RecomputeDailyTx(tx, userID, meal.Date); err != nil {
			return err
		}
		if !oldDate.Equal(meal.Date) {
			if _, _, err := s.nutrition.RecomputeDailyTx(tx, userID, oldDate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meal, nil
}

func (s *MealPlanService) Delete(ctx context.Context, userID, mealID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meal, err := loadOwnedMeal(tx, userID, mealID)
		if err != nil {
			return err
		}
		if err := tx.Delete(meal).Error; err != nil {
			return fmt.Errorf("failed to delete meal plan: %w", err)
		}
		_, _, err = s.nutrition.RecomputeDailyTx(tx, userID, meal.Date)
		return err
	})
}

// Availability checks every ingredient of a meal against the pantry
func (s *MealPlanService) Availability(ctx context.Context, userID, mealID uuid.UUID) (*Availability, error) {
	db := s.db.WithContext(ctx)
	meal, err := loadOwnedMeal(db, userID, mealID)
	if err != nil {
		return nil, err
	}
	return splitAvailability(db, userID, ParseMealIngredients(meal.CustomMeal))
}

// pantryMatch finds a non-wasted product named like need with a compatible
// unit and reports how much of its unit the need amounts to
func pantryMatch(products []models.Product, need IngredientNeed) (*models.Product, float64) {
	for i := range products {
		p := &products[i]
		if !strings.EqualFold(strings.TrimSpace(p.Name), need.Item) {
			continue
		}
		if qty, ok := units.Convert(need.Quantity, need.Unit, p.Unit); ok {
			return p, qty
		}
	}
	return nil, 0
}

func splitAvailability(tx *gorm.DB, userID uuid.UUID, needs []IngredientNeed) (*Availability, error) {
	var products []models.Product
	if err := tx.Where("user_id = ? AND wasted = ?", userID, false).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load pantry: %w", err)
	}

	result := &Availability{Missing: []IngredientNeed{}, Available: []IngredientNeed{}}
	for _, need := range needs {
		product, qty := pantryMatch(products, need)
		if product != nil && product.Quantity >= qty {
			result.Available = append(result.Available, need)
		} else {
			result.Missing = append(result.Missing, need)
		}
	}
	return result, nil
}

// upcomingMissingIngredients totals the ingredients of the user's meals
// from today to days ahead and returns those the pantry cannot cover
func upcomingMissingIngredients(tx *gorm.DB, userID uuid.UUID, now time.Time, days int) ([]IngredientNeed, error) {
	today := models.DateOnly(now)
	var meals []models.MealPlan
	err := tx.Where("user_id = ? AND date >= ? AND date <= ?", userID, today, today.AddDate(0, 0, days)).
		Order("date").
		Find(&meals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load meal plans: %w", err)
	}

	type key struct{ name, unit string }
	totals := map[key]int{}
	var needs []IngredientNeed
	for _, meal := range meals {
		for _, need := range ParseMealIngredients(meal.CustomMeal) {
			k := key{strings.ToLower(need.Item), units.Normalize(need.Unit)}
			if i, ok := totals[k]; ok {
				needs[i].Quantity += need.Quantity
				continue
			}
			totals[k] = len(needs)
			needs = append(needs, need)
		}
	}

	availability, err := splitAvailability(tx, userID, needs)
	if err != nil {
		return nil, err
	}
	return availability.Missing, nil
}

// ToShoppingList writes the missing ingredients of a meal to a shopping
// list: the given open list, else the newest open list, else a new smart
// list. Items merge by lowercase name and unit.
func (s *MealPlanService) ToShoppingList(ctx context.Context, userID, mealID uuid.UUID, listID *uuid.UUID) (*TransferResult, error) {
	result := &TransferResult{Items: []IngredientNeed{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meal, err := loadOwnedMeal(tx, userID, mealID)
		if err != nil {
			return err
		}
		availability, err := splitAvailability(tx, userID, ParseMealIngredients(meal.CustomMeal))
		if err != nil {
			return err
		}
		if len(availability.Missing) == 0 {
			return nil
		}

		list, err := targetShoppingList(tx, userID, listID)
		if err != nil {
			return err
		}
		result.ShoppingListID = &list.ID

		type key struct{ name, unit string }
		byKey := make(map[key]*models.ShoppingItem, len(list.Items))
		for i := range list.Items {
			item := &list.Items[i]
			byKey[key{strings.ToLower(strings.TrimSpace(item.Name)), item.Unit}] = item
		}

		for _, need := range availability.Missing {
			k := key{strings.ToLower(need.Item), need.Unit}
			if item, ok := byKey[k]; ok {
				item.Quantity = units.Round2(item.Quantity + need.Quantity)
				if err := tx.Model(item).Update("quantity", item.Quantity).Error; err != nil {
					return fmt.Errorf("failed to update shopping item: %w", err)
				}
			} else {
				item := &models.ShoppingItem{
					ShoppingListID: list.ID,
					Name:           need.Item,
					Quantity:       need.Quantity,
					Unit:           need.Unit,
					Priority:       models.PriorityMedium,
				}
				if err := tx.Create(item).Error; err != nil {
					return fmt.Errorf("failed to create shopping item: %w", err)
				}
				byKey[k] = item
			}
			result.Items = append(result.Items, need)
		}
		result.Updated = len(result.Items)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func targetShoppingList(tx *gorm.DB, userID uuid.UUID, listID *uuid.UUID) (*models.ShoppingList, error) {
	var list models.ShoppingList
	if listID != nil {
		err := tx.Preload("Items").Where("id = ? AND user_id = ? AND completed = ?", *listID, userID, false).First(&list).Error
		if err == nil {
			return &list, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load shopping list: %w", err)
		}
	}

	err := tx.Preload("Items").Where("user_id = ? AND completed = ?", userID, false).Order("created_at DESC").First(&list).Error
	if err == nil {
		return &list, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load shopping list: %w", err)
	}

	list = models.ShoppingList{UserID: userID, Name: mealPlanListName, IsSmart: true}
	if err := tx.Create(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to create shopping list: %w", err)
	}
	return &list, nil
}

// Consume subtracts the available ingredients of a meal from the pantry,
// never below zero, and returns what was subtracted
func (s *MealPlanService) Consume(ctx context.Context, userID, mealID uuid.UUID) ([]IngredientNeed, error) {
	consumed := []IngredientNeed{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meal, err := loadOwnedMeal(tx, userID, mealID)
		if err != nil {
			return err
		}

		var products []models.Product
		if err := tx.Where("user_id = ? AND wasted = ?", userID, false).Find(&products).Error; err != nil {
			return fmt.Errorf("failed to load pantry: %w", err)
		}

		for _, need := range ParseMealIngredients(meal.CustomMeal) {
			product, qty := pantryMatch(products, need)
			if product == nil || product.Quantity < qty {
				continue
			}
			product.Quantity = units.Round2(math.Max(0, product.Quantity-qty))
			if err := tx.Model(product).Update("quantity", product.Quantity).Error; err != nil {
				return fmt.Errorf("failed to update pantry product: %w", err)
			}
			consumed = append(consumed, IngredientNeed{Item: product.Name, Quantity: qty, Unit: product.Unit})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return consumed, nil
}
