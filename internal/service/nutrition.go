package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/types"
	"gorm.io/gorm"
)

// ActivityMultipliers scale the basal metabolic rate by activity level
var ActivityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// GoalAdjustments scale daily calories by goal. maintain is 1.
var GoalAdjustments = map[string]float64{
	"lose_weight": 0.8,
	"maintain":    1,
	"gain_weight": 1.15,
	"muscle_gain": 1.1,
}

const nutritionGoalThreshold = 90.0

// Profile defaults for fields left empty
const (
	defaultAge           = 25
	defaultWeight        = 70.0
	defaultHeight        = 170.0
	defaultGender        = "male"
	defaultActivityLevel = "moderate"
	defaultGoal          = "maintain"
)

// GoalCalculation is the outcome of CalculateGoals
type GoalCalculation struct {
	DailyCalories float64 `json:"daily_calories"`
	DailyProtein  float64 `json:"daily_protein"`
	DailyCarbs    float64 `json:"daily_carbs"`
	DailyFat      float64 `json:"daily_fat"`
	DailyFiber    float64 `json:"daily_fiber"`
	BMR           float64 `json:"bmr"`
	TDEE          float64 `json:"tdee"`
}

// CalculateGoals derives daily targets from a profile: Mifflin-St Jeor BMR,
// activity multiplier, goal adjustment, then protein 1.8 g/kg, fat 28% of
// calories, carbs for the rest and fiber 14 g per 1000 kcal
func CalculateGoals(p *models.NutritionalProfile) GoalCalculation {
	bmr := 10*p.Weight + 6.25*p.Height - 5*float64(p.Age)
	if strings.EqualFold(p.Gender, "male") {
		bmr += 5
	} else {
		bmr -= 161
	}

	multiplier, ok := ActivityMultipliers[p.ActivityLevel]
	if !ok {
		multiplier = ActivityMultipliers[defaultActivityLevel]
	}
	tdee := bmr * multiplier

	calories := tdee
	if adj, ok := GoalAdjustments[p.Goal]; ok {
		calories = tdee * adj
	}

	protein := p.Weight * 1.8
	fat := calories * 0.28 / 9
	carbs := (calories - protein*4 - fat*9) / 4
	fiber := calories / 1000 * 14

	return GoalCalculation{
		DailyCalories: math.Round(calories),
		DailyProtein:  round1(protein),
		DailyCarbs:    round1(carbs),
		DailyFat:      round1(fat),
		DailyFiber:    round1(fiber),
		BMR:           math.Round(bmr),
		TDEE:          math.Round(tdee),
	}
}

type NutritionService struct {
	db           *gorm.DB
	gamification *GamificationService
}

func NewNutritionService(db *gorm.DB, gamification *GamificationService) *NutritionService {
	return &NutritionService{db: db, gamification: gamification}
}

func loadProfile(tx *gorm.DB, userID uuid.UUID) (*models.NutritionalProfile, error) {
	var profile models.NutritionalProfile
	if err := tx.First(&profile, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load nutritional profile: %w", err)
	}
	return &profile, nil
}

func loadGoals(tx *gorm.DB, userID uuid.UUID) (*models.NutritionalGoal, error) {
	var goal models.NutritionalGoal
	if err := tx.First(&goal, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load nutritional goals: %w", err)
	}
	return &goal, nil
}

func profileFromRequest(req *types.ProfileRequest) (*models.NutritionalProfile, error) {
	p := &models.NutritionalProfile{
		Age:           req.Age,
		Weight:        req.Weight,
		Height:        req.Height,
		Gender:        strings.ToLower(strings.TrimSpace(req.Gender)),
		ActivityLevel: strings.TrimSpace(req.ActivityLevel),
		Goal:          strings.TrimSpace(req.Goal),
	}
	if p.Age == 0 {
		p.Age = defaultAge
	}
	if p.Weight == 0 {
		p.Weight = defaultWeight
	}
	if p.Height == 0 {
		p.Height = defaultHeight
	}
	if p.Gender == "" {
		p.Gender = defaultGender
	}
	if p.ActivityLevel == "" {
		p.ActivityLevel = defaultActivityLevel
	}
	if p.Goal == "" {
		p.Goal = defaultGoal
	}

	switch {
	case p.Age < 1 || p.Age > 120:
		return nil, invalid("age", "must be between 1 and 120")
	case p.Weight < 20 || p.Weight > 400:
		return nil, invalid("weight", "must be between 20 and 400 kg")
	case p.Height < 50 || p.Height > 250:
		return nil, invalid("height", "must be between 50 and 250 cm")
	case p.Gender != "male" && p.Gender != "female" && p.Gender != "other":
		return nil, invalid("gender", "must be male, female or other")
	}
	if _, ok := ActivityMultipliers[p.ActivityLevel]; !ok {
		return nil, invalid("activity_level", "unknown activity level %q", p.ActivityLevel)
	}
	if _, ok := GoalAdjustments[p.Goal]; !ok {
		return nil, invalid("goal", "unknown goal %q", p.Goal)
	}

	p.DietaryRestrictions = models.StringsJSON(req.DietaryRestrictions)
	p.Allergies = models.StringsJSON(req.Allergies)
	return p, nil
}

// SaveProfile creates or replaces the profile of a user and recalculates
// the daily goals from it
func (s *NutritionService) SaveProfile(ctx context.Context, userID uuid.UUID, req *types.ProfileRequest) (*models.NutritionalProfile, *GoalCalculation, error) {
	incoming, err := profileFromRequest(req)
	if err != nil {
		return nil, nil, err
	}

	var profile *models.NutritionalProfile
	var calc GoalCalculation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile, err = loadProfile(tx, userID)
		if err != nil {
			return err
		}
		if profile == nil {
			profile = &models.NutritionalProfile{UserID: userID}
		}
		profile.Age = incoming.Age
		profile.Weight = incoming.Weight
		profile.Height = incoming.Height
		profile.Gender = incoming.Gender
		profile.ActivityLevel = incoming.ActivityLevel
		profile.Goal = incoming.Goal
		profile.DietaryRestrictions = incoming.DietaryRestrictions
		profile.Allergies = incoming.Allergies
		if err := tx.Save(profile).Error; err != nil {
			return fmt.Errorf("failed to save nutritional profile: %w", err)
		}

		calc = CalculateGoals(profile)
		goal, err := loadGoals(tx, userID)
		if err != nil {
			return err
		}
		if goal == nil {
			goal = &models.NutritionalGoal{UserID: userID}
		}
		goal.DailyCalories = calc.DailyCalories
		goal.DailyProtein = calc.DailyProtein
		goal.DailyCarbs = calc.DailyCarbs
		goal.DailyFat = calc.DailyFat
		goal.DailyFiber = calc.DailyFiber
		if err := tx.Save(goal).Error; err != nil {
			return fmt.Errorf("failed to save nutritional goals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return profile, &calc, nil
}

// Profile returns the profile and goals of a user. Both may be nil.
func (s *NutritionService) Profile(ctx context.Context, userID uuid.UUID) (*models.NutritionalProfile, *models.NutritionalGoal, error) {
	db := s.db.WithContext(ctx)
	profile, err := loadProfile(db, userID)
	if err != nil {
		return nil, nil, err
	}
	goal, err := loadGoals(db, userID)
	if err != nil {
		return nil, nil, err
	}
	return profile, goal, nil
}

// GoalCompletion is the mean over the five macros of consumed/goal, each
// capped at 100%
func GoalCompletion(d *models.DailyNutrition) float64 {
	ratios := dailyRatios(d)
	sum := 0.0
	for _, r := range ratios {
		sum += math.Min(r, 1)
	}
	return round1(sum / float64(len(ratios)) * 100)
}

// ConsistencyScore is 100 minus the mean distance of each macro from its goal
func ConsistencyScore(d *models.DailyNutrition) float64 {
	ratios := dailyRatios(d)
	dev := 0.0
	for _, r := range ratios {
		dev += math.Abs(r - 1)
	}
	score := 100 - dev/float64(len(ratios))*100
	return round1(math.Max(0, math.Min(100, score)))
}

func dailyRatios(d *models.DailyNutrition) []float64 {
	ratio := func(consumed, goal float64) float64 {
		if goal <= 0 {
			return 0
		}
		return consumed / goal
	}
	return []float64{
		ratio(d.CaloriesConsumed, d.CaloriesGoal),
		ratio(d.ProteinConsumed, d.ProteinGoal),
		ratio(d.CarbsConsumed, d.CarbsGoal),
		ratio(d.FatConsumed, d.FatGoal),
		ratio(d.FiberConsumed, d.FiberGoal),
	}
}

// RecomputeDaily rebuilds the nutrition log of one day from the meal plans
func (s *NutritionService) RecomputeDaily(ctx context.Context, userID uuid.UUID, date time.Time) (*models.DailyNutrition, *AwardResult, error) {
	var daily *models.DailyNutrition
	var award *AwardResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		daily, award, err = s.RecomputeDailyTx(tx, userID, date)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return daily, award, nil
}

// RecomputeDailyTx sums the user's own meals of the day and the family's
// shared meals, the latter divided by the family size. It awards
// achieve_nutrition_goal the first time the day reaches 90% completion.
func (s *NutritionService) RecomputeDailyTx(tx *gorm.DB, userID uuid.UUID, date time.Time) (*models.DailyNutrition, *AwardResult, error) {
	day := models.DateOnly(date)

	memberIDs, err := familyMemberIDs(tx, userID)
	if err != nil {
		return nil, nil, err
	}
	size := len(memberIDs)

	var meals []models.MealPlan
	err = tx.Where("date = ?", day).
		Where("user_id = ? OR (user_id IN ? AND is_shared = ?)", userID, memberIDs, true).
		Find(&meals).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load meal plans: %w", err)
	}

	var daily models.DailyNutrition
	err = tx.Where("user_id = ? AND date = ?", userID, day).First(&daily).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to load daily nutrition: %w", err)
	}
	daily.UserID = userID
	daily.Date = day

	goal, err := loadGoals(tx, userID)
	if err != nil {
		return nil, nil, err
	}
	daily.CaloriesGoal = models.DefaultCaloriesGoal
	daily.ProteinGoal = models.DefaultProteinGoal
	daily.CarbsGoal = models.DefaultCarbsGoal
	daily.FatGoal = models.DefaultFatGoal
	daily.FiberGoal = models.DefaultFiberGoal
	if goal != nil {
		daily.CaloriesGoal = goal.DailyCalories
		daily.ProteinGoal = goal.DailyProtein
		daily.CarbsGoal = goal.DailyCarbs
		daily.FatGoal = goal.DailyFat
		daily.FiberGoal = goal.DailyFiber
	}

	var total types.Macros
	for _, meal := range meals {
		share := 1.0
		if meal.IsShared && size > 1 {
			share = 1 / float64(size)
		}
		total.Calories += deref(meal.Calories) * share
		total.Protein += deref(meal.Protein) * share
		total.Carbs += deref(meal.Carbs) * share
		total.Fat += deref(meal.Fat) * share
		total.Fiber += deref(meal.Fiber) * share
	}
	daily.CaloriesConsumed = round1(total.Calories)
	daily.ProteinConsumed = round1(total.Protein)
	daily.CarbsConsumed = round1(total.Carbs)
	daily.FatConsumed = round1(total.Fat)
	daily.FiberConsumed = round1(total.Fiber)
	daily.GoalCompletionPercentage = GoalCompletion(&daily)
	daily.ConsistencyScore = ConsistencyScore(&daily)

	var award *AwardResult
	if daily.GoalCompletionPercentage >= nutritionGoalThreshold && !daily.GoalAwarded {
		award, err = s.gamification.AwardPointsTx(tx, userID, ActionAchieveNutritionGoal, nil)
		if err != nil {
			return nil, nil, err
		}
		daily.GoalAwarded = true
	}

	if err := tx.Save(&daily).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to save daily nutrition: %w", err)
	}
	return &daily, award, nil
}

// DailyLog lists the nutrition log between from and to, both inclusive
func (s *NutritionService) DailyLog(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.DailyNutrition, error) {
	var rows []models.DailyNutrition
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, models.DateOnly(from), models.DateOnly(to)).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load nutrition log: %w", err)
	}
	return rows, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
