package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/testhelpers"
	"github.com/pageza/foodflow/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateGoals(t *testing.T) {
	tests := []struct {
		name     string
		profile  models.NutritionalProfile
		calories float64
		protein  float64
		fat      float64
		carbs    float64
	}{
		{
			name:     "male moderate maintain",
			profile:  models.NutritionalProfile{Age: 30, Weight: 80, Height: 180, Gender: "male", ActivityLevel: "moderate", Goal: "maintain"},
			calories: 2759,
			protein:  144,
			fat:      85.8,
			carbs:    352.6,
		},
		{
			name:     "female sedentary lose weight",
			profile:  models.NutritionalProfile{Age: 40, Weight: 60, Height: 165, Gender: "female", ActivityLevel: "sedentary", Goal: "lose_weight"},
			calories: 1219,
			protein:  108,
			fat:      37.9,
			carbs:    111.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := service.CalculateGoals(&tt.profile)
			assert.Equal(t, tt.calories, calc.DailyCalories)
			assert.Equal(t, tt.protein, calc.DailyProtein)
			assert.InDelta(t, tt.fat, calc.DailyFat, 0.001)
			assert.InDelta(t, tt.carbs, calc.DailyCarbs, 0.001)
			assert.InDelta(t, calc.DailyCalories/1000*14, calc.DailyFiber, 0.1)
		})
	}
}

func TestSaveProfileDefaultsAndLists(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewNutritionService(db, service.NewGamificationService(db))
	user := testhelpers.CreateUser(t, db, "marta")
	ctx := context.Background()

	profile, calc, err := svc.SaveProfile(ctx, user.ID, &types.ProfileRequest{
		DietaryRestrictions: types.ParseList("vegetariano, senza glutine"),
		Allergies:           types.ParseList(`["arachidi"]`),
	})
	require.NoError(t, err)
	assert.Equal(t, 25, profile.Age)
	assert.Equal(t, "moderate", profile.ActivityLevel)
	assert.Equal(t, []string{"vegetariano", "senza glutine"}, profile.RestrictionList())
	assert.Equal(t, []string{"arachidi"}, profile.AllergyList())
	assert.Greater(t, calc.DailyCalories, 0.0)

	_, goal, err := svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, goal)
	assert.Equal(t, calc.DailyCalories, goal.DailyCalories)

	_, _, err = svc.SaveProfile(ctx, user.ID, &types.ProfileRequest{Age: 200})
	assert.ErrorIs(t, err, service.ErrValidation)
	_, _, err = svc.SaveProfile(ctx, user.ID, &types.ProfileRequest{ActivityLevel: "couch"})
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestGoalCompletionAndConsistency(t *testing.T) {
	day := &models.DailyNutrition{
		CaloriesConsumed: 2000, CaloriesGoal: 2000,
		ProteinConsumed: 300, ProteinGoal: 150,
		CarbsConsumed: 125, CarbsGoal: 250,
		FatConsumed: 65, FatGoal: 65,
		FiberConsumed: 0, FiberGoal: 25,
	}
	// ratios 1, 2, 0.5, 1, 0
	assert.Equal(t, 70.0, service.GoalCompletion(day))
	assert.Equal(t, 50.0, service.ConsistencyScore(day))
}

func TestRecomputeDailySharedMealsAndAward(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	gamification := service.NewGamificationService(db)
	nutrition := service.NewNutritionService(db, gamification)
	family := service.NewFamilyService(db)
	ctx := context.Background()

	anna := testhelpers.CreateUser(t, db, "anna")
	paolo := testhelpers.CreateUser(t, db, "paolo")
	fam, err := family.Create(ctx, anna.ID, "Rossi")
	require.NoError(t, err)
	_, err = family.Join(ctx, paolo.ID, fam.FamilyCode)
	require.NoError(t, err)

	day := models.DateOnly(time.Now())
	f := func(v float64) *float64 { return &v }
	require.NoError(t, db.Create(&models.MealPlan{
		UserID: anna.ID, Date: day, MealType: "dinner", IsShared: true,
		Calories: f(4000), Protein: f(300), Carbs: f(500), Fat: f(130), Fiber: f(50),
	}).Error)

	daily, award, err := nutrition.RecomputeDaily(ctx, paolo.ID, day)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, daily.CaloriesConsumed)
	assert.Equal(t, 150.0, daily.ProteinConsumed)
	assert.Equal(t, 100.0, daily.GoalCompletionPercentage)
	require.NotNil(t, award)
	assert.Equal(t, 20, award.PointsAwarded)

	daily, award, err = nutrition.RecomputeDaily(ctx, paolo.ID, day)
	require.NoError(t, err)
	assert.True(t, daily.GoalAwarded)
	assert.Nil(t, award)

	var rows int64
	require.NoError(t, db.Model(&models.DailyNutrition{}).Where("user_id = ?", paolo.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}
