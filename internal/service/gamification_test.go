package service_test

import (
	"context"
	"testing"

	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateLevel(t *testing.T) {
	tests := []struct {
		points int
		level  int
	}{
		{-50, 1},
		{0, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{900, 4},
		{10000, 11},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, service.CalculateLevel(tt.points), "points=%d", tt.points)
	}

	prev := service.CalculateLevel(0)
	for p := 0; p <= 5000; p += 7 {
		level := service.CalculateLevel(p)
		assert.GreaterOrEqual(t, level, prev)
		prev = level
	}
}

func TestGetLevelProgress(t *testing.T) {
	progress := service.GetLevelProgress(250)
	assert.Equal(t, 2, progress.CurrentLevel)
	assert.Equal(t, 400, progress.PointsForNextLevel)
	assert.Equal(t, 150, progress.PointsNeeded)
	assert.Equal(t, 50.0, progress.ProgressPercentage)
}

func TestAwardPoints(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewGamificationService(db)
	user := testhelpers.CreateUser(t, db, "mario")
	ctx := context.Background()

	result, err := svc.AwardPoints(ctx, user.ID, service.ActionShoppingCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, result.PointsAwarded)
	assert.Equal(t, 20, result.NewTotal)
	assert.False(t, result.LevelUp)

	amount := 85
	result, err = svc.AwardPoints(ctx, user.ID, "custom", &amount)
	require.NoError(t, err)
	assert.Equal(t, 105, result.NewTotal)
	assert.Equal(t, 2, result.Level)
	assert.True(t, result.LevelUp)

	var ledger []models.RewardHistory
	require.NoError(t, db.Where("user_id = ? AND reward_type = ?", user.ID, models.RewardPoints).Order("value").Find(&ledger).Error)
	require.Len(t, ledger, 2)
	assert.Equal(t, "Azione: shopping_completed", ledger[0].Description)
	assert.Equal(t, 85, ledger[1].Value)
}

func TestCheckBadgesRequiresConditionAndPoints(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewGamificationService(db)
	user := testhelpers.CreateUser(t, db, "luigi")
	ctx := context.Background()

	require.NoError(t, svc.IncrementStat(db, user.ID, "total_products_recycled", 1))

	// Riciclatore needs 10 points
	amount := 5
	result, err := svc.AwardPoints(ctx, user.ID, "custom", &amount)
	require.NoError(t, err)
	assert.NotContains(t, badgeNames(result.NewBadges), "Riciclatore")

	result, err = svc.AwardPoints(ctx, user.ID, service.ActionWasteReduction, nil)
	require.NoError(t, err)
	assert.Contains(t, badgeNames(result.NewBadges), "Riciclatore")

	// earned only once
	result, err = svc.AwardPoints(ctx, user.ID, service.ActionWasteReduction, nil)
	require.NoError(t, err)
	assert.NotContains(t, badgeNames(result.NewBadges), "Riciclatore")

	summary, err := svc.GetStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 35, summary.Stats.Points)
	var names []string
	for _, ub := range summary.Badges {
		names = append(names, ub.Badge.Name)
	}
	assert.Contains(t, names, "Riciclatore")
}

func TestLeaderboard(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewGamificationService(db)
	ctx := context.Background()

	for i, name := range []string{"anna", "bruno", "carla"} {
		user := testhelpers.CreateUser(t, db, name)
		amount := (i + 1) * 100
		_, err := svc.AwardPoints(ctx, user.ID, "custom", &amount)
		require.NoError(t, err)
	}

	entries, err := svc.Leaderboard(ctx, "points", "week", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "carla", entries[0].Username)
	assert.Equal(t, 300, entries[0].Points)
	assert.Equal(t, "bruno", entries[1].Username)
	assert.Equal(t, 2, entries[1].Rank)
}

func badgeNames(badges []models.Badge) []string {
	names := make([]string, 0, len(badges))
	for _, b := range badges {
		names = append(names, b.Name)
	}
	return names
}
