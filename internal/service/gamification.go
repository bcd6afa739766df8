package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/foodflow/backend/internal/models"
	"gorm.io/gorm"
)

// Gamification actions
const (
	ActionProductAdded         = "product_added"
	ActionShoppingListCreated  = "shopping_list_created"
	ActionShoppingCompleted    = "shopping_completed"
	ActionWasteReduction       = "waste_reduction"
	ActionAchieveNutritionGoal = "achieve_nutrition_goal"
	ActionCreateRecipe         = "create_recipe"
	ActionFirstProduct         = "first_product"
)

// PointsTable is the default reward of every action
var PointsTable = map[string]int{
	ActionProductAdded:         10,
	ActionShoppingListCreated:  5,
	ActionShoppingCompleted:    20,
	ActionWasteReduction:       15,
	ActionAchieveNutritionGoal: 20,
	ActionCreateRecipe:         5,
	ActionFirstProduct:         50,
}

// AwardResult describes one points award
type AwardResult struct {
	PointsAwarded int            `json:"points_awarded"`
	NewTotal      int            `json:"new_total"`
	Level         int            `json:"level"`
	LevelUp       bool           `json:"level_up"`
	NewBadges     []models.Badge `json:"new_badges,omitempty"`
}

// LevelProgress is the position of a points total inside its level
type LevelProgress struct {
	CurrentLevel       int     `json:"current_level"`
	CurrentPoints      int     `json:"current_points"`
	PointsForNextLevel int     `json:"points_for_next_level"`
	PointsNeeded       int     `json:"points_needed"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// LeaderboardEntry is one ranked user
type LeaderboardEntry struct {
	Rank                int       `json:"rank"`
	UserID              uuid.UUID `json:"user_id"`
	Username            string    `json:"username"`
	Points              int       `json:"points"`
	Level               int       `json:"level"`
	WasteReductionScore float64   `json:"waste_reduction_score"`
	ProductsAdded       int       `json:"products_added"`
}

// StatsSummary is the gamification page of a user
type StatsSummary struct {
	Stats         models.UserStats       `json:"stats"`
	Progress      LevelProgress          `json:"progress"`
	Badges        []models.UserBadge     `json:"badges"`
	RecentRewards []models.RewardHistory `json:"recent_rewards"`
}

// CalculateLevel maps points to a level: floor(sqrt(points/100)) + 1
func CalculateLevel(points int) int {
	if points < 0 {
		return 1
	}
	level := int(math.Sqrt(float64(points)/100)) + 1
	if level < 1 {
		return 1
	}
	return level
}

// GetLevelProgress reports how far points are from the next level
func GetLevelProgress(points int) LevelProgress {
	level := CalculateLevel(points)
	current := (level - 1) * (level - 1) * 100
	next := level * level * 100

	progress := float64(points-current) / float64(next-current) * 100
	progress = math.Min(100, math.Max(0, progress))

	return LevelProgress{
		CurrentLevel:       level,
		CurrentPoints:      points,
		PointsForNextLevel: next,
		PointsNeeded:       next - points,
		ProgressPercentage: math.Round(progress*10) / 10,
	}
}

type GamificationService struct {
	db *gorm.DB
}

func NewGamificationService(db *gorm.DB) *GamificationService {
	return &GamificationService{db: db}
}

// EnsureStats loads the stats row of a user, creating it when missing
func (s *GamificationService) EnsureStats(tx *gorm.DB, userID uuid.UUID) (*models.UserStats, error) {
	var stats models.UserStats
	err := tx.Where("user_id = ?", userID).First(&stats).Error
	if err == nil {
		return &stats, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}

	stats = models.UserStats{UserID: userID, Level: 1}
	if err := tx.Create(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to create user stats: %w", err)
	}
	return &stats, nil
}

// AwardPoints awards action points in its own transaction
func (s *GamificationService) AwardPoints(ctx context.Context, userID uuid.UUID, action string, amount *int) (*AwardResult, error) {
	var result *AwardResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.AwardPointsTx(tx, userID, action, amount)
		return err
	})
	return result, err
}

// AwardPointsTx adds amount points (PointsTable[action] when nil) inside tx,
// records the ledger entry, recomputes the level and evaluates badges
func (s *GamificationService) AwardPointsTx(tx *gorm.DB, userID uuid.UUID, action string, amount *int) (*AwardResult, error) {
	points := PointsTable[action]
	if amount != nil {
		points = *amount
	}

	stats, err := s.EnsureStats(tx, userID)
	if err != nil {
		return nil, err
	}

	oldLevel := stats.Level
	stats.Points += points
	newLevel := CalculateLevel(stats.Points)
	levelUp := newLevel > oldLevel
	if levelUp {
		stats.Level = newLevel
	}

	if err := tx.Model(stats).Updates(map[string]interface{}{
		"points": stats.Points,
		"level":  stats.Level,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to update points: %w", err)
	}

	history := models.RewardHistory{
		UserID:      userID,
		RewardType:  models.RewardPoints,
		Value:       points,
		Description: fmt.Sprintf("Azione: %s", action),
	}
	if err := tx.Create(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to record reward: %w", err)
	}

	badges, err := s.CheckBadgesTx(tx, userID)
	if err != nil {
		return nil, err
	}

	return &AwardResult{
		PointsAwarded: points,
		NewTotal:      stats.Points,
		Level:         stats.Level,
		LevelUp:       levelUp,
		NewBadges:     badges,
	}, nil
}

// CheckBadgesTx awards every badge whose condition holds and whose points
// requirement is met. It returns the newly earned badges.
func (s *GamificationService) CheckBadgesTx(tx *gorm.DB, userID uuid.UUID) ([]models.Badge, error) {
	stats, err := s.EnsureStats(tx, userID)
	if err != nil {
		return nil, err
	}

	var badges []models.Badge
	if err := tx.Order("points_required").Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("failed to load badges: %w", err)
	}

	var earnedIDs []uuid.UUID
	if err := tx.Model(&models.UserBadge{}).Where("user_id = ?", userID).Pluck("badge_id", &earnedIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to load earned badges: %w", err)
	}
	earned := make(map[uuid.UUID]bool, len(earnedIDs))
	for _, id := range earnedIDs {
		earned[id] = true
	}

	var awarded []models.Badge
	for _, badge := range badges {
		if earned[badge.ID] || stats.Points < badge.PointsRequired {
			continue
		}
		ok, err := s.conditionMet(tx, stats, badge.Condition)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := s.grantBadge(tx, userID, badge); err != nil {
			return nil, err
		}
		awarded = append(awarded, badge)
	}
	return awarded, nil
}

// AwardBadgeTx grants the badge with the given condition regardless of points
func (s *GamificationService) AwardBadgeTx(tx *gorm.DB, userID uuid.UUID, condition string) (*models.Badge, error) {
	var badge models.Badge
	if err := tx.Where("condition = ?", condition).First(&badge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load badge: %w", err)
	}

	var count int64
	if err := tx.Model(&models.UserBadge{}).Where("user_id = ? AND badge_id = ?", userID, badge.ID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check badge: %w", err)
	}
	if count > 0 {
		return nil, nil
	}

	if err := s.grantBadge(tx, userID, badge); err != nil {
		return nil, err
	}
	return &badge, nil
}

func (s *GamificationService) grantBadge(tx *gorm.DB, userID uuid.UUID, badge models.Badge) error {
	if err := tx.Create(&models.UserBadge{UserID: userID, BadgeID: badge.ID, EarnedAt: time.Now()}).Error; err != nil {
		return fmt.Errorf("failed to award badge: %w", err)
	}
	badgeID := badge.ID
	history := models.RewardHistory{
		UserID:      userID,
		RewardType:  models.RewardBadge,
		BadgeID:     &badgeID,
		Description: fmt.Sprintf("Badge: %s", badge.Name),
	}
	if err := tx.Create(&history).Error; err != nil {
		return fmt.Errorf("failed to record badge reward: %w", err)
	}
	return nil
}

func (s *GamificationService) conditionMet(tx *gorm.DB, stats *models.UserStats, condition string) (bool, error) {
	switch condition {
	case "registration":
		return true, nil
	case "first_product":
		return stats.TotalProductsAdded >= 1, nil
	case "waste_reduction_50":
		return stats.TotalProductsAdded > 0 && stats.WasteReductionScore >= 50, nil
	case "recipes_10":
		return stats.TotalRecipesCreated >= 10, nil
	case "shopping_lists_5":
		return stats.TotalShoppingCompleted >= 5, nil
	case "nutrition_30_days":
		var days int64
		err := tx.Model(&models.DailyNutrition{}).
			Where("user_id = ? AND goal_completion_percentage >= ?", stats.UserID, 90).
			Count(&days).Error
		if err != nil {
			return false, fmt.Errorf("failed to count nutrition days: %w", err)
		}
		return days >= 30, nil
	case "first_recycle":
		return stats.TotalProductsRecycled >= 1, nil
	case "recycle_10":
		return stats.TotalProductsRecycled >= 10, nil
	case "recycle_25":
		return stats.TotalProductsRecycled >= 25, nil
	}
	return false, nil
}

// IncrementStat adds delta to one counter column of user_stats
func (s *GamificationService) IncrementStat(tx *gorm.DB, userID uuid.UUID, column string, delta int) error {
	if _, err := s.EnsureStats(tx, userID); err != nil {
		return err
	}
	err := tx.Model(&models.UserStats{}).
		Where("user_id = ?", userID).
		Update(column, gorm.Expr(column+" + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	return nil
}

// GetStats returns stats, level progress, badges and the last rewards of a user
func (s *GamificationService) GetStats(ctx context.Context, userID uuid.UUID) (*StatsSummary, error) {
	db := s.db.WithContext(ctx)

	stats, err := s.EnsureStats(db, userID)
	if err != nil {
		return nil, err
	}

	var badges []models.UserBadge
	if err := db.Preload("Badge").Where("user_id = ?", userID).Order("earned_at").Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("failed to load badges: %w", err)
	}

	var rewards []models.RewardHistory
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Limit(10).Find(&rewards).Error; err != nil {
		return nil, fmt.Errorf("failed to load rewards: %w", err)
	}

	return &StatsSummary{
		Stats:         *stats,
		Progress:      GetLevelProgress(stats.Points),
		Badges:        badges,
		RecentRewards: rewards,
	}, nil
}

// ListBadges returns the badge catalog
func (s *GamificationService) ListBadges(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	if err := s.db.WithContext(ctx).Order("points_required").Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("failed to load badges: %w", err)
	}
	return badges, nil
}

var leaderboardOrder = map[string]string{
	"points":          "user_stats.points DESC",
	"waste_reduction": "user_stats.waste_reduction_score DESC",
	"products_added":  "user_stats.total_products_added DESC",
}

// Leaderboard ranks users by metric (points, waste_reduction or
// products_added) among stats updated within timeframe (week, month or all)
func (s *GamificationService) Leaderboard(ctx context.Context, metric, timeframe string, topN int) ([]LeaderboardEntry, error) {
	order, ok := leaderboardOrder[metric]
	if !ok {
		order = leaderboardOrder["points"]
	}
	if topN <= 0 {
		topN = 10
	}

	query := s.db.WithContext(ctx).
		Table("user_stats").
		Select("users.id AS user_id, users.username, user_stats.points, user_stats.level, user_stats.waste_reduction_score, user_stats.total_products_added AS products_added").
		Joins("JOIN users ON users.id = user_stats.user_id")

	switch timeframe {
	case "week":
		query = query.Where("user_stats.updated_at >= ?", time.Now().AddDate(0, 0, -7))
	case "month":
		query = query.Where("user_stats.updated_at >= ?", time.Now().AddDate(0, 0, -30))
	}

	var entries []LeaderboardEntry
	if err := query.Order(order).Order("users.username").Limit(topN).Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
