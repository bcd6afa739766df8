package models

import (
	"time"

	"github.com/google/uuid"
)

type UserStats struct {
	Base
	UserID                 uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex" json:"user_id"`
	User                   *User     `gorm:"foreignKey:UserID" json:"-"`
	Points                 int       `json:"points"`
	Level                  int       `gorm:"default:1" json:"level"`
	TotalProductsAdded     int       `json:"total_products_added"`
	TotalProductsWasted    int       `json:"total_products_wasted"`
	TotalProductsRecycled  int       `json:"total_products_recycled"`
	TotalShoppingCompleted int       `json:"total_shopping_completed"`
	TotalRecipesCreated    int       `json:"total_recipes_created"`
	WasteReductionScore    float64   `json:"waste_reduction_score"`
}

type Badge struct {
	Base
	Name           string `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description    string `gorm:"type:text" json:"description"`
	Icon           string `gorm:"size:50" json:"icon"`
	PointsRequired int    `json:"points_required"`
	Condition      string `gorm:"size:50;index" json:"condition"`
	Category       string `gorm:"size:50" json:"category"`
}

type UserBadge struct {
	Base
	UserID   uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeID  uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_badge" json:"badge_id"`
	Badge    *Badge    `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	EarnedAt time.Time `json:"earned_at"`
}

// Reward types recorded in RewardHistory
const (
	RewardPoints = "points"
	RewardBadge  = "badge"
)

// RewardHistory is an append-only ledger of points and badges
type RewardHistory struct {
	Base
	UserID      uuid.UUID  `gorm:"type:varchar(36);not null;index" json:"user_id"`
	RewardType  string     `gorm:"size:20;not null" json:"reward_type"`
	Value       int        `json:"value"`
	BadgeID     *uuid.UUID `gorm:"type:varchar(36)" json:"badge_id,omitempty"`
	Description string     `gorm:"size:255" json:"description"`
}
