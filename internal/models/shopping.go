package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Shopping item priorities
const (
	PriorityLow    = 0
	PriorityMedium = 1
	PriorityHigh   = 2
)

type ShoppingList struct {
	Base
	UserID      uuid.UUID      `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	StoreName   string         `gorm:"size:100" json:"store_name,omitempty"`
	Budget      *float64       `json:"budget,omitempty"`
	ActualSpent float64        `json:"actual_spent"`
	Completed   bool           `gorm:"index" json:"completed"`
	IsSmart     bool           `json:"is_smart"`
	IsTemplate  bool           `json:"is_template"`
	CompletedAt *time.Time     `gorm:"index" json:"completed_at,omitempty"`
	Items       []ShoppingItem `gorm:"foreignKey:ShoppingListID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type ShoppingItem struct {
	Base
	ShoppingListID uuid.UUID `gorm:"type:varchar(36);not null;index" json:"shopping_list_id"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	Quantity       float64   `gorm:"not null" json:"quantity"`
	Unit           string    `gorm:"size:20;not null" json:"unit"`
	Category       string    `gorm:"size:50" json:"category,omitempty"`
	Priority       int       `json:"priority"`
	Completed      bool      `json:"completed"`
	EstimatedPrice *float64  `json:"estimated_price,omitempty"`
	Notes          string    `gorm:"type:text" json:"notes,omitempty"`
}

// Progress is the completed-items percentage of the loaded Items
func (l *ShoppingList) Progress() float64 {
	if len(l.Items) == 0 {
		return 0
	}
	done := 0
	for _, item := range l.Items {
		if item.Completed {
			done++
		}
	}
	return math.Round(float64(done)/float64(len(l.Items))*1000) / 10
}

// EstimatedTotal sums quantity × estimated price over priced items
func (l *ShoppingList) EstimatedTotal() float64 {
	total := 0.0
	for _, item := range l.Items {
		if item.EstimatedPrice != nil {
			total += item.Quantity * *item.EstimatedPrice
		}
	}
	return math.Round(total*100) / 100
}

func (l *ShoppingList) IsOverBudget() bool {
	if l.Budget == nil {
		return false
	}
	spent := l.ActualSpent
	if spent == 0 {
		spent = l.EstimatedTotal()
	}
	return spent > *l.Budget
}
