package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a pantry item. Wasted products stay in the table for analytics.
type Product struct {
	Base
	UserID      uuid.UUID `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Name        string    `gorm:"size:100;not null;index" json:"name"`
	Quantity    float64   `gorm:"not null" json:"quantity"`
	Unit        string    `gorm:"size:20;not null" json:"unit"`
	ExpiryDate  time.Time `gorm:"not null;index" json:"expiry_date"`
	Category    string    `gorm:"size:50;not null;index" json:"category"`
	MinQuantity float64   `gorm:"default:1" json:"min_quantity"`
	Wasted      bool      `gorm:"index" json:"wasted"`
	IsShared    bool      `gorm:"index" json:"is_shared"`
	Allergens   string    `gorm:"size:200" json:"allergens,omitempty"`
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`
}

// DaysUntilExpiry counts whole days from now's date to the expiry date
func (p *Product) DaysUntilExpiry(now time.Time) int {
	return int(DateOnly(p.ExpiryDate).Sub(DateOnly(now)).Hours() / 24)
}

func (p *Product) IsExpired(now time.Time) bool {
	return p.DaysUntilExpiry(now) < 0
}

// IsExpiringSoon reports expiry within the next days days (already expired included)
func (p *Product) IsExpiringSoon(now time.Time, days int) bool {
	return p.DaysUntilExpiry(now) <= days
}

func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.MinQuantity
}
