package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Base
	Username     string `gorm:"size:80;not null;uniqueIndex" json:"username"`
	Email        string `gorm:"size:120;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
}

// Family groups users that share pantry items and meals
type Family struct {
	Base
	Name       string         `gorm:"size:100;not null" json:"name"`
	FamilyCode string         `gorm:"size:12;not null;uniqueIndex" json:"family_code"`
	CreatedBy  uuid.UUID      `gorm:"type:varchar(36);not null;index" json:"created_by"`
	IsActive   bool           `gorm:"index" json:"is_active"`
	Members    []FamilyMember `gorm:"foreignKey:FamilyID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

type FamilyMember struct {
	Base
	FamilyID uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_family_member" json:"family_id"`
	UserID   uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_family_member;index" json:"user_id"`
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
	IsAdmin  bool      `json:"is_admin"`
}
