package testhelpers

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/foodflow/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain password of every user made by CreateUser
const TestPassword = "Passw0rd!"

// CreateUser inserts a user with TestPassword and an empty stats row
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if err := db.Create(&models.UserStats{UserID: user.ID, Level: 1}).Error; err != nil {
		t.Fatalf("failed to create user stats: %v", err)
	}
	return user
}

// CreateProduct inserts a pantry product expiring in expiresIn days
func CreateProduct(t *testing.T, db *gorm.DB, userID uuid.UUID, name string, qty float64, unit string, expiresIn int) *models.Product {
	t.Helper()

	product := &models.Product{
		UserID:      userID,
		Name:        name,
		Quantity:    qty,
		Unit:        unit,
		ExpiryDate:  models.DateOnly(time.Now()).AddDate(0, 0, expiresIn),
		Category:    "Altro",
		MinQuantity: 1,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return product
}
