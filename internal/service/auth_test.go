package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuthTest(t *testing.T) (*gorm.DB, *service.AuthService) {
	db := testhelpers.SetupTestDB(t)
	gamification := service.NewGamificationService(db)
	return db, service.NewAuthService(db, "test-secret", 7*24*time.Hour, gamification)
}

func TestRegisterAndLogin(t *testing.T) {
	db, authSvc := setupAuthTest(t)
	ctx := context.Background()

	user, token, err := authSvc.Register(ctx, "mario_rossi", "Mario@Example.com", "Sup3r$ecret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "mario@example.com", user.Email)
	assert.NotEqual(t, "Sup3r$ecret", user.PasswordHash)

	claims, err := authSvc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "mario_rossi", claims.Username)

	var stats models.UserStats
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&stats).Error)
	assert.Equal(t, 1, stats.Level)

	var welcome int64
	require.NoError(t, db.Model(&models.UserBadge{}).
		Joins("JOIN badges ON badges.id = user_badges.badge_id").
		Where("user_badges.user_id = ? AND badges.name = ?", user.ID, "Benvenuto").
		Count(&welcome).Error)
	assert.Equal(t, int64(1), welcome)

	t.Run("by username", func(t *testing.T) {
		loggedIn, token, err := authSvc.Login(ctx, "mario_rossi", "Sup3r$ecret")
		require.NoError(t, err)
		assert.Equal(t, user.ID, loggedIn.ID)
		assert.NotEmpty(t, token)
	})

	t.Run("by email", func(t *testing.T) {
		_, _, err := authSvc.Login(ctx, "MARIO@example.com", "Sup3r$ecret")
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := authSvc.Login(ctx, "mario_rossi", "wrong")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("duplicate", func(t *testing.T) {
		_, _, err := authSvc.Register(ctx, "mario_rossi", "other@example.com", "Sup3r$ecret")
		assert.ErrorIs(t, err, service.ErrUserExists)
	})
}

func TestRegisterValidation(t *testing.T) {
	_, authSvc := setupAuthTest(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"short username", "ab", "a@example.com", "Sup3r$ecret"},
		{"bad username chars", "mario rossi", "a@example.com", "Sup3r$ecret"},
		{"bad email", "mario", "not-an-email", "Sup3r$ecret"},
		{"short password", "mario", "a@example.com", "S3$a"},
		{"no special", "mario", "a@example.com", "Sup3rSecret"},
		{"no digit", "mario", "a@example.com", "Super$ecret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := authSvc.Register(ctx, tt.username, tt.email, tt.password)
			assert.ErrorIs(t, err, service.ErrValidation)
		})
	}
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	db, authSvc := setupAuthTest(t)
	other := service.NewAuthService(db, "another-secret", time.Hour, service.NewGamificationService(db))
	user := testhelpers.CreateUser(t, db, "giulia")

	token, err := other.GenerateToken(user)
	require.NoError(t, err)

	_, err = authSvc.ValidateToken(token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	_, err = authSvc.ValidateToken("garbage")
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}
