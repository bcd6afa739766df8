package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

type AuthService struct {
	db           *gorm.DB
	jwtSecret    string
	ttl          time.Duration
	gamification *GamificationService
}

func NewAuthService(db *gorm.DB, jwtSecret string, ttl time.Duration, gamification *GamificationService) *AuthService {
	return &AuthService{
		db:           db,
		jwtSecret:    jwtSecret,
		ttl:          ttl,
		gamification: gamification,
	}
}

// SessionTTL is the lifetime of issued tokens
func (s *AuthService) SessionTTL() time.Duration {
	return s.ttl
}

// ValidateUsername checks 3-20 letters, digits or underscores
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return invalid("username", "must be 3-20 characters of letters, digits or underscore")
	}
	return nil
}

// ValidatePassword requires at least 8 characters with upper and lower case
// letters, a digit and a special character
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return invalid("password", "must be at least 8 characters")
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return invalid("password", "must contain upper and lower case letters, a digit and a special character")
	}
	return nil
}

// Register creates the user, its stats row and the welcome badge, and
// returns a session token
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := ValidateUsername(username); err != nil {
		return nil, "", err
	}
	if !emailPattern.MatchString(email) {
		return nil, "", invalid("email", "invalid email address")
	}
	if err := ValidatePassword(password); err != nil {
		return nil, "", err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		return nil, "", ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if _, err := s.gamification.EnsureStats(tx, user.ID); err != nil {
			return err
		}
		_, err := s.gamification.AwardBadgeTx(tx, user.ID, "registration")
		return err
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.GenerateToken(&user)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// Login accepts either the username or the email as identifier
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*models.User, string, error) {
	identifier = strings.TrimSpace(identifier)

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateToken(&user)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// GenerateToken signs a session token for user
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	claims := types.NewTokenClaims(user.ID, user.Username, time.Now(), s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token
func (s *AuthService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithIssuer(types.TokenIssuer))
	if err != nil || !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetUser loads a user by id
func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}
