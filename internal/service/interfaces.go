package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, string, error)
	Login(ctx context.Context, identifier, password string) (*models.User, string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	SessionTTL() time.Duration
}

// IAIService defines the AI-backed features. Every method returns a usable
// value; failures are replaced by the deterministic fallback.
type IAIService interface {
	SuggestRecipes(ctx context.Context, userID uuid.UUID, maxRecipes, servings int) types.RecipeList
	ExpiringRecipes(ctx context.Context, userID uuid.UUID, maxRecipes int) types.RecipeList
	PlanMeals(ctx context.Context, userID uuid.UUID, days int) types.MealPlanByDay
	SuggestShopping(ctx context.Context, userID uuid.UUID) types.SuggestionList
	RecyclingIdeas(ctx context.Context, userID uuid.UUID) types.SuggestionList
	Chat(ctx context.Context, userID uuid.UUID, message string) types.ChatReply
}

// ObjectStore uploads report exports and hands out download links
type ObjectStore interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) error
	GeneratePresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)
}
