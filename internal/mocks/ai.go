package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockChatCompleter stands in for the LLM client
type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) Complete(ctx context.Context, messages []service.Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

// MockAIService is a mock implementation of the AIService interface
type MockAIService struct {
	mock.Mock
}

func (m *MockAIService) SuggestRecipes(ctx context.Context, userID uuid.UUID, maxRecipes, servings int) types.RecipeList {
	args := m.Called(ctx, userID, maxRecipes, servings)
	return args.Get(0).(types.RecipeList)
}

func (m *MockAIService) ExpiringRecipes(ctx context.Context, userID uuid.UUID, maxRecipes int) types.RecipeList {
	args := m.Called(ctx, userID, maxRecipes)
	return args.Get(0).(types.RecipeList)
}

func (m *MockAIService) PlanMeals(ctx context.Context, userID uuid.UUID, days int) types.MealPlanByDay {
	args := m.Called(ctx, userID, days)
	return args.Get(0).(types.MealPlanByDay)
}

func (m *MockAIService) SuggestShopping(ctx context.Context, userID uuid.UUID) types.SuggestionList {
	args := m.Called(ctx, userID)
	return args.Get(0).(types.SuggestionList)
}

func (m *MockAIService) RecyclingIdeas(ctx context.Context, userID uuid.UUID) types.SuggestionList {
	args := m.Called(ctx, userID)
	return args.Get(0).(types.SuggestionList)
}

func (m *MockAIService) Chat(ctx context.Context, userID uuid.UUID, message string) types.ChatReply {
	args := m.Called(ctx, userID, message)
	return args.Get(0).(types.ChatReply)
}
