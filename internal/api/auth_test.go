package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodflow/backend/internal/middleware"
	"github.com/pageza/foodflow/backend/internal/mocks"
	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/types"
)

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.SessionCookie {
			return cookie
		}
	}
	return nil
}

func TestAuthFlow(t *testing.T) {
	env := setupTestEnv(t)

	register := map[string]string{"username": "giulia", "email": "Giulia@Example.com", "password": "Passw0rd!"}
	w := env.do(t, http.MethodPost, "/api/auth/register", "", register)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var registered struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	decodeBody(t, w, &registered)
	assert.Equal(t, "giulia@example.com", registered.User.Email)
	assert.NotEmpty(t, registered.Token)
	assert.NotContains(t, w.Body.String(), "password")

	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 3600, cookie.MaxAge)

	t.Run("cookie authenticates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: cookie.Value})
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"giulia"`)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/register", "", register)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("weak password", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/register", "",
			map[string]string{"username": "marta", "email": "marta@example.com", "password": "password"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"password"`)
	})

	t.Run("login by email", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/login", "",
			map[string]string{"identifier": "giulia@example.com", "password": "Passw0rd!"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotNil(t, sessionCookie(w))
	})

	t.Run("wrong password", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/login", "",
			map[string]string{"identifier": "giulia", "password": "Wr0ng!pass"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/logout", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		cleared := sessionCookie(w)
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
		assert.True(t, cleared.MaxAge < 0)
	})
}

func TestAuthHandlerWithMockService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()

	authService := &mocks.MockAuthService{}
	authService.On("ValidateToken", "valid-token").Return(&types.TokenClaims{UserID: userID, Username: "ghost"}, nil)
	authService.On("GetUser", mock.Anything, userID).Return(nil, fmt.Errorf("failed to load user: %w", service.ErrNotFound))
	authService.On("Login", mock.Anything, "ghost", "Passw0rd!").Return(nil, "", context.DeadlineExceeded)

	router := gin.New()
	NewAuthHandler(authService, true).RegisterRoutes(router.Group("/api"))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body, _ := json.Marshal(map[string]string{"identifier": "ghost", "password": "Passw0rd!"})
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, strings.Contains(w.Body.String(), "deadline"))

	authService.AssertExpectations(t)
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &service.ValidationError{Field: "name", Message: "is required"}, http.StatusBadRequest},
		{"duplicate", &service.DuplicateProductError{Existing: models.Product{Name: "Latte"}}, http.StatusConflict},
		{"not found", fmt.Errorf("wrapped: %w", service.ErrNotFound), http.StatusNotFound},
		{"not member", service.ErrNotMember, http.StatusNotFound},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"user exists", service.ErrUserExists, http.StatusConflict},
		{"already completed", service.ErrAlreadyCompleted, http.StatusConflict},
		{"already member", service.ErrAlreadyMember, http.StatusConflict},
		{"nothing to complete", service.ErrNothingToComplete, http.StatusBadRequest},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"storage", service.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{"unknown", fmt.Errorf("boom at %s", time.Now()), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
