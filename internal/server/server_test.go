package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodflow/backend/config"
	"github.com/pageza/foodflow/backend/internal/app"
	"github.com/pageza/foodflow/backend/internal/mocks"
	"github.com/pageza/foodflow/backend/internal/testhelpers"
)

func TestNew(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testhelpers.SetupTestDB(t)

	cfg := &config.Config{
		ServerHost:  "localhost",
		ServerPort:  "8080",
		JWTSecret:   "test-secret",
		SessionTTL:  time.Hour,
		CORSOrigins: []string{"http://localhost:5173"},
	}
	llm := &mocks.MockChatCompleter{}
	llm.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("offline"))

	server := New(cfg, app.New(cfg, db, app.Options{LLM: llm}))
	require.NotNil(t, server)
	assert.Equal(t, "localhost:8080", server.http.Addr)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	server.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	assert.NoError(t, server.Shutdown(context.Background()))
}
