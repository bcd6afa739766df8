package api

import (
	"bytes"
	"encoding/json"
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
	"github.com/pageza/foodflow/backend/internal/middleware"
	"github.com/pageza/foodflow/backend/internal/mocks"
	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/testhelpers"
)

// testEnv is a full application on an in-memory database with an LLM that
// always fails, so AI endpoints answer from the fallback
type testEnv struct {
	app    *app.App
	router *gin.Engine
	llm    *mocks.MockChatCompleter
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupTestDB(t)
	llm := &mocks.MockChatCompleter{}
	llm.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("llm offline"))

	cfg := &config.Config{
		JWTSecret:   "test-secret",
		SessionTTL:  time.Hour,
		CORSOrigins: []string{"http://localhost:5173"},
	}
	a := app.New(cfg, db, app.Options{LLM: llm})

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	RegisterRoutes(router, a)

	return &testEnv{app: a, router: router, llm: llm}
}

// session creates a user and returns it with a valid token
func (e *testEnv) session(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	user := testhelpers.CreateUser(t, e.app.DB, username)
	token, err := e.app.Auth.GenerateToken(user)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func expiryIn(days int) string {
	return time.Now().AddDate(0, 0, days).UTC().Format("2006-01-02")
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	for _, path := range []string{"/health", "/api/health"} {
		w := env.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]string
		decodeBody(t, w, &body)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "ok", body["database"])
		assert.Equal(t, "disabled", body["redis"])
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := setupTestEnv(t)

	for _, path := range []string{"/api/products", "/api/shopping-lists", "/api/dashboard", "/api/ai/recipes"} {
		w := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := env.do(t, http.MethodGet, "/api/products", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPantryEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.session(t, "anna")
	_, otherToken := env.session(t, "bruno")

	product := map[string]interface{}{
		"name":        "latte intero",
		"quantity":    1,
		"unit":        "l",
		"expiry_date": expiryIn(3),
		"category":    "Latticini",
	}

	w := env.do(t, http.MethodPost, "/api/products", token, product)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Product models.Product `json:"product"`
		Award   struct {
			PointsAwarded int `json:"points_awarded"`
		} `json:"award"`
	}
	decodeBody(t, w, &created)
	assert.Equal(t, "Latte Intero", created.Product.Name)
	assert.Equal(t, 60, created.Award.PointsAwarded)
	productPath := "/api/products/" + created.Product.ID.String()

	t.Run("duplicate answers 409 with the existing product", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/products", token, product)
		require.Equal(t, http.StatusConflict, w.Code)
		var body struct {
			Existing models.Product `json:"existing"`
		}
		decodeBody(t, w, &body)
		assert.Equal(t, created.Product.ID, body.Existing.ID)
	})

	t.Run("validation errors name the field", func(t *testing.T) {
		bad := map[string]interface{}{
			"name": "Pane", "quantity": 1, "unit": "pz", "expiry_date": expiryIn(-2), "category": "Altro",
		}
		w := env.do(t, http.MethodPost, "/api/products", token, bad)
		require.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]string
		decodeBody(t, w, &body)
		assert.Equal(t, "expiry_date", body["field"])
	})

	t.Run("other users are denied", func(t *testing.T) {
		w := env.do(t, http.MethodGet, productPath, otherToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/products/42", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("expiring", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/products/expiring?days=5", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Products []models.Product `json:"products"`
			Days     int              `json:"days"`
		}
		decodeBody(t, w, &body)
		assert.Equal(t, 5, body.Days)
		assert.Len(t, body.Products, 1)
	})

	t.Run("waste half then recycle", func(t *testing.T) {
		w := env.do(t, http.MethodPost, productPath+"/waste", token, map[string]float64{"waste_percentage": 50})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var wasted struct {
			Product models.Product `json:"product"`
		}
		decodeBody(t, w, &wasted)
		assert.Equal(t, 0.5, wasted.Product.Quantity)
		assert.False(t, wasted.Product.Wasted)

		w = env.do(t, http.MethodPost, productPath+"/recycle", token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = env.do(t, http.MethodGet, productPath, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestShoppingCompleteFlow(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.session(t, "carlo")

	w := env.do(t, http.MethodPost, "/api/shopping-lists", token, map[string]interface{}{"name": "Spesa"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		List models.ShoppingList `json:"list"`
	}
	decodeBody(t, w, &created)
	listPath := "/api/shopping-lists/" + created.List.ID.String()

	item := map[string]interface{}{"name": "Pane", "quantity": 2, "unit": "pz"}
	w = env.do(t, http.MethodPost, listPath+"/items", token, item)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var added struct {
		Item   models.ShoppingItem `json:"item"`
		Merged bool                `json:"merged"`
	}
	decodeBody(t, w, &added)
	assert.False(t, added.Merged)

	w = env.do(t, http.MethodPost, listPath+"/items", token, item)
	require.Equal(t, http.StatusOK, w.Code)
	var merged struct {
		Item   models.ShoppingItem `json:"item"`
		Merged bool                `json:"merged"`
	}
	decodeBody(t, w, &merged)
	assert.True(t, merged.Merged)
	assert.Equal(t, 4.0, merged.Item.Quantity)

	w = env.do(t, http.MethodPost, listPath+"/complete", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPatch, "/api/shopping-items/"+added.Item.ID.String()+"/toggle", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, listPath, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Progress float64 `json:"progress"`
	}
	decodeBody(t, w, &view)
	assert.Equal(t, 100.0, view.Progress)

	w = env.do(t, http.MethodPost, listPath+"/complete", token, map[string]float64{"actual_spent": 3.5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result struct {
		Added        int `json:"added"`
		Updated      int `json:"updated"`
		PointsEarned int `json:"points_earned"`
	}
	decodeBody(t, w, &result)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 2, result.PointsEarned)

	w = env.do(t, http.MethodPost, listPath+"/complete", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/api/products?search=pane", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pantry struct {
		Products []models.Product `json:"products"`
	}
	decodeBody(t, w, &pantry)
	require.Len(t, pantry.Products, 1)
	assert.Equal(t, 4.0, pantry.Products[0].Quantity)
}

func TestAIEndpointsFallBack(t *testing.T) {
	env := setupTestEnv(t)
	user, token := env.session(t, "dora")
	testhelpers.CreateProduct(t, env.app.DB, user.ID, "Zucchine", 3, "pz", 2)

	w := env.do(t, http.MethodGet, "/api/ai/recipes", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recipes struct {
		IngredientsBased struct {
			Source string `json:"source"`
		} `json:"ingredients_based"`
		ExpiringBased struct {
			Source string `json:"source"`
		} `json:"expiring_based"`
	}
	decodeBody(t, w, &recipes)
	assert.Equal(t, "fallback", recipes.IngredientsBased.Source)
	assert.Equal(t, "fallback", recipes.ExpiringBased.Source)

	w = env.do(t, http.MethodPost, "/api/ai/chat", token, map[string]string{"message": "ciao"})
	require.Equal(t, http.StatusOK, w.Code)
	var reply struct {
		Response string `json:"response"`
		Source   string `json:"source"`
	}
	decodeBody(t, w, &reply)
	assert.NotEmpty(t, reply.Response)
	assert.Equal(t, "fallback", reply.Source)

	w = env.do(t, http.MethodPost, "/api/ai/chat", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/ai/rate-limit", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		Enabled   bool `json:"enabled"`
		Limit     int  `json:"limit"`
		Remaining int  `json:"remaining"`
	}
	decodeBody(t, w, &status)
	assert.False(t, status.Enabled)
	assert.Equal(t, 30, status.Limit)
	assert.Equal(t, 30, status.Remaining)
}

func TestFamilyEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	_, adminToken := env.session(t, "elio")
	_, memberToken := env.session(t, "franca")

	w := env.do(t, http.MethodGet, "/api/family", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/family", adminToken, map[string]string{"name": "Casa"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var family models.Family
	decodeBody(t, w, &family)

	w = env.do(t, http.MethodPost, "/api/family", adminToken, map[string]string{"name": "Altra"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/family/join", memberToken, map[string]string{"family_code": family.FamilyCode})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/family/members/count", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var count map[string]int
	decodeBody(t, w, &count)
	assert.Equal(t, 2, count["count"])

	w = env.do(t, http.MethodPost, "/api/family/leave", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/family/leave", memberToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyticsAndDashboard(t *testing.T) {
	env := setupTestEnv(t)
	user, token := env.session(t, "gino")
	testhelpers.CreateProduct(t, env.app.DB, user.ID, "Yogurt", 0.5, "pz", 1)

	w := env.do(t, http.MethodPost, "/api/analytics/weekly/export", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = env.do(t, http.MethodGet, "/api/analytics/waste-score", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/notifications", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var dashboard Dashboard
	decodeBody(t, w, &dashboard)
	assert.Len(t, dashboard.Expiring, 1)
	assert.Len(t, dashboard.LowStock, 1)
	require.NotNil(t, dashboard.Stats)
	require.NotNil(t, dashboard.WasteScore)
	assert.NotEmpty(t, dashboard.Notifications)
	assert.Empty(t, dashboard.OpenLists)
}
