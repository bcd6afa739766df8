package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pageza/foodflow/backend/config"
	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/testhelpers"
	"github.com/pageza/foodflow/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// llmServer answers every completion with content, or with status when it
// is not 200
func llmServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "upstream failure", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": content}}},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newAIService(db *gorm.DB, url, key string) *service.AIService {
	llm := service.NewLLMService(&config.Config{LLMAPIKey: key, LLMAPIURL: url, LLMModel: "test", LLMTimeout: 5 * time.Second})
	return service.NewAIService(db, llm, service.NewCompletionCache(nil))
}

func TestSuggestRecipesFallsBackOnUpstreamError(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	user := testhelpers.CreateUser(t, db, "ugo")
	for i, name := range []string{"Pasta", "Pomodori", "Basilico", "Aglio"} {
		testhelpers.CreateProduct(t, db, user.ID, name, 1, "pz", 10+i)
	}

	server := llmServer(t, http.StatusInternalServerError, "")
	svc := newAIService(db, server.URL, "key")

	list := svc.SuggestRecipes(context.Background(), user.ID, 5, 0)
	assert.Equal(t, types.SourceFallback, list.Source)
	require.Len(t, list.Recipes, 3)
	assert.Equal(t, "Ricetta con Pasta", list.Recipes[0].Name)
	assert.Len(t, list.Recipes[0].Ingredients, 3)
	assert.Len(t, list.Recipes[2].Ingredients, 2)
	assert.Equal(t, []string{"Ricetta generata automaticamente"}, list.Recipes[0].Tips)
	assert.Equal(t, 350.0, list.Recipes[0].NutritionalInfo.PerServing.Calories)
}

func TestSuggestRecipesEmptyPantry(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	user := testhelpers.CreateUser(t, db, "vera")
	svc := newAIService(db, "http://127.0.0.1:1", "key")

	list := svc.SuggestRecipes(context.Background(), user.ID, 5, 0)
	assert.Empty(t, list.Recipes)
	assert.NotNil(t, list.Recipes)
}

func TestSuggestRecipesParsesFilterAndNormalizes(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	user := testhelpers.CreateUser(t, db, "walter")
	testhelpers.CreateProduct(t, db, user.ID, "Latte", 1, "l", 10)
	require.NoError(t, db.Create(&models.NutritionalProfile{
		UserID:    user.ID,
		Allergies: models.StringsJSON([]string{"Arachidi"}),
	}).Error)

	content := "```json\n" + `{"recipes":[
		{"name":"Budino","ingredients":[{"item":"latte","quantity":"500","unit":"ml"},{"item":"Farina","quantity":0.2,"unit":"kg"}],"servings":2},
		{"name":"Biscotti","ingredients":[{"item":"burro di arachidi","quantity":100,"unit":"g"}],"servings":"4 persone"}
	]}` + "\n```"
	server := llmServer(t, http.StatusOK, content)
	svc := newAIService(db, server.URL, "key")

	list := svc.SuggestRecipes(context.Background(), user.ID, 5, 4)
	assert.Equal(t, types.SourceAI, list.Source)
	require.Len(t, list.Recipes, 1)

	recipe := list.Recipes[0]
	assert.Equal(t, "Budino", recipe.Name)
	assert.Equal(t, types.FlexInt(4), recipe.Servings)
	assert.Equal(t, types.Ingredient{Item: "latte", Quantity: 1, Unit: "l"}, recipe.Ingredients[0])
	assert.Equal(t, types.Ingredient{Item: "Farina", Quantity: 400, Unit: "g"}, recipe.Ingredients[1])
	assert.Equal(t, []string{"Segui le istruzioni con attenzione"}, recipe.Tips)
	assert.Equal(t, []string{}, recipe.DietaryTags)
	require.NotNil(t, recipe.NutritionalInfo)
}

func TestFallbackSkipsAllergens(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	user := testhelpers.CreateUser(t, db, "xenia")
	testhelpers.CreateProduct(t, db, user.ID, "Burro di arachidi", 1, "pz", 5)
	testhelpers.CreateProduct(t, db, user.ID, "Pane", 1, "pz", 6)
	require.NoError(t, db.Create(&models.NutritionalProfile{
		UserID:    user.ID,
		Allergies: models.StringsJSON([]string{"arachidi"}),
	}).Error)

	svc := newAIService(db, "", "")
	list := svc.SuggestRecipes(context.Background(), user.ID, 5, 0)
	assert.Equal(t, types.SourceFallback, list.Source)
	require.Len(t, list.Recipes, 1)
	assert.Equal(t, "Ricetta con Pane", list.Recipes[0].Name)
}

func TestViolatesPreferences(t *testing.T) {
	recipe := types.Recipe{
		Ingredients: []types.Ingredient{{Item: "Latte intero"}},
		DietaryTags: []string{"Vegetarian"},
	}
	assert.True(t, service.ViolatesPreferences(recipe, nil, []string{"latte"}))
	assert.False(t, service.ViolatesPreferences(recipe, []string{"vegetarian"}, nil))
	assert.True(t, service.ViolatesPreferences(recipe, []string{"vegan"}, nil))

	recipe.DietaryTags = nil
	assert.False(t, service.ViolatesPreferences(recipe, []string{"vegan"}, nil))
}

func TestPlanMeals(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	user := testhelpers.CreateUser(t, db, "yuri")
	ctx := context.Background()

	plan := newAIService(db, "", "").PlanMeals(ctx, user.ID, 7)
	assert.Equal(t, types.SourceFallback, plan.Source)
	require.Len(t, plan.Days, 7)
	monday := plan.Days["monday"]
	require.Len(t, monday, 3)
	assert.Equal(t, "Omelette", monday[0].Name)
	assert.Equal(t, "Insalata di pollo", monday[1].Name)
	assert.Equal(t, "Pesce al forno", monday[2].Name)
	assert.Equal(t, "Omelette", plan.Days["friday"][0].Name)

	require.NoError(t, db.Create(&models.NutritionalProfile{UserID: user.ID, Age: 30, Weight: 70, Height: 170, Goal: "maintain"}).Error)
	server := llmServer(t, http.StatusOK, `{"meal_plan":{"monday":[{"meal":"lunch","name":"Risotto","calories":"550"}],"funday":[{"meal":"lunch","name":"x"}]}}`)
	plan = newAIService(db, server.URL, "key").PlanMeals(ctx, user.ID, 2)
	assert.Equal(t, types.SourceAI, plan.Source)
	require.Len(t, plan.Days, 1)
	assert.Equal(t, types.FlexInt(550), plan.Days["monday"][0].Calories)
}

func TestSuggestShoppingFallback(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	user := testhelpers.CreateUser(t, db, "zeno")
	testhelpers.CreateProduct(t, db, user.ID, "Uova", 1, "pz", 20)
	testhelpers.CreateProduct(t, db, user.ID, "Insalata", 3, "pz", 1)

	list := newAIService(db, "", "").SuggestShopping(context.Background(), user.ID)
	assert.Equal(t, types.SourceFallback, list.Source)
	require.Len(t, list.Suggestions, 2)
	assert.Equal(t, "Uova", list.Suggestions[0].Name)
	assert.Equal(t, "high", list.Suggestions[0].Priority)
	assert.Equal(t, "Insalata", list.Suggestions[1].Name)
}

func TestRecyclingFallback(t *testing.T) {
	now := time.Now()
	products := []models.Product{
		{Name: "Mele", Category: "Frutta", ExpiryDate: models.DateOnly(now)},
		{Name: "Ricotta", Category: "Formaggi", ExpiryDate: models.DateOnly(now).AddDate(0, 0, 3)},
	}
	ideas := service.RecyclingFallback(products, now)
	require.Len(t, ideas, 2)
	assert.Equal(t, "high", ideas[0].Priority)
	assert.Contains(t, ideas[0].Reason, "macedonia")
	assert.Equal(t, "medium", ideas[1].Priority)
	assert.Contains(t, ideas[1].Reason, "Congela ricotta")
}

func TestChat(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	user := testhelpers.CreateUser(t, db, "alba")
	testhelpers.CreateProduct(t, db, user.ID, "Yogurt", 2, "pz", 2)
	ctx := context.Background()

	offline := newAIService(db, "", "")
	tests := []struct {
		message string
		kind    string
	}{
		{"Che ricetta mi consigli?", "recipes"},
		{"Cosa scade presto?", "expiring"},
		{"Fammi la lista della spesa", "shopping"},
		{"Ciao", "help"},
	}
	for _, tt := range tests {
		reply := offline.Chat(ctx, user.ID, tt.message)
		assert.Equal(t, tt.kind, reply.Type, tt.message)
		assert.Equal(t, types.SourceFallback, reply.Source)
		assert.NotEmpty(t, reply.Response)
	}

	server := llmServer(t, http.StatusOK, "Prova uno yogurt con frutta!")
	reply := newAIService(db, server.URL, "key").Chat(ctx, user.ID, "Idee per colazione?")
	assert.Equal(t, types.SourceAI, reply.Source)
	assert.Equal(t, "general", reply.Type)
	assert.Equal(t, "Prova uno yogurt con frutta!", reply.Response)
}
