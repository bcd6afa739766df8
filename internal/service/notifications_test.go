package service_test

import (
	"context"
	"testing"

	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifications(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewNotificationService(db)
	user := testhelpers.CreateUser(t, db, "sara")
	ctx := context.Background()

	notifications, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "nutritional_profile", notifications[0].Action)

	testhelpers.CreateProduct(t, db, user.ID, "Latte", 2, "l", 1)
	testhelpers.CreateProduct(t, db, user.ID, "Yogurt", 4, "pz", 5)
	testhelpers.CreateProduct(t, db, user.ID, "Burro", 0.5, "pz", 60)
	require.NoError(t, db.Create(&models.NutritionalProfile{UserID: user.ID, Age: 30, Weight: 70, Height: 170}).Error)

	notifications, err = svc.List(ctx, user.ID)
	require.NoError(t, err)

	actions := make([]string, len(notifications))
	for i, n := range notifications {
		actions[i] = n.Action
	}
	assert.Equal(t, []string{"view_expiring", "view_expiring", "view_low_stock", "calculate_goals"}, actions)
	assert.Equal(t, "danger", notifications[0].Type)
	assert.Equal(t, 1, notifications[0].Count)
	assert.Equal(t, 1, notifications[1].Count)
	assert.Equal(t, 1, notifications[2].Count)
}
