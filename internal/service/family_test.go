package service_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFamilyCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{12}$`)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code, err := service.GenerateFamilyCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestFamilyLifecycle(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewFamilyService(db)
	admin := testhelpers.CreateUser(t, db, "olga")
	second := testhelpers.CreateUser(t, db, "paolo")
	third := testhelpers.CreateUser(t, db, "quinto")
	ctx := context.Background()

	family, err := svc.Create(ctx, admin.ID, "  Famiglia Rossi ")
	require.NoError(t, err)
	assert.Equal(t, "Famiglia Rossi", family.Name)
	assert.True(t, family.IsActive)
	require.Len(t, family.Members, 1)
	assert.True(t, family.Members[0].IsAdmin)

	_, err = svc.Create(ctx, admin.ID, "Altra")
	assert.ErrorIs(t, err, service.ErrAlreadyMember)

	joined, err := svc.Join(ctx, second.ID, " "+family.FamilyCode+" ")
	require.NoError(t, err)
	assert.Equal(t, family.ID, joined.ID)
	assert.Len(t, joined.Members, 2)

	// the second member is older than the third
	require.NoError(t, db.Model(&models.FamilyMember{}).Where("user_id = ?", second.ID).
		Update("joined_at", time.Now().Add(-time.Hour)).Error)
	_, err = svc.Join(ctx, third.ID, family.FamilyCode)
	require.NoError(t, err)

	_, err = svc.Join(ctx, third.ID, family.FamilyCode)
	assert.ErrorIs(t, err, service.ErrAlreadyMember)

	size, err := svc.MemberCount(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	require.NoError(t, svc.Leave(ctx, admin.ID))

	got, err := svc.Get(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, got.Members, 2)
	assert.Equal(t, second.ID, got.Members[0].UserID)
	assert.True(t, got.Members[0].IsAdmin)
	assert.False(t, got.Members[1].IsAdmin)
	require.NotNil(t, got.Members[0].User)
	assert.Equal(t, "paolo", got.Members[0].User.Username)

	_, err = svc.Get(ctx, admin.ID)
	assert.ErrorIs(t, err, service.ErrNotMember)
	assert.ErrorIs(t, svc.Leave(ctx, admin.ID), service.ErrNotMember)

	require.NoError(t, svc.Leave(ctx, second.ID))
	require.NoError(t, svc.Leave(ctx, third.ID))

	var stored models.Family
	require.NoError(t, db.First(&stored, "id = ?", family.ID).Error)
	assert.False(t, stored.IsActive)

	_, err = svc.Join(ctx, admin.ID, family.FamilyCode)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestJoinFamilyValidation(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewFamilyService(db)
	user := testhelpers.CreateUser(t, db, "rita")

	_, err := svc.Join(context.Background(), user.ID, "SHORT")
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = svc.Create(context.Background(), user.ID, "   ")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestSharedProducts(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewFamilyService(db)
	a := testhelpers.CreateUser(t, db, "sara")
	b := testhelpers.CreateUser(t, db, "tommaso")
	ctx := context.Background()

	family, err := svc.Create(ctx, a.ID, "Casa")
	require.NoError(t, err)
	_, err = svc.Join(ctx, b.ID, family.FamilyCode)
	require.NoError(t, err)

	own := testhelpers.CreateProduct(t, db, b.ID, "Olio", 1, "l", 100)
	shared := testhelpers.CreateProduct(t, db, a.ID, "Zucchero", 1, "kg", 100)
	testhelpers.CreateProduct(t, db, a.ID, "Caffè", 250, "g", 100)
	wasted := testhelpers.CreateProduct(t, db, a.ID, "Latte", 1, "l", 1)
	for _, p := range []*models.Product{own, shared, wasted} {
		require.NoError(t, db.Model(p).Update("is_shared", true).Error)
	}
	require.NoError(t, db.Model(wasted).Update("wasted", true).Error)

	products, err := svc.SharedProducts(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Zucchero", products[0].Name)

	none, err := svc.SharedProducts(ctx, testhelpers.CreateUser(t, db, "ugo").ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
