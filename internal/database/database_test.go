package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pageza/foodflow/backend/config"
	"github.com/pageza/foodflow/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })

	require.NoError(t, RunMigrations(db, "does-not-matter"))

	user := models.User{Username: "mario", Email: "mario@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	assert.NotEmpty(t, user.ID)

	require.NoError(t, HealthCheck(context.Background(), db))
}

func TestSeedBadgesIsIdempotent(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })
	require.NoError(t, RunMigrations(db, ""))

	require.NoError(t, SeedBadges(db))
	require.NoError(t, SeedBadges(db))

	var count int64
	require.NoError(t, db.Model(&models.Badge{}).Count(&count).Error)
	assert.Equal(t, int64(len(DefaultBadges)), count)

	var welcome models.Badge
	require.NoError(t, db.Where("condition = ?", "registration").First(&welcome).Error)
	assert.Equal(t, "Benvenuto", welcome.Name)
}

func TestOpenSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foodflow.db")
	db, err := Open(&config.Config{DBDriver: "sqlite", SQLitePath: path})
	require.NoError(t, err)
	require.NoError(t, RunMigrations(db, ""))
	require.NoError(t, Close(db))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}

func TestNewRedisClientDisabled(t *testing.T) {
	client, err := NewRedisClient(&config.Config{})
	assert.NoError(t, err)
	assert.Nil(t, client)
}
