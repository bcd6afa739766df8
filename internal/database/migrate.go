package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pageza/foodflow/backend/internal/models"
	"gorm.io/gorm"
)

// RollbackSuffix marks the SQL file that undoes the migration of the same name
const RollbackSuffix = "_rollback.sql"

// RunMigrations creates every table with GORM auto-migration and, on
// postgres, applies the SQL files of migrationsDir that were not applied yet
func RunMigrations(db *gorm.DB, migrationsDir string) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}

	if db.Dialector.Name() == "sqlite" {
		log.Printf("Using GORM auto-migration for SQLite")
		return nil
	}

	files, err := os.ReadDir(migrationsDir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("Migrations directory %s not found, skipping SQL migrations", migrationsDir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	// Sort files by name to ensure correct order
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name() < files[j].Name()
	})

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") || strings.HasSuffix(file.Name(), RollbackSuffix) {
			continue
		}

		var count int64
		if err := db.Table("migrations").Where("name = ?", file.Name()).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			log.Printf("Skipping migration %s (already applied)", file.Name())
			continue
		}

		content, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file.Name(), err)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(content)).Error; err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", file.Name(), err)
			}
			if err := tx.Exec("INSERT INTO migrations (name) VALUES (?)", file.Name()).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", file.Name(), err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		log.Printf("Applied migration %s", file.Name())
	}

	return nil
}

// RollbackLast runs the rollback file of the most recently applied SQL
// migration and forgets it. It returns the name of the rolled back migration.
func RollbackLast(db *gorm.DB, migrationsDir string) (string, error) {
	var name string
	err := db.Table("migrations").Select("name").Order("applied_at DESC").Order("id DESC").Limit(1).Scan(&name).Error
	if err != nil {
		return "", fmt.Errorf("failed to get last migration: %w", err)
	}
	if name == "" {
		return "", errors.New("no migrations to rollback")
	}

	rollbackPath := filepath.Join(migrationsDir, strings.TrimSuffix(name, ".sql")+RollbackSuffix)
	content, err := os.ReadFile(rollbackPath)
	if err != nil {
		return "", fmt.Errorf("failed to read rollback file %s: %w", rollbackPath, err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(string(content)).Error; err != nil {
			return fmt.Errorf("failed to execute rollback of %s: %w", name, err)
		}
		if err := tx.Exec("DELETE FROM migrations WHERE name = ?", name).Error; err != nil {
			return fmt.Errorf("failed to forget migration %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return name, nil
}
