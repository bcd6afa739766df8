package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/pageza/foodflow/backend/config"
	"github.com/pageza/foodflow/backend/internal/database"
)

func main() {
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	dir := flag.String("dir", "", "Migrations directory, MIGRATIONS_DIR by default")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	migrationsDir := cfg.MigrationsDir
	if *dir != "" {
		migrationsDir = *dir
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if *rollback {
		name, err := database.RollbackLast(db, migrationsDir)
		if err != nil {
			log.Fatalf("failed to roll back: %v", err)
		}
		fmt.Printf("Successfully rolled back migration: %s\n", name)
		return
	}

	if err := database.RunMigrations(db, migrationsDir); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}
	if err := database.SeedBadges(db); err != nil {
		log.Fatalf("failed to seed badges: %v", err)
	}

	fmt.Println("All migrations applied successfully.")
}
