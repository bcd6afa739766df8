package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/pageza/foodflow/backend/config"
	"github.com/pageza/foodflow/backend/internal/app"
	"github.com/pageza/foodflow/backend/internal/database"
	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/pageza/foodflow/backend/internal/types"
)

const testPassword = "Passw0rd!"

type seedProduct struct {
	name      string
	quantity  float64
	unit      string
	category  string
	expiresIn int
	shared    bool
}

var testUsers = []struct {
	username string
	email    string
	products []seedProduct
}{
	{
		username: "mario_rossi",
		email:    "mario.rossi@example.com",
		products: []seedProduct{
			{"Latte", 1, "l", "Latticini", 2, true},
			{"Pasta", 1, "kg", "Cereali", 300, true},
			{"Pomodori", 6, "pz", "Verdura", 4, false},
			{"Mozzarella", 250, "g", "Latticini", 1, false},
		},
	},
	{
		username: "giulia_bianchi",
		email:    "giulia.bianchi@example.com",
		products: []seedProduct{
			{"Uova", 6, "pz", "Proteine", 10, true},
			{"Mele", 1.5, "kg", "Frutta", 12, false},
			{"Yogurt", 0.5, "pz", "Latticini", 3, false},
		},
	},
	{
		username: "luca_verdi",
		email:    "luca.verdi@example.com",
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.SeedBadges(db); err != nil {
		log.Fatalf("Failed to seed badges: %v", err)
	}

	a := app.New(cfg, db, app.Options{})
	defer a.Close()
	ctx := context.Background()

	log.Println("Creating test users...")

	var familyCode string
	for _, userData := range testUsers {
		user, _, err := a.Auth.Register(ctx, userData.username, userData.email, testPassword)
		if errors.Is(err, service.ErrUserExists) {
			log.Printf("User %s already exists, skipping...", userData.email)
			continue
		}
		if err != nil {
			log.Printf("Failed to create user %s: %v", userData.email, err)
			continue
		}

		for _, p := range userData.products {
			_, err := a.Pantry.Add(ctx, user.ID, &types.ProductRequest{
				Name:       p.name,
				Quantity:   p.quantity,
				Unit:       p.unit,
				Category:   p.category,
				ExpiryDate: time.Now().AddDate(0, 0, p.expiresIn).Format(service.DateLayout),
				IsShared:   p.shared,
			})
			if err != nil {
				log.Printf("Failed to add %s for %s: %v", p.name, userData.username, err)
			}
		}

		// The first two users share a family
		switch {
		case familyCode == "":
			family, err := a.Family.Create(ctx, user.ID, "Famiglia Demo")
			if err != nil {
				log.Printf("Failed to create family: %v", err)
				break
			}
			familyCode = family.FamilyCode
		case userData.username == "giulia_bianchi":
			if _, err := a.Family.Join(ctx, user.ID, familyCode); err != nil {
				log.Printf("Failed to join family: %v", err)
			}
		}

		list, err := a.Shopping.CreateSmartList(ctx, user.ID)
		if err != nil {
			log.Printf("Failed to create smart list for %s: %v", userData.username, err)
		} else {
			log.Printf("Created %s with %d items", list.Name, len(list.Items))
		}

		log.Printf("✅ Created user: %s (%s)", userData.username, userData.email)
	}

	log.Println("\n🔑 Test Credentials:")
	log.Println("Identifier: any username or email above")
	log.Printf("Password: %s", testPassword)
}
