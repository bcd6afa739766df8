package database

import (
	"fmt"
	"log"

	"github.com/pageza/foodflow/backend/internal/models"
	"gorm.io/gorm"
)

// DefaultBadges is the badge catalog created at startup
var DefaultBadges = []models.Badge{
	{Name: "Benvenuto", Description: "Hai completato la registrazione", Icon: "bi-star-fill", PointsRequired: 0, Condition: "registration", Category: "general"},
	{Name: "Primo Passo", Description: "Hai aggiunto il primo prodotto", Icon: "bi-box-seam", PointsRequired: 10, Condition: "first_product", Category: "pantry"},
	{Name: "Eco-Warrior", Description: "Hai ridotto gli sprechi del 50%", Icon: "bi-leaf", PointsRequired: 100, Condition: "waste_reduction_50", Category: "waste"},
	{Name: "Chef Esperto", Description: "Hai creato 10 ricette", Icon: "bi-egg-fried", PointsRequired: 200, Condition: "recipes_10", Category: "cooking"},
	{Name: "Shopping Master", Description: "Hai completato 5 liste spesa", Icon: "bi-cart-check-fill", PointsRequired: 50, Condition: "shopping_lists_5", Category: "shopping"},
	{Name: "Nutrizionista", Description: "Hai seguito il piano nutrizionale per 30 giorni", Icon: "bi-heart-pulse-fill", PointsRequired: 300, Condition: "nutrition_30_days", Category: "nutrition"},
	{Name: "Riciclatore", Description: "Hai riciclato il primo prodotto", Icon: "bi-recycle", PointsRequired: 10, Condition: "first_recycle", Category: "waste"},
	{Name: "Eco-Hero", Description: "Hai riciclato 10 prodotti", Icon: "bi-leaf-fill", PointsRequired: 100, Condition: "recycle_10", Category: "waste"},
	{Name: "Amico dell'Ambiente", Description: "Hai riciclato 25 prodotti", Icon: "bi-globe", PointsRequired: 250, Condition: "recycle_25", Category: "waste"},
}

// SeedBadges inserts the missing badges of DefaultBadges
func SeedBadges(db *gorm.DB) error {
	created := 0
	for _, def := range DefaultBadges {
		var count int64
		if err := db.Model(&models.Badge{}).Where("name = ?", def.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check badge %s: %w", def.Name, err)
		}
		if count > 0 {
			continue
		}
		badge := def
		if err := db.Create(&badge).Error; err != nil {
			return fmt.Errorf("failed to seed badge %s: %w", def.Name, err)
		}
		created++
	}

	if created > 0 {
		log.Printf("Initialized %d new badges", created)
	}
	return nil
}
