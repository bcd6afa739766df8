package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is a contextual hint shown on the dashboard
type Notification struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Action   string `json:"action"`
	Priority string `json:"priority"`
	Count    int    `json:"count,omitempty"`
}

var notificationOrder = map[string]int{"high": 0, "medium": 1, "low": 2}

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// List builds the notifications of a user, most urgent first
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	db := s.db.WithContext(ctx)
	now := time.Now()
	notifications := []Notification{}

	critical, err := expiringProducts(db, userID, 3, now)
	if err != nil {
		return nil, err
	}
	if len(critical) > 0 {
		notifications = append(notifications, Notification{
			Type:     "danger",
			Title:    "Prodotti in Scadenza Immediata",
			Message:  fmt.Sprintf("%d prodotti scadono nei prossimi 3 giorni", len(critical)),
			Action:   "view_expiring",
			Priority: "high",
			Count:    len(critical),
		})
	}

	week, err := expiringProducts(db, userID, 7, now)
	if err != nil {
		return nil, err
	}
	if soon := len(week) - len(critical); soon > 0 {
		notifications = append(notifications, Notification{
			Type:     "warning",
			Title:    "Prodotti in Scadenza",
			Message:  fmt.Sprintf("%d prodotti scadono questa settimana", soon),
			Action:   "view_expiring",
			Priority: "medium",
			Count:    soon,
		})
	}

	lowStock, err := lowStockProducts(db, userID)
	if err != nil {
		return nil, err
	}
	if len(lowStock) > 0 {
		notifications = append(notifications, Notification{
			Type:     "info",
			Title:    "Scorte in Esaurimento",
			Message:  fmt.Sprintf("%d prodotti sotto soglia minima", len(lowStock)),
			Action:   "view_low_stock",
			Priority: "medium",
			Count:    len(lowStock),
		})
	}

	profile, err := loadProfile(db, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		notifications = append(notifications, Notification{
			Type:     "info",
			Title:    "Completa il Profilo Nutrizionale",
			Message:  "Ricevi suggerimenti personalizzati completando il tuo profilo",
			Action:   "nutritional_profile",
			Priority: "low",
		})
	} else {
		goal, err := loadGoals(db, userID)
		if err != nil {
			return nil, err
		}
		if goal == nil {
			notifications = append(notifications, Notification{
				Type:     "info",
				Title:    "Calcola Obiettivi Nutrizionali",
				Message:  "Imposta i tuoi obiettivi giornalieri per tracciare i progressi",
				Action:   "calculate_goals",
				Priority: "low",
			})
		}
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		return notificationOrder[notifications[i].Priority] < notificationOrder[notifications[j].Priority]
	})
	return notifications, nil
}
