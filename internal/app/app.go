package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/pageza/foodflow/backend/config"
	"github.com/pageza/foodflow/backend/internal/database"
	"github.com/pageza/foodflow/backend/internal/service"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App holds every service of the backend. It is built once at startup and
// passed to the router; nothing in the service layer reads globals.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client

	Auth          *service.AuthService
	Gamification  *service.GamificationService
	Pantry        *service.PantryService
	Shopping      *service.ShoppingService
	Nutrition     *service.NutritionService
	MealPlans     *service.MealPlanService
	Family        *service.FamilyService
	Analytics     *service.AnalyticsService
	Notifications *service.NotificationService
	AI            *service.AIService
}

// Options carries the optional collaborators of New. Nil fields disable the
// matching feature: no Redis means no AI cache and no rate limiting, no
// Store means report exports answer 503.
type Options struct {
	Redis *redis.Client
	Store service.ObjectStore
	LLM   service.ChatCompleter
}

// New wires the services on top of an open database
func New(cfg *config.Config, db *gorm.DB, opts Options) *App {
	llm := opts.LLM
	if llm == nil {
		llm = service.NewLLMService(cfg)
	}

	gamification := service.NewGamificationService(db)
	nutrition := service.NewNutritionService(db, gamification)

	return &App{
		Config:        cfg,
		DB:            db,
		Redis:         opts.Redis,
		Auth:          service.NewAuthService(db, cfg.JWTSecret, cfg.SessionTTL, gamification),
		Gamification:  gamification,
		Pantry:        service.NewPantryService(db, gamification),
		Shopping:      service.NewShoppingService(db, gamification),
		Nutrition:     nutrition,
		MealPlans:     service.NewMealPlanService(db, gamification, nutrition),
		Family:        service.NewFamilyService(db),
		Analytics:     service.NewAnalyticsService(db, opts.Store),
		Notifications: service.NewNotificationService(db),
		AI:            service.NewAIService(db, llm, service.NewCompletionCache(opts.Redis)),
	}
}

// Bootstrap opens the database, migrates it, seeds the badge catalog and
// connects the optional Redis and S3 backends
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := database.SeedBadges(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to seed badges: %w", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis, continuing without cache and rate limiting: %v", err)
		redisClient = nil
	}

	var store service.ObjectStore
	s3Cfg, err := config.NewS3Config(ctx, cfg.S3Bucket, cfg.AWSRegion)
	switch {
	case errors.Is(err, config.ErrStorageDisabled):
		log.Printf("S3_BUCKET_NAME not set, report exports disabled")
	case err != nil:
		log.Printf("Warning: Failed to configure S3, report exports disabled: %v", err)
	default:
		store = s3Cfg
	}

	return New(cfg, db, Options{Redis: redisClient, Store: store}), nil
}

// Close releases the database and Redis connections
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}
	if err := database.Close(a.DB); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	return errors.Join(errs...)
}
