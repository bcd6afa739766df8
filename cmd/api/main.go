package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pageza/foodflow/backend/config"
	"github.com/pageza/foodflow/backend/internal/app"
	"github.com/pageza/foodflow/backend/internal/server"
)

func main() {
	// A .env file is optional; the environment wins over it
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	application, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	srv := server.New(cfg, application)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)

	go func() {
		log.Println("Starting server...")
		errChan <- srv.Start()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Printf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
