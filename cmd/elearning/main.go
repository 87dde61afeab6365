// cmd/elearning/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"

	"shelfmark/internal/config"
	"shelfmark/internal/elearning"
	"shelfmark/internal/store"
	"shelfmark/internal/telemetry"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdown, err := telemetry.Init(ctx, "shelfmark-elearning", cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer shutdown(ctx)

	db, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	handler := elearning.NewHandler(elearning.NewService(sqlx.NewDb(db, "postgres")))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Group(handler.Routes)

	log.Printf("Starting E-Learning Service on %s", cfg.HTTP.ELearningAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTP.ELearningAddr, router))
}

func configPath() string {
	if path, exists := os.LookupEnv("SHELFMARK_CONFIG"); exists {
		return path
	}
	return "config.toml"
}
