// cmd/library/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"shelfmark/internal/audit"
	"shelfmark/internal/borrowing"
	"shelfmark/internal/catalog"
	"shelfmark/internal/config"
	"shelfmark/internal/fines"
	"shelfmark/internal/members"
	"shelfmark/internal/notify"
	"shelfmark/internal/payments"
	"shelfmark/internal/store"
	"shelfmark/internal/telemetry"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdown, err := telemetry.Init(ctx, "shelfmark-library", cfg.Telemetry.OTLPEndpoint)
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

	ledger := fines.NewLedger(db)
	notifier := notify.NewNotifier(cfg.Mail, db)
	gateway := payments.NewGateway(cfg.MPesa)
	auditLog := audit.NewLogger(db)

	borrowHandler := borrowing.NewHandler(borrowing.NewService(db, ledger, notifier, gateway, auditLog))
	catalogHandler := catalog.NewHandler(catalog.NewService(db))
	membersHandler := members.NewHandler(members.NewService(db))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Group(borrowHandler.Routes)
	router.Group(catalogHandler.Routes)
	router.Group(membersHandler.Routes)

	log.Printf("Starting Library Service on %s", cfg.HTTP.LibraryAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTP.LibraryAddr, router))
}

func configPath() string {
	if path, exists := os.LookupEnv("SHELFMARK_CONFIG"); exists {
		return path
	}
	return "config.toml"
}
