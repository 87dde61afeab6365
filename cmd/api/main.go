// cmd/api/main.go
package main

import (
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"shelfmark/internal/config"
)

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	libraryURL, err := url.Parse(cfg.HTTP.LibraryURL)
	if err != nil {
		log.Fatalf("Invalid library service URL: %v", err)
	}
	elearningURL, err := url.Parse(cfg.HTTP.ELearningURL)
	if err != nil {
		log.Fatalf("Invalid e-learning service URL: %v", err)
	}

	libraryProxy := httputil.NewSingleHostReverseProxy(libraryURL)
	elearningProxy := httputil.NewSingleHostReverseProxy(elearningURL)

	http.Handle("/api/v1/library/", http.StripPrefix("/api/v1/library", libraryProxy))
	http.Handle("/api/v1/elearning/", http.StripPrefix("/api/v1/elearning", elearningProxy))

	log.Printf("API Gateway listening on %s", cfg.HTTP.GatewayAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTP.GatewayAddr, nil))
}

func configPath() string {
	if path, exists := os.LookupEnv("SHELFMARK_CONFIG"); exists {
		return path
	}
	return "config.toml"
}
