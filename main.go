package main

import (
	"log"

	"github.com/joho/godotenv"

	"medinsight/api"
	"medinsight/app"
	"medinsight/internal"
	"medinsight/internal/config"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	profile, err := config.LoadProfile(cfg.Analysis.ProfilePath)
	if err != nil {
		log.Fatalf("Failed to load analysis profile: %v", err)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Logging.Level))
	if cfg.Analysis.ProfilePath != "" {
		logger.Info("analysis profile loaded from %s", cfg.Analysis.ProfilePath)
	}

	service := app.NewInsightService(profile, logger)
	server := api.NewServer(service, logger)

	logger.Info("medinsight listening on port %s", cfg.Server.Port)
	log.Fatal(server.Start(":" + cfg.Server.Port))
}
