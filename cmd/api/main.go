package main

import (
	"fmt"
	"log"
	"os"

	"medinsight/api"
	"medinsight/app"
	"medinsight/internal/config"
)

// Bare API entrypoint: built-in analysis profile, port from the
// environment, nothing else. The root binary carries the full
// configuration surface.
func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	service := app.NewInsightService(config.DefaultProfile(), nil)
	server := api.NewServer(service, nil)

	fmt.Printf("Starting API server on :%s\n", port)
	if err := server.Start(":" + port); err != nil {
		log.Fatal("Server failed:", err)
	}
}
