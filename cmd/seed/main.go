package main

import (
	"context"
	"log"

	"college-service/internal/app"

	"github.com/joho/godotenv"
)

// seed loads the admin user and sample catalogue without starting the HTTP server.
func main() {
	_ = godotenv.Load()

	if err := app.Seed(context.Background()); err != nil {
		log.Fatal("Seeding failed:", err)
	}

	log.Println("Database seeded")
}
