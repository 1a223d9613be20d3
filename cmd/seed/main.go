package main

import (
	"flag"
	"log"

	"github.com/AmbiraDev/ambira-backend/internal/database"
	"github.com/AmbiraDev/ambira-backend/internal/logger"
	"github.com/AmbiraDev/ambira-backend/internal/seed"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	mode := flag.String("mode", "dev", "Seed mode: dev (realistic data) or test (fixed e2e accounts)")
	flag.Parse()

	if err := logger.Initialize("info", ""); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	seeder := seed.NewSeeder(database.DB)

	var err error
	switch *mode {
	case "dev":
		err = seeder.SeedDev()
	case "test":
		err = seeder.SeedTest()
	default:
		log.Fatalf("Unknown seed mode: %s", *mode)
	}
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Done")
}
