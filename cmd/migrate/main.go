package main

import (
	"log"

	"ppm-intake-be/internal/config"
	"ppm-intake-be/internal/model"
	"ppm-intake-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.Verbose)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up Extensions...")
	// gen_random_uuid on PostgreSQL < 13
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	log.Println("Step 2: Running AutoMigrate...")
	if err := database.Migrate(db, &model.Exchange{}, &model.IntakeRecord{}); err != nil {
		log.Fatalf("Error: %v", err)
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
