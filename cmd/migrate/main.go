package main

import (
	"log"
	"os"

	"outfit-stylist-be/internal/model"
	"outfit-stylist-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Schema
	if err := db.AutoMigrate(&model.Outfit{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 4. Listing query is always session + newest first.
	indexSQL := `CREATE INDEX IF NOT EXISTS idx_outfits_session_created ON outfits (session_id, created_at DESC);`
	if err := db.Exec(indexSQL).Error; err != nil {
		log.Fatalf("Error: Failed to create listing index: %v", err)
	}

	log.Println("Migration completed successfully.")
}
