package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Standalone sanity check for a deployed database: verifies the schema
// migrated and prints entity counts plus the most recent boards.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", ""),
		getEnv("DB_NAME", "collab_board"),
		getEnv("DB_SSLMODE", "disable"),
		getEnv("DB_TIMEZONE", "UTC"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	fmt.Println("Connected to database")
	fmt.Println()

	tables := []string{"boards", "layers", "strokes", "sticky_notes"}
	for _, table := range tables {
		var exists bool
		query := `
			SELECT EXISTS (
				SELECT 1
				FROM information_schema.tables
				WHERE table_name = ?
			)
		`
		if err := db.Raw(query, table).Scan(&exists).Error; err != nil {
			log.Fatal("Failed to check table:", err)
		}
		if !exists {
			fmt.Printf("Table %q does NOT exist, run the server once to migrate\n", table)
			continue
		}

		var count int64
		if err := db.Table(table).Count(&count).Error; err != nil {
			log.Fatal("Failed to count rows:", err)
		}
		fmt.Printf("%-13s %d rows\n", table, count)
	}
	fmt.Println()

	type BoardInfo struct {
		ID        string
		Name      string
		UpdatedAt string
	}
	var boards []BoardInfo
	query := `
		SELECT id, name, updated_at
		FROM boards
		ORDER BY updated_at DESC
		LIMIT 10
	`
	if err := db.Raw(query).Scan(&boards).Error; err != nil {
		log.Fatal("Failed to get recent boards:", err)
	}

	fmt.Println("Recent boards (last 10):")
	for _, b := range boards {
		fmt.Printf("  - %s  %s  (updated %s)\n", b.ID, b.Name, b.UpdatedAt)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
