package main

import (
	"log"
	"os"

	"voicenote-vector-be/internal/model"
	"voicenote-vector-be/pkg/database"
	"voicenote-vector-be/pkg/vectorstore"

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
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions (AutoMigrate cannot create these)
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate Models
	log.Println("Step 2: Running AutoMigrate...")

	if err := db.AutoMigrate(&model.EmbeddingRecord{}); err != nil {
		log.Fatal("Error: AutoMigrate embedding_records failed:", err)
	}
	if err := vectorstore.MigratePgVectorStore(db); err != nil {
		log.Fatal("Error: AutoMigrate vector_points failed:", err)
	}

	// 5. Post-Migration: Indexes AutoMigrate does not cover
	log.Println("Step 3: Creating indexes...")

	indexSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_embedding_records_note_id ON embedding_records (note_id);`,
		`CREATE INDEX IF NOT EXISTS idx_embedding_records_recording_id ON embedding_records (recording_id);`,
		`CREATE INDEX IF NOT EXISTS idx_vector_points_embedding ON vector_points USING hnsw (embedding vector_cosine_ops);`,
	}
	for _, sql := range indexSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to create index: %v. Continuing...", err)
		}
	}

	log.Println("✅ Migration complete")
}
