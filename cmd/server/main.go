package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/config"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/database"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/handler"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/ollama"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/vectorindex"
)

func main() {
	// Load .env file if exists
	godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Ensure storage directories exist
	if err := os.MkdirAll(cfg.DocsDir, 0o755); err != nil {
		log.Fatalf("Failed to create docs dir: %v", err)
	}

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize vector index
	index, err := vectorindex.NewPgvectorIndex(db, cfg.EmbeddingDimensions)
	if err != nil {
		log.Fatalf("Failed to initialize vector index: %v", err)
	}

	// Initialize Ollama client
	llm := ollama.NewClient(cfg.OllamaHost, cfg.OllamaModel, cfg.OllamaEmbedModel)

	// Setup router
	r := handler.SetupRouter(cfg, db, index, llm)

	// Start server
	addr := cfg.Host + ":" + cfg.Port
	log.Printf("DocChat API starting on %s (chat=%s embed=%s)", addr, cfg.OllamaModel, cfg.OllamaEmbedModel)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
