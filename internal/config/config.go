package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	// Server
	Host        string
	Port        string
	Environment string
	GinMode     string

	// Database
	DatabaseURL string

	// Local storage
	DataDir       string
	DocsDir       string
	MaxUploadSize int64

	// Ollama
	OllamaHost       string
	OllamaModel      string
	OllamaEmbedModel string

	// Embedding
	EmbeddingDimensions int
	EmbedBatchSize      int
	EmbedMaxRetries     int

	// Retrieval
	RetrievalTopK  int
	RelevanceFloor float64

	// Chat
	HistoryWindow int

	// Ingestion
	IngestConcurrency int
}

func Load() *Config {
	dataDir := getEnv("DATA_DIR", "data")
	return &Config{
		Host:        getEnv("HOST", "0.0.0.0"),
		Port:        getEnv("PORT", "8000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		GinMode:     getEnv("GIN_MODE", "debug"),

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/docchat?sslmode=disable"),

		DataDir:       dataDir,
		DocsDir:       getEnv("DOCS_DIR", filepath.Join(dataDir, "docs")),
		MaxUploadSize: getEnvInt64("MAX_UPLOAD_SIZE", 50*1024*1024), // 50MB

		OllamaHost:       getEnv("OLLAMA_HOST", "http://127.0.0.1:11434"),
		OllamaModel:      getEnv("OLLAMA_MODEL", "qwen2.5:0.5b"),
		OllamaEmbedModel: getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),

		EmbeddingDimensions: int(getEnvInt64("EMBEDDING_DIMENSIONS", 768)),
		EmbedBatchSize:      int(getEnvInt64("EMBED_BATCH_SIZE", 16)),
		EmbedMaxRetries:     int(getEnvInt64("EMBED_MAX_RETRIES", 3)),

		RetrievalTopK:  int(getEnvInt64("RETRIEVAL_TOP_K", 5)),
		RelevanceFloor: getEnvFloat("RELEVANCE_FLOOR", 0.30),

		HistoryWindow: int(getEnvInt64("HISTORY_WINDOW", 10)),

		IngestConcurrency: int(getEnvInt64("INGEST_CONCURRENCY", 2)),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
