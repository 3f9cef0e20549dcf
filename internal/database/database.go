package database

import (
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/config"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.IsDevelopment() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	// The vector_entries table needs the pgvector extension before its
	// embedding column can be created.
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}

	return db.AutoMigrate(
		&model.Document{},
		&model.Chunk{},
		&model.Conversation{},
		&model.Message{},
	)
}
