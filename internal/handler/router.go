package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/chunker"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/config"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/embedding"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/ollama"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/pdfextract"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/repository"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/service"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/vectorindex"
)

func SetupRouter(cfg *config.Config, db *gorm.DB, index vectorindex.Index, llm *ollama.Client) *gin.Engine {
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// Initialize repositories
	documentRepo := repository.NewDocumentRepository(db)
	chunkRepo := repository.NewChunkRepository(db)
	conversationRepo := repository.NewConversationRepository(db)

	// Initialize services
	gateway := embedding.NewGateway(llm, cfg.EmbeddingDimensions, cfg.EmbedBatchSize, cfg.EmbedMaxRetries)
	ingestSvc := service.NewIngestService(
		documentRepo,
		chunkRepo,
		pdfextract.Pages,
		chunker.New(0, 0),
		gateway,
		index,
		cfg.DocsDir,
		cfg.IngestConcurrency,
	)
	resolver := service.NewRepoChunkResolver(chunkRepo, documentRepo)
	retrieverSvc := service.NewRetrieverService(gateway, index, resolver, cfg.RetrievalTopK, cfg.RelevanceFloor)
	conversationSvc := service.NewConversationService(conversationRepo)
	chatSvc := service.NewChatService(conversationSvc, retrieverSvc, llm, documentRepo, cfg.HistoryWindow)

	// Initialize handlers
	documentHandler := NewDocumentHandler(ingestSvc, cfg.MaxUploadSize)
	chatHandler := NewChatHandler(chatSvc)
	conversationHandler := NewConversationHandler(conversationSvc)
	healthHandler := NewHealthHandler(cfg, llm)

	// Health check endpoints
	r.GET("/health", healthHandler.Health)
	r.GET("/health/ollama", healthHandler.OllamaProbe)
	r.GET("/ready", readinessCheck)
	r.GET("/live", livenessCheck)

	// Root endpoint
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":      "DocChat API",
			"status":       "running",
			"health_check": "/health",
		})
	})

	// Documents
	documents := r.Group("/documents")
	{
		documents.GET("", documentHandler.List)
		documents.POST("/upload", documentHandler.Upload)
		documents.DELETE("/:id", documentHandler.Delete)
		documents.GET("/:id/chunks", documentHandler.ListChunks)
		documents.POST("/:id/reingest", documentHandler.Reingest)
	}

	// Chat
	r.POST("/chat/stream", chatHandler.Stream)

	// Conversations
	conversations := r.Group("/conversations")
	{
		conversations.GET("", conversationHandler.List)
		conversations.GET("/:id/messages", conversationHandler.Messages)
		conversations.PATCH("/:id", conversationHandler.Rename)
		conversations.DELETE("/:id", conversationHandler.Delete)
	}

	return r
}
