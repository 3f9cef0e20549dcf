package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/config"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/ollama"
)

type HealthHandler struct {
	cfg    *config.Config
	ollama *ollama.Client
}

func NewHealthHandler(cfg *config.Config, client *ollama.Client) *HealthHandler {
	return &HealthHandler{cfg: cfg, ollama: client}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"service":     "docchat",
		"chat_model":  h.ollama.ChatModel(),
		"embed_model": h.ollama.EmbedModel(),
	})
}

// OllamaProbe streams the model warmup check over SSE so the UI can show
// progress while a cold model loads.
func (h *HealthHandler) OllamaProbe(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	h.sendFrame(c, gin.H{"status": "initializing"})

	models, err := h.ollama.Ping(c.Request.Context())
	if err != nil {
		h.sendFrame(c, gin.H{"status": "error", "detail": err.Error()})
	} else {
		h.sendFrame(c, gin.H{"status": "ok", "models": models})
	}

	h.sendFrame(c, gin.H{"status": "done"})
}

func (h *HealthHandler) sendFrame(c *gin.Context, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
	c.Writer.Flush()
}

func readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
