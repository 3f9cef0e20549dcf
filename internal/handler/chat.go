package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/model"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/service"
)

type ChatHandler struct {
	svc *service.ChatService
}

func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type chatRequest struct {
	ConversationID *string `json:"conversation_id"`
	Message        string  `json:"message" binding:"required,min=1,max=10000"`
	SourceID       *string `json:"source_id"`
	SourceName     *string `json:"source_name"`
}

// Stream runs one chat turn over SSE. Frames are raw data lines: the first
// carries the citations and the conversation id, each following one carries
// a token, and the last reports done or error.
func (h *ChatHandler) Stream(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conversationID := uuid.New()
	if req.ConversationID != nil && *req.ConversationID != "" {
		id, err := uuid.Parse(*req.ConversationID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation_id"})
			return
		}
		conversationID = id
	}

	turn := service.TurnRequest{
		ConversationID: conversationID,
		Message:        req.Message,
	}
	if req.SourceID != nil && *req.SourceID != "" {
		id, err := uuid.Parse(*req.SourceID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source_id"})
			return
		}
		turn.SourceID = &id
	}
	if req.SourceName != nil {
		turn.SourceName = *req.SourceName
	}

	// SSE headers are written lazily so pre-stream failures can still get a
	// plain JSON status.
	started := false
	start := func() {
		if started {
			return
		}
		started = true
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")
		c.Writer.WriteHeader(http.StatusOK)
	}

	err := h.svc.RunTurn(c.Request.Context(), turn, func(ev service.Event) error {
		start()
		switch ev.Type {
		case service.EventTypeCitations:
			citations := ev.Citations
			if citations == nil {
				citations = []model.Citation{}
			}
			return h.sendFrame(c, gin.H{
				"citations":       citations,
				"conversation_id": conversationID,
			})
		case service.EventTypeToken:
			return h.sendFrame(c, gin.H{"token": ev.Token})
		}
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, service.ErrTurnInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "a turn is already streaming for this conversation"})
		case errors.Is(err, service.ErrNotFound) && !started:
			c.JSON(http.StatusNotFound, gin.H{"error": "source document not found"})
		case !started:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			h.sendFrame(c, gin.H{"status": "error", "detail": err.Error()})
		}
		return
	}

	if started {
		h.sendFrame(c, gin.H{"status": "done"})
	}
}

func (h *ChatHandler) sendFrame(c *gin.Context, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
