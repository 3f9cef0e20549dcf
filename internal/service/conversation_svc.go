package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/model"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/repository"
)

// ConversationStore is the durable record of conversations and messages.
type ConversationStore interface {
	AppendMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]model.Message, error)
	List(ctx context.Context) ([]model.Conversation, error)
	UpdateTitleIfEmpty(ctx context.Context, id uuid.UUID, title string) error
	Rename(ctx context.Context, id uuid.UUID, title string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ConversationService struct {
	store ConversationStore
}

func NewConversationService(store ConversationStore) *ConversationService {
	return &ConversationService{store: store}
}

const titleMaxLen = 60

// DeriveTitle produces a conversation title from the first user message.
func DeriveTitle(message string) string {
	text := strings.TrimSpace(strings.ReplaceAll(message, "\n", " "))
	if text == "" {
		return "Conversation"
	}
	runes := []rune(text)
	if len(runes) > titleMaxLen {
		return strings.TrimRight(string(runes[:titleMaxLen-1]), " ") + "…"
	}
	return text
}

// AppendUserMessage persists a user message, creating the conversation on
// first use and deriving its title from the message.
func (s *ConversationService) AppendUserMessage(ctx context.Context, conversationID uuid.UUID, content string) (*model.Message, error) {
	msg := &model.Message{
		ConversationID: conversationID,
		Role:           model.MessageRoleUser,
		Content:        content,
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTitleIfEmpty(ctx, conversationID, DeriveTitle(content)); err != nil {
		return nil, err
	}
	return msg, nil
}

// AppendAssistantMessage persists an assistant answer together with its
// grounding metadata.
func (s *ConversationService) AppendAssistantMessage(ctx context.Context, conversationID uuid.UUID, content string, citations []model.Citation, cancelled bool) (*model.Message, error) {
	chunkIDs := make(model.StringArray, 0, len(citations))
	for _, c := range citations {
		chunkIDs = append(chunkIDs, c.ChunkID.String())
	}
	msg := &model.Message{
		ConversationID: conversationID,
		Role:           model.MessageRoleAssistant,
		Content:        content,
		Grounded:       len(citations) > 0,
		Cancelled:      cancelled,
		ChunkIDs:       chunkIDs,
		Citations:      citations,
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *ConversationService) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	return s.store.List(ctx)
}

func (s *ConversationService) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]model.Message, error) {
	return s.store.ListMessages(ctx, conversationID)
}

func (s *ConversationService) Rename(ctx context.Context, id uuid.UUID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	err := s.store.Rename(ctx, id, title)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *ConversationService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
