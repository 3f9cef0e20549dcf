package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/model"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/repository"
)

type memConvStore struct {
	messages map[uuid.UUID][]model.Message
	titles   map[uuid.UUID]string
}

func newMemConvStore() *memConvStore {
	return &memConvStore{
		messages: make(map[uuid.UUID][]model.Message),
		titles:   make(map[uuid.UUID]string),
	}
}

func (s *memConvStore) AppendMessage(_ context.Context, msg *model.Message) error {
	msg.ID = uuid.New()
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], *msg)
	return nil
}

func (s *memConvStore) ListMessages(_ context.Context, conversationID uuid.UUID) ([]model.Message, error) {
	return s.messages[conversationID], nil
}

func (s *memConvStore) List(context.Context) ([]model.Conversation, error) {
	out := make([]model.Conversation, 0, len(s.titles))
	for id, title := range s.titles {
		c := model.Conversation{Title: title}
		c.ID = id
		out = append(out, c)
	}
	return out, nil
}

func (s *memConvStore) UpdateTitleIfEmpty(_ context.Context, id uuid.UUID, title string) error {
	if s.titles[id] == "" {
		s.titles[id] = title
	}
	return nil
}

func (s *memConvStore) Rename(_ context.Context, id uuid.UUID, title string) error {
	if _, ok := s.titles[id]; !ok {
		return repository.ErrNotFound
	}
	s.titles[id] = title
	return nil
}

func (s *memConvStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.titles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.titles, id)
	delete(s.messages, id)
	return nil
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"short message", "What is a transformer?", "What is a transformer?"},
		{"blank message", "   ", "Conversation"},
		{"newlines collapsed", "line one\nline two", "line one line two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.message))
		})
	}
}

func TestDeriveTitleTruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("word ", 40)
	title := DeriveTitle(long)

	assert.LessOrEqual(t, len([]rune(title)), 60)
	assert.True(t, strings.HasSuffix(title, "…"))
}

func TestAppendUserMessageSetsTitleOnce(t *testing.T) {
	store := newMemConvStore()
	svc := NewConversationService(store)
	convID := uuid.New()

	_, err := svc.AppendUserMessage(context.Background(), convID, "First question about PDFs")
	require.NoError(t, err)
	assert.Equal(t, "First question about PDFs", store.titles[convID])

	_, err = svc.AppendUserMessage(context.Background(), convID, "Second question")
	require.NoError(t, err)
	// The title stays pinned to the first message.
	assert.Equal(t, "First question about PDFs", store.titles[convID])
}

func TestAppendAssistantMessageGrounding(t *testing.T) {
	store := newMemConvStore()
	svc := NewConversationService(store)
	convID := uuid.New()

	citation := model.Citation{ChunkID: uuid.New(), DocumentName: "a.pdf", PageNumber: 1}
	msg, err := svc.AppendAssistantMessage(context.Background(), convID, "answer", []model.Citation{citation}, false)
	require.NoError(t, err)
	assert.True(t, msg.Grounded)
	require.Len(t, msg.ChunkIDs, 1)
	assert.Equal(t, citation.ChunkID.String(), msg.ChunkIDs[0])

	msg, err = svc.AppendAssistantMessage(context.Background(), convID, "no idea", nil, false)
	require.NoError(t, err)
	assert.False(t, msg.Grounded)
	assert.Empty(t, msg.ChunkIDs)
}

func TestRenameValidation(t *testing.T) {
	store := newMemConvStore()
	svc := NewConversationService(store)
	convID := uuid.New()
	store.titles[convID] = "old"

	assert.ErrorIs(t, svc.Rename(context.Background(), convID, "   "), ErrEmptyTitle)
	assert.ErrorIs(t, svc.Rename(context.Background(), uuid.New(), "new"), ErrNotFound)

	require.NoError(t, svc.Rename(context.Background(), convID, "  trimmed title  "))
	assert.Equal(t, "trimmed title", store.titles[convID])
}

func TestDeleteConversation(t *testing.T) {
	store := newMemConvStore()
	svc := NewConversationService(store)
	convID := uuid.New()
	store.titles[convID] = "doomed"

	require.NoError(t, svc.Delete(context.Background(), convID))
	assert.ErrorIs(t, svc.Delete(context.Background(), convID), ErrNotFound)
}
