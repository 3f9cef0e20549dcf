package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/model"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/ollama"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/repository"
)

// Generator is the external text-generation capability.
type Generator interface {
	ChatStream(ctx context.Context, messages []ollama.Message, fn func(token string) error) error
}

type retrieverAPI interface {
	Retrieve(ctx context.Context, query string, documentID *uuid.UUID) ([]Passage, error)
}

type conversationAPI interface {
	AppendUserMessage(ctx context.Context, conversationID uuid.UUID, content string) (*model.Message, error)
	AppendAssistantMessage(ctx context.Context, conversationID uuid.UUID, content string, citations []model.Citation, cancelled bool) (*model.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]model.Message, error)
}

type documentLookup interface {
	FindByName(ctx context.Context, name string) (*model.Document, error)
}

// EventType tags a streamed chat frame.
type EventType string

const (
	EventTypeCitations EventType = "citations"
	EventTypeToken     EventType = "token"
)

// Event is one frame of a streamed chat turn. The first event of a turn
// carries the citation list; every following event carries one token
// fragment.
type Event struct {
	Type      EventType
	Citations []model.Citation
	Token     string
}

// TurnRequest is one user turn on a conversation. SourceID or SourceName
// scope retrieval to a single document for this turn only.
type TurnRequest struct {
	ConversationID uuid.UUID
	Message        string
	SourceID       *uuid.UUID
	SourceName     string
}

// errStreamClosed marks an emit failure, meaning the client stopped reading.
var errStreamClosed = errors.New("stream closed by client")

// ChatService orchestrates one chat turn: persist the user message, retrieve
// context, stream the generated answer, persist the result.
type ChatService struct {
	conversations conversationAPI
	retriever     retrieverAPI
	generator     Generator
	documents     documentLookup
	historyWindow int

	mu     sync.Mutex
	active map[uuid.UUID]struct{}
}

func NewChatService(conversations conversationAPI, retriever retrieverAPI, generator Generator, documents documentLookup, historyWindow int) *ChatService {
	if historyWindow <= 0 {
		historyWindow = 10
	}
	return &ChatService{
		conversations: conversations,
		retriever:     retriever,
		generator:     generator,
		documents:     documents,
		historyWindow: historyWindow,
		active:        make(map[uuid.UUID]struct{}),
	}
}

// RunTurn executes one turn, calling emit for every frame. It returns
// ErrTurnInProgress when the conversation already has a streaming turn,
// ErrGenerationUnavailable when generation failed before producing a token,
// and nil after client-side cancellation (the partial answer is persisted,
// there is nobody left to report to).
func (s *ChatService) RunTurn(ctx context.Context, req TurnRequest, emit func(Event) error) error {
	if !s.tryBegin(req.ConversationID) {
		return ErrTurnInProgress
	}
	defer s.end(req.ConversationID)

	// The user message is persisted before anything can fail, so history
	// survives a failed generation and the turn stays retryable.
	userMsg, err := s.conversations.AppendUserMessage(ctx, req.ConversationID, req.Message)
	if err != nil {
		return fmt.Errorf("persist user message: %w", err)
	}

	docID, err := s.resolveSource(ctx, req)
	if err != nil {
		return err
	}

	passages, err := s.retriever.Retrieve(ctx, req.Message, docID)
	if err != nil {
		return fmt.Errorf("retrieve context: %w", err)
	}

	citations := make([]model.Citation, len(passages))
	for i, p := range passages {
		citations[i] = p.Citation
	}
	// An empty citation list is a valid outcome: the turn proceeds ungrounded.
	if err := emit(Event{Type: EventTypeCitations, Citations: citations}); err != nil {
		return nil
	}

	history, err := s.history(ctx, req.ConversationID, userMsg.ID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	messages := buildMessages(req.Message, passages, history)

	var accumulated strings.Builder
	tokens := 0
	genErr := s.generator.ChatStream(ctx, messages, func(token string) error {
		tokens++
		accumulated.WriteString(token)
		if err := emit(Event{Type: EventTypeToken, Token: token}); err != nil {
			return fmt.Errorf("%w: %v", errStreamClosed, err)
		}
		return nil
	})

	if genErr != nil {
		cancelled := ctx.Err() != nil || errors.Is(genErr, errStreamClosed) ||
			errors.Is(genErr, context.Canceled)
		if cancelled {
			// Keep what the user already saw rather than discarding it. The
			// request context is dead, so persistence runs detached from it.
			if tokens > 0 {
				bg := context.WithoutCancel(ctx)
				if _, err := s.conversations.AppendAssistantMessage(bg, req.ConversationID, accumulated.String(), citations, true); err != nil {
					return fmt.Errorf("persist partial answer: %w", err)
				}
			}
			return nil
		}
		if tokens == 0 {
			// Nothing was produced: persist nothing, let the caller retry.
			return fmt.Errorf("%w: %v", ErrGenerationUnavailable, genErr)
		}
		// The provider died mid-answer; keep the partial text and surface the
		// failure.
		if _, err := s.conversations.AppendAssistantMessage(ctx, req.ConversationID, accumulated.String(), citations, true); err != nil {
			return fmt.Errorf("persist partial answer: %w", err)
		}
		return fmt.Errorf("%w: %v", ErrGenerationUnavailable, genErr)
	}

	if _, err := s.conversations.AppendAssistantMessage(ctx, req.ConversationID, accumulated.String(), citations, false); err != nil {
		return fmt.Errorf("persist assistant message: %w", err)
	}
	return nil
}

func (s *ChatService) tryBegin(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.active[id]; busy {
		return false
	}
	s.active[id] = struct{}{}
	return true
}

func (s *ChatService) end(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

func (s *ChatService) resolveSource(ctx context.Context, req TurnRequest) (*uuid.UUID, error) {
	if req.SourceID != nil {
		return req.SourceID, nil
	}
	if req.SourceName == "" {
		return nil, nil
	}
	doc, err := s.documents.FindByName(ctx, req.SourceName)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc.ID, nil
}

// history returns the most recent messages of the conversation, excluding
// the just-persisted user message, bounded by the configured window.
func (s *ChatService) history(ctx context.Context, conversationID, currentMsgID uuid.UUID) ([]model.Message, error) {
	msgs, err := s.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	filtered := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ID == currentMsgID {
			continue
		}
		filtered = append(filtered, m)
	}
	if len(filtered) > s.historyWindow {
		filtered = filtered[len(filtered)-s.historyWindow:]
	}
	return filtered, nil
}

const (
	systemPrompt = "You are a helpful assistant that answers using only provided context."

	promptInstructions = "You are an offline PDF assistant. Use only the provided context to answer directly. " +
		"Avoid filler like 'the context contains'. If the context does not contain the answer, say you do not have enough information."
)

// buildMessages assembles the grounded prompt: retrieved passages with their
// citation labels ahead of the user question, preceded by recent history.
func buildMessages(userMessage string, passages []Passage, history []model.Message) []ollama.Message {
	var contextBlock string
	if len(passages) == 0 {
		contextBlock = "No context available."
	} else {
		lines := make([]string, 0, len(passages))
		for _, p := range passages {
			lines = append(lines, fmt.Sprintf("[%s p%d] %s", p.Citation.DocumentName, p.Citation.PageNumber, strings.TrimSpace(p.Text)))
		}
		contextBlock = strings.Join(lines, "\n")
	}

	prompt := fmt.Sprintf("%s\n\nContext:\n%s\n\nUser: %s\nAnswer:", promptInstructions, contextBlock, userMessage)

	messages := make([]ollama.Message, 0, len(history)+2)
	messages = append(messages, ollama.Message{Role: "system", Content: systemPrompt})
	for _, m := range history {
		messages = append(messages, ollama.Message{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, ollama.Message{Role: "user", Content: prompt})
	return messages
}
