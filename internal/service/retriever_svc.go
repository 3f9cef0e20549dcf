package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/model"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/vectorindex"
)

// QueryEmbedder embeds the query text; satisfied by the embedding gateway.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkResolver attaches document name, page and text to matched chunk ids.
type ChunkResolver interface {
	ResolveChunks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ChunkInfo, error)
}

// ChunkInfo is the provenance a citation needs.
type ChunkInfo struct {
	DocumentID   uuid.UUID
	DocumentName string
	PageNumber   int
	Text         string
}

type RetrieverService struct {
	embedder QueryEmbedder
	index    vectorindex.Index
	resolver ChunkResolver

	topK           int
	relevanceFloor float64
}

func NewRetrieverService(embedder QueryEmbedder, index vectorindex.Index, resolver ChunkResolver, topK int, relevanceFloor float64) *RetrieverService {
	if topK <= 0 {
		topK = 5
	}
	return &RetrieverService{
		embedder:       embedder,
		index:          index,
		resolver:       resolver,
		topK:           topK,
		relevanceFloor: relevanceFloor,
	}
}

const excerptMaxLen = 200

// Passage is a retrieved chunk with its citation. The full text feeds prompt
// assembly; the citation is what callers surface.
type Passage struct {
	Citation model.Citation
	Text     string
}

// Retrieve embeds the query and returns scored passages for the best
// matching chunks, optionally restricted to one document. An empty result is
// a valid outcome meaning no relevant context was found.
func (s *RetrieverService) Retrieve(ctx context.Context, query string, documentID *uuid.UUID) ([]Passage, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var filter *vectorindex.Filter
	if documentID != nil {
		filter = &vectorindex.Filter{DocumentID: *documentID}
	}

	matches, err := s.index.Query(ctx, vec, s.topK, filter)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	// Matches below the relevance floor never make it into citations.
	relevant := matches[:0:0]
	for _, m := range matches {
		if m.Score >= s.relevanceFloor {
			relevant = append(relevant, m)
		}
	}
	if len(relevant) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(relevant))
	for i, m := range relevant {
		ids[i] = m.ID
	}
	info, err := s.resolver.ResolveChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve chunks: %w", err)
	}

	// Deduplicate citations on the same page of the same document, keeping
	// the highest-scoring chunk. Matches arrive score-descending, so the
	// first hit per page wins.
	type pageKey struct {
		doc  uuid.UUID
		page int
	}
	seen := make(map[pageKey]bool)
	passages := make([]Passage, 0, len(relevant))
	for _, m := range relevant {
		ci, ok := info[m.ID]
		if !ok {
			// The index referenced a chunk the store no longer has; skip it.
			continue
		}
		key := pageKey{doc: ci.DocumentID, page: ci.PageNumber}
		if seen[key] {
			continue
		}
		seen[key] = true
		passages = append(passages, Passage{
			Citation: model.Citation{
				DocumentID:   ci.DocumentID,
				DocumentName: ci.DocumentName,
				PageNumber:   ci.PageNumber,
				ChunkID:      m.ID,
				Score:        m.Score,
				Excerpt:      excerpt(ci.Text),
			},
			Text: ci.Text,
		})
	}
	return passages, nil
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptMaxLen {
		return text
	}
	return string(runes[:excerptMaxLen]) + "…"
}
