package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/model"
)

type chunkSource interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Chunk, error)
}

type documentSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
}

// RepoChunkResolver resolves chunk ids to citation provenance through the
// relational store.
type RepoChunkResolver struct {
	chunks    chunkSource
	documents documentSource
}

func NewRepoChunkResolver(chunks chunkSource, documents documentSource) *RepoChunkResolver {
	return &RepoChunkResolver{chunks: chunks, documents: documents}
}

func (r *RepoChunkResolver) ResolveChunks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ChunkInfo, error) {
	chunks, err := r.chunks.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	names := make(map[uuid.UUID]string)
	info := make(map[uuid.UUID]ChunkInfo, len(chunks))
	for _, c := range chunks {
		name, ok := names[c.DocumentID]
		if !ok {
			doc, err := r.documents.FindByID(ctx, c.DocumentID)
			if err != nil {
				return nil, err
			}
			name = doc.Name
			names[c.DocumentID] = name
		}
		info[c.ID] = ChunkInfo{
			DocumentID:   c.DocumentID,
			DocumentName: name,
			PageNumber:   c.PageNumber,
			Text:         c.Text,
		}
	}
	return info, nil
}
