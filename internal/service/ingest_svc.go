package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/chunker"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/embedding"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/model"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/pdfextract"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/repository"
	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/vectorindex"
)

type documentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	Update(ctx context.Context, doc *model.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	List(ctx context.Context) ([]model.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type chunkStore interface {
	CreateBatch(ctx context.Context, chunks []model.Chunk) error
	FindByDocumentID(ctx context.Context, documentID uuid.UUID, limit, offset int) ([]model.Chunk, int64, error)
	DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error
}

// Extractor turns raw PDF bytes into per-page text.
type Extractor func(data []byte) ([]pdfextract.Page, error)

type batchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// IngestService drives a document through
// extract -> chunk -> embed -> index, recording progress on the document
// record and compensating on failure so the index never keeps vectors for a
// failed document.
type IngestService struct {
	documents documentStore
	chunks    chunkStore
	extract   Extractor
	chunker   *chunker.Chunker
	embedder  batchEmbedder
	index     vectorindex.Index
	docsDir   string

	// Bounds concurrent ingestions so parallel uploads cannot saturate the
	// embedding capability.
	sem chan struct{}
}

func NewIngestService(documents documentStore, chunks chunkStore, extract Extractor, ck *chunker.Chunker, embedder batchEmbedder, index vectorindex.Index, docsDir string, concurrency int) *IngestService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &IngestService{
		documents: documents,
		chunks:    chunks,
		extract:   extract,
		chunker:   ck,
		embedder:  embedder,
		index:     index,
		docsDir:   docsDir,
		sem:       make(chan struct{}, concurrency),
	}
}

// Ingest stores the uploaded bytes, records the document, and runs the
// pipeline. On failure the document is left in status failed with the failing
// stage recorded, and the index holds nothing for it.
func (s *IngestService) Ingest(ctx context.Context, data []byte, name string) (*model.Document, error) {
	if !pdfextract.IsPDF(data) {
		return nil, fmt.Errorf("%w: not a PDF", ErrUnsupportedFormat)
	}

	doc := &model.Document{
		Name:   name,
		Status: model.DocumentStatusPending,
	}
	doc.ID = uuid.New()
	doc.StoragePath = filepath.Join(s.docsDir, doc.ID.String(), name)

	if err := os.MkdirAll(filepath.Dir(doc.StoragePath), 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if err := os.WriteFile(doc.StoragePath, data, 0644); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		os.Remove(doc.StoragePath)
		return nil, err
	}

	if err := s.run(ctx, doc, data); err != nil {
		return doc, err
	}
	return doc, nil
}

// Reingest re-runs the pipeline for an existing document from its stored
// bytes, fully replacing its chunks and vectors.
func (s *IngestService) Reingest(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	doc, err := s.documents.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("read stored file: %w", err)
	}

	if err := s.run(ctx, doc, data); err != nil {
		return doc, err
	}
	return doc, nil
}

func (s *IngestService) run(ctx context.Context, doc *model.Document, data []byte) error {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	// Re-ingestion replaces whatever a previous run left behind.
	if err := s.discard(ctx, doc.ID); err != nil {
		return s.fail(ctx, doc, "indexing", ErrIndexingFailed, err)
	}

	s.setStatus(ctx, doc, model.DocumentStatusExtracting)
	pages, err := s.extract(data)
	if err != nil {
		return s.fail(ctx, doc, "extracting", ErrExtractionFailed, err)
	}
	doc.PageCount = len(pages)

	s.setStatus(ctx, doc, model.DocumentStatusChunking)
	drafts := s.chunker.Chunk(pages)
	if len(drafts) == 0 {
		return s.fail(ctx, doc, "chunking", ErrExtractionFailed, errors.New("no extractable text found in PDF"))
	}

	chunks := make([]model.Chunk, len(drafts))
	texts := make([]string, len(drafts))
	for i, d := range drafts {
		chunks[i] = model.Chunk{
			DocumentID:    doc.ID,
			PageNumber:    d.PageNumber,
			SequenceIndex: d.SequenceIndex,
			Text:          d.Text,
		}
		chunks[i].ID = uuid.New()
		texts[i] = d.Text
	}
	if err := s.chunks.CreateBatch(ctx, chunks); err != nil {
		return s.fail(ctx, doc, "chunking", ErrIndexingFailed, err)
	}

	s.setStatus(ctx, doc, model.DocumentStatusEmbedding)
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		s.rollback(ctx, doc.ID)
		if errors.Is(err, embedding.ErrUnavailable) || errors.Is(err, embedding.ErrDimensionMismatch) {
			return s.fail(ctx, doc, "embedding", err, nil)
		}
		return s.fail(ctx, doc, "embedding", embedding.ErrUnavailable, err)
	}

	s.setStatus(ctx, doc, model.DocumentStatusIndexing)
	entries := make([]vectorindex.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = vectorindex.Entry{ID: c.ID, DocumentID: doc.ID, Vector: vectors[i]}
	}
	if err := s.index.Upsert(ctx, entries); err != nil {
		s.rollback(ctx, doc.ID)
		return s.fail(ctx, doc, "indexing", ErrIndexingFailed, err)
	}

	doc.Status = model.DocumentStatusIngested
	doc.FailedStage = ""
	doc.ErrorMessage = ""
	return s.documents.Update(ctx, doc)
}

// Delete removes a document and everything derived from it: vectors, chunks,
// the stored file, and the record.
func (s *IngestService) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.documents.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := s.discard(ctx, id); err != nil {
		return err
	}
	if doc.StoragePath != "" {
		os.Remove(doc.StoragePath)
		os.Remove(filepath.Dir(doc.StoragePath))
	}
	return s.documents.Delete(ctx, id)
}

func (s *IngestService) ListDocuments(ctx context.Context) ([]model.Document, error) {
	return s.documents.List(ctx)
}

func (s *IngestService) ListChunks(ctx context.Context, documentID uuid.UUID, limit, offset int) ([]model.Chunk, int64, error) {
	if _, err := s.documents.FindByID(ctx, documentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}
	return s.chunks.FindByDocumentID(ctx, documentID, limit, offset)
}

// discard drops a document's vectors and chunks.
func (s *IngestService) discard(ctx context.Context, id uuid.UUID) error {
	if err := s.index.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	return s.chunks.DeleteByDocumentID(ctx, id)
}

// rollback is the compensating delete after a partial failure; errors here
// are secondary to the one being reported.
func (s *IngestService) rollback(ctx context.Context, id uuid.UUID) {
	_ = s.index.DeleteByDocument(ctx, id)
	_ = s.chunks.DeleteByDocumentID(ctx, id)
}

func (s *IngestService) setStatus(ctx context.Context, doc *model.Document, status model.DocumentStatus) {
	doc.Status = status
	_ = s.documents.Update(ctx, doc)
}

func (s *IngestService) fail(ctx context.Context, doc *model.Document, stage string, sentinel, cause error) error {
	doc.Status = model.DocumentStatusFailed
	doc.FailedStage = stage
	if cause != nil {
		doc.ErrorMessage = cause.Error()
	} else {
		doc.ErrorMessage = sentinel.Error()
	}
	_ = s.documents.Update(ctx, doc)

	if cause != nil {
		return fmt.Errorf("%w: %v", sentinel, cause)
	}
	return sentinel
}
