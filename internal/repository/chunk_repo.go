package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&chunks).Error
}

func (r *ChunkRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var chunks []model.Chunk
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&chunks).Error
	return chunks, err
}

func (r *ChunkRepository) FindByDocumentID(ctx context.Context, documentID uuid.UUID, limit, offset int) ([]model.Chunk, int64, error) {
	var chunks []model.Chunk
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Chunk{}).
		Where("document_id = ?", documentID)

	query.Count(&total)
	err := query.Order("sequence_index ASC").Limit(limit).Offset(offset).Find(&chunks).Error
	return chunks, total, err
}

func (r *ChunkRepository) ChunkIDsByDocumentID(ctx context.Context, documentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Chunk{}).
		Where("document_id = ?", documentID).
		Order("sequence_index ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *ChunkRepository) DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error
}
