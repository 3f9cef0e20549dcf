package model

import (
	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusExtracting DocumentStatus = "extracting"
	DocumentStatusChunking   DocumentStatus = "chunking"
	DocumentStatusEmbedding  DocumentStatus = "embedding"
	DocumentStatusIndexing   DocumentStatus = "indexing"
	DocumentStatusIngested   DocumentStatus = "ingested"
	DocumentStatusFailed     DocumentStatus = "failed"
)

type Document struct {
	BaseModel
	Name         string         `gorm:"size:500;not null" json:"name"`
	StoragePath  string         `gorm:"size:1000" json:"storage_path"`
	PageCount    int            `gorm:"default:0" json:"page_count"`
	Status       DocumentStatus `gorm:"size:50;default:'pending'" json:"status"`
	FailedStage  string         `gorm:"size:50" json:"failed_stage,omitempty"`
	ErrorMessage string         `gorm:"type:text" json:"error_message,omitempty"`
}

func (Document) TableName() string {
	return "documents"
}

type Chunk struct {
	BaseModel
	DocumentID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_chunks_doc_seq,priority:1" json:"document_id"`
	PageNumber    int       `gorm:"not null" json:"page_number"`
	SequenceIndex int       `gorm:"not null;uniqueIndex:idx_chunks_doc_seq,priority:2" json:"sequence_index"`
	Text          string    `gorm:"type:text;not null" json:"text"`

	Document *Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
}

func (Chunk) TableName() string {
	return "chunks"
}
