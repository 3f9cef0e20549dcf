package vectorindex

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PgvectorIndex keeps vectors in a Postgres table with a pgvector column and
// answers queries with cosine distance. The seq column records insertion
// order for stable tie-breaks.
type PgvectorIndex struct {
	db *gorm.DB
}

type vectorEntry struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Embedding  pgvector.Vector `gorm:"not null"`
	Seq        int64
}

func (vectorEntry) TableName() string {
	return "vector_entries"
}

// NewPgvectorIndex creates the backing table if needed. The vector column
// dimension is fixed by the embedding model configuration.
func NewPgvectorIndex(db *gorm.DB, dimensions int) (*PgvectorIndex, error) {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS vector_entries (
		id uuid PRIMARY KEY,
		document_id uuid NOT NULL,
		embedding vector(%d) NOT NULL,
		seq bigserial
	)`, dimensions)
	if err := db.Exec(ddl).Error; err != nil {
		return nil, fmt.Errorf("create vector_entries: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_vector_entries_document ON vector_entries(document_id)").Error; err != nil {
		return nil, fmt.Errorf("index vector_entries: %w", err)
	}
	return &PgvectorIndex{db: db}, nil
}

func (x *PgvectorIndex) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		// ON CONFLICT keeps the original seq so replaced entries retain their
		// insertion-order tie-break.
		err := x.db.WithContext(ctx).Exec(
			`INSERT INTO vector_entries (id, document_id, embedding)
			 VALUES (?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET document_id = EXCLUDED.document_id, embedding = EXCLUDED.embedding`,
			e.ID, e.DocumentID, pgvector.NewVector(e.Vector),
		).Error
		if err != nil {
			return fmt.Errorf("upsert vector %s: %w", e.ID, err)
		}
	}
	return nil
}

func (x *PgvectorIndex) Query(ctx context.Context, vector []float32, k int, filter *Filter) ([]Match, error) {
	if k <= 0 {
		k = 5
	}

	var rows []struct {
		ID         uuid.UUID
		DocumentID uuid.UUID
		Distance   float64
	}

	qvec := pgvector.NewVector(vector)
	query := x.db.WithContext(ctx).
		Table("vector_entries").
		Select("id, document_id, embedding <=> ? AS distance", qvec).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "embedding <=> ? ASC, seq ASC",
			Vars:               []interface{}{qvec},
			WithoutParentheses: true,
		}}).
		Limit(k)

	if filter != nil {
		query = query.Where("document_id = ?", filter.DocumentID)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	matches := make([]Match, 0, len(rows))
	for _, r := range rows {
		// Cosine distance to similarity.
		matches = append(matches, Match{
			ID:         r.ID,
			DocumentID: r.DocumentID,
			Score:      1 - r.Distance,
		})
	}
	return matches, nil
}

func (x *PgvectorIndex) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return x.db.WithContext(ctx).Where("id IN ?", ids).Delete(&vectorEntry{}).Error
}

func (x *PgvectorIndex) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	return x.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&vectorEntry{}).Error
}
