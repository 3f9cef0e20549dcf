package vectorindex

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndexQueryOrdersByScore(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	docID := uuid.New()

	exact := uuid.New()
	near := uuid.New()
	far := uuid.New()
	require.NoError(t, idx.Upsert(ctx, []Entry{
		{ID: far, DocumentID: docID, Vector: []float32{0, 1, 0}},
		{ID: exact, DocumentID: docID, Vector: []float32{1, 0, 0}},
		{ID: near, DocumentID: docID, Vector: []float32{1, 0.2, 0}},
	}))

	matches, err := idx.Query(ctx, []float32{1, 0, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, exact, matches[0].ID)
	assert.Equal(t, near, matches[1].ID)
	assert.Equal(t, far, matches[2].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestMemoryIndexQueryBreaksTiesByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	docID := uuid.New()

	first := uuid.New()
	second := uuid.New()
	require.NoError(t, idx.Upsert(ctx, []Entry{
		{ID: first, DocumentID: docID, Vector: []float32{1, 0}},
	}))
	require.NoError(t, idx.Upsert(ctx, []Entry{
		{ID: second, DocumentID: docID, Vector: []float32{1, 0}},
	}))

	matches, err := idx.Query(ctx, []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, first, matches[0].ID)
	assert.Equal(t, second, matches[1].ID)
}

func TestMemoryIndexUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	docID := uuid.New()
	id := uuid.New()

	require.NoError(t, idx.Upsert(ctx, []Entry{{ID: id, DocumentID: docID, Vector: []float32{1, 0}}}))
	require.NoError(t, idx.Upsert(ctx, []Entry{{ID: id, DocumentID: docID, Vector: []float32{0, 1}}}))

	assert.Equal(t, 1, idx.Len())

	matches, err := idx.Query(ctx, []float32{0, 1}, 1, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestMemoryIndexQueryFiltersByDocument(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	docA := uuid.New()
	docB := uuid.New()

	require.NoError(t, idx.Upsert(ctx, []Entry{
		{ID: uuid.New(), DocumentID: docA, Vector: []float32{1, 0}},
		{ID: uuid.New(), DocumentID: docB, Vector: []float32{1, 0}},
		{ID: uuid.New(), DocumentID: docB, Vector: []float32{0.9, 0.1}},
	}))

	matches, err := idx.Query(ctx, []float32{1, 0}, 10, &Filter{DocumentID: docB})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, docB, m.DocumentID)
	}
}

func TestMemoryIndexQueryEmpty(t *testing.T) {
	matches, err := NewMemoryIndex().Query(context.Background(), []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryIndexDelete(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	docID := uuid.New()
	keep := uuid.New()
	drop := uuid.New()

	require.NoError(t, idx.Upsert(ctx, []Entry{
		{ID: keep, DocumentID: docID, Vector: []float32{1, 0}},
		{ID: drop, DocumentID: docID, Vector: []float32{0, 1}},
	}))

	require.NoError(t, idx.Delete(ctx, []uuid.UUID{drop}))
	assert.Equal(t, 1, idx.Len())

	require.NoError(t, idx.DeleteByDocument(ctx, docID))
	assert.Equal(t, 0, idx.Len())
}

func TestCosineSimilarityDegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, cosineSimilarity(nil, nil))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
