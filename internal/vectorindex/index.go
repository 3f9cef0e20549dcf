// Package vectorindex stores chunk vectors and serves similarity queries.
// The Index interface is the capability boundary; the backing store can be
// swapped without touching retrieval or ingestion logic.
package vectorindex

import (
	"context"

	"github.com/google/uuid"
)

// Entry is one vector with its chunk identity and document ownership.
type Entry struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Vector     []float32
}

// Match is a query result, ordered by descending similarity.
type Match struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Score      float64
}

// Filter restricts a query to chunks of a single document.
type Filter struct {
	DocumentID uuid.UUID
}

type Index interface {
	// Upsert is idempotent by entry id; re-upserting replaces the vector.
	Upsert(ctx context.Context, entries []Entry) error

	// Query returns up to k matches by descending cosine similarity. Ties are
	// broken by insertion order so results stay deterministic. An empty index
	// yields an empty result, not an error.
	Query(ctx context.Context, vector []float32, k int, filter *Filter) ([]Match, error)

	// Delete removes the given entries.
	Delete(ctx context.Context, ids []uuid.UUID) error

	// DeleteByDocument removes every entry belonging to a document.
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) error
}
