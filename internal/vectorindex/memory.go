package vectorindex

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryIndex is an in-process Index with the same ordering semantics as the
// pgvector adapter. It backs tests and small single-node deployments.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*memoryEntry
	nextSeq int64
}

type memoryEntry struct {
	Entry
	seq int64
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[uuid.UUID]*memoryEntry)}
}

func (m *MemoryIndex) Upsert(ctx context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if existing, ok := m.entries[e.ID]; ok {
			// Replacement keeps the original insertion order.
			existing.Entry = e
			continue
		}
		m.entries[e.ID] = &memoryEntry{Entry: e, seq: m.nextSeq}
		m.nextSeq++
	}
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, vector []float32, k int, filter *Filter) ([]Match, error) {
	if k <= 0 {
		k = 5
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		Match
		seq int64
	}
	candidates := make([]scored, 0, len(m.entries))
	for _, e := range m.entries {
		if filter != nil && e.DocumentID != filter.DocumentID {
			continue
		}
		candidates = append(candidates, scored{
			Match: Match{ID: e.ID, DocumentID: e.DocumentID, Score: cosineSimilarity(vector, e.Vector)},
			seq:   e.seq,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].seq < candidates[j].seq
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	matches := make([]Match, len(candidates))
	for i, c := range candidates {
		matches[i] = c.Match
	}
	return matches, nil
}

func (m *MemoryIndex) Delete(ctx context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.entries, id)
	}
	return nil
}

func (m *MemoryIndex) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if e.DocumentID == documentID {
			delete(m.entries, id)
		}
	}
	return nil
}

// Len reports the number of stored entries.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
