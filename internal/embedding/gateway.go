// Package embedding wraps the external embedding capability with batching,
// bounded retry, and a vector dimension guard.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/ollama"
)

var (
	// ErrUnavailable means the embedding capability stayed unreachable for the
	// whole retry budget. Callers surface it as a retryable failure; they must
	// not retry it silently.
	ErrUnavailable = errors.New("embedding service unavailable")

	// ErrDimensionMismatch means the model returned vectors of a different
	// dimension than configured. This indicates a model or config change and
	// is never retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Embedder is the external embedding capability. EmbedBatch must return one
// vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Gateway struct {
	embedder   Embedder
	dimensions int
	batchSize  int
	maxRetries int
	backoff    time.Duration
}

func NewGateway(embedder Embedder, dimensions, batchSize, maxRetries int) *Gateway {
	if batchSize <= 0 {
		batchSize = 16
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Gateway{
		embedder:   embedder,
		dimensions: dimensions,
		batchSize:  batchSize,
		maxRetries: maxRetries,
		backoff:    500 * time.Millisecond,
	}
}

// EmbedBatch embeds texts preserving order and length. Work is sliced into
// batched requests so one document does not turn into one huge call, and a
// covered batch is never re-sent after a later batch fails.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		end := start + g.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := g.embedSlice(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// Embed embeds a single text with the same retry and dimension policy.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := g.withRetry(ctx, func() error {
		var callErr error
		vec, callErr = g.embedder.Embed(ctx, text)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if len(vec) != g.dimensions {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vec), g.dimensions)
	}
	return vec, nil
}

// Dimensions returns the configured vector dimension.
func (g *Gateway) Dimensions() int {
	return g.dimensions
}

func (g *Gateway) embedSlice(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := g.withRetry(ctx, func() error {
		var callErr error
		vecs, callErr = g.embedder.EmbedBatch(ctx, texts)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedding failed: got %d vectors for %d texts", len(vecs), len(texts))
	}
	for _, vec := range vecs {
		if len(vec) != g.dimensions {
			return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vec), g.dimensions)
		}
	}
	return vecs, nil
}

// withRetry runs call up to maxRetries times with doubling backoff between
// attempts. Non-transient errors stop the loop immediately.
func (g *Gateway) withRetry(ctx context.Context, call func() error) error {
	var lastErr error
	backoff := g.backoff
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		err := call()
		if err == nil {
			return nil
		}
		if !transient(err) {
			return fmt.Errorf("embedding failed: %w", err)
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// transient reports whether an error is worth another attempt: connection
// trouble and server-side 5xx responses are; client errors like a missing
// model are not.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *ollama.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500
	}
	// Anything that never produced an HTTP status is connection-level.
	return true
}
