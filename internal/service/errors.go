package service

import "errors"

// Failure taxonomy surfaced to the HTTP layer. Embedding-specific failures
// (unavailable, dimension mismatch) live in the embedding package where they
// arise.
var (
	// ErrUnsupportedFormat means the upload is not a readable PDF.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrExtractionFailed means the PDF was accepted but yielded no usable text.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrIndexingFailed means vector upserts failed after a successful embed;
	// any partial writes have been rolled back.
	ErrIndexingFailed = errors.New("vector indexing failed")

	// ErrGenerationUnavailable means the generation capability failed before
	// producing any tokens. The turn is retryable.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrTurnInProgress means another turn is already streaming on the same
	// conversation.
	ErrTurnInProgress = errors.New("conversation already has an active turn")

	// ErrEmptyTitle rejects a rename to a blank title.
	ErrEmptyTitle = errors.New("title must not be empty")

	ErrNotFound = errors.New("not found")
)
