package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file extension outside the allowed set.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidURL indicates a video or web identifier that is not an HTTP(S) URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrFetchFailed indicates a network or resolution failure for a remote source.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrExtractionFailed indicates the content could not be turned into text.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrTranscriptUnavailable indicates the video has no caption track.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")

	// ErrLimitExceeded indicates the session already holds the maximum number
	// of sources of that kind.
	ErrLimitExceeded = errors.New("source limit exceeded")

	// ErrEmbeddingFailed indicates the embedding service rejected a batch.
	// It aborts the remainder of the ingestion batch.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrAnswerFailed indicates the generative model call failed.
	// The conversation is left untouched.
	ErrAnswerFailed = errors.New("answer generation failed")

	// ErrNotReady indicates a question was asked before anything was indexed.
	ErrNotReady = errors.New("no documents indexed yet")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// SourceError reports a failure confined to a single source of a batch.
type SourceError struct {
	// SourceID is the file name or URL that failed.
	SourceID string

	// Kind is the kind of the failed source.
	Kind SourceKind

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *SourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.SourceID, e.Err)
}

// Unwrap returns the underlying cause so errors.Is sees through it.
func (e *SourceError) Unwrap() error {
	return e.Err
}
