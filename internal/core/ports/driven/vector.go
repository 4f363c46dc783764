package driven

import (
	"context"

	"github.com/ragify/ragify/internal/core/domain"
)

// VectorStore is the append-only, similarity-searchable store of a session.
type VectorStore interface {
	// Append adds records to the store. Records whose segment ID is
	// already stored are ignored; stored records are never modified.
	Append(ctx context.Context, records []domain.EmbeddingRecord) error

	// Query returns up to k records ranked by cosine similarity to vector,
	// most similar first. Equal similarities keep store order.
	Query(ctx context.Context, vector []float32, k int) ([]domain.RetrievedSegment, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}
