package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/logger"
)

// DefaultTopK is the number of segments retrieved when none is configured.
const DefaultTopK = 10

// Retriever finds the segments most similar to a query.
type Retriever struct {
	embedder driven.EmbeddingService
	topK     int
}

// NewRetriever creates a retriever. topK <= 0 uses DefaultTopK.
func NewRetriever(embedder driven.EmbeddingService, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, topK: topK}
}

// Retrieve embeds the query and returns up to k segments of the store,
// most similar first. k <= 0 uses the default; k is clamped to the
// number of stored records.
func (r *Retriever) Retrieve(
	ctx context.Context, store driven.VectorStore, query string, k int,
) ([]domain.RetrievedSegment, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = r.topK
	}

	count, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	if count == 0 {
		return []domain.RetrievedSegment{}, nil
	}
	k = min(k, count)

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := store.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	logger.Debug("retrieved %d of %d records for %q", len(results), count, query)
	return results, nil
}
