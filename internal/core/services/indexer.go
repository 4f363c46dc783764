package services

import (
	"context"
	"fmt"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/logger"
)

// DefaultBatchSize is the number of segments embedded per request
// when no batch size is configured.
const DefaultBatchSize = 32

// Indexer embeds segments and appends them to a vector store.
type Indexer struct {
	embedder  driven.EmbeddingService
	batchSize int
}

// NewIndexer creates an indexer. batchSize <= 0 uses DefaultBatchSize.
func NewIndexer(embedder driven.EmbeddingService, batchSize int) *Indexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Indexer{embedder: embedder, batchSize: batchSize}
}

// Index embeds segments in batches and appends each completed batch.
// It returns the number of records appended. On failure the remaining
// segments are skipped and the error wraps domain.ErrEmbeddingFailed;
// batches appended before the failure stay in the store.
func (x *Indexer) Index(ctx context.Context, store driven.VectorStore, segments []domain.Segment) (int, error) {
	appended := 0
	for start := 0; start < len(segments); start += x.batchSize {
		end := min(start+x.batchSize, len(segments))
		batch := segments[start:end]

		texts := make([]string, len(batch))
		for i, seg := range batch {
			texts[i] = seg.Content
		}

		vectors, err := x.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return appended, fmt.Errorf("%w: segments %d-%d: %w", domain.ErrEmbeddingFailed, start, end-1, err)
		}
		if len(vectors) != len(batch) {
			return appended, fmt.Errorf("%w: got %d vectors for %d segments",
				domain.ErrEmbeddingFailed, len(vectors), len(batch))
		}

		records := make([]domain.EmbeddingRecord, len(batch))
		for i, seg := range batch {
			records[i] = domain.EmbeddingRecord{Segment: seg, Vector: vectors[i]}
		}
		if err := store.Append(ctx, records); err != nil {
			return appended, fmt.Errorf("append records: %w", err)
		}

		appended += len(records)
		logger.Debug("indexed %d/%d segments", appended, len(segments))
	}
	return appended, nil
}
