package driving

import (
	"context"

	"github.com/ragify/ragify/internal/core/domain"
)

// IngestService runs ingestion batches.
type IngestService interface {
	// Ingest extracts, segments and indexes every new source of the batch.
	// Per-source failures are collected in the report; an indexing failure
	// aborts the batch and is returned together with the partial report.
	Ingest(ctx context.Context, sess *Session, batch domain.Batch) (*domain.IngestReport, error)

	// HasPending returns true if the batch holds a source not yet ingested.
	HasPending(ctx context.Context, sess *Session, batch domain.Batch) (bool, error)
}
