package driven

import (
	"context"

	"github.com/ragify/ragify/internal/core/domain"
)

// PostProcessor processes document content to produce segments.
// PostProcessors are chained in a pipeline (e.g., normalisation, splitting).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns segments.
	// Processors that rewrite the document text receive and return nil segments.
	// Processors that create segments (e.g., splitter) receive nil and return new segments.
	Process(ctx context.Context, doc *domain.Document, segments []domain.Segment) ([]domain.Segment, error)
}

// PostProcessorPipeline chains multiple PostProcessors. It is the segmenter.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	// Returns the final segments after all processing.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Segment, error)
}
