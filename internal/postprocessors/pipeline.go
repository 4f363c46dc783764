// Package postprocessors provides document content processing implementations.
// A Pipeline of post processors is the segmenter of the ingestion path.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline chains multiple PostProcessors and runs them in order.
// It implements the PostProcessorPipeline interface.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the document through all processors in order.
// Processors work on a copy of the document, so the caller's document is
// never modified. Segments start nil; a splitter creates them and later
// processors may modify them.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Segment, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	working := *doc
	var segments []domain.Segment

	for _, processor := range p.processors {
		var err error
		segments, err = processor.Process(ctx, &working, segments)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return segments, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Build assembles a pipeline from configuration using the registry.
func Build(r *Registry, cfg domain.PipelineConfig) (*Pipeline, error) {
	p := NewPipeline()
	for _, name := range cfg.Processors {
		proc, err := r.Build(name, cfg.GetProcessorConfig(name))
		if err != nil {
			return nil, err
		}
		p.Add(proc)
	}
	return p, nil
}

// NewSegmenter builds the default segmenter for the given settings.
func NewSegmenter(s domain.SegmentSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return Build(r, domain.PipelineConfigFor(s))
}
