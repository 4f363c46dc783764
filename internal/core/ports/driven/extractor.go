package driven

import (
	"context"

	"github.com/ragify/ragify/internal/core/domain"
)

// Extractor turns the content of one source into documents.
// File extractors receive the persisted upload's bytes; remote
// extractors (video, web) receive nil and fetch src.URL themselves.
type Extractor interface {
	// Extract returns one document per natural subdivision of the source.
	Extract(ctx context.Context, src *domain.Source, content []byte) ([]domain.Document, error)
}

// FileExtractor is an Extractor bound to specific file types.
type FileExtractor interface {
	Extractor

	// FileTypes returns the file types this extractor handles.
	FileTypes() []domain.FileType
}

// ExtractorRegistry selects the extractor for a source.
type ExtractorRegistry interface {
	// ForSource returns the extractor for src.
	// Returns domain.ErrUnsupportedType when none matches.
	ForSource(src *domain.Source) (Extractor, error)
}
