// Package extractors provides the Extractor implementations for every
// supported source and the registry that dispatches between them.
//
// File sources are dispatched through a lookup table keyed by
// domain.FileType; domain.FileTypeUnsupported never has an entry.
package extractors

import (
	"fmt"
	"time"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/extractors/docx"
	"github.com/ragify/ragify/internal/extractors/fetch"
	"github.com/ragify/ragify/internal/extractors/pdf"
	"github.com/ragify/ragify/internal/extractors/plaintext"
	"github.com/ragify/ragify/internal/extractors/pptx"
	"github.com/ragify/ragify/internal/extractors/web"
	"github.com/ragify/ragify/internal/extractors/xlsx"
	"github.com/ragify/ragify/internal/extractors/youtube"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry selects the extractor for a source.
type Registry struct {
	files map[domain.FileType]driven.Extractor
	video driven.Extractor
	web   driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		files: make(map[domain.FileType]driven.Extractor),
	}
}

// RegisterFile registers an extractor for each of its file types.
func (r *Registry) RegisterFile(e driven.FileExtractor) {
	for _, ft := range e.FileTypes() {
		if ft.IsSupported() {
			r.files[ft] = e
		}
	}
}

// SetVideo sets the extractor for video sources.
func (r *Registry) SetVideo(e driven.Extractor) {
	r.video = e
}

// SetWeb sets the extractor for web sources.
func (r *Registry) SetWeb(e driven.Extractor) {
	r.web = e
}

// ForSource returns the extractor for src.
func (r *Registry) ForSource(src *domain.Source) (driven.Extractor, error) {
	var e driven.Extractor
	switch src.Kind {
	case domain.SourceKindFile:
		e = r.files[src.FileType]
	case domain.SourceKindVideo:
		e = r.video
	case domain.SourceKindWeb:
		e = r.web
	}
	if e == nil {
		if src.Kind == domain.SourceKindFile {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, src.ID)
		}
		return nil, fmt.Errorf("%w: no extractor for %s sources", domain.ErrUnsupportedType, src.Kind)
	}
	return e, nil
}

// ForFile returns the extractor for a file name.
func (r *Registry) ForFile(name string) (driven.Extractor, error) {
	return r.ForSource(domain.NewFileSource(name))
}

// FileTypes returns the registered file types.
func (r *Registry) FileTypes() []domain.FileType {
	types := make([]domain.FileType, 0, len(r.files))
	for _, ft := range domain.AllFileTypes() {
		if _, ok := r.files[ft]; ok {
			types = append(types, ft)
		}
	}
	return types
}

// Options configures the remote extractors of the default registry.
type Options struct {
	// FetchTimeout bounds each page or transcript request.
	FetchTimeout time.Duration

	// Retries is the number of retries of a failed request.
	Retries int

	// RetryWait is the initial wait between retries.
	RetryWait time.Duration

	// TranscriptLanguage is the preferred caption language.
	TranscriptLanguage string

	// YouTubeBaseURL overrides the watch page host. Used by tests.
	YouTubeBaseURL string
}

// NewDefaultRegistry registers the built-in extractors.
func NewDefaultRegistry(opts Options) *Registry {
	client := fetch.NewClient(fetch.Options{
		Timeout:   opts.FetchTimeout,
		Retries:   opts.Retries,
		RetryWait: opts.RetryWait,
	})
	pdfExtractor := pdf.New()

	r := NewRegistry()
	r.RegisterFile(pdfExtractor)
	r.RegisterFile(docx.New())
	r.RegisterFile(pptx.New())
	r.RegisterFile(plaintext.New())
	r.RegisterFile(xlsx.New())
	r.SetVideo(youtube.New(client,
		youtube.WithLanguage(opts.TranscriptLanguage),
		youtube.WithBaseURL(opts.YouTubeBaseURL),
	))
	r.SetWeb(web.New(client, pdfExtractor))
	return r
}
