// Package pdf extracts page-wise text from PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/extractors/document"
	"github.com/ragify/ragify/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.FileExtractor = (*Extractor)(nil)

// Extractor handles PDF documents.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// FileTypes returns the file types this extractor handles.
func (e *Extractor) FileTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypePDF}
}

// Extract returns one document per page that carries text. Page numbers
// are 1-based and recorded in the "page" metadata key.
func (e *Extractor) Extract(ctx context.Context, src *domain.Source, content []byte) (docs []domain.Document, err error) {
	if src == nil {
		return nil, domain.ErrInvalidInput
	}

	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			docs = nil
			err = document.Failed("pdf", fmt.Errorf("parser panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, document.Failed("pdf", err)
	}

	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("pdf %s: page %d: %v", src.ID, i, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, document.New(src, i, "", text, map[string]any{
			"page":  i,
			"pages": pages,
		}))
	}

	logger.Debug("pdf %s: %d of %d pages with text", src.ID, len(docs), pages)
	return docs, nil
}
