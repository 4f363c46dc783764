// Package xlsx extracts row-wise text from Excel workbooks.
package xlsx

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/extractors/document"
)

// Ensure Extractor implements the interface.
var _ driven.FileExtractor = (*Extractor)(nil)

// Extractor handles XLSX workbooks.
type Extractor struct{}

// New creates a new XLSX extractor.
func New() *Extractor {
	return &Extractor{}
}

// FileTypes returns the file types this extractor handles.
func (e *Extractor) FileTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeXLSX}
}

// Extract reads the first sheet. The first row holds column names and is
// skipped; every other non-blank row becomes one line with its cells
// joined by a space.
func (e *Extractor) Extract(_ context.Context, src *domain.Source, content []byte) ([]domain.Document, error) {
	if src == nil {
		return nil, domain.ErrInvalidInput
	}

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, document.Failed("xlsx", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, document.Failed("xlsx", errors.New("workbook has no sheets"))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, document.Failed("xlsx", err)
	}

	var lines []string
	for i, row := range rows {
		if i == 0 {
			continue
		}
		line := strings.TrimSpace(strings.Join(row, " "))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	doc := document.New(src, 0, "", strings.Join(lines, "\n"), map[string]any{
		"sheet": sheets[0],
		"rows":  len(lines),
	})
	return []domain.Document{doc}, nil
}
