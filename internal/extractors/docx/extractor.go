// Package docx extracts paragraph text from Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"strings"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/extractors/document"
)

// Ensure Extractor implements the interface.
var _ driven.FileExtractor = (*Extractor)(nil)

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// FileTypes returns the file types this extractor handles.
func (e *Extractor) FileTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeDOCX}
}

// Extract concatenates the document's paragraphs, one per line.
func (e *Extractor) Extract(_ context.Context, src *domain.Source, content []byte) ([]domain.Document, error) {
	if src == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, document.Failed("docx", err)
	}

	body, err := document.ReadZipFile(reader, "word/document.xml")
	if err != nil {
		return nil, document.Failed("docx", err)
	}

	text, err := parseDocumentXML(body)
	if err != nil {
		return nil, document.Failed("docx", err)
	}

	doc := document.New(src, 0, document.CoreTitle(reader), text, nil)
	return []domain.Document{doc}, nil
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
	Tabs []struct{}    `xml:"tab"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML joins the text runs of each body paragraph and the
// paragraphs with newlines.
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", err
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		var line strings.Builder
		for _, r := range para.Runs {
			for range r.Tabs {
				line.WriteString("\t")
			}
			for _, text := range r.Text {
				line.WriteString(text.Content)
			}
		}
		lines = append(lines, line.String())
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
