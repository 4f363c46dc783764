// Package plaintext reads text files verbatim.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html/charset"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/extractors/document"
)

// Ensure Extractor implements the interface.
var _ driven.FileExtractor = (*Extractor)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor handles plain text files.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// FileTypes returns the file types this extractor handles.
func (e *Extractor) FileTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeTXT}
}

// Extract returns the file content as a single document.
func (e *Extractor) Extract(_ context.Context, src *domain.Source, content []byte) ([]domain.Document, error) {
	if src == nil {
		return nil, domain.ErrInvalidInput
	}

	if mtype := mimetype.Detect(content); !IsText(mtype) {
		return nil, document.Failed("txt", fmt.Errorf("content is %s, not text", mtype.String()))
	}

	text, err := Decode(content, "text/plain")
	if err != nil {
		return nil, document.Failed("txt", err)
	}

	return []domain.Document{document.New(src, 0, "", text, nil)}, nil
}

// IsText reports whether the detected type is text/plain or a subtype of it.
func IsText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// Decode returns content as UTF-8 text. Content that is not valid UTF-8 is
// transcoded using the encoding sniffed from its bytes and contentType.
func Decode(content []byte, contentType string) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content), nil
	}

	enc, _, _ := charset.DetermineEncoding(content, contentType)
	decoded, err := enc.NewDecoder().Bytes(content)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
