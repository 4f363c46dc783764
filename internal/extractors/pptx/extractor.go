// Package pptx extracts shape text from PowerPoint presentations.
package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/extractors/document"
)

// Ensure Extractor implements the interface.
var _ driven.FileExtractor = (*Extractor)(nil)

var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Extractor handles PPTX presentations.
type Extractor struct{}

// New creates a new PPTX extractor.
func New() *Extractor {
	return &Extractor{}
}

// FileTypes returns the file types this extractor handles.
func (e *Extractor) FileTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypePPTX}
}

// Extract concatenates the text of every shape across slides, in slide
// order, one line per shape.
func (e *Extractor) Extract(_ context.Context, src *domain.Source, content []byte) ([]domain.Document, error) {
	if src == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, document.Failed("pptx", err)
	}

	slides := slideFiles(reader)
	if len(slides) == 0 {
		return nil, document.Failed("pptx", errors.New("no slides found"))
	}

	var lines []string
	for _, f := range slides {
		rc, err := f.Open()
		if err != nil {
			return nil, document.Failed("pptx", err)
		}
		shapes, err := shapeTexts(rc)
		rc.Close()
		if err != nil {
			return nil, document.Failed("pptx", err)
		}
		lines = append(lines, shapes...)
	}

	text := strings.TrimSpace(strings.Join(lines, "\n"))
	doc := document.New(src, 0, document.CoreTitle(reader), text, map[string]any{"slides": len(slides)})
	return []domain.Document{doc}, nil
}

// slideFiles returns the slide parts ordered by slide number, so slide10
// follows slide9.
func slideFiles(r *zip.Reader) []*zip.File {
	type numbered struct {
		n int
		f *zip.File
	}
	var found []numbered
	for _, f := range r.File {
		m := slidePattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, numbered{n: n, f: f})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	files := make([]*zip.File, len(found))
	for i, s := range found {
		files[i] = s.f
	}
	return files
}

// shapeTexts streams a slide and returns the text of each shape (p:sp).
// Paragraphs inside a shape are separated by newlines.
func shapeTexts(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		shapes    []string
		paras     []string
		current   strings.Builder
		shapeDeep int
		inText    bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				shapeDeep++
				if shapeDeep == 1 {
					paras = paras[:0]
				}
			case "p":
				if shapeDeep > 0 {
					current.Reset()
				}
			case "t":
				inText = shapeDeep > 0
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if shapeDeep > 0 {
					paras = append(paras, current.String())
				}
			case "sp":
				shapeDeep--
				if shapeDeep == 0 {
					if text := strings.TrimSpace(strings.Join(paras, "\n")); text != "" {
						shapes = append(shapes, text)
					}
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return shapes, nil
}
