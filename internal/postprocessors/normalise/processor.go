// Package normalise cleans extracted text before it is split.
package normalise

import (
	"context"
	"strings"

	"github.com/ragify/ragify/internal/core/domain"
)

// Processor rewrites document content in place: line endings become LF,
// trailing whitespace is trimmed from every line and runs of blank lines
// collapse to a single blank line. It never creates segments.
type Processor struct{}

// New creates a normalise processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "normalise"
}

// Process normalises doc.Content and passes segments through unchanged.
func (p *Processor) Process(_ context.Context, doc *domain.Document, segments []domain.Segment) ([]domain.Segment, error) {
	doc.Content = Text(doc.Content)
	return segments, nil
}

// Text applies the normalisation rules to s.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t \f\v")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
