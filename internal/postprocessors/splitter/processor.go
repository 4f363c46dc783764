// Package splitter cuts document text into bounded, overlapping segments.
package splitter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/ragify/ragify/internal/core/domain"
)

// DefaultChunkSize is the default maximum segment length in runes.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of runes shared by neighbours.
const DefaultChunkOverlap = 200

// DefaultSeparators are tried in order: paragraph, line, word, then a hard cut.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Processor splits document content into segments.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize  int
	overlap    int
	strategy   domain.SplitStrategy
	separators []string
}

// Option configures the splitter processor.
type Option func(*Processor)

// WithChunkSize sets the maximum segment length in runes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between segments in runes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithStrategy selects the recursive or fixed splitter.
func WithStrategy(s domain.SplitStrategy) Option {
	return func(p *Processor) {
		if s != "" {
			p.strategy = s
		}
	}
}

// WithSeparators overrides the separators of the recursive strategy.
func WithSeparators(seps []string) Option {
	return func(p *Processor) {
		if len(seps) > 0 {
			p.separators = seps
		}
	}
}

// New creates a splitter. An overlap that is negative or not smaller than
// the chunk size is rejected.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		strategy:   domain.SplitRecursive,
		separators: DefaultSeparators,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", domain.ErrInvalidInput, p.chunkSize)
	}
	if p.overlap < 0 || p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrInvalidInput, p.overlap, p.chunkSize)
	}
	if !p.strategy.IsValid() {
		return nil, fmt.Errorf("%w: unknown split strategy %q", domain.ErrInvalidInput, p.strategy)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "splitter"
}

// piece is a segment's text and its rune offset in the document, -1 if unknown.
type piece struct {
	text   string
	offset int
}

// Process splits the document content into segments.
// Input segments are ignored; this processor creates new segments from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Segment) ([]domain.Segment, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}

	var pieces []piece
	switch p.strategy {
	case domain.SplitFixed:
		pieces = fixedWindow([]rune(doc.Content), p.chunkSize, p.overlap, 0)
	default:
		var err error
		pieces, err = p.recursive(doc.Content)
		if err != nil {
			return nil, err
		}
	}

	segments := make([]domain.Segment, 0, len(pieces))
	for i, pc := range pieces {
		segments = append(segments, domain.Segment{
			ID:         SegmentID(doc.SourceID, doc.ID, i, pc.text),
			SourceID:   doc.SourceID,
			DocumentID: doc.ID,
			Content:    pc.text,
			Position:   i,
			Offset:     pc.offset,
			Metadata:   cloneMetadata(doc.Metadata),
		})
	}

	return segments, nil
}

func (p *Processor) recursive(content string) ([]piece, error) {
	ts := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.overlap),
		textsplitter.WithSeparators(p.separators),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)
	texts, err := ts.SplitText(content)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	pieces := make([]piece, 0, len(texts))
	from := 0
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		offset := -1
		if idx := indexFrom(content, text, from); idx >= 0 {
			offset = utf8.RuneCountInString(content[:idx])
			from = idx + 1
		}

		runes := []rune(text)
		if len(runes) <= p.chunkSize {
			pieces = append(pieces, piece{text: text, offset: offset})
			continue
		}
		// Hard cut whatever the separators could not bring under the limit.
		for _, pc := range fixedWindow(runes, p.chunkSize, p.overlap, max(offset, 0)) {
			if offset < 0 {
				pc.offset = -1
			}
			pieces = append(pieces, pc)
		}
	}

	return pieces, nil
}

// fixedWindow slides a window of size runes, stepping size-overlap, so that
// consecutive pieces share exactly overlap runes. Only the final piece may be
// shorter.
func fixedWindow(runes []rune, size, overlap, base int) []piece {
	if len(runes) == 0 {
		return nil
	}
	step := size - overlap
	out := make([]piece, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		out = append(out, piece{text: string(runes[start:end]), offset: base + start})
		if end == len(runes) {
			break
		}
	}
	return out
}

// indexFrom finds text in content at or after byte position from,
// falling back to a search from the beginning.
func indexFrom(content, text string, from int) int {
	if from < len(content) {
		if idx := strings.Index(content[from:], text); idx >= 0 {
			return from + idx
		}
	}
	return strings.Index(content, text)
}

// SegmentID derives a stable identifier from a segment's provenance and text.
func SegmentID(sourceID, documentID string, position int, content string) string {
	h := sha256.New()
	h.Write([]byte(sourceID))
	h.Write([]byte{0})
	h.Write([]byte(documentID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(position)))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

func cloneMetadata(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
