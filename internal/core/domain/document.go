package domain

// Document is the text extracted from one natural subdivision of a source:
// a PDF page, or the whole source for every other format.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceID links to the Source that produced this document.
	SourceID string

	// URI is the original location (upload path or URL).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full extracted text before segmentation.
	Content string

	// Metadata contains arbitrary key-value pairs (page number, sheet name, ...).
	Metadata map[string]any
}

// Segment is a contiguous slice of normalised document text.
// Its length in runes never exceeds the configured maximum.
type Segment struct {
	// ID is derived from the segment's provenance and content,
	// so identical input always yields identical IDs.
	ID string

	// SourceID is the provenance of the segment.
	SourceID string

	// DocumentID links to the Document the text was cut from.
	DocumentID string

	// Content is the text of this segment.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Offset is the rune offset of Content within the normalised document text.
	Offset int

	// Metadata is copied from the parent document.
	Metadata map[string]any
}

// EmbeddingRecord pairs a segment with its embedding vector.
// Records are append-only; they are never updated or deleted.
type EmbeddingRecord struct {
	Segment Segment
	Vector  []float32
}

// RetrievedSegment is a segment returned by a similarity query.
type RetrievedSegment struct {
	Segment Segment

	// Similarity is the cosine similarity to the query, in [-1, 1].
	Similarity float64
}
