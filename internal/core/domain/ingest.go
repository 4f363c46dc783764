package domain

import "strings"

// FileInput is an uploaded file: its original name and content.
type FileInput struct {
	Name string
	Data []byte
}

// Batch is a single ingestion request.
// Sources are processed files first, then video URLs, then web URLs.
type Batch struct {
	Files     []FileInput
	VideoURLs []string
	WebURLs   []string
}

// IsEmpty returns true if the batch holds no usable identifiers.
func (b Batch) IsEmpty() bool {
	for _, f := range b.Files {
		if strings.TrimSpace(f.Name) != "" {
			return false
		}
	}
	for _, u := range b.VideoURLs {
		if strings.TrimSpace(u) != "" {
			return false
		}
	}
	for _, u := range b.WebURLs {
		if strings.TrimSpace(u) != "" {
			return false
		}
	}
	return true
}

// IngestReport describes the outcome of an ingestion batch.
type IngestReport struct {
	// Ingested lists sources indexed by this batch, in processing order.
	Ingested []ProcessedSource

	// Skipped lists source IDs already present in the registry.
	Skipped []string

	// Empty lists sources that produced no text. They are registered
	// as processed with zero segments.
	Empty []string

	// Failures lists per-source errors. The batch continued past them.
	Failures []SourceError

	// Records is the number of embedding records appended.
	Records int
}

// HasFailures returns true if any source failed.
func (r *IngestReport) HasFailures() bool {
	return len(r.Failures) > 0
}

// Fail records a per-source failure.
func (r *IngestReport) Fail(src *Source, err error) {
	r.Failures = append(r.Failures, SourceError{SourceID: src.ID, Kind: src.Kind, Err: err})
}
