// Package domain defines the core business entities for Ragify.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Source: A file, video or web page submitted for ingestion
//   - Document: Extracted text from one natural subdivision of a source
//   - Segment: A bounded slice of document text, the unit of retrieval
//   - Session: The store location, registry and conversation of one user session
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
