package mcp

import (
	"github.com/ragify/ragify/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Sessions opens and resets the session the tools work on.
	Sessions driving.SessionService

	// Ingest runs ingestion batches.
	Ingest driving.IngestService

	// Chat answers questions and retrieves segments.
	Chat driving.ChatService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	switch {
	case p.Sessions == nil:
		return ErrMissingSessionService
	case p.Ingest == nil:
		return ErrMissingIngestService
	case p.Chat == nil:
		return ErrMissingChatService
	}
	return nil
}
