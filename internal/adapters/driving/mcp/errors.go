// Package mcp provides an MCP (Model Context Protocol) server adapter for ragify.
// It lets AI assistants ingest sources into the active session and ask
// questions about them.
package mcp

import "errors"

// Errors returned when a required port is not provided.
var (
	ErrMissingSessionService = errors.New("mcp: session service is required")
	ErrMissingIngestService  = errors.New("mcp: ingest service is required")
	ErrMissingChatService    = errors.New("mcp: chat service is required")
)
