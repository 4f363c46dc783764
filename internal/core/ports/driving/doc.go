// Package driving defines interfaces that external actors (CLI, HTTP, MCP) use
// to interact with core services. These are the "driving" ports in hexagonal
// architecture terminology - they drive the application.
//
// Every operation takes the session context explicitly; there is no
// ambient session state.
//
// Implementations of these interfaces live in internal/core/services.
package driving
