// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Ingestion runs extract, segment, index and register for each source of
// a batch; answering runs retrieve then generate. Every operation takes
// the session explicitly and holds its lock while it mutates it.
package services
