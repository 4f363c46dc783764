// Package sqlite provides the SQLite-backed session store.
//
// Each session owns one database file, index.db, inside its store
// directory. The database holds the session's embedding records, its
// processed-source registry and its conversation:
//
//   - VectorStore: append-only embedding records ranked by cosine similarity
//   - SessionStore: processed sources and conversation turns
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations,
// so reopening a session never re-runs a migration.
//
// # Thread Safety
//
// All operations are safe for concurrent use. The store runs SQLite in WAL mode.
package sqlite
