package driven

import (
	"context"

	"github.com/ragify/ragify/internal/core/domain"
)

// SessionStore holds the processed-source registry and the conversation
// of a session.
type SessionStore interface {
	// MarkProcessed records a source as ingested.
	MarkProcessed(ctx context.Context, src domain.ProcessedSource) error

	// IsProcessed returns true if the source ID is in the registry.
	IsProcessed(ctx context.Context, id string) (bool, error)

	// ListProcessed returns registry entries in ingestion order.
	ListProcessed(ctx context.Context) ([]domain.ProcessedSource, error)

	// AppendTurns appends conversation turns atomically, in order.
	AppendTurns(ctx context.Context, turns ...domain.Turn) error

	// ListTurns returns the conversation in order.
	ListTurns(ctx context.Context) ([]domain.Turn, error)

	// ClearTurns empties the conversation. The registry and index are kept.
	ClearTurns(ctx context.Context) error
}

// SessionHandle is an open session store location.
type SessionHandle interface {
	// VectorStore returns the session's embedding records.
	VectorStore() VectorStore

	// SessionStore returns the session's registry and conversation.
	SessionStore() SessionStore

	// Close releases the underlying storage.
	Close() error
}

// SessionOpener opens (creating if absent) the storage of a session.
type SessionOpener interface {
	Open(ctx context.Context, sess domain.Session) (SessionHandle, error)
}

// UploadStore persists uploaded files under their original name.
type UploadStore interface {
	// Save writes data as name, overwriting any previous file,
	// and returns the stored path.
	Save(ctx context.Context, name string, data []byte) (string, error)

	// Dir returns the uploads directory.
	Dir() string
}
