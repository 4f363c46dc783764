package driving

import (
	"context"
	"sync"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
)

// Session is the explicit context of one user session. It is created at
// session start, passed to every operation and closed on reset.
//
// Ingestion batches and chat turns hold the session lock for their whole
// duration, so there is a single logical thread of control per session.
type Session struct {
	// Info identifies the session and its store location.
	Info domain.Session

	// Index holds the session's embedding records.
	Index driven.VectorStore

	// State holds the processed-source registry and the conversation.
	State driven.SessionStore

	handle driven.SessionHandle
	mu     sync.Mutex
}

// NewSession wraps an opened session handle.
func NewSession(info domain.Session, handle driven.SessionHandle) *Session {
	return &Session{
		Info:   info,
		Index:  handle.VectorStore(),
		State:  handle.SessionStore(),
		handle: handle,
	}
}

// Lock acquires the session for one command.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Close releases the session's storage.
func (s *Session) Close() error {
	if s.handle == nil {
		return nil
	}
	return s.handle.Close()
}

// SessionService manages session lifecycle.
type SessionService interface {
	// Current opens the active session, creating one if none is recorded.
	Current(ctx context.Context) (*Session, error)

	// Open opens a session by ID.
	Open(ctx context.Context, id string) (*Session, error)

	// Reset starts a fresh session with a new store location, an empty
	// registry and an empty conversation, and makes it the active one.
	// The previous session is closed.
	Reset(ctx context.Context, prev *Session) (*Session, error)

	// Status summarises a session.
	Status(ctx context.Context, sess *Session) (*domain.SessionStatus, error)
}
