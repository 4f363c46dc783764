package app

import (
	"context"
	"sync"

	"github.com/ragify/ragify/internal/core/ports/driving"
)

// Runtime holds the services of a running application and its active
// session. Long-running surfaces (HTTP, MCP, watch) share one Runtime.
type Runtime struct {
	Sessions driving.SessionService
	Ingest   driving.IngestService
	Chat     driving.ChatService

	mu      sync.Mutex
	current *driving.Session
}

// NewRuntime creates a runtime with no session open yet.
func NewRuntime(sessions driving.SessionService, ingest driving.IngestService, chat driving.ChatService) *Runtime {
	return &Runtime{
		Sessions: sessions,
		Ingest:   ingest,
		Chat:     chat,
	}
}

// Session returns the active session, opening it on first use.
func (r *Runtime) Session(ctx context.Context) (*driving.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		return r.current, nil
	}
	sess, err := r.Sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	r.current = sess
	return sess, nil
}

// Reset replaces the active session with a fresh one. Commands still
// running against the previous session finish before it is closed.
func (r *Runtime) Reset(ctx context.Context) (*driving.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.current
	if prev != nil {
		prev.Lock()
		defer prev.Unlock()
	}

	sess, err := r.Sessions.Reset(ctx, prev)
	if err != nil {
		return nil, err
	}
	r.current = sess
	return sess, nil
}

// Close releases the active session.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return nil
	}
	err := r.current.Close()
	r.current = nil
	return err
}
