// Package memory provides in-memory session storage.
//
// It holds the same data as the SQLite store with the same ordering and
// duplicate rules, without persistence. It backs ephemeral sessions and
// tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ragify/ragify/internal/adapters/driven/storage/vecmath"
	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.SessionHandle = (*Store)(nil)
	_ driven.VectorStore   = (*VectorStore)(nil)
	_ driven.SessionStore  = (*SessionStore)(nil)
)

// Store is an in-memory session store.
type Store struct {
	vectors  *VectorStore
	sessions *SessionStore
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		vectors:  NewVectorStore(),
		sessions: NewSessionStore(),
	}
}

// VectorStore returns the store's embedding records.
func (s *Store) VectorStore() driven.VectorStore {
	return s.vectors
}

// SessionStore returns the store's registry and conversation.
func (s *Store) SessionStore() driven.SessionStore {
	return s.sessions
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// VectorStore is an in-memory implementation of driven.VectorStore.
type VectorStore struct {
	mu      sync.RWMutex
	ids     map[string]struct{}
	records []domain.EmbeddingRecord
}

// NewVectorStore creates an empty vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		ids: make(map[string]struct{}),
	}
}

// Append adds records whose segment ID is not stored yet.
func (s *VectorStore) Append(_ context.Context, records []domain.EmbeddingRecord) error {
	for _, rec := range records {
		if len(rec.Vector) == 0 {
			return fmt.Errorf("%w: segment %s has no vector", domain.ErrInvalidInput, rec.Segment.ID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if _, ok := s.ids[rec.Segment.ID]; ok {
			continue
		}
		s.ids[rec.Segment.ID] = struct{}{}
		s.records = append(s.records, rec)
	}
	return nil
}

// Query ranks every record against vector.
func (s *VectorStore) Query(_ context.Context, vector []float32, k int) ([]domain.RetrievedSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vectors := make([][]float32, len(s.records))
	for i, rec := range s.records {
		vectors[i] = rec.Vector
	}

	ranked := vecmath.TopK(vector, vectors, k)
	results := make([]domain.RetrievedSegment, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, domain.RetrievedSegment{
			Segment:    s.records[r.Index].Segment,
			Similarity: r.Similarity,
		})
	}
	return results, nil
}

// Count returns the number of records.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// SessionStore is an in-memory implementation of driven.SessionStore.
type SessionStore struct {
	mu        sync.RWMutex
	processed []domain.ProcessedSource
	index     map[string]struct{}
	turns     []domain.Turn
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		index: make(map[string]struct{}),
	}
}

// MarkProcessed adds a source to the registry, keeping any earlier entry.
func (s *SessionStore) MarkProcessed(_ context.Context, src domain.ProcessedSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[src.ID]; ok {
		return nil
	}
	if src.IngestedAt.IsZero() {
		src.IngestedAt = time.Now()
	}
	s.index[src.ID] = struct{}{}
	s.processed = append(s.processed, src)
	return nil
}

// IsProcessed returns true if the source is in the registry.
func (s *SessionStore) IsProcessed(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok, nil
}

// ListProcessed returns the registry in ingestion order.
func (s *SessionStore) ListProcessed(_ context.Context) ([]domain.ProcessedSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.processed) == 0 {
		return nil, nil
	}
	out := make([]domain.ProcessedSource, len(s.processed))
	copy(out, s.processed)
	return out, nil
}

// AppendTurns appends turns in order.
func (s *SessionStore) AppendTurns(_ context.Context, turns ...domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, turn := range turns {
		if turn.CreatedAt.IsZero() {
			turn.CreatedAt = now
		}
		s.turns = append(s.turns, turn)
	}
	return nil
}

// ListTurns returns the conversation in order.
func (s *SessionStore) ListTurns(_ context.Context) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.turns) == 0 {
		return nil, nil
	}
	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out, nil
}

// ClearTurns empties the conversation.
func (s *SessionStore) ClearTurns(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
	return nil
}

// Opener hands out one in-memory store per session ID. Reopening a
// session returns the same store.
type Opener struct {
	mu     sync.Mutex
	stores map[string]*Store
}

var _ driven.SessionOpener = (*Opener)(nil)

// NewOpener creates an opener with no sessions.
func NewOpener() *Opener {
	return &Opener{stores: make(map[string]*Store)}
}

// Open returns the store of the session, creating it if absent.
func (o *Opener) Open(_ context.Context, sess domain.Session) (driven.SessionHandle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.stores[sess.ID]
	if !ok {
		st = NewStore()
		o.stores[sess.ID] = st
	}
	return st, nil
}
