package domain

import (
	"fmt"
	"path/filepath"
	"time"
)

// SessionIDLayout is the time layout session IDs are formatted with.
const SessionIDLayout = "2006-01-02_15-04-05"

// sessionDirSuffix is appended to the session ID to name its store directory.
const sessionDirSuffix = "_vectorstore"

// Session identifies one user session: a store location plus the
// registry and conversation kept inside it.
type Session struct {
	// ID is the creation timestamp formatted with SessionIDLayout.
	ID string

	// Dir is the directory holding the session's store.
	Dir string

	// CreatedAt is when the session was started.
	CreatedAt time.Time
}

// NewSession creates a session rooted under dataDir, named by its creation time.
func NewSession(dataDir string, now time.Time) Session {
	id := now.Format(SessionIDLayout)
	return Session{
		ID:        id,
		Dir:       SessionDir(dataDir, id),
		CreatedAt: now,
	}
}

// ParseSession rebuilds a session from a previously recorded ID.
func ParseSession(dataDir, id string) (Session, error) {
	created, err := time.ParseInLocation(SessionIDLayout, id, time.Local)
	if err != nil {
		return Session{}, fmt.Errorf("%w: session id %q", ErrInvalidInput, id)
	}
	return Session{ID: id, Dir: SessionDir(dataDir, id), CreatedAt: created}, nil
}

// SessionDir returns the store directory for a session ID.
func SessionDir(dataDir, id string) string {
	return filepath.Join(dataDir, id+sessionDirSuffix)
}

// SessionState is the answerer's state.
type SessionState string

// Session states.
const (
	// SessionIdle means nothing has been indexed yet.
	SessionIdle SessionState = "idle"

	// SessionReady means the store holds at least one record.
	SessionReady SessionState = "ready"
)

// String returns the string representation.
func (s SessionState) String() string {
	return string(s)
}

// StateFor derives the session state from the number of indexed records.
func StateFor(records int) SessionState {
	if records > 0 {
		return SessionReady
	}
	return SessionIdle
}

// ProcessedSource is an entry of the processed-source registry.
type ProcessedSource struct {
	// ID is the source identifier (file name or URL).
	ID string

	// Kind is the kind of the source.
	Kind SourceKind

	// SegmentCount is the number of segments indexed for the source.
	SegmentCount int

	// IngestedAt is when the source finished indexing.
	IngestedAt time.Time
}

// SessionStatus summarises a session for display.
type SessionStatus struct {
	Session   Session
	State     SessionState
	Records   int
	Processed []ProcessedSource
	Turns     int
}

// CountKind returns how many processed sources are of the given kind.
func (s *SessionStatus) CountKind(kind SourceKind) int {
	n := 0
	for _, p := range s.Processed {
		if p.Kind == kind {
			n++
		}
	}
	return n
}
