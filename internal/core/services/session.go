package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/core/ports/driving"
	"github.com/ragify/ragify/internal/logger"
)

// Ensure SessionManager implements the interface.
var _ driving.SessionService = (*SessionManager)(nil)

// KeyCurrentSession is the config key recording the active session ID.
const KeyCurrentSession = "session.current"

// SessionManager opens, creates and resets sessions. The active session
// is recorded in the config store so separate commands share it.
type SessionManager struct {
	configStore driven.ConfigStore
	opener      driven.SessionOpener
	dataDir     string
	now         func() time.Time
}

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithClock sets the clock session IDs are derived from.
func WithClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		m.now = now
	}
}

// NewSessionManager creates a session manager storing sessions under dataDir.
func NewSessionManager(
	configStore driven.ConfigStore,
	opener driven.SessionOpener,
	dataDir string,
	opts ...SessionOption,
) *SessionManager {
	m := &SessionManager{
		configStore: configStore,
		opener:      opener,
		dataDir:     dataDir,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current opens the active session, creating one if none is recorded.
func (m *SessionManager) Current(ctx context.Context) (*driving.Session, error) {
	id := m.configStore.GetString(KeyCurrentSession)
	if id == "" {
		return m.create(ctx, "")
	}
	return m.Open(ctx, id)
}

// Open opens a session by ID.
func (m *SessionManager) Open(ctx context.Context, id string) (*driving.Session, error) {
	info, err := domain.ParseSession(m.dataDir, id)
	if err != nil {
		return nil, err
	}
	return m.open(ctx, info)
}

// Reset starts a fresh session and makes it the active one. The
// previous session is closed only once its successor is recorded, so a
// failed reset leaves it open and active. Its store is left on disk.
func (m *SessionManager) Reset(ctx context.Context, prev *driving.Session) (*driving.Session, error) {
	prevID := ""
	if prev != nil {
		prevID = prev.Info.ID
	}

	sess, err := m.create(ctx, prevID)
	if err != nil {
		return nil, err
	}

	if prev != nil {
		if err := prev.Close(); err != nil {
			logger.Warn("closing session %s: %v", prevID, err)
		}
	}
	return sess, nil
}

// Status summarises a session.
func (m *SessionManager) Status(ctx context.Context, sess *driving.Session) (*domain.SessionStatus, error) {
	records, err := sess.Index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	processed, err := sess.State.ListProcessed(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processed sources: %w", err)
	}
	turns, err := sess.State.ListTurns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}

	return &domain.SessionStatus{
		Session:   sess.Info,
		State:     domain.StateFor(records),
		Records:   records,
		Processed: processed,
		Turns:     len(turns),
	}, nil
}

// create starts a session named by the current time. Session IDs have
// second resolution, so a clash with the previous ID moves to the next second.
func (m *SessionManager) create(ctx context.Context, prevID string) (*driving.Session, error) {
	now := m.now().Truncate(time.Second)
	info := domain.NewSession(m.dataDir, now)
	for info.ID == prevID {
		now = now.Add(time.Second)
		info = domain.NewSession(m.dataDir, now)
	}

	sess, err := m.open(ctx, info)
	if err != nil {
		return nil, err
	}
	if err := m.configStore.Set(KeyCurrentSession, info.ID); err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("record current session: %w", err)
	}

	logger.Info("started session %s", info.ID)
	return sess, nil
}

func (m *SessionManager) open(ctx context.Context, info domain.Session) (*driving.Session, error) {
	handle, err := m.opener.Open(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("open session %s: %w", info.ID, err)
	}
	logger.Debug("opened session %s at %s", info.ID, info.Dir)
	return driving.NewSession(info, handle), nil
}
