package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragify/ragify/internal/adapters/driven/storage/memory"
	"github.com/ragify/ragify/internal/core/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSessionManager_CurrentCreatesAndRecords(t *testing.T) {
	config := memory.NewConfigStore()
	now := time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local)
	manager := NewSessionManager(config, memory.NewOpener(), "/data", WithClock(fixedClock(now)))

	sess, err := manager.Current(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2024-05-01_10-30-00", sess.Info.ID)
	assert.Equal(t, filepath.Join("/data", "2024-05-01_10-30-00_vectorstore"), sess.Info.Dir)
	assert.Equal(t, sess.Info.ID, config.GetString(KeyCurrentSession))
}

func TestSessionManager_CurrentReopensRecordedSession(t *testing.T) {
	config := memory.NewConfigStore(map[string]any{KeyCurrentSession: "2024-01-02_03-04-05"})
	opener := memory.NewOpener()
	manager := NewSessionManager(config, opener, "/data")

	first, err := manager.Current(context.Background())
	require.NoError(t, err)
	require.NoError(t, first.State.MarkProcessed(context.Background(), domain.ProcessedSource{ID: "a.txt", Kind: domain.SourceKindFile}))

	second, err := manager.Current(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2024-01-02_03-04-05", second.Info.ID)
	done, err := second.State.IsProcessed(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestSessionManager_OpenRejectsMalformedID(t *testing.T) {
	manager := NewSessionManager(memory.NewConfigStore(), memory.NewOpener(), "/data")

	_, err := manager.Open(context.Background(), "../../etc")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionManager_ResetStartsFreshSession(t *testing.T) {
	config := memory.NewConfigStore()
	now := time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local)
	manager := NewSessionManager(config, memory.NewOpener(), "/data", WithClock(fixedClock(now)))
	ctx := context.Background()

	prev, err := manager.Current(ctx)
	require.NoError(t, err)
	require.NoError(t, prev.State.MarkProcessed(ctx, domain.ProcessedSource{ID: "a.txt", Kind: domain.SourceKindFile}))
	require.NoError(t, prev.State.AppendTurns(ctx, domain.Turn{Role: domain.RoleUser, Content: "hi"}))

	// Same clock second: the new session must still get its own location.
	next, err := manager.Reset(ctx, prev)
	require.NoError(t, err)

	assert.NotEqual(t, prev.Info.ID, next.Info.ID)
	assert.NotEqual(t, prev.Info.Dir, next.Info.Dir)
	assert.Equal(t, next.Info.ID, config.GetString(KeyCurrentSession))

	status, err := manager.Status(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionIdle, status.State)
	assert.Empty(t, status.Processed)
	assert.Zero(t, status.Turns)
}

func TestSessionManager_Status(t *testing.T) {
	manager := NewSessionManager(memory.NewConfigStore(), memory.NewOpener(), "/data")
	ctx := context.Background()
	sess := newTestSession()
	embedder := &fakeEmbedder{}
	seedSession(t, sess, embedder, "one", "two")
	require.NoError(t, sess.State.MarkProcessed(ctx, domain.ProcessedSource{ID: "https://example.com", Kind: domain.SourceKindWeb, SegmentCount: 2}))
	require.NoError(t, sess.State.AppendTurns(ctx,
		domain.Turn{Role: domain.RoleUser, Content: "q"},
		domain.Turn{Role: domain.RoleAssistant, Content: "a"},
	))

	status, err := manager.Status(ctx, sess)
	require.NoError(t, err)

	assert.Equal(t, domain.SessionReady, status.State)
	assert.Equal(t, 2, status.Records)
	assert.Equal(t, 2, status.Turns)
	assert.Equal(t, 1, status.CountKind(domain.SourceKindWeb))
	assert.Equal(t, sess.Info, status.Session)
}
