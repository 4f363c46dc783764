package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragify/ragify/internal/core/domain"
)

func record(id string, vec ...float32) domain.EmbeddingRecord {
	return domain.EmbeddingRecord{
		Segment: domain.Segment{ID: id, SourceID: "a.txt", Content: "content " + id},
		Vector:  vec,
	}
}

func TestVectorStore_AppendIgnoresDuplicates(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, []domain.EmbeddingRecord{record("s1", 1, 0), record("s2", 0, 1)}))
	require.NoError(t, store.Append(ctx, []domain.EmbeddingRecord{record("s1", 5, 5), record("s3", 1, 1)}))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := store.Query(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].Segment.ID)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-9)
}

func TestVectorStore_AppendRejectsMissingVector(t *testing.T) {
	store := NewVectorStore()

	err := store.Append(context.Background(), []domain.EmbeddingRecord{record("s1", 1), record("s2")})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	n, _ := store.Count(context.Background())
	assert.Zero(t, n)
}

func TestVectorStore_QueryRanking(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, []domain.EmbeddingRecord{
		record("far", 0, 1),
		record("tie-1", 1, 1),
		record("near", 1, 0.1),
		record("tie-2", 2, 2),
	}))

	got, err := store.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.Segment.ID
	}
	assert.Equal(t, []string{"near", "tie-1", "tie-2", "far"}, ids)
}

func TestVectorStore_QueryEmpty(t *testing.T) {
	store := NewVectorStore()

	got, err := store.Query(context.Background(), []float32{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVectorStore_ConcurrentAppend(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Append(ctx, []domain.EmbeddingRecord{record(fmt.Sprintf("s%d", i%5), 1)})
		}(i)
	}
	wg.Wait()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestSessionStore_Registry(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	ok, err := store.IsProcessed(ctx, "a.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.MarkProcessed(ctx, domain.ProcessedSource{ID: "a.pdf", Kind: domain.SourceKindFile, SegmentCount: 3}))
	require.NoError(t, store.MarkProcessed(ctx, domain.ProcessedSource{ID: "https://example.com", Kind: domain.SourceKindWeb}))
	require.NoError(t, store.MarkProcessed(ctx, domain.ProcessedSource{ID: "a.pdf", Kind: domain.SourceKindFile, SegmentCount: 9}))

	ok, err = store.IsProcessed(ctx, "a.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := store.ListProcessed(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a.pdf", list[0].ID)
	assert.Equal(t, 3, list[0].SegmentCount)
	assert.False(t, list[0].IngestedAt.IsZero())
	assert.Equal(t, domain.SourceKindWeb, list[1].Kind)
}

func TestSessionStore_Turns(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	require.NoError(t, store.AppendTurns(ctx,
		domain.Turn{Role: domain.RoleUser, Content: "q"},
		domain.Turn{Role: domain.RoleAssistant, Content: "a"},
	))

	turns, err := store.ListTurns(ctx)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Equal(t, "a", turns[1].Content)

	require.NoError(t, store.ClearTurns(ctx))
	turns, err = store.ListTurns(ctx)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestOpener_ReturnsSameStorePerSession(t *testing.T) {
	opener := NewOpener()
	ctx := context.Background()
	sess := domain.Session{ID: "2024-01-01_10-00-00"}

	h1, err := opener.Open(ctx, sess)
	require.NoError(t, err)
	require.NoError(t, h1.SessionStore().MarkProcessed(ctx, domain.ProcessedSource{ID: "x"}))

	h2, err := opener.Open(ctx, sess)
	require.NoError(t, err)
	ok, err := h2.SessionStore().IsProcessed(ctx, "x")
	require.NoError(t, err)
	assert.True(t, ok)

	h3, err := opener.Open(ctx, domain.Session{ID: "2024-01-01_11-00-00"})
	require.NoError(t, err)
	ok, err = h3.SessionStore().IsProcessed(ctx, "x")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, h3.Close())
}
