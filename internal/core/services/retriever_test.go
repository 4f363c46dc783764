package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragify/ragify/internal/adapters/driven/storage/memory"
	"github.com/ragify/ragify/internal/core/domain"
)

func indexedStore(t *testing.T, embedder *fakeEmbedder, texts ...string) *memory.VectorStore {
	t.Helper()
	segs := make([]domain.Segment, len(texts))
	for i, text := range texts {
		segs[i] = domain.Segment{ID: text, SourceID: "facts.txt", Content: text, Position: i}
	}
	store := memory.NewVectorStore()
	_, err := NewIndexer(embedder, 8).Index(context.Background(), store, segs)
	require.NoError(t, err)
	return store
}

func TestRetriever_RanksBySimilarity(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := indexedStore(t, embedder,
		"bananas are yellow",
		"the capital of france is paris",
		"rust is a programming language",
	)

	results, err := NewRetriever(embedder, 1).Retrieve(context.Background(), store, "capital of france", 0)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "the capital of france is paris", results[0].Segment.Content)
}

func TestRetriever_ClampsToCount(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := indexedStore(t, embedder, "one", "two", "three")

	results, err := NewRetriever(embedder, 0).Retrieve(context.Background(), store, "one", 10)

	require.NoError(t, err)
	assert.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
}

func TestRetriever_EmptyStore(t *testing.T) {
	embedder := &fakeEmbedder{}

	results, err := NewRetriever(embedder, 0).Retrieve(context.Background(), memory.NewVectorStore(), "anything", 3)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, embedder.queries, "no embedding call for an empty store")
}

func TestRetriever_EmptyQuery(t *testing.T) {
	_, err := NewRetriever(&fakeEmbedder{}, 0).Retrieve(context.Background(), memory.NewVectorStore(), "  ", 3)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
