package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragify/ragify/internal/core/ports/driven"
)

// flakyEmbedding fails the first failures calls with err.
type flakyEmbedding struct {
	failures int
	err      error
	calls    int
}

func (f *flakyEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []float32{float32(len(text))}, nil
}

func (f *flakyEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func (f *flakyEmbedding) ModelName() string { return "flaky" }
func (f *flakyEmbedding) Close() error      { return nil }

// flakyLLM fails the first failures calls with err.
type flakyLLM struct {
	failures int
	err      error
	calls    int
}

func (f *flakyLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", f.err
	}
	return "ok", nil
}

func (f *flakyLLM) ModelName() string { return "flaky" }
func (f *flakyLLM) Close() error      { return nil }

var fastPolicy = RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, true},
		{errors.New("googleapi: Error 503: Service Unavailable"), true},
		{errors.New("API returned unexpected status code: 429"), true},
		{errors.New("rate limit exceeded"), true},
		{errors.New("model is overloaded, try again later"), true},
		{errors.New("invalid api key"), false},
		{errors.New("status 400: bad request"), false},
		{fmt.Errorf("wrapped: %w", context.Canceled), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTransient(tt.err), "%v", tt.err)
	}
}

func TestRetryPolicy_RetriesTransient(t *testing.T) {
	calls := 0
	err := fastPolicy.Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("503 unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_StopsOnPermanent(t *testing.T) {
	calls := 0
	permanent := errors.New("invalid api key")
	err := fastPolicy.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_ZeroRetriesSurfacesFirstFailure(t *testing.T) {
	calls := 0
	transient := errors.New("503 unavailable")
	err := RetryPolicy{}.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return transient
	})

	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	transient := errors.New("timeout")
	err := RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond}.Do(context.Background(), "op",
		func(context.Context) error {
			calls++
			return transient
		})

	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 3, calls)
}

func TestEmbeddingResilience_RetriesBatch(t *testing.T) {
	next := &flakyEmbedding{failures: 2, err: errors.New("429 too many requests")}
	svc, err := WithEmbeddingResilience(next, EmbeddingOptions{Policy: fastPolicy})
	require.NoError(t, err)

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, "flaky", svc.ModelName())
}

func TestEmbeddingResilience_CachesQueries(t *testing.T) {
	next := &flakyEmbedding{}
	svc, err := WithEmbeddingResilience(next, EmbeddingOptions{CacheSize: 4})
	require.NoError(t, err)

	v1, err := svc.Embed(context.Background(), "what is go")
	require.NoError(t, err)
	v1[0] = 99

	v2, err := svc.Embed(context.Background(), "what is go")
	require.NoError(t, err)
	assert.Equal(t, []float32{10}, v2)
	assert.Equal(t, 1, next.calls)
}

func TestEmbeddingResilience_RateLimitHonoursContext(t *testing.T) {
	next := &flakyEmbedding{}
	svc, err := WithEmbeddingResilience(next, EmbeddingOptions{RequestsPerSecond: 0.001})
	require.NoError(t, err)

	_, err = svc.EmbedBatch(context.Background(), []string{"a"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = svc.EmbedBatch(ctx, []string{"b"})
	assert.Error(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestLLMResilience(t *testing.T) {
	next := &flakyLLM{failures: 1, err: errors.New("temporarily unavailable")}
	svc := WithLLMResilience(next, fastPolicy)

	reply, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, 2, next.calls)
	assert.NoError(t, svc.Close())
}
