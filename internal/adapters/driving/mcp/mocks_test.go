package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragify/ragify/internal/adapters/driven/config/file"
	"github.com/ragify/ragify/internal/adapters/driven/storage/memory"
	"github.com/ragify/ragify/internal/adapters/driven/storage/uploads"
	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/core/services"
	"github.com/ragify/ragify/internal/extractors"
	"github.com/ragify/ragify/internal/extractors/plaintext"
	"github.com/ragify/ragify/internal/postprocessors"
)

// mockEmbedder maps text to letter frequencies.
type mockEmbedder struct{}

func (mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 27)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	vec[26] = 1
	return vec, nil
}

func (e mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (mockEmbedder) ModelName() string { return "mock" }
func (mockEmbedder) Close() error      { return nil }

// mockLLM returns a fixed reply.
type mockLLM struct {
	reply string
	err   error
}

func (m *mockLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	return m.reply, m.err
}
func (m *mockLLM) ModelName() string { return "mock" }
func (m *mockLLM) Close() error      { return nil }

// newTestPorts wires the real services over in-memory stores.
func newTestPorts(t *testing.T, llm driven.LLMService) *Ports {
	t.Helper()

	segmenter, err := postprocessors.NewSegmenter(domain.DefaultSettings().Segment)
	require.NoError(t, err)
	store, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)
	prompts, err := file.NewPromptStore(t.TempDir())
	require.NoError(t, err)

	registry := extractors.NewRegistry()
	registry.RegisterFile(plaintext.New())

	return &Ports{
		Sessions: services.NewSessionManager(memory.NewConfigStore(), memory.NewOpener(), "/data"),
		Ingest: services.NewIngestService(
			registry, segmenter, services.NewIndexer(mockEmbedder{}, 8), store, domain.DefaultSettings().Ingest,
		),
		Chat: services.NewChatService(services.NewRetriever(mockEmbedder{}, 3), llm, prompts, 0.3),
	}
}

func newTestServer(t *testing.T, llm driven.LLMService) *Server {
	t.Helper()
	server, err := NewServer(newTestPorts(t, llm))
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	return server
}
