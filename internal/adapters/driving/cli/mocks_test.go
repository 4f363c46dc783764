package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragify/ragify/internal/adapters/driven/config/file"
	"github.com/ragify/ragify/internal/adapters/driven/storage/memory"
	"github.com/ragify/ragify/internal/adapters/driven/storage/uploads"
	"github.com/ragify/ragify/internal/app"
	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/core/ports/driving"
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

// mockLLM returns a fixed reply and records the questions it saw.
type mockLLM struct {
	reply string
	err   error
	calls int
}

func (m *mockLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	m.calls++
	return m.reply, m.err
}
func (m *mockLLM) ModelName() string { return "mock" }
func (m *mockLLM) Close() error      { return nil }

// testBackend serves real services over in-memory stores.
type testBackend struct {
	config   *memory.ConfigStore
	settings *services.SettingsService
	rt       *app.Runtime
}

func (b *testBackend) Settings() (driving.SettingsService, error) { return b.settings, nil }

func (b *testBackend) Runtime(context.Context) (*app.Runtime, error) { return b.rt, nil }

func (b *testBackend) Close() error { return nil }

// useTestBackend installs a backend for the duration of the test.
func useTestBackend(t *testing.T, llm driven.LLMService) *testBackend {
	t.Helper()

	segmenter, err := postprocessors.NewSegmenter(domain.DefaultSettings().Segment)
	require.NoError(t, err)
	store, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)
	prompts, err := file.NewPromptStore(t.TempDir())
	require.NoError(t, err)

	registry := extractors.NewRegistry()
	registry.RegisterFile(plaintext.New())

	config := memory.NewConfigStore()
	tb := &testBackend{
		config:   config,
		settings: services.NewSettingsService(config, t.TempDir(), nil),
		rt: app.NewRuntime(
			services.NewSessionManager(config, memory.NewOpener(), "/data"),
			services.NewIngestService(
				registry, segmenter, services.NewIndexer(mockEmbedder{}, 8), store, domain.DefaultSettings().Ingest,
			),
			services.NewChatService(services.NewRetriever(mockEmbedder{}, 3), llm, prompts, 0.3),
		),
	}

	old := be
	be = tb
	t.Cleanup(func() {
		be = old
		_ = tb.rt.Close()
	})
	return tb
}

// execute runs the root command with args and stdin, returning its output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	ingestVideoURLs, ingestWebURLs = nil, nil
	askShowSources, askJSON = false, false
	retrieveK, retrieveJSON = 0, false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
