package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragify/ragify/internal/adapters/driven/storage/memory"
	"github.com/ragify/ragify/internal/core/domain"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), "/home/u/.ragify", nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults.Segment, settings.Segment)
	assert.Equal(t, defaults.Retrieval, settings.Retrieval)
	assert.Equal(t, defaults.Ingest, settings.Ingest)
	assert.Equal(t, defaults.Embedding, settings.Embedding)
	assert.Equal(t, defaults.LLM, settings.LLM)
	assert.Equal(t, defaults.Resilience, settings.Resilience)
	assert.Equal(t, filepath.Join("/home/u/.ragify", "sessions"), settings.Storage.DataDir)
	assert.Equal(t, filepath.Join("/home/u/.ragify", "uploads"), settings.Storage.UploadsDir)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"segment.size":                  int64(500),
		"segment.overlap":               int64(50),
		"segment.strategy":              "fixed",
		"retrieval.top_k":               int64(4),
		"ingest.allowed_types":          []any{"pdf", "txt"},
		"ingest.max_video_urls":         int64(1),
		"ingest.fetch_timeout":          "5s",
		"embedding.provider":            "openai",
		"embedding.model":               "text-embedding-3-large",
		"embedding.requests_per_second": 2.5,
		"llm.provider":                  "ollama",
		"llm.temperature":               0.0,
		"resilience.max_retries":        int64(3),
		"resilience.backoff":            "1s",
		"storage.data_dir":              "/data/sessions",
	})
	service := NewSettingsService(store, "/base", nil)

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, 500, settings.Segment.Size)
	assert.Equal(t, 50, settings.Segment.Overlap)
	assert.Equal(t, domain.SplitFixed, settings.Segment.Strategy)
	assert.Equal(t, 4, settings.Retrieval.TopK)
	assert.Equal(t, []domain.FileType{domain.FileTypePDF, domain.FileTypeTXT}, settings.Ingest.AllowedTypes)
	assert.Equal(t, 1, settings.Ingest.MaxVideoURLs)
	assert.Equal(t, 5*time.Second, settings.Ingest.FetchTimeout)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.InDelta(t, 2.5, settings.Embedding.RequestsPerSecond, 1e-9)
	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderOllama], settings.LLM.Model)
	assert.Zero(t, settings.LLM.Temperature)
	assert.Equal(t, 3, settings.Resilience.MaxRetries)
	assert.Equal(t, time.Second, settings.Resilience.Backoff)
	assert.Equal(t, "/data/sessions", settings.Storage.DataDir)
	assert.Equal(t, filepath.Join("/base", "uploads"), settings.Storage.UploadsDir)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"segment.strategy":     "semantic",
		"embedding.provider":   "anthropic",
		"llm.provider":         "invalid_provider",
		"retrieval.top_k":      "many",
		"ingest.allowed_types": []any{"pdf", "exe"},
		"ingest.fetch_timeout": int64(5),
	})
	service := NewSettingsService(store, "/base", nil)

	settings, err := service.Get()
	require.NoError(t, err)

	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults.Segment.Strategy, settings.Segment.Strategy)
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
	assert.Equal(t, defaults.Retrieval.TopK, settings.Retrieval.TopK)
	assert.Equal(t, defaults.Ingest.AllowedTypes, settings.Ingest.AllowedTypes)
	assert.Equal(t, defaults.Ingest.FetchTimeout, settings.Ingest.FetchTimeout)
}

func TestSettingsService_Get_RejectsInconsistentValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"segment.size":    int64(100),
		"segment.overlap": int64(100),
	})
	service := NewSettingsService(store, "/base", nil)

	_, err := service.Get()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Get_EnvironmentOverrides(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"embedding.api_key": "from-file",
		"llm.provider":      "anthropic",
	})
	service := NewSettingsService(store, "/base", envMap(map[string]string{
		"GOOGLE_API_KEY":    "google-key",
		"ANTHROPIC_API_KEY": "anthropic-key",
		EnvDataDir:          "/env/sessions",
		EnvUploadsDir:       "/env/uploads",
	}))

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, "google-key", settings.Embedding.APIKey)
	assert.Equal(t, "anthropic-key", settings.LLM.APIKey)
	assert.Equal(t, "/env/sessions", settings.Storage.DataDir)
	assert.Equal(t, "/env/uploads", settings.Storage.UploadsDir)
}

func TestSettingsService_Get_FileKeyUsedWithoutEnvironment(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{"llm.api_key": "from-file"})
	service := NewSettingsService(store, "/base", envMap(nil))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "from-file", settings.LLM.APIKey)
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, "/base", nil)

	require.NoError(t, service.Set("retrieval.top_k", "4"))
	require.NoError(t, service.Set("llm.temperature", "0.9"))
	require.NoError(t, service.Set("ingest.allowed_types", "pdf, txt"))
	require.NoError(t, service.Set("resilience.backoff", "250ms"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 4, settings.Retrieval.TopK)
	assert.InDelta(t, 0.9, settings.LLM.Temperature, 1e-9)
	assert.Equal(t, []domain.FileType{domain.FileTypePDF, domain.FileTypeTXT}, settings.Ingest.AllowedTypes)
	assert.Equal(t, 250*time.Millisecond, settings.Resilience.Backoff)
}

func TestSettingsService_Set_ProviderResetsModel(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{"embedding.model": "custom-model"})
	service := NewSettingsService(store, "/base", nil)

	require.NoError(t, service.Set("embedding.provider", "ollama"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, domain.DefaultEmbeddingModels()[domain.AIProviderOllama], settings.Embedding.Model)
}

func TestSettingsService_Set_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "search.mode", "hybrid"},
		{"not an integer", "segment.size", "large"},
		{"overlap too large", "segment.overlap", "1000"},
		{"unknown provider", "llm.provider", "skynet"},
		{"provider without embeddings", "embedding.provider", "anthropic"},
		{"bad duration", "ingest.fetch_timeout", "soon"},
		{"unsupported type", "ingest.allowed_types", "pdf,exe"},
		{"negative retries", "resilience.max_retries", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			service := NewSettingsService(store, "/base", nil)

			err := service.Set(tt.key, tt.value)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			_, stored := store.Get(tt.key)
			assert.False(t, stored)
		})
	}
}

func TestSettingsService_Save(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, "/base", nil)

	settings := service.GetDefaults()
	settings.Segment.Size = 800
	settings.LLM.Provider = domain.AIProviderOpenAI
	settings.LLM.Model = "gpt-4o"
	settings.LLM.APIKey = "sk-test"

	require.NoError(t, service.Save(&settings))

	assert.Equal(t, 800, store.GetInt("segment.size"))
	assert.Equal(t, "openai", store.GetString("llm.provider"))
	assert.Equal(t, "gpt-4o", store.GetString("llm.model"))
	assert.Equal(t, "sk-test", store.GetString("llm.api_key"))
	assert.Equal(t, "30s", store.GetString("ingest.fetch_timeout"))
	assert.Equal(t, []string{"pdf", "docx", "txt", "pptx", "xlsx"}, store.GetStringSlice("ingest.allowed_types"))

	_, hasEmbedKey := store.Get("embedding.api_key")
	assert.False(t, hasEmbedKey, "empty API keys are not written")

	reloaded, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *reloaded)
}

func TestSettingsService_Save_Validates(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, "/base", nil)

	settings := service.GetDefaults()
	settings.Retrieval.TopK = 0

	assert.ErrorIs(t, service.Save(&settings), domain.ErrInvalidInput)
	assert.Empty(t, store.GetString("segment.strategy"))
}

func TestSettingKeys(t *testing.T) {
	keys := SettingKeys()

	assert.Contains(t, keys, "segment.size")
	assert.Contains(t, keys, "resilience.backoff")
	assert.IsNonDecreasing(t, keys)
}
