package services

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/core/ports/driving"
	"github.com/ragify/ragify/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keySegmentSize        = "segment.size"
	keySegmentOverlap     = "segment.overlap"
	keySegmentStrategy    = "segment.strategy"
	keyRetrievalTopK      = "retrieval.top_k"
	keyAllowedTypes       = "ingest.allowed_types"
	keyMaxVideoURLs       = "ingest.max_video_urls"
	keyMaxWebURLs         = "ingest.max_web_urls"
	keyTranscriptLanguage = "ingest.transcript_language"
	keyFetchTimeout       = "ingest.fetch_timeout"
	keyDataDir            = "storage.data_dir"
	keyUploadsDir         = "storage.uploads_dir"
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyEmbedBatchSize     = "embedding.batch_size"
	keyEmbedRPS           = "embedding.requests_per_second"
	keyLLMProvider        = "llm.provider"
	keyLLMModel           = "llm.model"
	keyLLMBaseURL         = "llm.base_url"
	keyLLMAPIKey          = "llm.api_key"
	keyLLMTemperature     = "llm.temperature"
	keyMaxRetries         = "resilience.max_retries"
	keyBackoff            = "resilience.backoff"
)

// Environment variables overriding storage locations.
const (
	EnvDataDir    = "RAGIFY_DATA_DIR"
	EnvUploadsDir = "RAGIFY_UPLOADS_DIR"
)

// setting binds a config key to a field of domain.Settings.
type setting struct {
	key string
	// apply decodes a stored value into the settings.
	apply func(s *domain.Settings, raw any) error
	// value returns the field in its stored form.
	value func(s *domain.Settings) any
	// secret values are only written when non-empty.
	secret bool
}

var settingsTable = []setting{
	{key: keySegmentSize, apply: intField(func(s *domain.Settings) *int { return &s.Segment.Size }),
		value: func(s *domain.Settings) any { return s.Segment.Size }},
	{key: keySegmentOverlap, apply: intField(func(s *domain.Settings) *int { return &s.Segment.Overlap }),
		value: func(s *domain.Settings) any { return s.Segment.Overlap }},
	{key: keySegmentStrategy, apply: applyStrategy,
		value: func(s *domain.Settings) any { return string(s.Segment.Strategy) }},
	{key: keyRetrievalTopK, apply: intField(func(s *domain.Settings) *int { return &s.Retrieval.TopK }),
		value: func(s *domain.Settings) any { return s.Retrieval.TopK }},
	{key: keyAllowedTypes, apply: applyAllowedTypes,
		value: func(s *domain.Settings) any { return fileTypeNames(s.Ingest.AllowedTypes) }},
	{key: keyMaxVideoURLs, apply: intField(func(s *domain.Settings) *int { return &s.Ingest.MaxVideoURLs }),
		value: func(s *domain.Settings) any { return s.Ingest.MaxVideoURLs }},
	{key: keyMaxWebURLs, apply: intField(func(s *domain.Settings) *int { return &s.Ingest.MaxWebURLs }),
		value: func(s *domain.Settings) any { return s.Ingest.MaxWebURLs }},
	{key: keyTranscriptLanguage, apply: stringField(func(s *domain.Settings) *string { return &s.Ingest.TranscriptLanguage }),
		value: func(s *domain.Settings) any { return s.Ingest.TranscriptLanguage }},
	{key: keyFetchTimeout, apply: durationField(func(s *domain.Settings) *time.Duration { return &s.Ingest.FetchTimeout }),
		value: func(s *domain.Settings) any { return s.Ingest.FetchTimeout.String() }},
	{key: keyDataDir, apply: stringField(func(s *domain.Settings) *string { return &s.Storage.DataDir }),
		value: func(s *domain.Settings) any { return s.Storage.DataDir }},
	{key: keyUploadsDir, apply: stringField(func(s *domain.Settings) *string { return &s.Storage.UploadsDir }),
		value: func(s *domain.Settings) any { return s.Storage.UploadsDir }},
	{key: keyEmbedProvider, apply: providerField(func(s *domain.Settings) *domain.AIProvider { return &s.Embedding.Provider }, true),
		value: func(s *domain.Settings) any { return s.Embedding.Provider.String() }},
	{key: keyEmbedModel, apply: stringField(func(s *domain.Settings) *string { return &s.Embedding.Model }),
		value: func(s *domain.Settings) any { return s.Embedding.Model }},
	{key: keyEmbedBaseURL, apply: stringField(func(s *domain.Settings) *string { return &s.Embedding.BaseURL }),
		value: func(s *domain.Settings) any { return s.Embedding.BaseURL }},
	{key: keyEmbedAPIKey, apply: stringField(func(s *domain.Settings) *string { return &s.Embedding.APIKey }),
		value: func(s *domain.Settings) any { return s.Embedding.APIKey }, secret: true},
	{key: keyEmbedBatchSize, apply: intField(func(s *domain.Settings) *int { return &s.Embedding.BatchSize }),
		value: func(s *domain.Settings) any { return s.Embedding.BatchSize }},
	{key: keyEmbedRPS, apply: floatField(func(s *domain.Settings) *float64 { return &s.Embedding.RequestsPerSecond }),
		value: func(s *domain.Settings) any { return s.Embedding.RequestsPerSecond }},
	{key: keyLLMProvider, apply: providerField(func(s *domain.Settings) *domain.AIProvider { return &s.LLM.Provider }, false),
		value: func(s *domain.Settings) any { return s.LLM.Provider.String() }},
	{key: keyLLMModel, apply: stringField(func(s *domain.Settings) *string { return &s.LLM.Model }),
		value: func(s *domain.Settings) any { return s.LLM.Model }},
	{key: keyLLMBaseURL, apply: stringField(func(s *domain.Settings) *string { return &s.LLM.BaseURL }),
		value: func(s *domain.Settings) any { return s.LLM.BaseURL }},
	{key: keyLLMAPIKey, apply: stringField(func(s *domain.Settings) *string { return &s.LLM.APIKey }),
		value: func(s *domain.Settings) any { return s.LLM.APIKey }, secret: true},
	{key: keyLLMTemperature, apply: floatField(func(s *domain.Settings) *float64 { return &s.LLM.Temperature }),
		value: func(s *domain.Settings) any { return s.LLM.Temperature }},
	{key: keyMaxRetries, apply: intField(func(s *domain.Settings) *int { return &s.Resilience.MaxRetries }),
		value: func(s *domain.Settings) any { return s.Resilience.MaxRetries }},
	{key: keyBackoff, apply: durationField(func(s *domain.Settings) *time.Duration { return &s.Resilience.Backoff }),
		value: func(s *domain.Settings) any { return s.Resilience.Backoff.String() }},
}

func lookupSetting(key string) (setting, bool) {
	for _, st := range settingsTable {
		if st.key == key {
			return st, true
		}
	}
	return setting{}, false
}

// SettingKeys returns every configurable key in sorted order.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingsTable))
	for _, st := range settingsTable {
		keys = append(keys, st.key)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
//
// Settings are layered: defaults, then the config store, then the
// environment. Storage directories default to subdirectories of baseDir.
type SettingsService struct {
	configStore driven.ConfigStore
	baseDir     string
	getenv      func(string) string
}

// NewSettingsService creates a new settings service. getenv may be nil,
// in which case the environment is not consulted.
func NewSettingsService(configStore driven.ConfigStore, baseDir string, getenv func(string) string) *SettingsService {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	return &SettingsService{
		configStore: configStore,
		baseDir:     baseDir,
		getenv:      getenv,
	}
}

// Get retrieves current application settings.
// Stored values that cannot be decoded are logged and left at their default.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	for _, st := range settingsTable {
		raw, ok := s.configStore.Get(st.key)
		if !ok {
			continue
		}
		if err := st.apply(&settings, raw); err != nil {
			logger.Warn("ignoring config value for %s: %v", st.key, err)
		}
	}

	// A provider without an explicit model uses that provider's default.
	if _, ok := s.configStore.Get(keyEmbedModel); !ok {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if _, ok := s.configStore.Get(keyLLMModel); !ok {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}

	s.applyEnv(&settings)
	s.applyStorageDefaults(&settings)

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Set updates a single setting from its textual form. The resulting
// settings are validated before anything is persisted. Changing a
// provider resets its model to the provider's default.
func (s *SettingsService) Set(key, value string) error {
	st, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	var raw any = value
	if key == keyAllowedTypes {
		raw = splitList(value)
	}
	if err := st.apply(settings, raw); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	updates := []setting{st}
	switch key {
	case keyEmbedProvider:
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
		updates = append(updates, mustSetting(keyEmbedModel))
	case keyLLMProvider:
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
		updates = append(updates, mustSetting(keyLLMModel))
	}

	if err := settings.Validate(); err != nil {
		return err
	}

	for _, u := range updates {
		if err := s.configStore.Set(u.key, u.value(settings)); err != nil {
			return fmt.Errorf("save %s: %w", u.key, err)
		}
	}
	return nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	for _, st := range settingsTable {
		val := st.value(settings)
		if st.secret && val == "" {
			continue
		}
		if err := s.configStore.Set(st.key, val); err != nil {
			return fmt.Errorf("save %s: %w", st.key, err)
		}
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	settings := domain.DefaultSettings()
	s.applyStorageDefaults(&settings)
	return settings
}

func (s *SettingsService) applyEnv(settings *domain.Settings) {
	if env := settings.Embedding.Provider.APIKeyEnv(); env != "" {
		if key := s.getenv(env); key != "" {
			settings.Embedding.APIKey = key
		}
	}
	if env := settings.LLM.Provider.APIKeyEnv(); env != "" {
		if key := s.getenv(env); key != "" {
			settings.LLM.APIKey = key
		}
	}
	if dir := s.getenv(EnvDataDir); dir != "" {
		settings.Storage.DataDir = dir
	}
	if dir := s.getenv(EnvUploadsDir); dir != "" {
		settings.Storage.UploadsDir = dir
	}
}

func (s *SettingsService) applyStorageDefaults(settings *domain.Settings) {
	if settings.Storage.DataDir == "" {
		settings.Storage.DataDir = filepath.Join(s.baseDir, "sessions")
	}
	if settings.Storage.UploadsDir == "" {
		settings.Storage.UploadsDir = filepath.Join(s.baseDir, "uploads")
	}
}

func mustSetting(key string) setting {
	st, ok := lookupSetting(key)
	if !ok {
		panic("unknown setting " + key)
	}
	return st
}

func intField(field func(*domain.Settings) *int) func(*domain.Settings, any) error {
	return func(s *domain.Settings, raw any) error {
		switch v := raw.(type) {
		case int:
			*field(s) = v
		case int64:
			*field(s) = int(v)
		case float64:
			if v != float64(int(v)) {
				return fmt.Errorf("%v is not an integer", v)
			}
			*field(s) = int(v)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%q is not an integer", v)
			}
			*field(s) = n
		default:
			return fmt.Errorf("unexpected type %T", raw)
		}
		return nil
	}
}

func floatField(field func(*domain.Settings) *float64) func(*domain.Settings, any) error {
	return func(s *domain.Settings, raw any) error {
		switch v := raw.(type) {
		case float64:
			*field(s) = v
		case int:
			*field(s) = float64(v)
		case int64:
			*field(s) = float64(v)
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("%q is not a number", v)
			}
			*field(s) = f
		default:
			return fmt.Errorf("unexpected type %T", raw)
		}
		return nil
	}
}

func stringField(field func(*domain.Settings) *string) func(*domain.Settings, any) error {
	return func(s *domain.Settings, raw any) error {
		v, ok := raw.(string)
		if !ok {
			return fmt.Errorf("unexpected type %T", raw)
		}
		*field(s) = strings.TrimSpace(v)
		return nil
	}
}

func durationField(field func(*domain.Settings) *time.Duration) func(*domain.Settings, any) error {
	return func(s *domain.Settings, raw any) error {
		v, ok := raw.(string)
		if !ok {
			return fmt.Errorf("unexpected type %T", raw)
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		if d < 0 {
			return fmt.Errorf("negative duration %s", d)
		}
		*field(s) = d
		return nil
	}
}

func providerField(field func(*domain.Settings) *domain.AIProvider, embeddings bool) func(*domain.Settings, any) error {
	return func(s *domain.Settings, raw any) error {
		v, ok := raw.(string)
		if !ok {
			return fmt.Errorf("unexpected type %T", raw)
		}
		p := domain.AIProvider(strings.ToLower(strings.TrimSpace(v)))
		if !p.IsValid() {
			return fmt.Errorf("unknown provider %q", v)
		}
		if embeddings && !p.SupportsEmbeddings() {
			return fmt.Errorf("provider %q has no embedding models", v)
		}
		*field(s) = p
		return nil
	}
}

func applyStrategy(s *domain.Settings, raw any) error {
	v, ok := raw.(string)
	if !ok {
		return fmt.Errorf("unexpected type %T", raw)
	}
	strategy := domain.SplitStrategy(strings.ToLower(strings.TrimSpace(v)))
	if !strategy.IsValid() {
		return fmt.Errorf("unknown strategy %q", v)
	}
	s.Segment.Strategy = strategy
	return nil
}

func applyAllowedTypes(s *domain.Settings, raw any) error {
	var names []string
	switch v := raw.(type) {
	case []string:
		names = v
	case []any:
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return fmt.Errorf("unexpected element type %T", item)
			}
			names = append(names, str)
		}
	case string:
		names = splitList(v)
	default:
		return fmt.Errorf("unexpected type %T", raw)
	}

	types := make([]domain.FileType, 0, len(names))
	for _, name := range names {
		ft := domain.ParseFileType(name)
		if !ft.IsSupported() {
			return fmt.Errorf("unsupported file type %q", name)
		}
		types = append(types, ft)
	}
	s.Ingest.AllowedTypes = types
	return nil
}

func fileTypeNames(types []domain.FileType) []string {
	names := make([]string, len(types))
	for i, ft := range types {
		names[i] = ft.String()
	}
	return names
}

// splitList splits a comma or whitespace separated list.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}
