package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGoogleAI is the Google Generative AI (Gemini) API.
	AIProviderGoogleAI AIProvider = "googleai"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGoogleAI, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGoogleAI || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// SupportsEmbeddings returns true if the provider can compute embeddings.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderGoogleAI || p == AIProviderOpenAI || p == AIProviderOllama
}

// APIKeyEnv returns the environment variable holding the provider's API key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderGoogleAI:
		return "GOOGLE_API_KEY"
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGoogleAI:
		return "Google AI (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// SplitStrategy selects how document text is cut into segments.
type SplitStrategy string

// Available split strategies.
const (
	// SplitRecursive prefers paragraph, line and word boundaries.
	SplitRecursive SplitStrategy = "recursive"

	// SplitFixed slides a fixed window with an exact overlap.
	SplitFixed SplitStrategy = "fixed"
)

// IsValid returns true if the strategy is recognised.
func (s SplitStrategy) IsValid() bool {
	return s == SplitRecursive || s == SplitFixed
}

// SegmentSettings controls the segmenter.
type SegmentSettings struct {
	// Size is the maximum segment length in runes.
	Size int

	// Overlap is the number of runes shared by consecutive segments.
	Overlap int

	// Strategy selects the splitter.
	Strategy SplitStrategy
}

// RetrievalSettings controls the retriever.
type RetrievalSettings struct {
	// TopK is the number of segments passed to the model.
	TopK int
}

// IngestSettings controls which sources a session accepts.
type IngestSettings struct {
	// AllowedTypes is the set of accepted file types.
	AllowedTypes []FileType

	// MaxVideoURLs caps the video sources of one session.
	MaxVideoURLs int

	// MaxWebURLs caps the web sources of one session.
	MaxWebURLs int

	// TranscriptLanguage is the preferred caption language.
	TranscriptLanguage string

	// FetchTimeout bounds each page or transcript request.
	FetchTimeout time.Duration
}

// Allows returns true if ft is in the allowed set.
func (s IngestSettings) Allows(ft FileType) bool {
	if !ft.IsSupported() {
		return false
	}
	for _, allowed := range s.AllowedTypes {
		if allowed == ft {
			return true
		}
	}
	return false
}

// StorageSettings holds persisted state locations.
type StorageSettings struct {
	// DataDir holds one store directory per session.
	DataDir string

	// UploadsDir holds copies of uploaded files, by original name.
	UploadsDir string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI compatible servers).
	BaseURL string

	// APIKey is the API key.
	APIKey string

	// BatchSize is the number of segments embedded per request.
	BatchSize int

	// RequestsPerSecond limits embedding calls. Zero disables limiting.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI compatible servers).
	BaseURL string

	// APIKey is the API key.
	APIKey string

	// Temperature is the sampling temperature for answers.
	Temperature float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ResilienceSettings controls retries of embedding and LLM calls.
type ResilienceSettings struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero surfaces the first failure.
	MaxRetries int

	// Backoff is the base delay of the exponential backoff.
	Backoff time.Duration
}

// Settings holds all application settings.
type Settings struct {
	Segment    SegmentSettings
	Retrieval  RetrievalSettings
	Ingest     IngestSettings
	Storage    StorageSettings
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	Resilience ResilienceSettings
}

// DefaultSettings returns settings with the application's defaults.
// Storage directories are left empty; they depend on the config directory.
func DefaultSettings() Settings {
	return Settings{
		Segment: SegmentSettings{
			Size:     1000,
			Overlap:  200,
			Strategy: SplitRecursive,
		},
		Retrieval: RetrievalSettings{TopK: 10},
		Ingest: IngestSettings{
			AllowedTypes:       AllFileTypes(),
			MaxVideoURLs:       3,
			MaxWebURLs:         5,
			TranscriptLanguage: "en",
			FetchTimeout:       30 * time.Second,
		},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderGoogleAI,
			Model:     DefaultEmbeddingModels()[AIProviderGoogleAI],
			BatchSize: 32,
		},
		LLM: LLMSettings{
			Provider:    AIProviderGoogleAI,
			Model:       DefaultLLMModels()[AIProviderGoogleAI],
			Temperature: 0.3,
		},
		Resilience: ResilienceSettings{
			MaxRetries: 0,
			Backoff:    500 * time.Millisecond,
		},
	}
}

// Validate checks settings for values the pipeline cannot work with.
func (s *Settings) Validate() error {
	if s.Segment.Size <= 0 {
		return fmt.Errorf("%w: segment.size must be positive", ErrInvalidInput)
	}
	if s.Segment.Overlap < 0 || s.Segment.Overlap >= s.Segment.Size {
		return fmt.Errorf("%w: segment.overlap must be in [0, segment.size)", ErrInvalidInput)
	}
	if !s.Segment.Strategy.IsValid() {
		return fmt.Errorf("%w: unknown segment.strategy %q", ErrInvalidInput, s.Segment.Strategy)
	}
	if s.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", ErrInvalidInput)
	}
	if s.Ingest.MaxVideoURLs < 0 || s.Ingest.MaxWebURLs < 0 {
		return fmt.Errorf("%w: source limits must not be negative", ErrInvalidInput)
	}
	if s.Embedding.BatchSize <= 0 {
		return fmt.Errorf("%w: embedding.batch_size must be positive", ErrInvalidInput)
	}
	if s.Resilience.MaxRetries < 0 {
		return fmt.Errorf("%w: resilience.max_retries must not be negative", ErrInvalidInput)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderGoogleAI,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGoogleAI,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGoogleAI: "embedding-001",
		AIProviderOllama:   "nomic-embed-text",
		AIProviderOpenAI:   "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGoogleAI:  "gemini-1.5-flash",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config for extensibility - new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor builds the segmenter pipeline from segment settings.
func PipelineConfigFor(s SegmentSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"normalise", "splitter"},
		ProcessorConfigs: map[string]map[string]any{
			"splitter": {
				"chunk_size": s.Size,
				"overlap":    s.Overlap,
				"strategy":   string(s.Strategy),
			},
		},
	}
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfigFor(DefaultSettings().Segment)
}
