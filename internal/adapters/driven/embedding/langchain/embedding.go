// Package langchain provides a langchaingo-backed embedding service.
package langchain

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
)

// DefaultBatchSize is used when no batch size is configured.
const DefaultBatchSize = 32

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService embeds text through a langchaingo embedder.
type EmbeddingService struct {
	impl   embeddings.Embedder
	model  string
	closer io.Closer
}

// New builds the embedder for the configured provider.
func New(ctx context.Context, settings domain.EmbeddingSettings) (*EmbeddingService, error) {
	batchSize := settings.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	client, err := newClient(ctx, settings)
	if err != nil {
		return nil, err
	}

	impl, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(batchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return nil, fmt.Errorf("constructing %s embedder: %w", settings.Provider, err)
	}

	svc := Wrap(impl, settings.Model)
	if c, ok := client.(io.Closer); ok {
		svc.closer = c
	}
	return svc, nil
}

// Wrap creates a service around an existing embedder.
func Wrap(impl embeddings.Embedder, model string) *EmbeddingService {
	return &EmbeddingService{impl: impl, model: model}
}

// Embed embeds a query.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := s.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query with %s: %w", s.model, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("embedding query with %s: empty vector", s.model)
	}
	return vec, nil
}

// EmbedBatch embeds texts, one vector per text in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := s.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding documents with %s: %w", s.model, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding documents with %s: received %d vectors for %d texts",
			s.model, len(vectors), len(texts))
	}
	return vectors, nil
}

// ModelName returns the embedding model.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Close releases the provider client.
func (s *EmbeddingService) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// newClient creates the provider client that computes embeddings.
func newClient(ctx context.Context, settings domain.EmbeddingSettings) (embeddings.EmbedderClient, error) {
	switch settings.Provider {
	case domain.AIProviderGoogleAI:
		opts := []googleai.Option{googleai.WithDefaultEmbeddingModel(settings.Model)}
		if settings.APIKey != "" {
			opts = append(opts, googleai.WithAPIKey(settings.APIKey))
		}
		client, err := googleai.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("initialising googleai client: %w", err)
		}
		return client, nil

	case domain.AIProviderOpenAI:
		opts := []openai.Option{openai.WithEmbeddingModel(settings.Model)}
		if settings.APIKey != "" {
			opts = append(opts, openai.WithToken(settings.APIKey))
		}
		if settings.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(settings.BaseURL))
		}
		client, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("initialising openai client: %w", err)
		}
		return client, nil

	case domain.AIProviderOllama:
		opts := []ollama.Option{ollama.WithModel(settings.Model)}
		if settings.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(settings.BaseURL))
		}
		client, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("initialising ollama client: %w", err)
		}
		return client, nil

	case domain.AIProviderAnthropic:
		return nil, errors.New("anthropic does not support embeddings, use googleai, openai or ollama")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}
