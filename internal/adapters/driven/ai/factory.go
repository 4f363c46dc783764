// Package ai creates the embedding and LLM services from settings.
package ai

import (
	"context"
	"fmt"

	lcembed "github.com/ragify/ragify/internal/adapters/driven/embedding/langchain"
	lcllm "github.com/ragify/ragify/internal/adapters/driven/llm/langchain"
	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
)

// InitResult contains the AI services of the application.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init creates both services. Either failure is returned with guidance and
// nothing is left open.
func Init(ctx context.Context, settings *domain.Settings) (*InitResult, error) {
	embedding, err := CreateEmbeddingService(ctx, settings.Embedding, settings.Resilience)
	if err != nil {
		return nil, err
	}

	llm, err := CreateLLMService(ctx, settings.LLM, settings.Resilience)
	if err != nil {
		embedding.Close()
		return nil, err
	}

	return &InitResult{EmbeddingService: embedding, LLMService: llm}, nil
}

// CreateEmbeddingService creates the embedding service for the provider,
// decorated with the retry policy, rate limit and query cache.
func CreateEmbeddingService(
	ctx context.Context,
	settings domain.EmbeddingSettings,
	resilience domain.ResilienceSettings,
) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmbeddingUnavailable, guidance(settings.Provider, "embedding"))
	}

	svc, err := lcembed.New(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	wrapped, err := WithEmbeddingResilience(svc, EmbeddingOptions{
		Policy:            PolicyFrom(resilience),
		RequestsPerSecond: settings.RequestsPerSecond,
		CacheSize:         DefaultQueryCacheSize,
	})
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return wrapped, nil
}

// CreateLLMService creates the LLM service for the provider, decorated
// with the retry policy.
func CreateLLMService(
	ctx context.Context,
	settings domain.LLMSettings,
	resilience domain.ResilienceSettings,
) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s", domain.ErrLLMUnavailable, guidance(settings.Provider, "llm"))
	}

	svc, err := lcllm.New(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return WithLLMResilience(svc, PolicyFrom(resilience)), nil
}

// guidance explains how to configure a provider.
func guidance(p domain.AIProvider, section string) string {
	switch {
	case !p.IsValid():
		return fmt.Sprintf("unknown provider %q, run 'ragify settings set %s.provider <provider>'", p, section)
	case section == "embedding" && !p.SupportsEmbeddings():
		return fmt.Sprintf("%s does not provide embeddings, choose another embedding.provider", p)
	case p.RequiresAPIKey():
		return fmt.Sprintf("%s needs an API key, set %s or run 'ragify settings set %s.api_key <key>'",
			p, p.APIKeyEnv(), section)
	default:
		return fmt.Sprintf("%s is not configured", p)
	}
}
