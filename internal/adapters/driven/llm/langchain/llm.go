// Package langchain provides a langchaingo-backed LLM service.
package langchain

import (
	"context"
	"fmt"
	"io"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// LLMService generates replies through a langchaingo model.
type LLMService struct {
	model llms.Model
	name  string
}

// New builds the model for the configured provider.
func New(ctx context.Context, settings domain.LLMSettings) (*LLMService, error) {
	model, err := newModel(ctx, settings)
	if err != nil {
		return nil, err
	}
	return Wrap(model, settings.Model), nil
}

// Wrap creates a service around an existing model.
func Wrap(model llms.Model, name string) *LLMService {
	return &LLMService{model: model, name: name}
}

// Chat sends the conversation and returns the first choice.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: no messages", domain.ErrInvalidInput)
	}

	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(messageType(m.Role), m.Content))
	}

	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	resp, err := s.model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", fmt.Errorf("generating with %s: %w", s.name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("generating with %s: empty response", s.name)
	}
	return resp.Choices[0].Content, nil
}

// ModelName returns the model name.
func (s *LLMService) ModelName() string {
	return s.name
}

// Close releases the provider client.
func (s *LLMService) Close() error {
	if c, ok := s.model.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// messageType maps a chat role to the langchaingo message type.
func messageType(role string) llms.ChatMessageType {
	switch role {
	case driven.RoleSystem:
		return llms.ChatMessageTypeSystem
	case driven.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

// newModel creates the provider model.
func newModel(ctx context.Context, settings domain.LLMSettings) (llms.Model, error) {
	switch settings.Provider {
	case domain.AIProviderGoogleAI:
		opts := []googleai.Option{googleai.WithDefaultModel(settings.Model)}
		if settings.APIKey != "" {
			opts = append(opts, googleai.WithAPIKey(settings.APIKey))
		}
		return googleai.New(ctx, opts...)

	case domain.AIProviderOpenAI:
		opts := []openai.Option{openai.WithModel(settings.Model)}
		if settings.APIKey != "" {
			opts = append(opts, openai.WithToken(settings.APIKey))
		}
		if settings.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(settings.BaseURL))
		}
		return openai.New(opts...)

	case domain.AIProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithModel(settings.Model)}
		if settings.APIKey != "" {
			opts = append(opts, anthropic.WithToken(settings.APIKey))
		}
		if settings.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(settings.BaseURL))
		}
		return anthropic.New(opts...)

	case domain.AIProviderOllama:
		opts := []ollama.Option{ollama.WithModel(settings.Model)}
		if settings.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(settings.BaseURL))
		}
		return ollama.New(opts...)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
