package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/core/ports/driving"
	"github.com/ragify/ragify/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// Prompt template placeholders.
const (
	placeholderContext  = "{context}"
	placeholderQuestion = "{question}"
)

// ChatService answers questions from a session's index.
type ChatService struct {
	retriever   *Retriever
	llmService  driven.LLMService
	prompts     driven.PromptStore
	temperature float64
	now         func() time.Time
}

// NewChatService creates a chat service.
func NewChatService(
	retriever *Retriever,
	llmService driven.LLMService,
	prompts driven.PromptStore,
	temperature float64,
) *ChatService {
	return &ChatService{
		retriever:   retriever,
		llmService:  llmService,
		prompts:     prompts,
		temperature: temperature,
		now:         time.Now,
	}
}

// Answer retrieves context for the question and asks the model. On
// success the question and the answer are appended to the conversation;
// on failure the conversation is left untouched.
func (c *ChatService) Answer(ctx context.Context, sess *driving.Session, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	sess.Lock()
	defer sess.Unlock()

	logger.Section("Answer")

	state, err := c.state(ctx, sess)
	if err != nil {
		return nil, err
	}
	if state != domain.SessionReady {
		return nil, domain.ErrNotReady
	}

	sources, err := c.retriever.Retrieve(ctx, sess.Index, question, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAnswerFailed, err)
	}

	messages, err := c.compose(question, sources)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAnswerFailed, err)
	}

	text, err := c.llmService.Chat(ctx, messages, driven.ChatOptions{Temperature: c.temperature})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAnswerFailed, err)
	}

	now := c.now()
	if err := sess.State.AppendTurns(ctx,
		domain.Turn{Role: domain.RoleUser, Content: question, CreatedAt: now},
		domain.Turn{Role: domain.RoleAssistant, Content: text, CreatedAt: now},
	); err != nil {
		return nil, fmt.Errorf("record conversation: %w", err)
	}

	logger.Debug("answered with %d context segments using %s", len(sources), c.llmService.ModelName())
	return &domain.Answer{Question: question, Text: text, Sources: sources}, nil
}

// Retrieve returns the k segments most similar to the query.
func (c *ChatService) Retrieve(
	ctx context.Context, sess *driving.Session, query string, k int,
) ([]domain.RetrievedSegment, error) {
	return c.retriever.Retrieve(ctx, sess.Index, query, k)
}

// State returns whether the session can answer questions.
func (c *ChatService) State(ctx context.Context, sess *driving.Session) (domain.SessionState, error) {
	return c.state(ctx, sess)
}

// History returns the conversation.
func (c *ChatService) History(ctx context.Context, sess *driving.Session) ([]domain.Turn, error) {
	return sess.State.ListTurns(ctx)
}

// ClearHistory empties the conversation, keeping the index.
func (c *ChatService) ClearHistory(ctx context.Context, sess *driving.Session) error {
	sess.Lock()
	defer sess.Unlock()
	return sess.State.ClearTurns(ctx)
}

func (c *ChatService) state(ctx context.Context, sess *driving.Session) (domain.SessionState, error) {
	n, err := sess.Index.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("count records: %w", err)
	}
	return domain.StateFor(n), nil
}

// compose builds the system and user messages for a question.
func (c *ChatService) compose(question string, sources []domain.RetrievedSegment) ([]driven.ChatMessage, error) {
	system, err := c.prompts.Load(driven.PromptChatSystem)
	if err != nil {
		return nil, fmt.Errorf("load system prompt: %w", err)
	}
	user, err := c.prompts.Load(driven.PromptChatUser)
	if err != nil {
		return nil, fmt.Errorf("load user prompt: %w", err)
	}

	texts := make([]string, len(sources))
	for i, src := range sources {
		texts[i] = src.Segment.Content
	}

	// Single pass: placeholders inside the substituted text stay literal.
	user = strings.NewReplacer(
		placeholderContext, strings.Join(texts, "\n\n"),
		placeholderQuestion, question,
	).Replace(user)

	return []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		{Role: driven.RoleUser, Content: user},
	}, nil
}
