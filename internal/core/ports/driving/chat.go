package driving

import (
	"context"

	"github.com/ragify/ragify/internal/core/domain"
)

// ChatService answers questions over a session's index.
type ChatService interface {
	// Answer retrieves context for the question and asks the model.
	// Returns domain.ErrNotReady while nothing is indexed.
	Answer(ctx context.Context, sess *Session, question string) (*domain.Answer, error)

	// Retrieve returns the k segments most similar to the query.
	// k <= 0 uses the configured default.
	Retrieve(ctx context.Context, sess *Session, query string, k int) ([]domain.RetrievedSegment, error)

	// State returns whether the session can answer questions.
	State(ctx context.Context, sess *Session) (domain.SessionState, error)

	// History returns the conversation.
	History(ctx context.Context, sess *Session) ([]domain.Turn, error)

	// ClearHistory empties the conversation, keeping the index.
	ClearHistory(ctx context.Context, sess *Session) error
}
