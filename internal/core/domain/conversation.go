package domain

import "time"

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a session's conversation.
type Turn struct {
	Role      Role
	Content   string
	CreatedAt time.Time
}

// Answer is the result of a successful question.
type Answer struct {
	// Question is the question as asked.
	Question string

	// Text is the model's answer.
	Text string

	// Sources are the retrieved segments the answer was conditioned on.
	Sources []RetrievedSegment
}
