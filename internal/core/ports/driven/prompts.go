package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptChatSystem is the fixed instruction sent before every question.
	// This prompt has no placeholders.
	PromptChatSystem = "chat_system"

	// PromptChatUser wraps the retrieved context and the question.
	// The template expects {context} and {question} placeholders.
	PromptChatUser = "chat_user"
)
