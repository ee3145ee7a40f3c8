package port

import "context"

// LLM represents a language model that can keep server-side conversations.
type LLM interface {
	// Generate produces text for the prompt. When req.ConversationID is set the
	// backend appends the exchange to that conversation.
	Generate(ctx context.Context, req GenerateRequest) (Generation, error)

	// CreateConversation starts a conversation seeded with a system prompt.
	CreateConversation(ctx context.Context, systemPrompt string) (string, error)

	// DeleteConversation removes a conversation from the backend.
	DeleteConversation(ctx context.Context, id string) error

	// ModelName returns the name of the model.
	ModelName() string
}

type GenerateRequest struct {
	Prompt         string
	ConversationID string
}

// Generation is the model output. Text is empty when the backend returned none.
type Generation struct {
	Text           string
	ConversationID string
}
