package driven

import "context"

// ChatMessage is a single turn in a chat conversation.
type ChatMessage struct {
	Role    string // "system", "user", or "assistant"
	Content string
}

// ChatService produces answers from a chat completion model.
// Used by the answer flow to turn retrieved note context into prose.
type ChatService interface {
	// Chat sends the conversation and returns the model's reply.
	Chat(ctx context.Context, messages []ChatMessage) (string, error)

	// ModelName returns the name of the chat model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
