package groq

import "context"

// IGroq defines the interface for the Groq LLM client.
type IGroq interface {
	// Complete builds a chat completion from a system prompt plus conversation
	// history and returns the assistant's text.
	Complete(ctx context.Context, systemPrompt string, history []Message) (string, error)

	// Model returns the configured model name.
	Model() string
}
