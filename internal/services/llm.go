package services

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a provider-agnostic role-tagged message.
type ChatMessage struct {
	Role    string
	Content string
}

// LLMClient is the minimal capability the evaluation pipeline needs from a
// language model provider. Implementations are swappable: the real Gemini
// client, the retry decorator, and test fakes all satisfy it.
type LLMClient interface {
	// Chat sends role-tagged messages and returns the completion text.
	Chat(ctx context.Context, messages []ChatMessage, temperature float64) (string, error)

	// Embed turns text into a fixed-length vector.
	Embed(ctx context.Context, text string) ([]float64, error)
}
