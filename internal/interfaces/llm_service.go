package interfaces

import (
	"context"
)

// LLMMode represents the operational mode of the LLM service
type LLMMode string

const (
	// LLMModeCloud indicates the service uses cloud-based LLM APIs
	LLMModeCloud LLMMode = "cloud"

	// LLMModeOffline indicates the service uses local/offline LLM models
	LLMModeOffline LLMMode = "offline"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for language model operations: plain chat
// completions and single-image vision completions. Implementations are
// constructed once with an injectable credential and passed by reference,
// so tests can substitute a deterministic fake.
type LLMService interface {
	// Chat generates a completion response based on the conversation history.
	// The messages slice should contain the full conversation context in
	// chronological order, including system prompts, user messages, and
	// previous assistant responses.
	Chat(ctx context.Context, messages []Message) (string, error)

	// Vision generates a completion for a single user turn combining the
	// prompt text with one inlined base64-encoded PNG image.
	Vision(ctx context.Context, prompt string, imagePNGBase64 string) (string, error)

	// HealthCheck verifies the LLM service is operational and can handle
	// requests. For cloud services, this checks API connectivity and
	// authentication.
	HealthCheck(ctx context.Context) error

	// GetMode returns the current operational mode of the LLM service.
	GetMode() LLMMode

	// Close releases resources and performs cleanup operations.
	Close() error
}
