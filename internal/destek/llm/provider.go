// Package llm defines the text-generation provider interface used by the
// retrieval-augmented responder, together with an OpenAI-compatible
// implementation.
package llm

import "context"

// Role is the role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a completion request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a single inference call.
type CompletionRequest struct {
	// Model overrides the provider's default model when non-empty.
	Model string
	// Messages is the prompt, oldest first.
	Messages []Message
	// Temperature is passed through verbatim; the responder pins it to 0.
	Temperature float64
}

// CompletionResponse is the provider's answer.
type CompletionResponse struct {
	// Content is the generated text.
	Content string
	// PromptTokens / CompletionTokens are usage counters when reported.
	PromptTokens     int
	CompletionTokens int
}

// Provider generates text completions.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
