package llm

import "context"

// Provider generates a companion reply from a system prompt and a
// conversation.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

type Request struct {
	System   string
	Messages []Message

	MaxTokens int
	// Temperature in [0, 1]. Zero leaves the provider default in place.
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Response struct {
	Text  string
	Usage Usage
	Model string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
